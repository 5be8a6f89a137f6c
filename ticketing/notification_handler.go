package ticketing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aditbap/eventhub-sub000/entity"
	"github.com/aditbap/eventhub-sub000/metrics"
)

type GatewayNotificationLog interface {
	Store(ctx context.Context, notification entity.GatewayNotification) (stored bool, err error)
}

type SignatureVerifier func(orderID, statusCode, grossAmount, signature string) bool

type NotificationItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// GatewayNotificationPayload is the subset of the gateway's notification we rely on.
type GatewayNotificationPayload struct {
	OrderID           string             `json:"order_id"`
	TransactionID     string             `json:"transaction_id"`
	TransactionStatus string             `json:"transaction_status"`
	FraudStatus       string             `json:"fraud_status"`
	StatusCode        string             `json:"status_code"`
	GrossAmount       string             `json:"gross_amount"`
	SignatureKey      string             `json:"signature_key"`
	CustomField1      string             `json:"custom_field1"`
	ItemDetails       []NotificationItem `json:"item_details"`
}

type NotificationResult struct {
	Success       bool
	Message       string
	TicketID      string
	AlreadyExists bool
}

func acknowledged(message string) NotificationResult {
	return NotificationResult{Success: true, Message: message}
}

// NotificationHandler processes at-least-once gateway deliveries. Only unexpected internal
// faults are returned as errors so the gateway does not retry on bad payloads.
type NotificationHandler struct {
	events          EventsRepository
	users           UsersRepository
	gateway         PaymentGateway
	notificationLog GatewayNotificationLog
	verifySignature SignatureVerifier
	issuer          Issuer
}

func NewNotificationHandler(
	events EventsRepository,
	users UsersRepository,
	gateway PaymentGateway,
	notificationLog GatewayNotificationLog,
	verifySignature SignatureVerifier,
	issuer Issuer,
) NotificationHandler {
	if events == nil {
		panic("missing events repository")
	}
	if users == nil {
		panic("missing users repository")
	}
	if gateway == nil {
		panic("missing payment gateway")
	}
	if notificationLog == nil {
		panic("missing gateway notification log")
	}
	if verifySignature == nil {
		panic("missing signature verifier")
	}

	return NotificationHandler{
		events:          events,
		users:           users,
		gateway:         gateway,
		notificationLog: notificationLog,
		verifySignature: verifySignature,
		issuer:          issuer,
	}
}

func (h NotificationHandler) Handle(ctx context.Context, rawPayload []byte) (NotificationResult, error) {
	logger := log.FromContext(ctx)

	var payload GatewayNotificationPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		logger.WithError(err).Warn("Malformed gateway notification, acknowledging")
		return acknowledged("malformed notification ignored"), nil
	}
	if payload.OrderID == "" || payload.TransactionStatus == "" {
		logger.Warn("Gateway notification without order id or status, acknowledging")
		return acknowledged("incomplete notification ignored"), nil
	}

	logger = logger.WithFields(logrus.Fields{
		"order_id":           payload.OrderID,
		"transaction_status": payload.TransactionStatus,
		"fraud_status":       payload.FraudStatus,
	})

	if !h.gateway.Configured() {
		logger.Warn("Gateway notification received while gateway is not configured, ignoring")
		return acknowledged("payment gateway not configured, notification ignored"), nil
	}
	if !h.verifySignature(payload.OrderID, payload.StatusCode, payload.GrossAmount, payload.SignatureKey) {
		return NotificationResult{}, ErrInvalidSignature
	}

	status := entity.TransactionStatus(payload.TransactionStatus)
	metricStatus := string(status)
	if !status.Recognized() {
		metricStatus = "unrecognized"
	}
	metrics.GatewayNotifications.WithLabelValues(metricStatus).Inc()

	_, err := h.notificationLog.Store(ctx, entity.GatewayNotification{
		ID:                notificationID(payload),
		OrderID:           payload.OrderID,
		TransactionStatus: payload.TransactionStatus,
		Payload:           rawPayload,
		ReceivedAt:        time.Now().UTC(),
	})
	if err != nil {
		return NotificationResult{}, fmt.Errorf("could not store gateway notification: %w", err)
	}

	switch entity.ResolvePayment(status, entity.FraudStatus(payload.FraudStatus)) {
	case entity.PaymentPending:
		logger.Info("Payment pending")
		return acknowledged("payment pending"), nil
	case entity.PaymentNotConfirmed:
		logger.Info("Payment not confirmed, no ticket issued")
		return acknowledged("payment not confirmed"), nil
	}

	customData, err := entity.ParseCustomData(payload.CustomField1)
	if err != nil {
		logger.WithError(err).Warn("Confirmed payment without usable custom data, acknowledging")
		return acknowledged("missing custom data"), nil
	}
	if len(payload.ItemDetails) == 0 {
		logger.Warn("Confirmed payment without item details, acknowledging")
		return acknowledged("missing item details"), nil
	}

	logger = logger.WithFields(logrus.Fields{
		"event_id": customData.EventID,
		"user_id":  customData.UserID,
	})

	// custom_field1 is outside the signature, so it must agree with the signed order id
	if !entity.OrderIDBelongsTo(payload.OrderID, customData.EventID, customData.UserID) {
		logger.Warn("Order id was not issued for the event and user in custom data, acknowledging")
		return acknowledged("order does not match custom data"), nil
	}

	event, ok := h.event(ctx, customData, payload.ItemDetails[0])
	if !ok {
		return acknowledged("event snapshot unavailable"), nil
	}

	grossAmount, err := decimal.NewFromString(payload.GrossAmount)
	if err != nil || grossAmount.LessThan(event.Price) {
		logger.WithField("gross_amount", payload.GrossAmount).Error("Gross amount does not cover event price, no ticket issued")
		return acknowledged("gross amount mismatch"), nil
	}

	var transactionID *string
	if payload.TransactionID != "" {
		transactionID = &payload.TransactionID
	}

	issued, err := h.issuer.Issue(ctx, IssueRequest{
		Registrant:    lookupRegistrant(ctx, h.users, customData.UserID),
		Event:         event,
		OrderID:       payload.OrderID,
		TransactionID: transactionID,
		Path:          PathWebhook,
	})
	if err != nil {
		// the verifier path can still issue the ticket, a retry storm would not help
		logger.WithError(err).Error("Could not issue ticket from gateway notification")
		return NotificationResult{Success: false, Message: "ticket issuance failed"}, nil
	}

	return NotificationResult{
		Success:       true,
		Message:       "ticket issued",
		TicketID:      issued.TicketID,
		AlreadyExists: issued.AlreadyExists,
	}, nil
}

// event prefers the stored record and falls back to the snapshot carried through the gateway.
func (h NotificationHandler) event(ctx context.Context, customData entity.CustomData, item NotificationItem) (entity.Event, bool) {
	logger := log.FromContext(ctx).WithField("event_id", customData.EventID)

	event, err := h.events.Get(ctx, customData.EventID)
	if err == nil {
		return event, true
	}
	if !errors.Is(err, entity.ErrNotFound) {
		logger.WithError(err).Error("Could not get event")
		return entity.Event{}, false
	}

	if item.Name == "" {
		logger.Warn("Event not found and item details carry no name")
		return entity.Event{}, false
	}

	logger.Warn("Event not found, using snapshot from gateway notification")

	return entity.Event{
		ID:        customData.EventID,
		Title:     item.Name,
		Date:      customData.EventDate,
		Time:      customData.EventTime,
		Location:  customData.EventLocation,
		Price:     item.Price,
		CreatorID: customData.EventCreatorID,
	}, true
}

func notificationID(payload GatewayNotificationPayload) string {
	id := payload.TransactionID
	if id == "" {
		id = payload.OrderID
	}
	return id + "-" + payload.TransactionStatus + "-" + payload.StatusCode
}
