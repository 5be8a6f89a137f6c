package ticketing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aditbap/eventhub-sub000/entity"
)

const mockTokenPrefix = "MOCK-SNAP-TOKEN-"

type EventsRepository interface {
	Get(ctx context.Context, eventID string) (entity.Event, error)
}

type PaymentGateway interface {
	Configured() bool
	CreateTransaction(ctx context.Context, request entity.CheckoutRequest) (entity.Checkout, error)
	TransactionStatus(ctx context.Context, orderID string) (entity.GatewayTransaction, error)
}

type CreateTransactionRequest struct {
	EventID       string           `json:"eventId" validate:"required"`
	EventTitle    string           `json:"eventTitle" validate:"required"`
	EventPrice    *decimal.Decimal `json:"eventPrice" validate:"required"`
	EventDate     string           `json:"eventDate" validate:"required"`
	EventTime     string           `json:"eventTime"`
	EventLocation string           `json:"eventLocation" validate:"required"`
	UserID        string           `json:"userId" validate:"required"`
	UserEmail     string           `json:"userEmail" validate:"required,email"`
	UserName      string           `json:"userName" validate:"required"`
	UserPhone     string           `json:"userPhone"`
}

type CreateTransactionResult struct {
	SnapToken string
	OrderID   string
	IsFree    bool

	// IsMock marks a placeholder token issued while the gateway is not configured.
	// It can never be confirmed.
	IsMock bool
}

type Initiator struct {
	events  EventsRepository
	gateway PaymentGateway
	now     func() time.Time
}

func NewInitiator(events EventsRepository, gateway PaymentGateway) Initiator {
	if events == nil {
		panic("missing events repository")
	}
	if gateway == nil {
		panic("missing payment gateway")
	}

	return Initiator{
		events:  events,
		gateway: gateway,
		now:     time.Now,
	}
}

func (i Initiator) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (CreateTransactionResult, error) {
	if err := validateRequest(req); err != nil {
		return CreateTransactionResult{}, err
	}
	if req.EventPrice.IsNegative() {
		return CreateTransactionResult{}, invalidRequest("eventPrice must not be negative")
	}

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"event_id": req.EventID,
		"user_id":  req.UserID,
	})

	price := *req.EventPrice
	var creatorID *string

	event, err := i.events.Get(ctx, req.EventID)
	if err != nil {
		// the organizer notification is skipped downstream
		logger.WithError(err).Warn("Could not look up event creator, proceeding without it")
	} else {
		creatorID = event.CreatorID
		if !event.Price.Equal(price) {
			logger.WithFields(logrus.Fields{
				"client_price": price.String(),
				"event_price":  event.Price.String(),
			}).Warn("Client price differs from event price, using event price")
			price = event.Price
		}
	}

	orderID := entity.NewOrderID(req.EventID, req.UserID, i.now())
	logger = logger.WithField("order_id", orderID)

	if !price.IsPositive() {
		logger.Info("Free event, payment bypassed")
		return CreateTransactionResult{
			OrderID: orderID,
			IsFree:  true,
		}, nil
	}

	customData, err := entity.CustomData{
		EventID:        req.EventID,
		UserID:         req.UserID,
		EventDate:      req.EventDate,
		EventTime:      req.EventTime,
		EventLocation:  req.EventLocation,
		EventCreatorID: creatorID,
	}.Encode()
	if errors.Is(err, entity.ErrCustomDataTooLong) {
		return CreateTransactionResult{}, invalidRequest("%s", err.Error())
	}
	if err != nil {
		return CreateTransactionResult{}, err
	}

	if !i.gateway.Configured() {
		logger.Warn("Payment gateway is not configured, returning placeholder token")
		return CreateTransactionResult{
			SnapToken: mockTokenPrefix + orderID,
			OrderID:   orderID,
			IsMock:    true,
		}, nil
	}

	checkout, err := i.gateway.CreateTransaction(ctx, entity.CheckoutRequest{
		OrderID:     orderID,
		GrossAmount: price,
		Item: entity.CheckoutItem{
			ID:       req.EventID,
			Name:     req.EventTitle,
			Price:    price,
			Quantity: 1,
		},
		Customer: entity.CheckoutCustomer{
			Name:  req.UserName,
			Email: req.UserEmail,
			Phone: req.UserPhone,
		},
		CustomData: customData,
	})
	if err != nil {
		return CreateTransactionResult{}, fmt.Errorf("%w: %w", ErrGatewayFailure, err)
	}

	logger.Info("Checkout created")

	return CreateTransactionResult{
		SnapToken: checkout.Token,
		OrderID:   orderID,
	}, nil
}

// GatewayDetail returns the gateway-provided message carried by err, if any.
func GatewayDetail(err error) string {
	var detailer GatewayDetailer
	if errors.As(err, &detailer) {
		return detailer.Detail()
	}
	return ""
}
