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
	"github.com/aditbap/eventhub-sub000/metrics"
)

const FreeTicketStatus = "free_ticket"

type UsersRepository interface {
	Get(ctx context.Context, userID string) (entity.User, error)
}

type EventDetails struct {
	ID        string           `json:"id" validate:"required"`
	Title     string           `json:"title"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	Location  string           `json:"location"`
	ImageURL  string           `json:"imageUrl"`
	ImageHint string           `json:"imageHint"`
	Price     *decimal.Decimal `json:"price"`
}

type VerifyPaymentRequest struct {
	OrderID                 string       `json:"order_id" validate:"required"`
	ClientTransactionStatus string       `json:"clientTransactionStatus"`
	EventDetails            EventDetails `json:"eventDetails"`
	UserID                  string       `json:"userId" validate:"required"`
}

type VerifyPaymentResult struct {
	TicketID      string
	AlreadyExists bool
}

// Verifier never trusts the client's claim of payment, it re-queries the gateway
// for every non-free event.
type Verifier struct {
	events        EventsRepository
	users         UsersRepository
	gateway       PaymentGateway
	issuer        Issuer
	statusTimeout time.Duration
}

func NewVerifier(
	events EventsRepository,
	users UsersRepository,
	gateway PaymentGateway,
	issuer Issuer,
	statusTimeout time.Duration,
) Verifier {
	if events == nil {
		panic("missing events repository")
	}
	if users == nil {
		panic("missing users repository")
	}
	if gateway == nil {
		panic("missing payment gateway")
	}
	if statusTimeout <= 0 {
		statusTimeout = 10 * time.Second
	}

	return Verifier{
		events:        events,
		users:         users,
		gateway:       gateway,
		issuer:        issuer,
		statusTimeout: statusTimeout,
	}
}

func (v Verifier) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (result VerifyPaymentResult, err error) {
	defer func() {
		metrics.PaymentVerifications.WithLabelValues(verificationOutcome(err)).Inc()
	}()

	if err := validateRequest(req); err != nil {
		return VerifyPaymentResult{}, err
	}
	if !entity.OrderIDBelongsTo(req.OrderID, req.EventDetails.ID, req.UserID) {
		return VerifyPaymentResult{}, invalidRequest("order_id does not belong to this event and user")
	}

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"order_id": req.OrderID,
		"event_id": req.EventDetails.ID,
		"user_id":  req.UserID,
	})

	event, err := v.events.Get(ctx, req.EventDetails.ID)
	if errors.Is(err, entity.ErrNotFound) {
		return VerifyPaymentResult{}, fmt.Errorf("%w: %s", ErrEventNotFound, req.EventDetails.ID)
	}
	if err != nil {
		return VerifyPaymentResult{}, fmt.Errorf("could not get event: %w", err)
	}

	registrant := lookupRegistrant(ctx, v.users, req.UserID)

	if req.ClientTransactionStatus == FreeTicketStatus {
		if event.IsFree() {
			issued, err := v.issuer.Issue(ctx, IssueRequest{
				Registrant: registrant,
				Event:      event,
				OrderID:    req.OrderID,
				Path:       PathFree,
			})
			if err != nil {
				return VerifyPaymentResult{}, err
			}
			return VerifyPaymentResult(issued), nil
		}

		logger.WithField("event_price", event.Price.String()).Warn("Free ticket claimed for a paid event, checking gateway")
	}

	if !v.gateway.Configured() {
		return VerifyPaymentResult{}, ErrGatewayNotConfigured
	}

	statusCtx, cancel := context.WithTimeout(ctx, v.statusTimeout)
	defer cancel()

	tx, err := v.gateway.TransactionStatus(statusCtx, req.OrderID)
	if err != nil {
		return VerifyPaymentResult{}, fmt.Errorf("%w: %w", ErrGatewayFailure, err)
	}

	switch tx.Outcome() {
	case entity.PaymentPending:
		return VerifyPaymentResult{}, ErrPaymentPending
	case entity.PaymentNotConfirmed:
		return VerifyPaymentResult{}, &PaymentNotConfirmedError{
			Status:      string(tx.Status),
			FraudStatus: string(tx.FraudStatus),
		}
	}

	if tx.GrossAmount.LessThan(event.Price) {
		logger.WithFields(logrus.Fields{
			"gross_amount": tx.GrossAmount.String(),
			"event_price":  event.Price.String(),
		}).Error("Gross amount is lower than event price")

		return VerifyPaymentResult{}, &PaymentNotConfirmedError{
			Status:      string(tx.Status),
			FraudStatus: string(tx.FraudStatus),
			Reason:      "gross amount does not cover event price",
		}
	}

	var transactionID *string
	if tx.TransactionID != "" {
		transactionID = &tx.TransactionID
	}

	issued, err := v.issuer.Issue(ctx, IssueRequest{
		Registrant:    registrant,
		Event:         event,
		OrderID:       req.OrderID,
		TransactionID: transactionID,
		Path:          PathVerify,
	})
	if err != nil {
		return VerifyPaymentResult{}, err
	}

	return VerifyPaymentResult(issued), nil
}

// lookupRegistrant falls back to a default display name so an incomplete profile never blocks issuance.
func lookupRegistrant(ctx context.Context, users UsersRepository, userID string) entity.Registrant {
	user, err := users.Get(ctx, userID)
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("user_id", userID).Warn("Registrant not found, using default display name")
		return entity.AnonymousRegistrant(userID)
	}

	return entity.RegistrantFromUser(user)
}

func verificationOutcome(err error) string {
	var notConfirmed *PaymentNotConfirmedError
	switch {
	case err == nil:
		return "issued"
	case errors.Is(err, ErrPaymentPending):
		return "pending"
	case errors.As(err, &notConfirmed):
		return "not_confirmed"
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrEventNotFound):
		return "rejected"
	default:
		return "error"
	}
}
