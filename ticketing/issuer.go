package ticketing

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aditbap/eventhub-sub000/entity"
	"github.com/aditbap/eventhub-sub000/metrics"
)

const (
	PathFree    = "free"
	PathVerify  = "verify"
	PathWebhook = "webhook"
)

type TicketsRepository interface {
	InsertIfAbsent(
		ctx context.Context,
		ticket entity.Ticket,
		registrant entity.Registrant,
		notifications []entity.Notification,
	) (ticketID string, alreadyExists bool, err error)
}

type IssueRequest struct {
	Registrant    entity.Registrant
	Event         entity.Event
	OrderID       string
	TransactionID *string

	// Path labels metrics with the entry point that asked for issuance.
	Path string
}

type IssueResult struct {
	TicketID      string
	AlreadyExists bool
}

// Issuer is the only writer of tickets and ticket notifications.
// Issuing twice for the same order id yields one ticket.
type Issuer struct {
	tickets TicketsRepository
	now     func() time.Time
}

func NewIssuer(tickets TicketsRepository) Issuer {
	if tickets == nil {
		panic("missing tickets repository")
	}

	return Issuer{
		tickets: tickets,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (i Issuer) Issue(ctx context.Context, req IssueRequest) (IssueResult, error) {
	if req.OrderID == "" {
		return IssueResult{}, invalidRequest("order id is required")
	}
	if req.Registrant.UserID == "" {
		return IssueResult{}, invalidRequest("registrant is required")
	}

	now := i.now()
	ticketID := uuid.NewString()

	ticket := entity.Ticket{
		ID:                    ticketID,
		UserID:                req.Registrant.UserID,
		EventID:               req.Event.ID,
		EventName:             req.Event.Title,
		EventDate:             req.Event.Date,
		EventTime:             req.Event.Time,
		EventLocation:         req.Event.Location,
		EventImageURL:         req.Event.ImageURL,
		EventImageHint:        req.Event.ImageHint,
		QRCodeRef:             entity.QRCodeRef(ticketID),
		PurchasedAt:           now,
		MidtransOrderID:       req.OrderID,
		MidtransTransactionID: req.TransactionID,
	}

	id, alreadyExists, err := i.tickets.InsertIfAbsent(ctx, ticket, req.Registrant, issuanceNotifications(req, now))
	if err != nil {
		return IssueResult{}, fmt.Errorf("could not issue ticket for order %s: %w", req.OrderID, err)
	}

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"order_id":  req.OrderID,
		"ticket_id": id,
		"event_id":  req.Event.ID,
		"user_id":   req.Registrant.UserID,
		"path":      req.Path,
	})
	if alreadyExists {
		metrics.TicketsDuplicateIssuance.WithLabelValues(req.Path).Inc()
		logger.Info("Ticket already issued for order")
	} else {
		metrics.TicketsIssued.WithLabelValues(req.Path).Inc()
		logger.Info("Ticket issued")
	}

	return IssueResult{
		TicketID:      id,
		AlreadyExists: alreadyExists,
	}, nil
}

func issuanceNotifications(req IssueRequest, now time.Time) []entity.Notification {
	eventID := req.Event.ID

	notifications := []entity.Notification{
		{
			ID:        uuid.NewString(),
			UserID:    req.Registrant.UserID,
			Category:  entity.NotificationTicketIssued,
			Title:     "Your ticket is ready",
			Message:   fmt.Sprintf("You're registered for %s on %s. Show your QR code at the entrance.", req.Event.Title, req.Event.Date),
			EventID:   &eventID,
			CreatedAt: now,
		},
	}

	// organizers registering for their own event get a single notification
	if !req.Event.HasCreator() || *req.Event.CreatorID == req.Registrant.UserID {
		return notifications
	}

	registrantID := req.Registrant.UserID
	registrantName := req.Registrant.DisplayName
	var registrantAvatar *string
	if req.Registrant.AvatarURL != "" {
		avatar := req.Registrant.AvatarURL
		registrantAvatar = &avatar
	}

	return append(notifications, entity.Notification{
		ID:                uuid.NewString(),
		UserID:            *req.Event.CreatorID,
		Category:          entity.NotificationSocial,
		Title:             "New registrant",
		Message:           fmt.Sprintf("%s registered for %s.", registrantName, req.Event.Title),
		EventID:           &eventID,
		RelatedUserID:     &registrantID,
		RelatedUserName:   &registrantName,
		RelatedUserAvatar: registrantAvatar,
		CreatedAt:         now,
	})
}
