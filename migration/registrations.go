package migrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"

	"github.com/aditbap/eventhub-sub000/entity"
)

type TicketsHistory interface {
	FindByEvent(ctx context.Context, eventID string) ([]entity.Ticket, error)
}

type UsersRepository interface {
	Get(ctx context.Context, userID string) (entity.User, error)
}

type RegistrationsProjection interface {
	OnTicketIssued(ctx context.Context, event *entity.TicketIssued_v1) error
	OnTicketDeleted(ctx context.Context, event *entity.TicketDeleted_v1) error
}

// RegistrationsMigration rebuilds the registrations read model of an event from the tickets table.
// It replays the same events the projection consumes, so it is safe to run next to live traffic.
type RegistrationsMigration struct {
	tickets    TicketsHistory
	users      UsersRepository
	projection RegistrationsProjection
}

func NewRegistrationsMigration(
	tickets TicketsHistory,
	users UsersRepository,
	projection RegistrationsProjection,
) RegistrationsMigration {
	if tickets == nil {
		panic("missing tickets history")
	}
	if users == nil {
		panic("missing users repository")
	}
	if projection == nil {
		panic("missing registrations projection")
	}

	return RegistrationsMigration{
		tickets:    tickets,
		users:      users,
		projection: projection,
	}
}

func (m RegistrationsMigration) Rebuild(ctx context.Context, eventID string) error {
	start := time.Now()
	logger := log.FromContext(ctx).WithField("event_id", eventID)

	tickets, err := m.tickets.FindByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("could not get tickets of event %s: %w", eventID, err)
	}

	logger.WithField("tickets_count", len(tickets)).Info("Rebuilding registrations")

	names := map[string]string{}

	for _, ticket := range tickets {
		name, ok := names[ticket.UserID]
		if !ok {
			name = m.displayName(ctx, ticket.UserID)
			names[ticket.UserID] = name
		}

		err := m.projection.OnTicketIssued(ctx, &entity.TicketIssued_v1{
			Header:   entity.NewEventHeaderWithIdempotencyKey(ticket.MidtransOrderID),
			TicketID: ticket.ID,
			UserID:   ticket.UserID,
			UserName: name,
			EventID:  ticket.EventID,
			OrderID:  ticket.MidtransOrderID,
			IssuedAt: ticket.PurchasedAt,
		})
		if err != nil {
			return fmt.Errorf("could not replay issuance of ticket %s: %w", ticket.ID, err)
		}

		if ticket.DeletedAt == nil {
			continue
		}

		err = m.projection.OnTicketDeleted(ctx, &entity.TicketDeleted_v1{
			Header:   entity.NewEventHeaderWithIdempotencyKey("delete-" + ticket.ID),
			TicketID: ticket.ID,
			UserID:   ticket.UserID,
			EventID:  ticket.EventID,
		})
		if err != nil {
			return fmt.Errorf("could not replay deletion of ticket %s: %w", ticket.ID, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"duration": time.Since(start),
	}).Info("Registrations rebuilt")

	return nil
}

func (m RegistrationsMigration) displayName(ctx context.Context, userID string) string {
	user, err := m.users.Get(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		return entity.DefaultDisplayName
	}
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("user_id", userID).Warn("Could not get registrant, using default name")
		return entity.DefaultDisplayName
	}

	return entity.RegistrantFromUser(user).DisplayName
}
