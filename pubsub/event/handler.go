package event

import (
	"context"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/sirupsen/logrus"

	"github.com/aditbap/eventhub-sub000/entity"
)

type RegistrationsReadModel interface {
	OnTicketIssued(ctx context.Context, event *entity.TicketIssued_v1) error
	OnTicketDeleted(ctx context.Context, event *entity.TicketDeleted_v1) error
}

type Handler struct {
	registrations RegistrationsReadModel
}

func NewHandler(registrations RegistrationsReadModel) Handler {
	if registrations == nil {
		panic("missing registrations read model")
	}

	return Handler{registrations: registrations}
}

func (h Handler) Handlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler("registrations_read_model.OnTicketIssued", h.AddRegistrant),
		cqrs.NewEventHandler("registrations_read_model.OnTicketDeleted", h.RemoveRegistrant),
	}
}

func (h Handler) AddRegistrant(ctx context.Context, event *entity.TicketIssued_v1) error {
	log.FromContext(ctx).WithFields(logrus.Fields{
		"event_id":  event.EventID,
		"ticket_id": event.TicketID,
	}).Info("Adding registrant")

	return h.registrations.OnTicketIssued(ctx, event)
}

func (h Handler) RemoveRegistrant(ctx context.Context, event *entity.TicketDeleted_v1) error {
	log.FromContext(ctx).WithFields(logrus.Fields{
		"event_id":  event.EventID,
		"ticket_id": event.TicketID,
	}).Info("Removing registrant")

	return h.registrations.OnTicketDeleted(ctx, event)
}
