package ticketing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aditbap/eventhub-sub000/entity"
)

type ticketsRepoFake struct {
	lock sync.Mutex

	tickets       map[string]entity.Ticket
	notifications []entity.Notification
	err           error
}

func newTicketsRepoFake() *ticketsRepoFake {
	return &ticketsRepoFake{tickets: map[string]entity.Ticket{}}
}

func (r *ticketsRepoFake) InsertIfAbsent(
	ctx context.Context,
	ticket entity.Ticket,
	registrant entity.Registrant,
	notifications []entity.Notification,
) (string, bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return "", false, r.err
	}

	if existing, ok := r.tickets[ticket.MidtransOrderID]; ok {
		return existing.ID, true, nil
	}

	r.tickets[ticket.MidtransOrderID] = ticket
	r.notifications = append(r.notifications, notifications...)

	return ticket.ID, false, nil
}

func (r *ticketsRepoFake) count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.tickets)
}

func (r *ticketsRepoFake) ticket(orderID string) (entity.Ticket, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	t, ok := r.tickets[orderID]
	return t, ok
}

func (r *ticketsRepoFake) notificationsFor(userID string) []entity.Notification {
	r.lock.Lock()
	defer r.lock.Unlock()

	var result []entity.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

func (r *ticketsRepoFake) allNotifications() []entity.Notification {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]entity.Notification(nil), r.notifications...)
}

type eventsRepoFake struct {
	events map[string]entity.Event
	err    error
}

func (r eventsRepoFake) Get(ctx context.Context, eventID string) (entity.Event, error) {
	if r.err != nil {
		return entity.Event{}, r.err
	}
	event, ok := r.events[eventID]
	if !ok {
		return entity.Event{}, fmt.Errorf("event %s: %w", eventID, entity.ErrNotFound)
	}
	return event, nil
}

type usersRepoFake struct {
	users map[string]entity.User
}

func (r usersRepoFake) Get(ctx context.Context, userID string) (entity.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return entity.User{}, fmt.Errorf("user %s: %w", userID, entity.ErrNotFound)
	}
	return user, nil
}

type notificationLogFake struct {
	lock sync.Mutex

	stored map[string]entity.GatewayNotification
	err    error
}

func (l *notificationLogFake) Store(ctx context.Context, notification entity.GatewayNotification) (bool, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.err != nil {
		return false, l.err
	}
	if l.stored == nil {
		l.stored = map[string]entity.GatewayNotification{}
	}
	if _, ok := l.stored[notification.ID]; ok {
		return false, nil
	}
	l.stored[notification.ID] = notification
	return true, nil
}

// blockingGateway never answers before the caller's deadline.
type blockingGateway struct{}

func (blockingGateway) Configured() bool { return true }

func (blockingGateway) CreateTransaction(ctx context.Context, request entity.CheckoutRequest) (entity.Checkout, error) {
	<-ctx.Done()
	return entity.Checkout{}, ctx.Err()
}

func (blockingGateway) TransactionStatus(ctx context.Context, orderID string) (entity.GatewayTransaction, error) {
	<-ctx.Done()
	return entity.GatewayTransaction{}, ctx.Err()
}

var errDatabaseDown = errors.New("database down")
