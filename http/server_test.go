package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aditbap/eventhub-sub000/entity"
	eventhubHTTP "github.com/aditbap/eventhub-sub000/http"
	"github.com/aditbap/eventhub-sub000/ticketing"
)

type initiatorStub struct {
	result ticketing.CreateTransactionResult
	err    error
}

func (s initiatorStub) CreateTransaction(ctx context.Context, req ticketing.CreateTransactionRequest) (ticketing.CreateTransactionResult, error) {
	return s.result, s.err
}

type verifierStub struct {
	result ticketing.VerifyPaymentResult
	err    error
}

func (s verifierStub) VerifyPayment(ctx context.Context, req ticketing.VerifyPaymentRequest) (ticketing.VerifyPaymentResult, error) {
	return s.result, s.err
}

type notificationHandlerStub struct {
	result ticketing.NotificationResult
	err    error
}

func (s notificationHandlerStub) Handle(ctx context.Context, rawPayload []byte) (ticketing.NotificationResult, error) {
	return s.result, s.err
}

type ticketsRepoStub struct {
	tickets   []entity.Ticket
	deleteErr error
}

func (s ticketsRepoStub) FindByUser(ctx context.Context, userID string) ([]entity.Ticket, error) {
	return s.tickets, nil
}

func (s ticketsRepoStub) Delete(ctx context.Context, userID, ticketID string) error {
	return s.deleteErr
}

type notificationsRepoStub struct {
	markReadErr error
}

func (s notificationsRepoStub) FindByUser(ctx context.Context, userID string) ([]entity.Notification, error) {
	return nil, nil
}

func (s notificationsRepoStub) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.markReadErr
}

type eventsRepoStub struct {
	stored []entity.Event
}

func (s *eventsRepoStub) Store(ctx context.Context, event entity.Event) error {
	s.stored = append(s.stored, event)
	return nil
}

type usersRepoStub struct{}

func (usersRepoStub) Store(ctx context.Context, user entity.User) error {
	return nil
}

type registrationsStub struct{}

func (registrationsStub) Get(ctx context.Context, eventID string) (entity.EventRegistrations, error) {
	return entity.EventRegistrations{EventID: eventID, Registrants: map[string]entity.Registration{}}, nil
}

type registrationsMigrationStub struct {
	rebuilt []string
}

func (s *registrationsMigrationStub) Rebuild(ctx context.Context, eventID string) error {
	s.rebuilt = append(s.rebuilt, eventID)
	return nil
}

type deps struct {
	initiator     initiatorStub
	verifier      verifierStub
	notifications notificationHandlerStub
	tickets       ticketsRepoStub
	notifRepo     notificationsRepoStub
	events        *eventsRepoStub
	migration     *registrationsMigrationStub
}

func newServer(d deps) *eventhubHTTP.Server {
	if d.events == nil {
		d.events = &eventsRepoStub{}
	}
	if d.migration == nil {
		d.migration = &registrationsMigrationStub{}
	}
	return eventhubHTTP.NewServer(
		":0",
		d.initiator,
		d.verifier,
		d.notifications,
		d.tickets,
		d.notifRepo,
		d.events,
		usersRepoStub{},
		registrationsStub{},
		d.migration,
	)
}

func do(t *testing.T, server *eventhubHTTP.Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}

	return rec, decoded
}

func TestPostVerifyPayment_status_mapping(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedField  string
		expectedValue  any
	}{
		{
			name:           "pending",
			err:            ticketing.ErrPaymentPending,
			expectedStatus: http.StatusAccepted,
			expectedField:  "status",
			expectedValue:  "pending",
		},
		{
			name:           "not_confirmed",
			err:            &ticketing.PaymentNotConfirmedError{Status: "deny"},
			expectedStatus: http.StatusPaymentRequired,
			expectedField:  "status",
			expectedValue:  "deny",
		},
		{
			name:           "invalid_request",
			err:            errors.Join(ticketing.ErrInvalidRequest, errors.New("order_id failed on required")),
			expectedStatus: http.StatusBadRequest,
			expectedField:  "error",
			expectedValue:  "Invalid request",
		},
		{
			name:           "event_not_found",
			err:            ticketing.ErrEventNotFound,
			expectedStatus: http.StatusNotFound,
			expectedField:  "error",
			expectedValue:  "Event not found",
		},
		{
			name:           "gateway_not_configured",
			err:            ticketing.ErrGatewayNotConfigured,
			expectedStatus: http.StatusInternalServerError,
			expectedField:  "error",
			expectedValue:  "Payment gateway is not configured",
		},
		{
			name:           "gateway_failure",
			err:            ticketing.ErrGatewayFailure,
			expectedStatus: http.StatusBadGateway,
			expectedField:  "success",
			expectedValue:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newServer(deps{verifier: verifierStub{err: tc.err}})

			rec, body := do(t, server, http.MethodPost, "/api/payments/verify", `{"order_id":"x","userId":"u"}`)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedValue, body[tc.expectedField])
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestPostVerifyPayment_success(t *testing.T) {
	server := newServer(deps{verifier: verifierStub{
		result: ticketing.VerifyPaymentResult{TicketID: "ticket-1", AlreadyExists: true},
	}})

	rec, body := do(t, server, http.MethodPost, "/api/payments/verify", `{"order_id":"x","userId":"u"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ticket-1", body["ticketId"])
	assert.Equal(t, true, body["alreadyExists"])
}

func TestPostTransaction(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		server := newServer(deps{initiator: initiatorStub{
			result: ticketing.CreateTransactionResult{SnapToken: "token", OrderID: "UPJEH-1"},
		}})

		rec, body := do(t, server, http.MethodPost, "/api/payments/transactions", `{"eventId":"E1"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "token", body["snapToken"])
		assert.Equal(t, "UPJEH-1", body["orderId"])
		assert.NotContains(t, body, "isMock")
	})

	t.Run("invalid", func(t *testing.T) {
		server := newServer(deps{initiator: initiatorStub{err: ticketing.ErrInvalidRequest}})

		rec, body := do(t, server, http.MethodPost, "/api/payments/transactions", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request", body["error"])
	})

	t.Run("malformed_body", func(t *testing.T) {
		server := newServer(deps{})

		rec, body := do(t, server, http.MethodPost, "/api/payments/transactions", `{`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", body["error"])
	})
}

func TestPostGatewayNotification(t *testing.T) {
	t.Run("acknowledged", func(t *testing.T) {
		server := newServer(deps{notifications: notificationHandlerStub{
			result: ticketing.NotificationResult{Success: true, Message: "Notification received"},
		}})

		rec, body := do(t, server, http.MethodPost, "/api/payments/notifications", `{}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
	})

	t.Run("engine_failure_is_still_acknowledged", func(t *testing.T) {
		server := newServer(deps{notifications: notificationHandlerStub{
			result: ticketing.NotificationResult{Success: false, Message: "Could not issue ticket"},
		}})

		rec, body := do(t, server, http.MethodPost, "/api/payments/notifications", `{}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("invalid_signature", func(t *testing.T) {
		server := newServer(deps{notifications: notificationHandlerStub{err: ticketing.ErrInvalidSignature}})

		rec, _ := do(t, server, http.MethodPost, "/api/payments/notifications", `{}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("internal_fault", func(t *testing.T) {
		server := newServer(deps{notifications: notificationHandlerStub{err: errors.New("database down")}})

		rec, _ := do(t, server, http.MethodPost, "/api/payments/notifications", `{}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDeleteUserTicket(t *testing.T) {
	t.Run("invalid_id", func(t *testing.T) {
		server := newServer(deps{})

		rec, _ := do(t, server, http.MethodDelete, "/api/users/U1/tickets/not-a-uuid", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not_owned", func(t *testing.T) {
		server := newServer(deps{tickets: ticketsRepoStub{deleteErr: entity.ErrNotFound}})

		rec, _ := do(t, server, http.MethodDelete, "/api/users/U1/tickets/"+uuid.NewString(), "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("deleted", func(t *testing.T) {
		server := newServer(deps{})

		rec, _ := do(t, server, http.MethodDelete, "/api/users/U1/tickets/"+uuid.NewString(), "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestErrorResponse_single_body(t *testing.T) {
	testCases := []struct {
		Name         string
		Deps         deps
		Method       string
		Path         string
		Body         string
		ExpectedCode int
	}{
		{
			Name:         "http_error",
			Method:       http.MethodDelete,
			Path:         "/api/users/U1/tickets/not-a-uuid",
			ExpectedCode: http.StatusNotFound,
		},
		{
			Name:         "plain_error",
			Deps:         deps{initiator: initiatorStub{err: errors.New("database unavailable")}},
			Method:       http.MethodPost,
			Path:         "/api/payments/transactions",
			Body:         `{"eventId":"E1","userId":"U1"}`,
			ExpectedCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			server := newServer(tc.Deps)

			req := httptest.NewRequest(tc.Method, tc.Path, strings.NewReader(tc.Body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tc.ExpectedCode, rec.Code)

			decoder := json.NewDecoder(rec.Body)
			var body map[string]any
			require.NoError(t, decoder.Decode(&body))
			assert.NotEmpty(t, body)
			assert.ErrorIs(t, decoder.Decode(&body), io.EOF, "response must hold exactly one JSON object")
		})
	}
}

func TestGetUserTickets_empty_list(t *testing.T) {
	server := newServer(deps{})

	rec, _ := do(t, server, http.MethodGet, "/api/users/U1/tickets", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPostNotificationRead_not_found(t *testing.T) {
	server := newServer(deps{notifRepo: notificationsRepoStub{markReadErr: entity.ErrNotFound}})

	rec, _ := do(t, server, http.MethodPost, "/api/users/U1/notifications/"+uuid.NewString()+"/read", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutEvent(t *testing.T) {
	events := &eventsRepoStub{}
	server := newServer(deps{events: events})

	rec, _ := do(t, server, http.MethodPut, "/ops/events/E1", `{"title":"Jazz Night","price":"50000","creatorId":"U_org"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, events.stored, 1)
	assert.Equal(t, "E1", events.stored[0].ID)
	assert.Equal(t, "50000", events.stored[0].Price.String())

	rec, _ = do(t, server, http.MethodPut, "/ops/events/E2", `{"title":"Bad","price":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostRebuildEventRegistrations(t *testing.T) {
	migration := &registrationsMigrationStub{}
	server := newServer(deps{migration: migration})

	rec, _ := do(t, server, http.MethodPost, "/ops/events/E1/registrations/rebuild", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"E1"}, migration.rebuilt)
}
