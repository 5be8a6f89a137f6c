package ticketing_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aditbap/eventhub-sub000/entity"
	"github.com/aditbap/eventhub-sub000/gateway"
	"github.com/aditbap/eventhub-sub000/ticketing"
)

const serverKey = "server-key"

type notificationDeps struct {
	tickets  *ticketsRepoFake
	log      *notificationLogFake
	gateway  *gateway.MidtransMock
	handler  ticketing.NotificationHandler
	verifier ticketing.Verifier
}

func newNotificationDeps(events map[string]entity.Event) notificationDeps {
	tickets := newTicketsRepoFake()
	notificationLog := &notificationLogFake{}
	gw := &gateway.MidtransMock{Key: serverKey}
	eventsRepo := eventsRepoFake{events: events}
	usersRepo := usersRepoFake{users: map[string]entity.User{buyer.ID: buyer}}
	issuer := ticketing.NewIssuer(tickets)

	handler := ticketing.NewNotificationHandler(
		eventsRepo,
		usersRepo,
		gw,
		notificationLog,
		func(orderID, statusCode, grossAmount, signature string) bool {
			return gateway.VerifySignature(orderID, statusCode, grossAmount, gw.ServerKey(), signature)
		},
		issuer,
	)

	verifier := ticketing.NewVerifier(eventsRepo, usersRepo, gw, issuer, time.Second)

	return notificationDeps{
		tickets:  tickets,
		log:      notificationLog,
		gateway:  gw,
		handler:  handler,
		verifier: verifier,
	}
}

type notificationOption func(p map[string]any)

func notificationPayload(t *testing.T, orderID, status string, opts ...notificationOption) []byte {
	customData, err := entity.CustomData{
		EventID:        paidEvent.ID,
		UserID:         buyer.ID,
		EventDate:      paidEvent.Date,
		EventTime:      paidEvent.Time,
		EventLocation:  paidEvent.Location,
		EventCreatorID: paidEvent.CreatorID,
	}.Encode()
	require.NoError(t, err)

	p := map[string]any{
		"order_id":           orderID,
		"transaction_id":     "tx-" + orderID,
		"transaction_status": status,
		"status_code":        "200",
		"gross_amount":       "50000.00",
		"custom_field1":      customData,
		"item_details": []map[string]any{
			{"id": paidEvent.ID, "name": paidEvent.Title, "price": 50000, "quantity": 1},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if _, ok := p["signature_key"]; !ok {
		p["signature_key"] = gateway.Signature(orderID, p["status_code"].(string), p["gross_amount"].(string), serverKey)
	}

	payload, err := json.Marshal(p)
	require.NoError(t, err)
	return payload
}

func with(key string, value any) notificationOption {
	return func(p map[string]any) {
		p[key] = value
	}
}

func without(key string) notificationOption {
	return func(p map[string]any) {
		delete(p, key)
	}
}

func TestNotificationHandler_settlement_issues_ticket(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
	orderID := "UPJEH-E1-U_buyer-100"

	result, err := deps.handler.Handle(context.Background(), notificationPayload(t, orderID, "settlement"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AlreadyExists)
	assert.NotEmpty(t, result.TicketID)

	ticket, ok := deps.tickets.ticket(orderID)
	require.True(t, ok)
	assert.Equal(t, "tx-"+orderID, *ticket.MidtransTransactionID)
	assert.Len(t, deps.log.stored, 1)
}

func TestNotificationHandler_redelivery(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
	orderID := "UPJEH-E1-U_buyer-101"
	payload := notificationPayload(t, orderID, "settlement")

	first, err := deps.handler.Handle(context.Background(), payload)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := deps.handler.Handle(context.Background(), payload)
		require.NoError(t, err)
		assert.True(t, again.Success)
		assert.True(t, again.AlreadyExists)
		assert.Equal(t, first.TicketID, again.TicketID)
	}

	assert.Equal(t, 1, deps.tickets.count())
	assert.Len(t, deps.tickets.allNotifications(), 2)
}

func TestNotificationHandler_status_gating(t *testing.T) {
	testCases := []struct {
		status       string
		fraud        string
		expectIssued bool
	}{
		{"settlement", "", true},
		{"capture", "accept", true},
		{"capture", "challenge", false},
		{"pending", "", false},
		{"deny", "", false},
		{"expire", "", false},
		{"cancel", "", false},
		{"something_new", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.status+"/"+tc.fraud, func(t *testing.T) {
			deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
			orderID := "UPJEH-E1-U_buyer-" + tc.status

			result, err := deps.handler.Handle(context.Background(), notificationPayload(t, orderID, tc.status, with("fraud_status", tc.fraud)))
			require.NoError(t, err)
			assert.True(t, result.Success, "every recoverable condition is acknowledged")

			_, issued := deps.tickets.ticket(orderID)
			assert.Equal(t, tc.expectIssued, issued)
		})
	}
}

func TestNotificationHandler_acknowledges_bad_payloads(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})

	testCases := []struct {
		name    string
		payload []byte
	}{
		{"not json", []byte("{not-json")},
		{"missing order id", notificationPayload(t, "", "settlement")},
		{"missing custom data", notificationPayload(t, "UPJEH-E1-U_buyer-102", "settlement", without("custom_field1"))},
		{"custom data not json", notificationPayload(t, "UPJEH-E1-U_buyer-103", "settlement", with("custom_field1", "oops"))},
		{"missing item details", notificationPayload(t, "UPJEH-E1-U_buyer-104", "settlement", without("item_details"))},
		{"gross amount too low", notificationPayload(t, "UPJEH-E1-U_buyer-105", "settlement", with("gross_amount", "10.00"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := deps.handler.Handle(context.Background(), tc.payload)
			require.NoError(t, err)
			assert.True(t, result.Success)
		})
	}

	assert.Equal(t, 0, deps.tickets.count())
}

func TestNotificationHandler_custom_data_must_match_order(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent, freeEvent.ID: freeEvent})

	otherUser, err := entity.CustomData{EventID: paidEvent.ID, UserID: "U_other"}.Encode()
	require.NoError(t, err)
	otherEvent, err := entity.CustomData{EventID: freeEvent.ID, UserID: buyer.ID}.Encode()
	require.NoError(t, err)

	testCases := []struct {
		name       string
		customData string
	}{
		{"other user", otherUser},
		{"other event", otherEvent},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderID := fmt.Sprintf("UPJEH-E1-U_buyer-30%d", i)

			result, err := deps.handler.Handle(context.Background(), notificationPayload(t, orderID, "settlement", with("custom_field1", tc.customData)))
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, "order does not match custom data", result.Message)
		})
	}

	assert.Equal(t, 0, deps.tickets.count())
	assert.Len(t, deps.log.stored, 2)
}

func TestNotificationHandler_invalid_signature(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
	orderID := "UPJEH-E1-U_buyer-106"

	_, err := deps.handler.Handle(context.Background(), notificationPayload(t, orderID, "settlement", with("signature_key", "forged")))
	assert.ErrorIs(t, err, ticketing.ErrInvalidSignature)
	assert.Equal(t, 0, deps.tickets.count())
	assert.Empty(t, deps.log.stored)
}

func TestNotificationHandler_gateway_not_configured(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
	deps.gateway.NotConfigured = true

	result, err := deps.handler.Handle(context.Background(), notificationPayload(t, "UPJEH-E1-U_buyer-107", "settlement"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, deps.tickets.count())
}

func TestNotificationHandler_event_snapshot_fallback(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{})
	orderID := "UPJEH-E1-U_buyer-108"

	result, err := deps.handler.Handle(context.Background(), notificationPayload(t, orderID, "settlement"))
	require.NoError(t, err)
	assert.True(t, result.Success)

	ticket, ok := deps.tickets.ticket(orderID)
	require.True(t, ok)
	assert.Equal(t, paidEvent.Title, ticket.EventName)
	assert.Equal(t, paidEvent.Location, ticket.EventLocation)
	assert.Equal(t, paidEvent.Date, ticket.EventDate)

	// creator comes from the custom data
	assert.Len(t, deps.tickets.notificationsFor("U_org"), 1)
}

func TestNotificationHandler_notification_log_failure(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
	deps.log.err = errDatabaseDown

	_, err := deps.handler.Handle(context.Background(), notificationPayload(t, "UPJEH-E1-U_buyer-109", "settlement"))
	assert.ErrorIs(t, err, errDatabaseDown)
}

func TestNotificationHandler_issuance_failure_is_acknowledged(t *testing.T) {
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
	deps.tickets.err = errDatabaseDown

	result, err := deps.handler.Handle(context.Background(), notificationPayload(t, "UPJEH-E1-U_buyer-110", "settlement"))
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestCrossPathConvergence(t *testing.T) {
	t.Run("verifier then webhook", func(t *testing.T) {
		deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
		orderID := "UPJEH-E1-U_buyer-200"
		deps.gateway.SetTransaction(entity.GatewayTransaction{
			OrderID:       orderID,
			TransactionID: "tx-" + orderID,
			Status:        entity.TransactionStatusSettlement,
			GrossAmount:   paidEvent.Price,
		})

		verified, err := deps.verifier.VerifyPayment(context.Background(), verifyRequest(paidEvent, orderID, "settlement"))
		require.NoError(t, err)
		assert.False(t, verified.AlreadyExists)

		notified, err := deps.handler.Handle(context.Background(), notificationPayload(t, orderID, "settlement"))
		require.NoError(t, err)
		assert.True(t, notified.AlreadyExists)
		assert.Equal(t, verified.TicketID, notified.TicketID)

		assert.Equal(t, 1, deps.tickets.count())
	})

	t.Run("webhook then verifier", func(t *testing.T) {
		deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
		orderID := "UPJEH-E1-U_buyer-201"
		deps.gateway.SetTransaction(entity.GatewayTransaction{
			OrderID:     orderID,
			Status:      entity.TransactionStatusSettlement,
			GrossAmount: paidEvent.Price,
		})

		notified, err := deps.handler.Handle(context.Background(), notificationPayload(t, orderID, "settlement"))
		require.NoError(t, err)
		assert.False(t, notified.AlreadyExists)

		verified, err := deps.verifier.VerifyPayment(context.Background(), verifyRequest(paidEvent, orderID, "settlement"))
		require.NoError(t, err)
		assert.True(t, verified.AlreadyExists)
		assert.Equal(t, notified.TicketID, verified.TicketID)

		assert.Equal(t, 1, deps.tickets.count())
	})
}

// Event E1 costs 50000 and is organized by U_org. U_buyer checks out, the gateway
// reports settlement by webhook, then the user polls the verifier.
func TestExampleScenario(t *testing.T) {
	ctx := context.Background()
	deps := newNotificationDeps(map[string]entity.Event{paidEvent.ID: paidEvent})
	initiator := ticketing.NewInitiator(eventsRepoFake{events: map[string]entity.Event{paidEvent.ID: paidEvent}}, deps.gateway)

	checkout, err := initiator.CreateTransaction(ctx, ticketing.CreateTransactionRequest{
		EventID:       paidEvent.ID,
		EventTitle:    paidEvent.Title,
		EventPrice:    lo.ToPtr(paidEvent.Price),
		EventDate:     paidEvent.Date,
		EventLocation: paidEvent.Location,
		UserID:        buyer.ID,
		UserEmail:     "budi@upj.ac.id",
		UserName:      buyer.DisplayName,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^UPJEH-E1-U_buyer-\d+$`, checkout.OrderID)

	checkoutRequest, ok := deps.gateway.Checkout(checkout.OrderID)
	require.True(t, ok)

	deps.gateway.SetTransaction(entity.GatewayTransaction{
		OrderID:       checkout.OrderID,
		TransactionID: "tx-" + checkout.OrderID,
		Status:        entity.TransactionStatusSettlement,
		GrossAmount:   paidEvent.Price,
	})

	_, err = deps.handler.Handle(ctx, notificationPayload(t, checkout.OrderID, "settlement", with("custom_field1", checkoutRequest.CustomData)))
	require.NoError(t, err)

	ticket, ok := deps.tickets.ticket(checkout.OrderID)
	require.True(t, ok)
	assert.Equal(t, "E1", ticket.EventID)
	assert.Equal(t, "U_buyer", ticket.UserID)
	assert.Equal(t, checkout.OrderID, ticket.MidtransOrderID)

	buyerNotifications := deps.tickets.notificationsFor("U_buyer")
	require.Len(t, buyerNotifications, 1)
	assert.Equal(t, entity.NotificationTicketIssued, buyerNotifications[0].Category)

	organizerNotifications := deps.tickets.notificationsFor("U_org")
	require.Len(t, organizerNotifications, 1)
	assert.Equal(t, entity.NotificationSocial, organizerNotifications[0].Category)

	verified, err := deps.verifier.VerifyPayment(ctx, verifyRequest(paidEvent, checkout.OrderID, "settlement"))
	require.NoError(t, err)
	assert.True(t, verified.AlreadyExists)
	assert.Equal(t, ticket.ID, verified.TicketID)

	assert.Equal(t, 1, deps.tickets.count())
	assert.Len(t, deps.tickets.allNotifications(), 2)
}
