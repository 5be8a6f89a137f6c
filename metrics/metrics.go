package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesLabels = []string{"topic", "handler"}

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventhub",
			Subsystem: "messages",
			Name:      "processed_total",
			Help:      "The total number of handled domain event messages",
		},
		messagesLabels,
	)

	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventhub",
			Subsystem: "messages",
			Name:      "processing_failed_total",
			Help:      "The total number of failed handler attempts, retries included",
		},
		messagesLabels,
	)

	MessagesProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventhub",
			Subsystem: "messages",
			Name:      "processing_duration_seconds",
			Help:      "Time spent handling a domain event message",
			Buckets:   prometheus.DefBuckets,
		},
		messagesLabels,
	)
)

var (
	// TicketsIssued The total number of tickets created, by the path that issued them
	TicketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "tickets_issued_total",
			Help:      "The total number of issued tickets",
		},
		[]string{"path"},
	)

	// TicketsDuplicateIssuance The total number of issuance attempts for an order that already has a ticket
	TicketsDuplicateIssuance = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "tickets_duplicate_issuance_total",
			Help:      "The total number of issuance attempts that found an existing ticket",
		},
		[]string{"path"},
	)

	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "payment_verifications_total",
			Help:      "The total number of payment verifications by outcome",
		},
		[]string{"outcome"},
	)

	GatewayNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "gateway_notifications_total",
			Help:      "The total number of payment gateway notifications by transaction status",
		},
		[]string{"transaction_status"},
	)
)
