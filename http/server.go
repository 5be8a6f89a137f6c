package http

import (
	"context"
	"errors"
	"net/http"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/aditbap/eventhub-sub000/entity"
	"github.com/aditbap/eventhub-sub000/ticketing"
)

type TransactionInitiator interface {
	CreateTransaction(ctx context.Context, req ticketing.CreateTransactionRequest) (ticketing.CreateTransactionResult, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, req ticketing.VerifyPaymentRequest) (ticketing.VerifyPaymentResult, error)
}

type GatewayNotificationHandler interface {
	Handle(ctx context.Context, rawPayload []byte) (ticketing.NotificationResult, error)
}

type TicketsRepository interface {
	FindByUser(ctx context.Context, userID string) ([]entity.Ticket, error)
	Delete(ctx context.Context, userID, ticketID string) error
}

type NotificationsRepository interface {
	FindByUser(ctx context.Context, userID string) ([]entity.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type EventsRepository interface {
	Store(ctx context.Context, event entity.Event) error
}

type UsersRepository interface {
	Store(ctx context.Context, user entity.User) error
}

type RegistrationsReadModel interface {
	Get(ctx context.Context, eventID string) (entity.EventRegistrations, error)
}

type RegistrationsMigration interface {
	Rebuild(ctx context.Context, eventID string) error
}

type Server struct {
	addr string
	e    *echo.Echo

	initiator           TransactionInitiator
	verifier            PaymentVerifier
	notificationHandler GatewayNotificationHandler

	ticketsRepo            TicketsRepository
	notificationsRepo      NotificationsRepository
	eventsRepo             EventsRepository
	usersRepo              UsersRepository
	registrationsReadModel RegistrationsReadModel
	registrationsMigration RegistrationsMigration
}

func NewServer(
	addr string,
	initiator TransactionInitiator,
	verifier PaymentVerifier,
	notificationHandler GatewayNotificationHandler,
	ticketsRepo TicketsRepository,
	notificationsRepo NotificationsRepository,
	eventsRepo EventsRepository,
	usersRepo UsersRepository,
	registrationsReadModel RegistrationsReadModel,
	registrationsMigration RegistrationsMigration,
) *Server {
	e := echoHTTP.NewEcho()
	// otelecho hands the error to c.Error and still returns it, so the handler runs twice
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		echoHTTP.HandleError(err, c)
	}
	e.Use(otelecho.Middleware("eventhub"))

	server := &Server{
		addr:                   addr,
		e:                      e,
		initiator:              initiator,
		verifier:               verifier,
		notificationHandler:    notificationHandler,
		ticketsRepo:            ticketsRepo,
		notificationsRepo:      notificationsRepo,
		eventsRepo:             eventsRepo,
		usersRepo:              usersRepo,
		registrationsReadModel: registrationsReadModel,
		registrationsMigration: registrationsMigration,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/api/payments/transactions", server.PostTransaction)
	e.POST("/api/payments/verify", server.PostVerifyPayment)
	e.POST("/api/payments/notifications", server.PostGatewayNotification)

	e.GET("/api/users/:user_id/tickets", server.GetUserTickets)
	e.DELETE("/api/users/:user_id/tickets/:ticket_id", server.DeleteUserTicket)
	e.GET("/api/users/:user_id/notifications", server.GetUserNotifications)
	e.POST("/api/users/:user_id/notifications/:notification_id/read", server.PostNotificationRead)

	e.GET("/ops/events/:event_id/registrations", server.GetEventRegistrations)
	e.POST("/ops/events/:event_id/registrations/rebuild", server.PostRebuildEventRegistrations)
	e.PUT("/ops/events/:event_id", server.PutEvent)
	e.PUT("/ops/users/:user_id", server.PutUser)

	return server
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		err := s.e.Shutdown(context.Background())
		if err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
