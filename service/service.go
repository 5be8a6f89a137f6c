package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/aditbap/eventhub-sub000/db"
	"github.com/aditbap/eventhub-sub000/gateway"
	"github.com/aditbap/eventhub-sub000/http"
	migrations "github.com/aditbap/eventhub-sub000/migration"
	"github.com/aditbap/eventhub-sub000/pubsub"
	"github.com/aditbap/eventhub-sub000/pubsub/event"
	"github.com/aditbap/eventhub-sub000/pubsub/outbox"
	"github.com/aditbap/eventhub-sub000/ticketing"
)

// PaymentGateway is the gateway client together with the key used to sign its notifications.
type PaymentGateway interface {
	ticketing.PaymentGateway
	ServerKey() string
}

type Service struct {
	db              *sqlx.DB
	watermillLogger watermill.LoggerAdapter
	watermillRouter *message.Router
	forwarder       *forwarder.Forwarder
	httpServer      *http.Server
}

func New(
	addr string,
	dbConn *sqlx.DB,
	redisClient *redis.Client,
	paymentGateway PaymentGateway,
	gatewayTimeout time.Duration,
) Service {
	eventsRepo := db.NewEventsPostgresRepository(dbConn)
	usersRepo := db.NewUsersPostgresRepository(dbConn)
	ticketsRepo := db.NewTicketsPostgresRepository(dbConn)
	notificationsRepo := db.NewNotificationsPostgresRepository(dbConn)
	notificationLog := db.NewGatewayNotificationLog(dbConn)
	registrationsReadModel := db.NewRegistrationsReadModel(dbConn)

	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher := pubsub.NewRedisPublisher(redisClient, watermillLogger)

	postgresSubscriber := outbox.NewPostgresSubscriber(dbConn.DB, watermillLogger)
	fwd, err := outbox.NewForwarder(postgresSubscriber, redisPublisher, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create outbox forwarder: %w", err))
	}

	watermillRouter, err := pubsub.NewWatermillRouter(
		event.NewProcessorConfig(redisClient, watermillLogger),
		event.NewHandler(registrationsReadModel),
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	issuer := ticketing.NewIssuer(ticketsRepo)
	initiator := ticketing.NewInitiator(eventsRepo, paymentGateway)
	verifier := ticketing.NewVerifier(eventsRepo, usersRepo, paymentGateway, issuer, gatewayTimeout)
	notificationHandler := ticketing.NewNotificationHandler(
		eventsRepo,
		usersRepo,
		paymentGateway,
		notificationLog,
		func(orderID, statusCode, grossAmount, signature string) bool {
			return gateway.VerifySignature(orderID, statusCode, grossAmount, paymentGateway.ServerKey(), signature)
		},
		issuer,
	)

	httpServer := http.NewServer(
		addr,
		initiator,
		verifier,
		notificationHandler,
		ticketsRepo,
		notificationsRepo,
		eventsRepo,
		usersRepo,
		registrationsReadModel,
		migrations.NewRegistrationsMigration(ticketsRepo, usersRepo, registrationsReadModel),
	)

	return Service{
		db:              dbConn,
		watermillLogger: watermillLogger,
		watermillRouter: watermillRouter,
		forwarder:       fwd,
		httpServer:      httpServer,
	}
}

func (s Service) Run(ctx context.Context) error {
	if err := db.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	if err := outbox.InitializeSchema(s.db.DB, s.watermillLogger); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		return s.forwarder.Run(ctx)
	})

	g.Go(func() error {
		// we don't want to start HTTP server before Watermill router (so service won't be healthy before it's ready)
		<-s.watermillRouter.Running()
		<-s.forwarder.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}
