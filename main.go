package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jessevdk/go-flags"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/aditbap/eventhub-sub000/config"
	"github.com/aditbap/eventhub-sub000/gateway"
	"github.com/aditbap/eventhub-sub000/pubsub"
	"github.com/aditbap/eventhub-sub000/service"
	"github.com/aditbap/eventhub-sub000/tracing"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if flags.WroteHelp(err) {
		return
	}
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	level, _ := cfg.Level()
	log.Init(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	traceProvider, err := tracing.ConfigureTraceProvider(cfg.JaegerEndpoint)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := traceProvider.Shutdown(context.Background()); err != nil {
			logrus.WithError(err).Error("Failed to shutdown trace provider")
		}
	}()

	traceDB, err := otelsql.Open("postgres", cfg.PostgresURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName("eventhub"),
	)
	if err != nil {
		panic(err)
	}

	dbConn := sqlx.NewDb(traceDB, "postgres")
	defer dbConn.Close()

	redisClient := pubsub.NewRedisClient(cfg.RedisAddr)
	defer redisClient.Close()

	midtrans := gateway.NewMidtransClient(gateway.MidtransConfig{
		ServerKey:        cfg.Midtrans.ServerKey,
		Production:       cfg.Midtrans.Production,
		Timeout:          cfg.Midtrans.Timeout,
		BreakerThreshold: cfg.Midtrans.BreakerThreshold,
	})
	if !midtrans.Configured() {
		logrus.Warn("MIDTRANS_SERVER_KEY is not set, checkouts will use placeholder tokens and payments cannot be verified")
	}

	err = service.New(
		cfg.HTTPAddr,
		dbConn,
		redisClient,
		midtrans,
		cfg.Midtrans.Timeout,
	).Run(ctx)
	if err != nil {
		panic(err)
	}
}
