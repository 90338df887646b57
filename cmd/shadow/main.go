package main

import (
	"tibacare/internal/shadow/handler"
	"tibacare/internal/shadow/repository"
	"tibacare/pkg/app"
	"tibacare/pkg/auth"
	"tibacare/pkg/config"
	"tibacare/pkg/kafka"
	kafka_config "tibacare/pkg/kafka/config"
	kafka_middleware "tibacare/pkg/kafka/middleware"
	"tibacare/pkg/metrics"
)

const ServiceName = "booking-shadow"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.LogConfiguration()

	cfg.Log.Info("Starting booking shadow service")
	cfg.SetPostgres()

	shadowRepo := repository.NewPostgresShadowRepository(cfg.Client.Postgres)

	serverApp := app.NewApplication(cfg).WithTokenVerifier(auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL))
	consumer := initConsumer(cfg, shadowRepo)
	serverApp.AddWorker(consumer)
	serverApp.AddCloser("kafka consumer", consumer)

	serverApp.SetApp(handler.NewHistoryHandler(shadowRepo, cfg.Log))
	serverApp.Run()
}

func initConsumer(cfg *config.Config, repo repository.ShadowRepository) *kafka.Consumer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	log := cfg.Log.Component("kafka-consumer")
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		cfg.ShadowConsumerGroup,
		kafkaCfg.DLQTopic,
		handler.NewEventHandler(repo, log).Handle,
		log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics.NewKafkaMetrics(nil)))
	}

	cfg.Log.Info("Consuming booking events",
		"topic", cfg.BookingEventsTopic,
		"group", cfg.ShadowConsumerGroup,
		"brokers", kafkaCfg.Brokers,
	)
	return consumer
}
