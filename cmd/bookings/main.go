package main

import (
	"context"

	"tibacare/internal/bookings/feed"
	"tibacare/internal/bookings/handler"
	"tibacare/internal/bookings/repository"
	"tibacare/internal/bookings/service"
	"tibacare/internal/bookings/validator"
	consultationhandler "tibacare/internal/consultations/handler"
	consultationrepository "tibacare/internal/consultations/repository"
	consultationservice "tibacare/internal/consultations/service"
	consultationvalidator "tibacare/internal/consultations/validator"
	messaginghandler "tibacare/internal/messaging/handler"
	messagingservice "tibacare/internal/messaging/service"
	"tibacare/internal/messaging/storage"
	"tibacare/internal/messaging/whatsapp"
	paymenthandler "tibacare/internal/payments/handler"
	"tibacare/internal/payments/mpesa"
	paymentservice "tibacare/internal/payments/service"
	userhandler "tibacare/internal/users/handler"
	userrepository "tibacare/internal/users/repository"
	userservice "tibacare/internal/users/service"
	uservalidator "tibacare/internal/users/validator"
	"tibacare/pkg/app"
	"tibacare/pkg/auth"
	"tibacare/pkg/config"
	"tibacare/pkg/contracts"
	"tibacare/pkg/kafka"
	kafka_config "tibacare/pkg/kafka/config"
	kafka_middleware "tibacare/pkg/kafka/middleware"
	"tibacare/pkg/metrics"
	"tibacare/pkg/sealer"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.LogConfiguration()

	cfg.Log.Info("Starting Bookings service")
	cfg.SetMongo()
	cfg.SetRedis()

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	serverApp := app.NewApplication(cfg).WithTokenVerifier(tokens)

	publisher := initPublisher(cfg, serverApp)
	bookingService := initBookingService(cfg, publisher)

	hub := feed.NewHub(cfg.Log.Component("feed"))
	serverApp.AddWorker(feed.NewLoop(repository.NewMongoBookingSubscriber(cfg), hub, cfg.Log.Component("feed")))

	integrationMetrics := metrics.NewIntegrationMetrics(nil)

	handlers := []contracts.Handler{
		handler.NewBookingHandler(bookingService, cfg.Log),
		feed.NewStreamHandler(hub, cfg.Log),
		consultationhandler.NewConsultationHandler(initConsultationService(cfg), cfg.Log),
		userhandler.NewUserHandler(initUserService(cfg, tokens), cfg.Log),
		paymenthandler.NewPaymentHandler(initPaymentService(cfg, integrationMetrics), cfg.Log),
		messaginghandler.NewMessageHandler(
			initMessageService(cfg, integrationMetrics),
			cfg.WhatsAppVerifyToken,
			cfg.WhatsAppAppSecret,
			cfg.Log,
		),
	}

	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) kafka.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events are not published")
		return kafka.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, kafkaCfg.DLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics.NewKafkaMetrics(nil)))
	}
	serverApp.AddCloser("kafka producer", producer)

	cfg.Log.Info("Publishing booking events", "topic", cfg.BookingEventsTopic, "brokers", kafkaCfg.Brokers)
	return kafka.NewProducerPublisher(producer, ServiceName)
}

func initBookingService(cfg *config.Config, publisher kafka.Publisher) service.BookingService {
	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewMongoSlotClaimRepository(cfg),
		repository.NewMongoActiveSlotRepository(cfg),
		validator.NewBookingValidator(cfg.Log),
		publisher,
		metrics.NewBookingMetrics(nil),
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"promotion_scope", cfg.PromotionScope,
		"active_slot_guard", cfg.ActiveSlotGuard,
	)
	return bookingService
}

func initConsultationService(cfg *config.Config) consultationservice.ConsultationService {
	return consultationservice.NewConsultationService(
		consultationrepository.NewMongoConsultationRepository(cfg),
		consultationvalidator.NewConsultationValidator(cfg.Log),
		cfg,
	)
}

func initUserService(cfg *config.Config, tokens *auth.TokenService) userservice.UserService {
	return userservice.NewUserService(
		userrepository.NewMongoUserRepository(cfg),
		uservalidator.NewUserValidator(cfg.Log),
		tokens,
		cfg,
	)
}

func initPaymentService(cfg *config.Config, m *metrics.IntegrationMetrics) paymentservice.PaymentService {
	client := mpesa.NewClient(mpesa.Config{
		BaseURL:        cfg.MpesaBaseURL(),
		ConsumerKey:    cfg.MpesaConsumerKey,
		ConsumerSecret: cfg.MpesaConsumerSecret,
		Shortcode:      cfg.MpesaShortcode,
		Passkey:        cfg.MpesaPasskey,
		CallbackURL:    cfg.MpesaCallbackURL,
	}, m)

	var callbackSealer paymentservice.Sealer
	if cfg.CallbackSealKey != "" {
		s, err := sealer.New(cfg.CallbackSealKey)
		if err != nil {
			cfg.Log.Fatal("Invalid callback seal key", "error", err)
		}
		callbackSealer = s
	} else {
		cfg.Log.Warn("CALLBACK_SEAL_KEY not set, M-Pesa callbacks are accepted unverified")
	}

	return paymentservice.NewPaymentService(client, callbackSealer, cfg.Log.Component("payments"))
}

func initMessageService(cfg *config.Config, m *metrics.IntegrationMetrics) messagingservice.MessageService {
	sender := whatsapp.NewClient(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, m)

	var presigner messagingservice.LinkPresigner
	if cfg.S3Bucket != "" {
		p, err := storage.NewPresigner(context.Background(), storage.Config{
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			TTL:             cfg.S3PresignTTL,
		})
		if err != nil {
			cfg.Log.Fatal("Failed to configure document storage", "error", err)
		}
		presigner = p
	}

	return messagingservice.NewMessageService(sender, presigner, cfg.Log.Component("messaging"))
}
