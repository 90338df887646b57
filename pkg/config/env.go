package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvDotEnv   = "DOTENV_PATH"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvJWTSecret      = "JWT_SECRET"
	EnvJWTTTL         = "JWT_TTL"
	EnvAdminEmails    = "ADMIN_EMAILS"
	EnvProviderEmails = "PROVIDER_EMAILS"

	EnvPromotionScope       = "PROMOTION_SCOPE"
	EnvPromotionMaxAttempts = "PROMOTION_MAX_ATTEMPTS"
	EnvActiveSlotGuard      = "ACTIVE_SLOT_GUARD"

	EnvKafkaEnabled        = "KAFKA_ENABLED"
	EnvBookingEventsTopic  = "BOOKING_EVENTS_TOPIC"
	EnvShadowConsumerGroup = "SHADOW_CONSUMER_GROUP"

	EnvDatabaseURL = "DATABASE_URL"

	EnvMpesaEnv            = "MPESA_ENV"
	EnvMpesaBaseURL        = "MPESA_BASE_URL"
	EnvMpesaConsumerKey    = "MPESA_CONSUMER_KEY"
	EnvMpesaConsumerSecret = "MPESA_CONSUMER_SECRET"
	EnvMpesaShortcode      = "MPESA_SHORTCODE"
	EnvMpesaPasskey        = "MPESA_PASSKEY"
	EnvMpesaCallbackURL    = "MPESA_CALLBACK_URL"
	EnvCallbackSealKey     = "CALLBACK_SEAL_KEY"

	EnvWhatsAppAppSecret     = "WHATSAPP_APP_SECRET"
	EnvWhatsAppToken         = "WHATSAPP_TOKEN"
	EnvWhatsAppPhoneNumberID = "WHATSAPP_PHONE_NUMBER_ID"
	EnvWhatsAppVerifyToken   = "WHATSAPP_VERIFY_TOKEN"
	EnvWhatsAppAPIBaseURL    = "WHATSAPP_API_BASE_URL"

	EnvS3Bucket          = "S3_BUCKET"
	EnvS3Endpoint        = "S3_ENDPOINT"
	EnvS3Region          = "S3_REGION"
	EnvS3AccessKeyID     = "S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "S3_SECRET_ACCESS_KEY"
	EnvS3PresignTTL      = "S3_PRESIGN_TTL"
)
