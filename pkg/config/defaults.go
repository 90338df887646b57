package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tibacare"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultRedisDB = 0

	DefaultJWTTTL = 12 * time.Hour

	PromotionScopeGlobal   = "global"
	PromotionScopeProvider = "provider"

	DefaultPromotionScope       = PromotionScopeGlobal
	DefaultPromotionMaxAttempts = 5
	DefaultActiveSlotGuard      = true

	DefaultKafkaEnabled        = false
	DefaultBookingEventsTopic  = "booking-events"
	DefaultShadowConsumerGroup = "booking-shadow"

	MpesaEnvSandbox    = "sandbox"
	MpesaEnvProduction = "production"

	DefaultMpesaEnv = MpesaEnvSandbox

	DefaultWhatsAppAPIBaseURL = "https://graph.facebook.com/v17.0"

	DefaultS3Region     = "auto"
	DefaultS3PresignTTL = 15 * time.Minute
)
