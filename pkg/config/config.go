package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tibacare/pkg/client"
	"tibacare/pkg/logger"
	"tibacare/pkg/sanitizer"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	JWTTTL         time.Duration
	AdminEmails    []string
	ProviderEmails []string

	PromotionScope       string
	PromotionMaxAttempts int
	ActiveSlotGuard      bool

	KafkaEnabled        bool
	BookingEventsTopic  string
	ShadowConsumerGroup string

	DatabaseURL string

	MpesaEnv            string
	MpesaBaseURLValue   string
	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaShortcode      string
	MpesaPasskey        string
	MpesaCallbackURL    string
	CallbackSealKey     string

	WhatsAppAppSecret     string
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAPIBaseURL    string

	S3Bucket          string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PresignTTL      time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	dotenvErr := loadDotEnv()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		JWTSecret:      getEnvStr(EnvJWTSecret, ""),
		JWTTTL:         getEnvDuration(EnvJWTTTL, DefaultJWTTTL),
		AdminEmails:    getEnvList(EnvAdminEmails),
		ProviderEmails: getEnvList(EnvProviderEmails),

		PromotionScope:       sanitizer.NormalizeLabel(getEnvStr(EnvPromotionScope, DefaultPromotionScope)),
		PromotionMaxAttempts: getEnvNum(EnvPromotionMaxAttempts, DefaultPromotionMaxAttempts),
		ActiveSlotGuard:      getEnvBool(EnvActiveSlotGuard, DefaultActiveSlotGuard),

		KafkaEnabled:        getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		BookingEventsTopic:  getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		ShadowConsumerGroup: getEnvStr(EnvShadowConsumerGroup, DefaultShadowConsumerGroup),

		DatabaseURL: getEnvStr(EnvDatabaseURL, ""),

		MpesaEnv:            strings.ToLower(getEnvStr(EnvMpesaEnv, DefaultMpesaEnv)),
		MpesaBaseURLValue:   getEnvStr(EnvMpesaBaseURL, ""),
		MpesaConsumerKey:    getEnvStr(EnvMpesaConsumerKey, ""),
		MpesaConsumerSecret: getEnvStr(EnvMpesaConsumerSecret, ""),
		MpesaShortcode:      getEnvStr(EnvMpesaShortcode, ""),
		MpesaPasskey:        getEnvStr(EnvMpesaPasskey, ""),
		MpesaCallbackURL:    getEnvStr(EnvMpesaCallbackURL, ""),
		CallbackSealKey:     getEnvStr(EnvCallbackSealKey, ""),

		WhatsAppAppSecret:     getEnvStr(EnvWhatsAppAppSecret, ""),
		WhatsAppToken:         getEnvStr(EnvWhatsAppToken, ""),
		WhatsAppPhoneNumberID: getEnvStr(EnvWhatsAppPhoneNumberID, ""),
		WhatsAppVerifyToken:   getEnvStr(EnvWhatsAppVerifyToken, ""),
		WhatsAppAPIBaseURL:    getEnvStr(EnvWhatsAppAPIBaseURL, DefaultWhatsAppAPIBaseURL),

		S3Bucket:          getEnvStr(EnvS3Bucket, ""),
		S3Endpoint:        getEnvStr(EnvS3Endpoint, ""),
		S3Region:          getEnvStr(EnvS3Region, DefaultS3Region),
		S3AccessKeyID:     getEnvStr(EnvS3AccessKeyID, ""),
		S3SecretAccessKey: getEnvStr(EnvS3SecretAccessKey, ""),
		S3PresignTTL:      getEnvDuration(EnvS3PresignTTL, DefaultS3PresignTTL),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if dotenvErr != nil {
		cfg.Log.Warn("Failed to load .env file", "error", dotenvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// loadDotEnv reads DOTENV_PATH (or ./.env) without overriding real env vars.
// A missing file is not an error.
func loadDotEnv() error {
	path := getEnvStr(EnvDotEnv, ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis is a no-op when REDIS_ADDR is empty.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.DatabaseURL, cfg.MongoConnTimeout)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

// MpesaBaseURL honours an explicit override, otherwise picks the Daraja host for MPESA_ENV.
func (cfg *Config) MpesaBaseURL() string {
	if cfg.MpesaBaseURLValue != "" {
		return strings.TrimSuffix(cfg.MpesaBaseURLValue, "/")
	}
	if cfg.MpesaEnv == MpesaEnvProduction {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"JWTTTL", cfg.JWTTTL},
		{"S3PresignTTL", cfg.S3PresignTTL},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 32 {
		errors = append(errors, fmt.Sprintf("JWTSecret must be at least 32 characters, got: %d", len(cfg.JWTSecret)))
	}

	if cfg.PromotionScope != PromotionScopeGlobal && cfg.PromotionScope != PromotionScopeProvider {
		errors = append(errors, fmt.Sprintf("PromotionScope must be one of [global, provider], got: %s", cfg.PromotionScope))
	}
	if cfg.PromotionMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("PromotionMaxAttempts must be positive, got: %d", cfg.PromotionMaxAttempts))
	}

	if cfg.KafkaEnabled && cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty when Kafka is enabled")
	}

	if cfg.DatabaseURL != "" && !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.DatabaseURL) {
		errors = append(errors, fmt.Sprintf("DatabaseURL must start with 'postgres://' or 'postgresql://', got: %s", redactURI(cfg.DatabaseURL)))
	}

	if cfg.MpesaEnv != MpesaEnvSandbox && cfg.MpesaEnv != MpesaEnvProduction {
		errors = append(errors, fmt.Sprintf("MpesaEnv must be one of [sandbox, production], got: %s", cfg.MpesaEnv))
	}

	if cfg.CallbackSealKey != "" {
		if key, err := base64.StdEncoding.DecodeString(cfg.CallbackSealKey); err != nil || (len(key) != 16 && len(key) != 24 && len(key) != 32) {
			errors = append(errors, "CallbackSealKey must be a base64 encoded 16, 24 or 32 byte key")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"redis_addr", cfg.RedisAddr,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_ttl", cfg.JWTTTL,
		"admin_emails", len(cfg.AdminEmails),
		"provider_emails", len(cfg.ProviderEmails),
		"promotion_scope", cfg.PromotionScope,
		"promotion_max_attempts", cfg.PromotionMaxAttempts,
		"active_slot_guard", cfg.ActiveSlotGuard,
		"kafka_enabled", cfg.KafkaEnabled,
		"booking_events_topic", cfg.BookingEventsTopic,
		"database_url", redactURI(cfg.DatabaseURL),
		"mpesa_env", cfg.MpesaEnv,
		"mpesa_credentials_set", cfg.MpesaConsumerKey != "" && cfg.MpesaConsumerSecret != "",
		"callback_seal_key_set", cfg.CallbackSealKey != "",
		"whatsapp_secret_set", cfg.WhatsAppAppSecret != "",
		"whatsapp_token_set", cfg.WhatsAppToken != "",
		"s3_bucket", cfg.S3Bucket,
		"s3_endpoint", cfg.S3Endpoint,
	)
}

func redactURI(uri string) string {
	credentialRegex := regexp.MustCompile(`^([a-z+]+://)[^:/@]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList reads a comma separated email list, normalised and deduplicated.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	return sanitizer.NormalizeEmails(strings.Split(value, ","))
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
