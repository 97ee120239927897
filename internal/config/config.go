package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL    string
	MigrateOnStart bool

	JWTSecret        []byte
	TokenTTL         time.Duration
	ResetTokenTTL    time.Duration
	AllowAdminSignup bool

	AdminEmail    string
	AdminPassword string
	AdminName     string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	PaymentBaseURL   string
	PaymentKeyID     string
	PaymentKeySecret string
	Currency         string

	ShippingThreshold decimal.Decimal
	ShippingFee       decimal.Decimal

	PendingOrderTTL time.Duration
	SweepInterval   time.Duration

	OTLPEndpoint string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: EnvBoolDefault("MIGRATE_ON_START", false),

		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:         EnvDurationDefault("TOKEN_TTL", time.Hour),
		ResetTokenTTL:    EnvDurationDefault("RESET_TOKEN_TTL", 15*time.Minute),
		AllowAdminSignup: EnvBoolDefault("ALLOW_ADMIN_SIGNUP", false),

		AdminEmail:    EnvDefault("ADMIN_EMAIL", "admin@gmail.com"),
		AdminPassword: EnvDefault("ADMIN_PASSWORD", "admin@123"),
		AdminName:     EnvDefault("ADMIN_NAME", "Super Admin"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		PaymentBaseURL:   EnvDefault("PAYMENT_BASE_URL", "https://api.razorpay.com"),
		PaymentKeyID:     os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret: os.Getenv("PAYMENT_KEY_SECRET"),
		Currency:         EnvDefault("CURRENCY", "INR"),

		ShippingThreshold: EnvDecimalDefault("SHIPPING_THRESHOLD", decimal.NewFromInt(1000)),
		ShippingFee:       EnvDecimalDefault("SHIPPING_FEE", decimal.NewFromInt(99)),

		PendingOrderTTL: EnvDurationDefault("PENDING_ORDER_TTL", 15*time.Minute),
		SweepInterval:   EnvDurationDefault("SWEEP_INTERVAL", time.Minute),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func EnvDecimalDefault(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}
