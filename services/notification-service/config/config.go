package config

import (
	"fmt"
	"os"
	"strconv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	TimeZone string
}

// Enabled reports whether the delivery log should be persisted.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		p.Host, p.User, p.Password, p.DB, p.Port, p.SSLMode, p.TimeZone,
	)
}

type Config struct {
	Port   string
	AppEnv string

	StoreBackend      string
	FirebaseProjectID string
	DynamoUsersTable  string
	DynamoTxTable     string
	DynamoConvTable   string

	MessageEventsQueueURL string

	// TriggerSharedSecret guards POST /events/message-created when set.
	TriggerSharedSecret string
	JWTSecret           string
	RateLimitPerMinute  int

	Postgres PostgresConfig
}

func LoadConfig() (*Config, error) {
	rpm, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	return &Config{
		Port:                  getEnv("PORT", "8088"),
		AppEnv:                getEnv("APP_ENV", "development"),
		StoreBackend:          getEnv("STORE_BACKEND", "firestore"),
		FirebaseProjectID:     os.Getenv("FIREBASE_PROJECT_ID"),
		DynamoUsersTable:      getEnv("DYNAMO_USERS_TABLE", "users"),
		DynamoTxTable:         getEnv("DYNAMO_TRANSACTIONS_TABLE", "transactions"),
		DynamoConvTable:       getEnv("DYNAMO_CONVERSATIONS_TABLE", "conversations"),
		MessageEventsQueueURL: os.Getenv("MESSAGE_EVENTS_QUEUE_URL"),
		TriggerSharedSecret:   os.Getenv("TRIGGER_SHARED_SECRET"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RateLimitPerMinute:    rpm,
		Postgres: PostgresConfig{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
	}, nil
}

func (c *Config) Validate() error {
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Postgres.Enabled() {
		if c.Postgres.User == "" {
			return fmt.Errorf("POSTGRES_USER not set")
		}
		if c.Postgres.DB == "" {
			return fmt.Errorf("POSTGRES_DB not set")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
