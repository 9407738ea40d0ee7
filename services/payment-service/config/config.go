package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	awspkg "github.com/pheebyy/carelink/pkg/aws"
)

// PaystackSecretName is the Secrets Manager entry overriding PAYSTACK_SECRET_KEY when AWS_USE_SECRETS=true.
const PaystackSecretName = "carelink/PAYSTACK_SECRET_KEY"

type Config struct {
	Port   string
	AppEnv string

	PaystackSecretKey string
	PaystackBaseURL   string
	Currency          string
	Channels          []string

	DisplayFXRate         float64
	PremiumThreshold      float64
	CommissionRateVersion string

	StoreBackend      string
	FirebaseProjectID string
	DynamoUsersTable  string
	DynamoTxTable     string
	DynamoConvTable   string

	PaymentSNSTopicARN string
	JWTSecret          string
	RateLimitPerMinute int
}

// LoadConfig reads configuration from environment variables. Call ApplySecrets afterwards to
// pull the gateway key from Secrets Manager, then Validate.
func LoadConfig() (*Config, error) {
	fx, err := getFloat("DISPLAY_FX_RATE", 1.0)
	if err != nil {
		return nil, err
	}
	threshold, err := getFloat("PREMIUM_THRESHOLD", 300)
	if err != nil {
		return nil, err
	}
	rpm, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8087"),
		AppEnv:                getEnv("APP_ENV", "development"),
		PaystackSecretKey:     strings.TrimSpace(os.Getenv("PAYSTACK_SECRET_KEY")),
		PaystackBaseURL:       strings.TrimSuffix(getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
		Currency:              getEnv("PAYSTACK_CURRENCY", "KES"),
		Channels:              splitList(getEnv("PAYSTACK_CHANNELS", "card,mobile_money")),
		DisplayFXRate:         fx,
		PremiumThreshold:      threshold,
		CommissionRateVersion: getEnv("COMMISSION_RATE_VERSION", "v2"),
		StoreBackend:          getEnv("STORE_BACKEND", "firestore"),
		FirebaseProjectID:     os.Getenv("FIREBASE_PROJECT_ID"),
		DynamoUsersTable:      getEnv("DYNAMO_USERS_TABLE", "users"),
		DynamoTxTable:         getEnv("DYNAMO_TRANSACTIONS_TABLE", "transactions"),
		DynamoConvTable:       getEnv("DYNAMO_CONVERSATIONS_TABLE", "conversations"),
		PaymentSNSTopicARN:    os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RateLimitPerMinute:    rpm,
	}
	return cfg, nil
}

// ApplySecrets overrides the gateway key from Secrets Manager when AWS_USE_SECRETS=true.
func (c *Config) ApplySecrets(ctx context.Context, sm awspkg.SecretGetter) error {
	if os.Getenv("AWS_USE_SECRETS") != "true" || sm == nil {
		return nil
	}
	v, err := sm.GetSecret(ctx, PaystackSecretName)
	if err != nil {
		return err
	}
	if v = strings.TrimSpace(v); v != "" {
		c.PaystackSecretKey = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.PaystackSecretKey == "" {
		return fmt.Errorf("missing required environment variable PAYSTACK_SECRET_KEY")
	}
	if c.DisplayFXRate <= 0 {
		return fmt.Errorf("DISPLAY_FX_RATE must be positive")
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("PAYSTACK_CHANNELS must list at least one channel")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
