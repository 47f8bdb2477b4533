package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	ServiceName   string
	MongoURI      string
	JaegerAddress string

	AuthServiceURL     string
	PropertyServiceURL string
	RedisURL           string

	// Minimum lead time before check-in required to cancel a booking.
	// Zero disables the lead-time rule; the completed-booking guard
	// always applies.
	CancellationLead time.Duration

	CasbinModelPath  string
	CasbinPolicyPath string

	EmailFrom string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	leadDays := 2
	if v := os.Getenv("CANCELLATION_LEAD_DAYS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d >= 0 {
			leadDays = d
		}
	}

	smtpPort := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			smtpPort = p
		}
	}

	return &Config{
		Port:               getEnv("PORT", "8088"),
		ServiceName:        getEnv("SERVICE_NAME", "booking-service"),
		MongoURI:           getEnv("MONGO_DB_URI", "mongodb://localhost:27017"),
		JaegerAddress:      os.Getenv("JAEGER_ADDRESS"),
		AuthServiceURL:     getEnv("AUTH_SERVICE_URL", "https://auth-server:8080"),
		PropertyServiceURL: getEnv("PROPERTY_SERVICE_URL", "https://prop-server:8083"),
		RedisURL:           os.Getenv("REDIS_URL"),
		CancellationLead:   time.Duration(leadDays) * 24 * time.Hour,
		CasbinModelPath:    getEnv("CASBIN_MODEL_PATH", "config/rbac_model.conf"),
		CasbinPolicyPath:   getEnv("CASBIN_POLICY_PATH", "config/rbac_policy.csv"),
		EmailFrom:          getEnv("EMAIL_FROM", "noreply@rentio.com"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           smtpPort,
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
