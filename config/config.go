package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	AdminEmails   []string
	UploadDir     string
	PublicBaseURL string

	EmailEndpoint       string
	EmailServiceID      string
	EmailTemplateVerify string
	EmailTemplateReset  string
	EmailPublicKey      string

	AutoResponseDelay  time.Duration
	DefaultDeliveryFee float64
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() Config {
	cfg := Config{
		Port:          getEnv("PORT", ":8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "caintamart"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminEmails:   splitList(getEnv("ADMIN_EMAILS", "")),
		UploadDir:     getEnv("UPLOAD_DIR", "static/uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "/static/uploads"),

		EmailEndpoint:       getEnv("EMAIL_ENDPOINT", ""),
		EmailServiceID:      getEnv("EMAIL_SERVICE_ID", ""),
		EmailTemplateVerify: getEnv("EMAIL_TEMPLATE_VERIFY", "signup_code"),
		EmailTemplateReset:  getEnv("EMAIL_TEMPLATE_RESET", "reset_code"),
		EmailPublicKey:      getEnv("EMAIL_PUBLIC_KEY", ""),

		AutoResponseDelay:  getEnvAsDuration("AUTO_RESPONSE_DELAY", 1500*time.Millisecond),
		DefaultDeliveryFee: getEnvAsFloat("DEFAULT_DELIVERY_FEE", 50),
	}
	if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}
	return cfg
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d >= 0 {
		return d
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && f >= 0 {
		return f
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
