package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/AnshRaj112/astravedam-backend/internal/services"
)

// devJWTSecret signs tokens in local development only. Validate rejects it
// in production.
const devJWTSecret = "your-secret-key-change-in-production"

// defaultOrigins are the front-ends allowed when ALLOWED_ORIGINS is unset.
var defaultOrigins = []string{
	"http://localhost:49934",
	"http://localhost:3000",
	"https://astravedam.onrender.com",
}

type Config struct {
	Environment string // ENV: production, development, etc.
	Version     string
	Port        string
	Host        string
	AllowedHost string // Hostname only for strict host check (production only)

	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool // requires a replica set or Atlas
	RedisURI          string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	FrontendURL        string
	AllowedOrigins     []string

	GeoapifyKey string
	GeoapifyURL string

	LogLevel   string
	LogFormat  string
	TrustProxy bool // use X-Forwarded-For for client IPs (Render, Heroku)
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", getEnv("NODE_ENV", "development"))))
	host := getEnv("HOST", "http://localhost:10000")

	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	frontendURL := strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = append(allowedOrigins, defaultOrigins...)
	}
	if !containsOrigin(allowedOrigins, frontendURL) {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" && env != "production" {
		jwtSecret = devJWTSecret
	}

	logFormat := "console"
	if env == "production" {
		logFormat = "json"
	}

	return &Config{
		Environment:        env,
		Version:            getEnv("APP_VERSION", "1.0.0"),
		Port:               getEnv("PORT", "10000"),
		Host:               host,
		AllowedHost:        allowedHost,
		MongoURI:           getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/astravedam")),
		MongoDatabase:      getEnv("MONGO_DATABASE", ""),
		MongoTransactions:  getBool("MONGO_TRANSACTIONS", false),
		RedisURI:           getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:          jwtSecret,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", strings.TrimRight(host, "/")+"/api/auth/google/callback"),
		FrontendURL:        frontendURL,
		AllowedOrigins:     allowedOrigins,
		GeoapifyKey:        getEnv("GEOAPIFY_KEY", ""),
		GeoapifyURL:        getEnv("GEOAPIFY_URL", "https://api.geoapify.com/v1/geocode/search"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", logFormat),
		TrustProxy:         getBool("TRUST_PROXY", env == "production"),
	}
}

// Validate reports settings the server must not start with.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return errors.New("JWT_SECRET must be set to a private value in production")
	}
	return nil
}

// AuthConfig builds the identity settings handed to the auth services.
func (c *Config) AuthConfig() services.AuthConfig {
	return services.AuthConfig{
		JWTSecret:          c.JWTSecret,
		TokenTTL:           services.DefaultTokenTTL,
		GoogleClientID:     c.GoogleClientID,
		GoogleClientSecret: c.GoogleClientSecret,
		GoogleCallbackURL:  c.GoogleCallbackURL,
		FrontendURL:        c.FrontendURL,
		StateTTL:           services.DefaultStateTTL,
	}
}

// GoogleEnabled reports whether Google sign-in credentials are present.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// hostname strips scheme, path and port from a URL-ish host value.
func hostname(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
