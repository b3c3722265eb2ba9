package config // package config loads application configuration from environment variables

import (
	"os" // os provides access to environment variables
	"time"

	log "github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets for external collaborators (identity,
// catalog, payments) are plain strings; durations are parsed with
// time.ParseDuration.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	LogLevel string // logrus level name
	BaseURL  string // public URL of the service, used in redirects and QR codes

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	IdentityJWTSecret    string // HMAC secret of the identity provider (optional)
	IdentityJWTPublicKey string // PEM encoded RSA public key of the identity provider (optional)

	CatalogBaseURL      string        // movie catalog API root
	CatalogAPIKey       string        // movie catalog API key
	CatalogImageBaseURL string        // poster image root
	CatalogTimeout      time.Duration // per request timeout for catalog calls

	StripeSecretKey string // payment processor secret key
	Currency        string // ISO currency used for line items

	PendingTicketTTL time.Duration // age after which a PENDING ticket is released
	SweepInterval    time.Duration // how often the sweeper runs

	AMQPURL      string // RabbitMQ URL; empty disables ticket events
	AuditLogPath string // file the event consumer appends to
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     must("APP_PORT"),
		LogLevel: envStr("LOG_LEVEL", "info"),
		BaseURL:  must("APP_BASE_URL"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		IdentityJWTSecret:    os.Getenv("IDENTITY_JWT_SECRET"),
		IdentityJWTPublicKey: os.Getenv("IDENTITY_JWT_PUBLIC_KEY"),

		CatalogBaseURL:      envStr("CATALOG_BASE_URL", "https://api.themoviedb.org/3"),
		CatalogAPIKey:       must("CATALOG_API_KEY"),
		CatalogImageBaseURL: envStr("CATALOG_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		CatalogTimeout:      envDur("CATALOG_TIMEOUT", 10*time.Second),

		StripeSecretKey: must("STRIPE_SECRET_KEY"),
		Currency:        envStr("PAYMENT_CURRENCY", "usd"),

		PendingTicketTTL: envDur("PENDING_TICKET_TTL", 30*time.Minute),
		SweepInterval:    envDur("PENDING_SWEEP_INTERVAL", time.Minute),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AuditLogPath: envStr("TICKET_AUDIT_LOG", "logs/tickets.log"),
	}
	if cfg.IdentityJWTSecret == "" && cfg.IdentityJWTPublicKey == "" {
		log.Fatalf("missing required env var: IDENTITY_JWT_SECRET or IDENTITY_JWT_PUBLIC_KEY")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
