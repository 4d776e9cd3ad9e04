package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds the runtime configuration shared by the server wiring.
// Feature-specific settings live in their own loaders (booking, cache,
// rate limit, notify).
type Config struct {
	Env               string // application environment (e.g. "dev", "prod")
	Port              string // HTTP port to listen on
	StoreDriver       string // "mysql" or "memory"
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	JWTSecret         string // secret used to sign operator access tokens
	AccessTTLMin      int    // access token time-to-live in minutes
	BcryptCost        int    // bcrypt cost for password hashing
	AdminEmail        string // admin login email (optional)
	AdminPasswordHash string // bcrypt hash of the admin password (optional)
	AMQPURL           string // RabbitMQ URL; empty disables booking events
	SeedFile          string // YAML catalog loaded at startup (optional)
	CSRFEnabled       bool   // enforce csrftoken cookie / X-CSRFToken header
}

// Load reads a .env file when present, then builds a Config from the
// environment.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg := Config{
		Env:               envStr("APP_ENV", "dev"),
		Port:              must("APP_PORT"),
		StoreDriver:       strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		JWTSecret:         must("JWT_SECRET"),
		AccessTTLMin:      envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:        envInt("BCRYPT_COST", 12),
		AdminEmail:        strings.ToLower(os.Getenv("ADMIN_EMAIL")),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AMQPURL:           firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		SeedFile:          os.Getenv("SEED_FILE"),
		CSRFEnabled:       envBool("CSRF_ENABLED", true),
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	case DriverMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
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

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
