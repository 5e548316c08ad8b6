package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// devJWTSecret is only accepted outside production.
const devJWTSecret = "dev-secret-change-in-production"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional subsystems (tutor replies, chat events)
// carry their own sub-configs and are disabled when their key vars are unset.
type Config struct {
	Env           string        // application environment (development, production, test)
	Port          string        // HTTP port to listen on
	APIPrefix     string        // path prefix for the REST API (e.g. "/api")
	CORSOrigins   []string      // allowed CORS origins
	LogLevel      string        // zap level name
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	DBAutoMigrate bool          // apply embedded migrations at startup
	JWTSecret     string        // secret used to sign JWTs
	JWTExpiry     time.Duration // token lifetime
	BcryptCost    int           // bcrypt cost for password hashing
	Tutor         TutorConfig
	Events        EventsConfig
}

// IsProduction reports whether internal error messages must be hidden.
func (c Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether verbose error messages may be returned to clients.
func (c Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads configuration values from environment variables.  Only the JWT
// secret is mandatory, and only in production; everything else has a default
// matching a local development setup.
func Load() (Config, error) {
	cfg := Config{
		Env:           envStr("APP_ENV", "development"),
		Port:          envStr("APP_PORT", envStr("PORT", "3001")),
		APIPrefix:     normalizePrefix(envStr("API_PREFIX", "/api")),
		CORSOrigins:   splitList(envStr("CORS_ORIGIN", "http://localhost:5173")),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		DBUser:        envStr("DB_USER", "root"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        envStr("DB_HOST", "localhost"),
		DBPort:        envStr("DB_PORT", "3306"),
		DBName:        envStr("DB_NAME", "italiantutor"),
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", true),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		BcryptCost:    envInt("BCRYPT_COST", 10),
		Tutor:         LoadTutorConfig(),
		Events:        LoadEventsConfig(),
	}

	exp, err := ParseExpiry(envStr("JWT_EXPIRES_IN", "7d"))
	if err != nil {
		return Config{}, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	cfg.JWTExpiry = exp

	if cfg.JWTSecret == "" || cfg.JWTSecret == devJWTSecret {
		if cfg.IsProduction() {
			return Config{}, errors.New("JWT_SECRET must be set to a secure value in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST: %d", cfg.BcryptCost)
	}
	return cfg, nil
}

// ParseExpiry accepts Go durations ("168h") and the day shorthand used by
// token libraries ("7d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %q", s)
	}
	return d, nil
}

func normalizePrefix(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
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
