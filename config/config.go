// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	// Database – either set DatabaseURL directly, or the individual fields.
	Driver      string
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// JWT signing secret. Admin routes are disabled when empty.
	JWTSecret  string
	AdminUsers []string

	// Server
	Debug       bool
	LogLevel    string
	LogDraws    bool
	Port        string
	TLSDomains  []string
	CORSOrigins []string

	// TiersFile optionally points at a YAML tier catalog.
	TiersFile string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()

	// Defaults
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_NAME", "luckydraw")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("ADMIN_USERS", "admin")
	v.SetDefault("PORT", ":3000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_DRAWS", false)

	cfg := &Config{
		Driver:      strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseURL: v.GetString("DATABASE_URL"),
		DBUser:      v.GetString("DB_USER"),
		DBPass:      firstNonEmpty(v.GetString("DB_PASS"), v.GetString("DB_PASSWORD")),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSLMODE"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		AdminUsers:  splitTrimmed(v.GetString("ADMIN_USERS")),
		Debug:       v.GetBool("DEBUG"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogDraws:    v.GetBool("LOG_DRAWS"),
		Port:        normalizePort(v.GetString("PORT")),
		TLSDomains:  splitTrimmed(v.GetString("TLS_DOMAINS")),
		CORSOrigins: splitTrimmed(v.GetString("CORS_ORIGIN")),
		TiersFile:   v.GetString("TIERS_FILE"),
	}
	if cfg.DBPort == "" {
		cfg.DBPort = defaultPort(cfg.Driver)
	}

	if err := cfg.validate(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

// DSN returns the driver connection string. DATABASE_URL takes precedence
// over individual fields.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.Driver == DriverPostgres {
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			c.DBUser,
			c.DBPass,
			c.DBHost,
			c.DBPort,
			c.DBName,
			c.DBSSLMode,
		)
	}
	return c.MySQL().FormatDSN()
}

// MySQL returns the go-sql-driver configuration built from the individual fields.
func (c *Config) MySQL() *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Timeout = 5 * time.Second
	return mc
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// AdminEnabled reports whether the JWT-protected admin routes should be served.
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != ""
}

// IsAdmin reports whether username is listed in ADMIN_USERS.
func (c *Config) IsAdmin(username string) bool {
	normalized := strings.ToLower(strings.TrimSpace(username))
	for _, admin := range c.AdminUsers {
		if normalized == strings.ToLower(admin) {
			return true
		}
	}
	return false
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("config: DB_DRIVER must be %q or %q, got %q", DriverMySQL, DriverPostgres, c.Driver)
	}
	if c.DatabaseURL == "" && c.DBHost == "" {
		return fmt.Errorf("config: DATABASE_URL or DB_HOST must be set")
	}
	return nil
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func defaultPort(driver string) string {
	if driver == DriverPostgres {
		return "5432"
	}
	return "3306"
}

// normalizePort accepts both "3000" and ":3000".
func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if p != "" && !strings.Contains(p, ":") {
		return ":" + p
	}
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
