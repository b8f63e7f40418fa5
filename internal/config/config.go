// Package config loads service configuration from the environment and an
// optional .env file, and keeps the current snapshot for the whole process.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is one immutable snapshot of the service settings.
type Config struct {
	HTTPAddr         string
	Storage          string
	Timezone         *time.Location
	MaxAdmitAttempts int

	Database Database
	AMQP     AMQP
	Log      Log
	Site     Site
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

// DSN builds a libpq-compatible connection string.
func (c Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// AMQP configures registration notifications. An empty URL disables publishing.
type AMQP struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Log configures the zerolog output.
type Log struct {
	Level  string
	Format string
}

// Site is the academy-wide contact information served to the public pages.
type Site struct {
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
}

// Load reads the configuration. Real environment variables take precedence
// over values in envFile; a missing envFile is not an error.
func Load(envFile string) (Config, error) {
	file := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			file = vals
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(file[key]); v != "" {
			return v
		}
		return fallback
	}

	c := Config{
		HTTPAddr: ":" + get("PORT", "8080"),
		Storage:  strings.ToLower(get("STORAGE", StoragePostgres)),
		Database: Database{
			Host:     get("DB_HOST", "localhost"),
			Port:     get("DB_PORT", "5432"),
			User:     get("DB_USER", "postgres"),
			Password: get("DB_PASSWORD", "postgres"),
			DBName:   get("DB_NAME", "academy"),
			SSLMode:  get("DB_SSLMODE", "disable"),
		},
		AMQP: AMQP{
			URL:        get("AMQP_URL", ""),
			Exchange:   get("AMQP_EXCHANGE", "academy.events"),
			RoutingKey: get("AMQP_ROUTING_KEY", "registration.created"),
		},
		Log: Log{
			Level:  strings.ToLower(get("LOG_LEVEL", "info")),
			Format: strings.ToLower(get("LOG_FORMAT", "json")),
		},
		Site: Site{
			Name:         get("SITE_NAME", "Sports Academy"),
			Tagline:      get("SITE_TAGLINE", ""),
			ContactEmail: get("SITE_CONTACT_EMAIL", ""),
			ContactPhone: get("SITE_CONTACT_PHONE", ""),
			Address:      get("SITE_ADDRESS", ""),
		},
	}

	var err error
	if c.Timezone, err = time.LoadLocation(get("TIMEZONE", "UTC")); err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	if c.MaxAdmitAttempts, err = positiveInt(get("MAX_ADMIT_ATTEMPTS", "5")); err != nil {
		return Config{}, fmt.Errorf("MAX_ADMIT_ATTEMPTS: %w", err)
	}
	maxConns, err := positiveInt(get("DB_MAX_CONNS", "20"))
	if err != nil {
		return Config{}, fmt.Errorf("DB_MAX_CONNS: %w", err)
	}
	c.Database.MaxConns = int32(maxConns)

	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		return Config{}, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	return c, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

// Store holds the current Config and swaps it atomically on Reload.
type Store struct {
	load    func() (Config, error)
	current atomic.Pointer[Config]
}

// NewStore performs the initial load.
func NewStore(load func() (Config, error)) (*Store, error) {
	s := &Store{load: load}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the active snapshot. Callers must not modify it.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Reload loads a fresh snapshot. On error the previous one stays active.
func (s *Store) Reload() error {
	c, err := s.load()
	if err != nil {
		return err
	}
	s.current.Store(&c)
	return nil
}
