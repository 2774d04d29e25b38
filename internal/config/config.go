package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeZone         = "America/Sao_Paulo"
	DefaultSnapshotSchedule = "0 1 * * *"
	DefaultTokenTTLMinutes  = 30
	DefaultMaxUploadMB      = 32
	DefaultListLimit        = 100
	MaxImportErrors         = 5
)

// DefaultEncodings is the order in which delimited uploads are decoded.
var DefaultEncodings = []string{"utf-8", "windows-1252", "iso-8859-1"}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// DSN builds a key/value connection string accepted by both lib/pq and pgx.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

type ImportConfig struct {
	Encodings   []string
	MaxUploadMB int64
	MaxErrors   int
}

// Config is built once at process start and handed to the services that need it.
type Config struct {
	Environment      string
	DB               DBConfig
	Auth             AuthConfig
	Import           ImportConfig
	Location         *time.Location
	SnapshotSchedule string
	ServicesFile     string
	AllowedOrigins   []string
}

func (c *Config) IsDev() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Load reads the process environment. Missing values fall back to development
// defaults, except the token secret outside development.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getenv("ENVIRONMENT", "development"),
		DB: DBConfig{
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			Name:     getenv("DB_NAME", "sistema_contratacoes"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			Secret:   os.Getenv("SECRET_KEY"),
			TokenTTL: time.Duration(getenvInt("ACCESS_TOKEN_EXPIRE_MINUTES", DefaultTokenTTLMinutes)) * time.Minute,
			Issuer:   getenv("TOKEN_ISSUER", "sistema-contratacoes"),
		},
		Import: ImportConfig{
			Encodings:   getenvList("IMPORT_ENCODINGS", DefaultEncodings),
			MaxUploadMB: int64(getenvInt("IMPORT_MAX_UPLOAD_MB", DefaultMaxUploadMB)),
			MaxErrors:   MaxImportErrors,
		},
		SnapshotSchedule: getenv("SNAPSHOT_SCHEDULE", DefaultSnapshotSchedule),
		ServicesFile:     getenv("SERVICES_FILE", "../services.yaml"),
		AllowedOrigins:   getenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	loc, err := time.LoadLocation(getenv("TIME_ZONE", DefaultTimeZone))
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}
	cfg.Location = loc

	if cfg.Auth.Secret == "" {
		if !cfg.IsDev() {
			return nil, fmt.Errorf("SECRET_KEY is required outside development")
		}
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenvList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
