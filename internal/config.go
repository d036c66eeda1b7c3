package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/payweb-gateway/internal/payweb"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"http_server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	PayWeb   PayWebConfig   `mapstructure:"payweb"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PayWebConfig is the merchant configuration for the PayWeb3 gateway. It is
// loaded once at startup and treated as read-only for the life of the
// process.
type PayWebConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MerchantID    string        `mapstructure:"merchant_id"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	InitiateURL   string        `mapstructure:"initiate_url"`
	ProcessURL    string        `mapstructure:"process_url"`
	QueryURL      string        `mapstructure:"query_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Debug         bool          `mapstructure:"debug"`

	// Locale and Country ride along on every initiate request.
	Locale  string `mapstructure:"locale"`
	Country string `mapstructure:"country"`

	// DisableNotify drops NOTIFY_URL from the initiate request, leaving
	// the redirect leg as the only confirmation path. Not recommended:
	// notify is the more reliable of the two.
	DisableNotify bool `mapstructure:"disable_notify"`

	// Storefront pages the shopper's browser is sent to after the
	// redirect leg resolves.
	SuccessURL string `mapstructure:"success_url"`
	FailureURL string `mapstructure:"failure_url"`

	// Order-store status ids for the three states this service writes.
	ProcessingStatusID int `mapstructure:"processing_status_id"`
	PaidStatusID       int `mapstructure:"paid_status_id"`
	FailedStatusID     int `mapstructure:"failed_status_id"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the configuration purely from environment
// variables, used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_SOURCE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOGGING_LEVEL", "info"),
			Format: getEnv("LOGGING_FORMAT", "json"),
		},
		PayWeb: PayWebConfig{
			Enabled:            getEnvAsBool("PAYWEB_ENABLED", true),
			MerchantID:         getEnv("PAYWEB_MERCHANT_ID", ""),
			EncryptionKey:      getEnv("PAYWEB_ENCRYPTION_KEY", ""),
			InitiateURL:        getEnv("PAYWEB_INITIATE_URL", payweb.DefaultInitiateURL),
			ProcessURL:         getEnv("PAYWEB_PROCESS_URL", payweb.DefaultProcessURL),
			QueryURL:           getEnv("PAYWEB_QUERY_URL", payweb.DefaultQueryURL),
			Timeout:            getEnvAsDuration("PAYWEB_TIMEOUT", 30*time.Second),
			Debug:              getEnvAsBool("PAYWEB_DEBUG", false),
			Locale:             getEnv("PAYWEB_LOCALE", "en-za"),
			Country:            getEnv("PAYWEB_COUNTRY", "ZAF"),
			DisableNotify:      getEnvAsBool("PAYWEB_DISABLE_NOTIFY", false),
			SuccessURL:         getEnv("PAYWEB_SUCCESS_URL", ""),
			FailureURL:         getEnv("PAYWEB_FAILURE_URL", ""),
			ProcessingStatusID: getEnvAsInt("PAYWEB_PROCESSING_STATUS_ID", 1),
			PaidStatusID:       getEnvAsInt("PAYWEB_PAID_STATUS_ID", 2),
			FailedStatusID:     getEnvAsInt("PAYWEB_FAILED_STATUS_ID", 3),
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}
	if err := c.PayWeb.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payweb config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns < 1 {
		return errors.New("max_idle_conns must be at least 1")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level: %s", c.Level)
	}
	switch c.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid format: %s", c.Format)
	}
	return nil
}

func (c *PayWebConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	// Same rule as the gateway back office: no merchant id or key means
	// the module cannot run.
	if c.MerchantID == "" {
		return errors.New("merchant_id is required")
	}
	if c.EncryptionKey == "" {
		return errors.New("encryption_key is required")
	}
	for name, value := range map[string]string{
		"initiate_url": c.InitiateURL,
		"process_url":  c.ProcessURL,
		"query_url":    c.QueryURL,
		"success_url":  c.SuccessURL,
		"failure_url":  c.FailureURL,
	} {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.ProcessingStatusID <= 0 || c.PaidStatusID <= 0 || c.FailedStatusID <= 0 {
		return errors.New("status ids must be positive")
	}
	return nil
}
