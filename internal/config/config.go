// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables (the original deployment's names: GEMINI_API_KEY,
//     GENERATIVE_MODEL, FIREBASE_CRED_PATH, ...)
//  2. Config file (~/.genchat/config.yaml or ./config.yaml)
//  3. Default values
//
// Validation is deliberately deferred: absent required values (API key,
// credential path) surface as errors in the component that consumes them,
// not at load time.
//
// Security: secret values are masked in MarshalJSON and String.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Defaults.
const (
	// DefaultModelName is used when GENERATIVE_MODEL is not set. The chat
	// service pins its own generation model; this value feeds debug tooling.
	DefaultModelName = "gemini-2.0-flash"

	// DefaultPort matches the original deployment's server port.
	DefaultPort = 5000

	// DefaultChatTimeoutSeconds bounds a single generation round trip. The
	// upstream SDK enforces no deadline of its own.
	DefaultChatTimeoutSeconds = 60

	// DefaultMaxHistoryMessages caps the per-user in-memory history. Oldest
	// entries are evicted beyond this.
	DefaultMaxHistoryMessages = 200
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secret fields, update MarshalJSON as well.
type Config struct {
	// Gemini API configuration
	GeminiAPIKey string `mapstructure:"gemini_api_key" json:"gemini_api_key"` // SENSITIVE: masked in MarshalJSON
	ModelName    string `mapstructure:"model_name" json:"model_name"`

	// Firebase configuration
	FirebaseCredPath      string `mapstructure:"firebase_cred_path" json:"firebase_cred_path"`
	FirebaseProjectID     string `mapstructure:"firebase_project_id" json:"firebase_project_id"`
	FirestoreEmulatorHost string `mapstructure:"firestore_emulator_host" json:"firestore_emulator_host"`

	// Export storage backend selection: Firestore when true, the relational
	// database at DatabaseURL otherwise.
	UseFirestore bool   `mapstructure:"use_firestore" json:"use_firestore"`
	DatabaseURL  string `mapstructure:"database_url" json:"database_url"` // SENSITIVE: may carry credentials, masked in MarshalJSON

	// HTTP server
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`

	// Chat behavior
	ChatTimeoutSeconds int `mapstructure:"chat_timeout_seconds" json:"chat_timeout_seconds"`
	MaxHistoryMessages int `mapstructure:"max_history_messages" json:"max_history_messages"`

	// Proactive rate limiting of outbound generation calls.
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" json:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".genchat")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing configuration file is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("chat_timeout_seconds", DefaultChatTimeoutSeconds)
	viper.SetDefault("max_history_messages", DefaultMaxHistoryMessages)
	viper.SetDefault("use_firestore", false)
	viper.SetDefault("database_url", "sqlite://app.db")
	viper.SetDefault("rate_limit_per_second", 10)
	viper.SetDefault("rate_limit_burst", 30)
}

// bindEnvVariables binds environment variables explicitly, preserving the
// names the original deployment already uses.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("model_name", "GENERATIVE_MODEL")
	mustBind("firebase_cred_path", "FIREBASE_CRED_PATH")
	mustBind("firebase_project_id", "FIREBASE_PROJECT_ID")
	mustBind("firestore_emulator_host", "FIRESTORE_EMULATOR_HOST")
	mustBind("use_firestore", "USE_FIREBASE")
	mustBind("database_url", "DATABASE_URL")
	mustBind("port", "PORT")
	mustBind("chat_timeout_seconds", "GENCHAT_CHAT_TIMEOUT")
	mustBind("max_history_messages", "GENCHAT_MAX_HISTORY")
	mustBind("rate_limit_per_second", "GENCHAT_RATE_LIMIT")
	mustBind("rate_limit_burst", "GENCHAT_RATE_BURST")
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ChatTimeout returns the outbound generation deadline as a duration.
// Zero or negative values disable the deadline.
func (c *Config) ChatTimeout() time.Duration {
	if c.ChatTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ChatTimeoutSeconds) * time.Second
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked; longer ones keep two characters at each end for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
// Masked fields: GeminiAPIKey, DatabaseURL (may embed credentials).
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GeminiAPIKey = maskSecret(a.GeminiAPIKey)
	a.DatabaseURL = maskSecret(a.DatabaseURL)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
