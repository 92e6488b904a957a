// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Search        SearchConfig       `mapstructure:"search"`
	Onboarding    OnboardingConfig   `mapstructure:"onboarding"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	Enabled   bool     `mapstructure:"enabled"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Search Collaborator Config ---

// SearchConfig configures the AI-backed university search collaborator.
type SearchConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Endpoint  string `mapstructure:"endpoint"` // empty = provider default
	Model     string `mapstructure:"model"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	MaxBatch  int    `mapstructure:"max_batch"`
	CacheTTL  int    `mapstructure:"cache_ttl"` // minutes
	MockedDev bool   `mapstructure:"mocked_dev"`
}

// --- Onboarding Flow Config ---

type OnboardingConfig struct {
	RegistryPath       string `mapstructure:"registry_path"` // empty = builtin registry
	DebounceMS         int    `mapstructure:"debounce_ms"`
	MinQueryLength     int    `mapstructure:"min_query_length"`
	MaxResults         int    `mapstructure:"max_results"`
	SessionTTLMinutes  int    `mapstructure:"session_ttl_minutes"`
	LiveSearchLimit    int    `mapstructure:"live_search_limit"`
	SyntheticPoolSize  int    `mapstructure:"synthetic_pool_size"`
	AutoStepTimeoutSec int    `mapstructure:"auto_step_timeout_sec"`
}

// --- Notification Config ---

type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// --- Logging Config ---

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
