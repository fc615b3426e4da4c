package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabasesConfig `mapstructure:"database"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Redis    RedisConfig     `mapstructure:"redis"`
	NATS     NATSConfig      `mapstructure:"nats"`
	Notifier NotifierConfig  `mapstructure:"notifier"`
	Wizard   WizardConfig    `mapstructure:"wizard"`
	Admin    AdminConfig     `mapstructure:"admin"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	CORS     CORSConfig      `mapstructure:"cors"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Requests DatabaseConfig `mapstructure:"requests"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Storage backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// StorageConfig selects the key-value backend that holds the request list
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	Namespace     string `mapstructure:"namespace"`
	DataDir       string `mapstructure:"data_dir"`
	Watch         bool   `mapstructure:"watch"`
	MaxValueBytes int    `mapstructure:"max_value_bytes"`
	SeedFile      string `mapstructure:"seed_file"`
	SeedDefaults  bool   `mapstructure:"seed_defaults"`
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// NATSConfig holds NATS connection settings
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// Notifier kinds
const (
	NotifierLocal = "local"
	NotifierRedis = "redis"
	NotifierNATS  = "nats"
)

// NotifierConfig selects how "storage changed" signals are distributed
type NotifierConfig struct {
	Kind string `mapstructure:"kind"`
}

// WizardConfig holds employee wizard timings and limits
type WizardConfig struct {
	CountdownTicks     int           `mapstructure:"countdown_ticks"`
	CountdownInterval  time.Duration `mapstructure:"countdown_interval"`
	SubmitDelay        time.Duration `mapstructure:"submit_delay"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
	MaxDocumentBytes   int64         `mapstructure:"max_document_bytes"`
	MaxFrameBytes      int64         `mapstructure:"max_frame_bytes"`
	CameraEnabled      bool          `mapstructure:"camera_enabled"`
}

// AdminConfig holds admin console settings
type AdminConfig struct {
	AllowedStatuses     []string      `mapstructure:"allowed_statuses"`
	PlaceholderName     string        `mapstructure:"placeholder_name"`
	PhotoPlaceholderURL string        `mapstructure:"photo_placeholder_url"`
	ConsoleIdleTimeout  time.Duration `mapstructure:"console_idle_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// MetricsConfig holds prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	// Read from environment variables
	v.SetEnvPrefix("IDCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file; defaults are enough to run without one
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

// Default returns the built-in configuration without reading any file
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// defaults are static and always decode
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)

	v.SetDefault("database.requests.type", "mysql")
	v.SetDefault("database.requests.port", 3306)
	v.SetDefault("database.requests.max_open_conns", 10)
	v.SetDefault("database.requests.max_idle_conns", 5)
	v.SetDefault("database.requests.conn_max_lifetime", time.Hour)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.namespace", "requests")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.watch", true)
	v.SetDefault("storage.max_value_bytes", 5*1024*1024)
	v.SetDefault("storage.seed_defaults", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.channel", "idcard:storage-changed")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "idcard.storage.changed")
	v.SetDefault("notifier.kind", NotifierLocal)

	v.SetDefault("wizard.countdown_ticks", 5)
	v.SetDefault("wizard.countdown_interval", time.Second)
	v.SetDefault("wizard.submit_delay", time.Second)
	v.SetDefault("wizard.session_idle_timeout", 30*time.Minute)
	v.SetDefault("wizard.max_document_bytes", 10*1024*1024)
	v.SetDefault("wizard.max_frame_bytes", 8*1024*1024)
	v.SetDefault("wizard.camera_enabled", true)

	v.SetDefault("admin.placeholder_name", "Unknown employee")
	v.SetDefault("admin.photo_placeholder_url", "https://via.placeholder.com/300x400?text=User+Photo")
	v.SetDefault("admin.console_idle_timeout", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-Correlation-ID", "X-Employee-ID"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Storage.Namespace == "" {
		return fmt.Errorf("storage namespace is required")
	}

	switch config.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if config.Storage.DataDir == "" {
			return fmt.Errorf("storage data_dir is required for the file backend")
		}
	case BackendMySQL:
		if config.Database.Requests.Hostname == "" {
			return fmt.Errorf("database hostname is required")
		}
		if config.Database.Requests.Database == "" {
			return fmt.Errorf("database name is required")
		}
	case BackendRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", config.Storage.Backend)
	}

	switch config.Notifier.Kind {
	case NotifierLocal:
	case NotifierRedis:
		if config.Redis.Addr == "" || config.Redis.Channel == "" {
			return fmt.Errorf("redis addr and channel are required for the redis notifier")
		}
	case NotifierNATS:
		if config.NATS.URL == "" || config.NATS.Subject == "" {
			return fmt.Errorf("nats url and subject are required for the nats notifier")
		}
	default:
		return fmt.Errorf("unknown notifier kind: %s", config.Notifier.Kind)
	}

	if config.Wizard.CountdownTicks < 0 {
		return fmt.Errorf("wizard countdown_ticks cannot be negative")
	}

	if config.Wizard.SubmitDelay < 0 {
		return fmt.Errorf("wizard submit_delay cannot be negative")
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// AuditKey returns the key holding the status audit trail
func (s *StorageConfig) AuditKey() string {
	return s.Namespace + ".audit"
}

// IsStatusAllowed checks a status against the configured allow-list.
// An empty allow-list accepts any status.
func (a *AdminConfig) IsStatusAllowed(status string) bool {
	if len(a.AllowedStatuses) == 0 {
		return true
	}
	for _, s := range a.AllowedStatuses {
		if s == status {
			return true
		}
	}
	return false
}
