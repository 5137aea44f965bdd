package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	API         APIConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	Service     ServiceConfig
	NewRelic    NewRelicConfig
	ServiceBus  ServiceBusConfig
	Elastic     ElasticConfig
	Stats       StatsConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            int
	Mode            string // debug, release, test
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// APIConfig holds the routing prefix for the data API
type APIConfig struct {
	Prefix  string
	Version string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// CORSConfig holds the allowed origins
type CORSConfig struct {
	Origins []string
}

// ServiceConfig identifies the running service
type ServiceConfig struct {
	Name    string
	Version string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// ServiceBusConfig holds the Azure Service Bus configuration
type ServiceBusConfig struct {
	ConnectionString string
	QueueName        string
}

// ElasticConfig holds Elasticsearch configuration
type ElasticConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
	Prefix   string
	Index    string
}

// StatsConfig controls the periodic stats reporter
type StatsConfig struct {
	ReportInterval time.Duration
}

// BasePath is the path every data and health route is mounted under.
func (c APIConfig) BasePath() string {
	prefix := "/" + strings.Trim(c.Prefix, "/")
	version := strings.Trim(c.Version, "/")
	if prefix == "/" {
		prefix = ""
	}
	if version == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return prefix + "/" + version
}

// Load reads configuration from an optional file and the environment.
// An empty file means search ./ and ./config for config.yaml, then app.env.
func Load(file string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, errors.Wrap(err, "error reading config file")
		}

		v.SetConfigName("app")
		v.SetConfigType("env")
		// Defaults and environment are enough to run
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, errors.Wrap(err, "error reading app.env")
		}
	}

	// PORT, API_PREFIX, LOG_LEVEL, ... override file values
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("logging.level", "LOG_LEVEL", "LOGGING_LEVEL")
	_ = v.BindEnv("newrelic.license_key", "NEW_RELIC_LICENSE_KEY", "NEWRELIC_LICENSE_KEY")

	return fromViper(v), nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Environment: v.GetString("environment"),
		Server: ServerConfig{
			Port:            v.GetInt("port"),
			Mode:            v.GetString("server.mode"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxBodyBytes:    v.GetInt64("server.max_body_bytes"),
		},
		API: APIConfig{
			Prefix:  v.GetString("api.prefix"),
			Version: v.GetString("api.version"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("cors.origin")),
		},
		Service: ServiceConfig{
			Name:    v.GetString("service.name"),
			Version: v.GetString("service.version"),
		},
		NewRelic: NewRelicConfig{
			AppName:    v.GetString("newrelic.app_name"),
			LicenseKey: v.GetString("newrelic.license_key"),
			Enabled:    v.GetBool("newrelic.enabled"),
		},
		ServiceBus: ServiceBusConfig{
			ConnectionString: v.GetString("servicebus.connection_string"),
			QueueName:        v.GetString("servicebus.queue_name"),
		},
		Elastic: ElasticConfig{
			Enabled:  v.GetBool("elastic.enabled"),
			URL:      v.GetString("elastic.url"),
			Username: v.GetString("elastic.username"),
			Password: v.GetString("elastic.password"),
			Prefix:   v.GetString("elastic.prefix"),
			Index:    v.GetString("elastic.index"),
		},
		Stats: StatsConfig{
			ReportInterval: v.GetDuration("stats.report_interval"),
		},
	}
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server
	v.SetDefault("port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	// API
	v.SetDefault("api.prefix", "/api")
	v.SetDefault("api.version", "v1")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cors.origin", "*")

	v.SetDefault("service.name", "ingest-service")
	v.SetDefault("service.version", "1.0.0")

	// New Relic
	v.SetDefault("newrelic.app_name", "Ingest Service")
	v.SetDefault("newrelic.license_key", "")
	v.SetDefault("newrelic.enabled", false)

	// Service Bus - no default connection string
	v.SetDefault("servicebus.connection_string", "")
	v.SetDefault("servicebus.queue_name", "record-events")

	// Elasticsearch
	v.SetDefault("elastic.enabled", false)
	v.SetDefault("elastic.url", "http://localhost:9200")
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.prefix", "ingest")
	v.SetDefault("elastic.index", "records")

	v.SetDefault("stats.report_interval", "1m")
}

// FormatIndex formats an Elasticsearch index name with the configured prefix
func FormatIndex(cfg ElasticConfig) string {
	if cfg.Prefix == "" {
		return cfg.Index
	}
	return cfg.Prefix + "-" + cfg.Index
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
