package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gtmscore/gtmscore/internal/api"
	"github.com/gtmscore/gtmscore/internal/email"
	"github.com/gtmscore/gtmscore/internal/events"
	"github.com/gtmscore/gtmscore/internal/report"
	"github.com/gtmscore/gtmscore/internal/store"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the overall application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Scoring ScoringConfig `yaml:"scoring"`
	Store   StoreConfig   `yaml:"store"`
	Report  ReportConfig  `yaml:"report"`
	Email   EmailConfig   `yaml:"email"`
	Events  EventsConfig  `yaml:"events"`
}

// APIConfig represents HTTP gateway configuration.
type APIConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	ReadTimeout    Duration `yaml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
	IdleTimeout    Duration `yaml:"idle_timeout"`
	EnableCORS     *bool    `yaml:"enable_cors"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxRequestSize int64    `yaml:"max_request_size"`
}

// ScoringConfig represents scoring engine configuration.
type ScoringConfig struct {
	// BundlesPath points at a JSON metric bundle file. Empty means the
	// built-in tables.
	BundlesPath string `yaml:"bundles_path"`
}

// StoreConfig represents submission log configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig represents PDF renderer configuration.
type ReportConfig struct {
	MaxConcurrent int      `yaml:"max_concurrent"`
	Timeout       Duration `yaml:"timeout"`
}

// EmailConfig represents notification email configuration. An empty host
// disables notifications.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// EventsConfig represents Kafka publisher configuration. Empty brokers
// disables publishing.
type EventsConfig struct {
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	ClientID     string   `yaml:"client_id"`
	BatchTimeout Duration `yaml:"batch_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// Load reads configuration from a YAML file. A missing file is an error;
// the process must not start against an unknown configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Gateway maps the YAML section onto the gateway's config, filling defaults
// for unset fields.
func (c *Config) Gateway() api.GatewayConfig {
	cfg := api.DefaultGatewayConfig()
	if c.API.Host != "" {
		cfg.Host = c.API.Host
	}
	if c.API.Port != 0 {
		cfg.Port = c.API.Port
	}
	if c.API.ReadTimeout != 0 {
		cfg.ReadTimeout = c.API.ReadTimeout.Std()
	}
	if c.API.WriteTimeout != 0 {
		cfg.WriteTimeout = c.API.WriteTimeout.Std()
	}
	if c.API.IdleTimeout != 0 {
		cfg.IdleTimeout = c.API.IdleTimeout.Std()
	}
	if c.API.EnableCORS != nil {
		cfg.EnableCORS = *c.API.EnableCORS
	}
	if len(c.API.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = c.API.AllowedOrigins
	}
	if c.API.MaxRequestSize != 0 {
		cfg.MaxRequestSize = c.API.MaxRequestSize
	}
	return cfg
}

// StoreConfig maps the YAML section onto the submission store's config.
func (c *Config) StoreConfig() store.Config {
	cfg := store.DefaultConfig()
	if c.Store.Path != "" {
		cfg.Path = c.Store.Path
	}
	return cfg
}

// Renderer maps the YAML section onto the PDF renderer's config.
func (c *Config) Renderer() report.Config {
	cfg := report.DefaultConfig()
	if c.Report.MaxConcurrent != 0 {
		cfg.MaxConcurrent = c.Report.MaxConcurrent
	}
	if c.Report.Timeout != 0 {
		cfg.Timeout = c.Report.Timeout.Std()
	}
	return cfg
}

// EmailService maps the YAML section onto the email service's config.
func (c *Config) EmailService() email.Config {
	cfg := email.DefaultConfig()
	cfg.Host = c.Email.Host
	if c.Email.Port != 0 {
		cfg.Port = c.Email.Port
	}
	cfg.Username = c.Email.Username
	cfg.Password = c.Email.Password
	if c.Email.From != "" {
		cfg.From = c.Email.From
	}
	cfg.To = c.Email.To
	return cfg
}

// Kafka maps the YAML section onto the event publisher's config.
func (c *Config) Kafka() events.KafkaConfig {
	cfg := events.DefaultKafkaConfig()
	cfg.Brokers = c.Events.Brokers
	if c.Events.Topic != "" {
		cfg.Topic = c.Events.Topic
	}
	if c.Events.ClientID != "" {
		cfg.ClientID = c.Events.ClientID
	}
	if c.Events.BatchTimeout != 0 {
		cfg.BatchTimeout = c.Events.BatchTimeout.Std()
	}
	if c.Events.WriteTimeout != 0 {
		cfg.WriteTimeout = c.Events.WriteTimeout.Std()
	}
	return cfg
}
