package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// KeyedProviders lists the providers configured with an API key
var KeyedProviders = []string{"openai", "anthropic", "gemini", "perplexity"}

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return Load("")
}

// Load reads configuration from path, or from the standard search paths
// when path is empty
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/mail-agent/")
		v.AddConfigPath("$HOME/.mail-agent")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults and environment
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Agent defaults
	v.SetDefault("agent.name", "Mentat")

	// Server defaults
	v.SetDefault("server.receiver", "webhook")
	v.SetDefault("server.listen_address", "0.0.0.0:5001")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.smtp.listen_address", "0.0.0.0:2525")
	v.SetDefault("server.smtp.domain", "localhost")

	// Inbound defaults
	v.SetDefault("inbound.html_mode", "strip")

	// LLM defaults
	v.SetDefault("llm.fallback_provider", "openai")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_body_size", 0)
	v.SetDefault("llm.max_image_bytes", 20<<20)

	// Provider endpoints; the anthropic and perplexity entries use their
	// OpenAI-compatible APIs
	v.SetDefault("providers.openai.base_url", "")
	v.SetDefault("providers.anthropic.base_url", "https://api.anthropic.com/v1/")
	v.SetDefault("providers.perplexity.base_url", "https://api.perplexity.ai")
	for _, name := range KeyedProviders {
		v.SetDefault("providers."+name+".api_key", "")
	}

	// Bedrock defaults
	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "us-east-1")

	// Mailer defaults
	v.SetDefault("mailer.type", "sendgrid")
	v.SetDefault("sendgrid.base_url", "https://api.sendgrid.com")
	v.SetDefault("ses.region", "us-east-1")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.tls", "starttls")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration. A single
// comma-separated string, as set from the environment, is split.
func (c *Config) GetStringSlice(key string) []string {
	values := c.v.GetStringSlice(key)
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

// Validate checks that every required setting is present
func (c *Config) Validate() error {
	var missing []string
	for _, key := range []string{"agent.system_prompt", "agent.default_provider", "agent.default_model"} {
		if c.GetString(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(c.GetStringSlice("whitelist.senders")) == 0 {
		missing = append(missing, "whitelist.senders")
	}
	if c.GetString("mailer.type") == "sendgrid" && c.GetString("sendgrid.api_key") == "" {
		missing = append(missing, "sendgrid.api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if len(c.GetLLM().APIKeys) == 0 && !c.GetBedrock().Enabled {
		keys := make([]string, 0, len(KeyedProviders))
		for _, name := range KeyedProviders {
			keys = append(keys, "providers."+name+".api_key")
		}
		return fmt.Errorf("missing required API keys, please add one: %s", strings.Join(keys, ", "))
	}

	return nil
}
