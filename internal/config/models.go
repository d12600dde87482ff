package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-mail-agent/internal/core"
	"github.com/mikey/llm-mail-agent/internal/persona"
)

// AgentConfig represents the identity and instructions of the agent
type AgentConfig struct {
	Name            string
	SystemPrompt    string
	DefaultProvider string
	DefaultModel    string
}

// ServerConfig represents the webhook server configuration
type ServerConfig struct {
	Receiver          string
	ListenAddress     string
	MaxUploadBytes    int64
	ReadHeaderTimeout time.Duration
	SMTPListenAddress string
	SMTPDomain        string
}

// InboundConfig represents how inbound payloads are turned into text
type InboundConfig struct {
	HTMLMode string
}

// LLMConfig represents settings shared by every completion provider
type LLMConfig struct {
	FallbackProvider string
	MaxTokens        int
	MaxBodySize      int
	MaxImageBytes    int
	APIKeys          map[string]string
	BaseURLs         map[string]string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Enabled         bool
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// MailerConfig selects the outbound transport
type MailerConfig struct {
	Type string
}

// SendGridConfig represents the configuration for the SendGrid API
type SendGridConfig struct {
	APIKey  string
	BaseURL string
}

// SESConfig represents the configuration for Amazon SES
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SMTPConfig represents the configuration for an SMTP relay
type SMTPConfig struct {
	Address  string
	Port     int
	Username string
	Password string
	TLS      string
}

// GetAgent returns the agent configuration
func (c *Config) GetAgent() AgentConfig {
	return AgentConfig{
		Name:            c.GetString("agent.name"),
		SystemPrompt:    c.GetString("agent.system_prompt"),
		DefaultProvider: c.GetString("agent.default_provider"),
		DefaultModel:    c.GetString("agent.default_model"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	timeout, err := c.GetDuration("server.read_header_timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return ServerConfig{
		Receiver:          c.GetString("server.receiver"),
		ListenAddress:     c.GetString("server.listen_address"),
		MaxUploadBytes:    int64(c.GetInt("server.max_upload_bytes")),
		ReadHeaderTimeout: timeout,
		SMTPListenAddress: c.GetString("server.smtp.listen_address"),
		SMTPDomain:        c.GetString("server.smtp.domain"),
	}
}

// GetInbound returns the inbound configuration
func (c *Config) GetInbound() InboundConfig {
	return InboundConfig{
		HTMLMode: c.GetString("inbound.html_mode"),
	}
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	cfg := LLMConfig{
		FallbackProvider: c.GetString("llm.fallback_provider"),
		MaxTokens:        c.GetInt("llm.max_tokens"),
		MaxBodySize:      c.GetInt("llm.max_body_size"),
		MaxImageBytes:    c.GetInt("llm.max_image_bytes"),
		APIKeys:          make(map[string]string),
		BaseURLs:         make(map[string]string),
	}
	for _, name := range KeyedProviders {
		if key := c.GetString("providers." + name + ".api_key"); key != "" {
			cfg.APIKeys[name] = key
		}
		if url := c.GetString("providers." + name + ".base_url"); url != "" {
			cfg.BaseURLs[name] = url
		}
	}
	return cfg
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Enabled:         c.GetBool("bedrock.enabled"),
		Region:          c.GetString("bedrock.region"),
		AccessKeyID:     c.GetString("bedrock.access_key_id"),
		SecretAccessKey: c.GetString("bedrock.secret_access_key"),
	}
}

// GetMailer returns the mailer configuration
func (c *Config) GetMailer() MailerConfig {
	return MailerConfig{Type: c.GetString("mailer.type")}
}

// GetSendGrid returns the SendGrid configuration
func (c *Config) GetSendGrid() SendGridConfig {
	return SendGridConfig{
		APIKey:  c.GetString("sendgrid.api_key"),
		BaseURL: c.GetString("sendgrid.base_url"),
	}
}

// GetSES returns the SES configuration
func (c *Config) GetSES() SESConfig {
	return SESConfig{
		Region:          c.GetString("ses.region"),
		AccessKeyID:     c.GetString("ses.access_key_id"),
		SecretAccessKey: c.GetString("ses.secret_access_key"),
	}
}

// GetSMTP returns the SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address:  c.GetString("smtp.address"),
		Port:     c.GetInt("smtp.port"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		TLS:      strings.ToLower(c.GetString("smtp.tls")),
	}
}

// GetWhitelist returns the sender whitelist entries
func (c *Config) GetWhitelist() []string {
	return c.GetStringSlice("whitelist.senders")
}

// GetPersonaOverrides returns the persona overrides. They may be given as a
// JSON object string (typical for the environment) or as a YAML map.
func (c *Config) GetPersonaOverrides() (map[string]core.Persona, error) {
	raw := c.v.Get("personas.overrides")
	switch raw.(type) {
	case nil:
		return map[string]core.Persona{}, nil
	case string:
		return persona.ParseOverrides(c.GetString("personas.overrides"))
	}

	overrides := make(map[string]core.Persona)
	if err := c.v.UnmarshalKey("personas.overrides", &overrides); err != nil {
		return nil, fmt.Errorf("failed to decode persona overrides: %w", err)
	}
	return overrides, nil
}
