package factory

import (
	"context"
	"testing"

	"github.com/mikey/llm-mail-agent/internal/adapters/mailer"
	"github.com/mikey/llm-mail-agent/internal/config"
	"github.com/mikey/llm-mail-agent/internal/utils"
	"go.uber.org/zap/zaptest"
)

func testConfig(values map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateProviders(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := testConfig(map[string]any{"providers.openai.api_key": "sk-1"})
	f := NewLLMFactory(cfg, logger, utils.NewTextProcessor(logger, utils.HTMLModeStrip))

	providers, err := f.CreateProviders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"openai", "anthropic", "perplexity", "gemini"} {
		if _, ok := providers[name]; !ok {
			t.Errorf("provider %s not registered", name)
		}
	}
	if _, ok := providers["bedrock"]; ok {
		t.Error("bedrock should only be registered when enabled")
	}
}

func TestCreateCredentials(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := testConfig(map[string]any{
		"providers.openai.api_key": "sk-openai",
		"providers.gemini.api_key": "g-key",
	})
	creds := NewLLMFactory(cfg, logger, nil).CreateCredentials()

	if creds.Fallback != "openai" {
		t.Errorf("fallback: got %q, want %q", creds.Fallback, "openai")
	}
	if key, ok := creds.Resolve("gemini"); !ok || key != "g-key" {
		t.Errorf("gemini key: got %q, %v", key, ok)
	}
	if key, ok := creds.Resolve("anthropic"); !ok || key != "sk-openai" {
		t.Errorf("anthropic should fall back: got %q, %v", key, ok)
	}
}

func TestCreateMailer(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		mailerType string
		want       string
	}{
		{"sendgrid", "sendgrid"},
		{"smtp", "smtp"},
		{"stdout", "stdout"},
	}
	for _, tt := range tests {
		t.Run(tt.mailerType, func(t *testing.T) {
			cfg := testConfig(map[string]any{"mailer.type": tt.mailerType, "sendgrid.api_key": "SG.x"})
			m, err := NewMailerFactory(cfg, logger).CreateMailer(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Name() != tt.want {
				t.Errorf("name: got %q, want %q", m.Name(), tt.want)
			}
		})
	}

	cfg := testConfig(map[string]any{"mailer.type": "pigeon"})
	if _, err := NewMailerFactory(cfg, logger).CreateMailer(context.Background()); err == nil {
		t.Error("expected error for unsupported mailer type")
	}
}

func TestCreateMailer_SMTPSettings(t *testing.T) {
	cfg := testConfig(map[string]any{"mailer.type": "smtp", "smtp.address": "relay.example.com"})
	m, err := NewMailerFactory(cfg, zaptest.NewLogger(t)).CreateMailer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*mailer.SMTPMailer); !ok {
		t.Fatalf("got %T, want *mailer.SMTPMailer", m)
	}
}

func TestCreateReceiver(t *testing.T) {
	logger := zaptest.NewLogger(t)

	for _, receiver := range []string{"webhook", "smtp"} {
		cfg := testConfig(map[string]any{"server.receiver": receiver})
		r, err := NewReceiverFactory(cfg, logger, nil, nil).CreateReceiver()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", receiver, err)
		}
		if r == nil {
			t.Errorf("%s: nil receiver", receiver)
		}
	}

	cfg := testConfig(map[string]any{"server.receiver": "carrier-pigeon"})
	if _, err := NewReceiverFactory(cfg, logger, nil, nil).CreateReceiver(); err == nil {
		t.Error("expected error for unsupported receiver type")
	}
}
