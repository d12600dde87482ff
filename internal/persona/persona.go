// Package persona maps recipient local parts to the model that answers.
package persona

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey/llm-mail-agent/internal/address"
	"github.com/mikey/llm-mail-agent/internal/core"
	"go.uber.org/zap"
)

// BaseTable is the built-in persona table keyed by local part
func BaseTable() map[string]core.Persona {
	return map[string]core.Persona{
		"gpt4omini":   {Model: "openai/gpt-4o-mini", Name: "Mentat [GPT-4o Mini]", Provider: "openai"},
		"gpt4o":       {Model: "openai/chatgpt-4o-latest", Name: "Mentat [GPT-4o]", Provider: "openai"},
		"o1":          {Model: "openai/o1", Name: "Mentat [o1]", Provider: "openai"},
		"o3mini":      {Model: "openai/o3-mini", Name: "Mentat [o3 Mini]", Provider: "openai"},
		"claude":      {Model: "anthropic/claude-3-5-sonnet-latest", Name: "Mentat [Claude]", Provider: "anthropic"},
		"geminiflash": {Model: "gemini/gemini-2.0-flash", Name: "Mentat [Gemini 2.0 Flash]", Provider: "gemini"},
		"geminipro":   {Model: "gemini/gemini-1.5-pro", Name: "Mentat [Gemini Pro]", Provider: "gemini"},
		"sonarpro":    {Model: "perplexity/sonar-pro", Name: "Mentat [Sonar Pro]", Provider: "perplexity"},
	}
}

// ParseOverrides decodes a JSON object of persona overrides
func ParseOverrides(raw string) (map[string]core.Persona, error) {
	overrides := make(map[string]core.Persona)
	if strings.TrimSpace(raw) == "" {
		return overrides, nil
	}
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse persona overrides: %w", err)
	}
	return overrides, nil
}

// Merge combines base and overrides; overrides replace entries with the
// same key. Keys are lower-cased.
func Merge(base, overrides map[string]core.Persona) map[string]core.Persona {
	merged := make(map[string]core.Persona, len(base)+len(overrides))
	for key, p := range base {
		key = strings.ToLower(key)
		p.Key = key
		merged[key] = p
	}
	for key, p := range overrides {
		key = strings.ToLower(key)
		p.Key = key
		merged[key] = p
	}
	return merged
}

// Registry selects personas from a merged table
type Registry struct {
	personas map[string]core.Persona
	fallback core.Persona
	logger   *zap.Logger
}

// Defaults describes the persona used when no recipient matches
type Defaults struct {
	Provider  string
	Model     string
	AgentName string
}

// NewRegistry creates a registry from the base table merged with overrides
func NewRegistry(overrides map[string]core.Persona, defaults Defaults, logger *zap.Logger) *Registry {
	personas := Merge(BaseTable(), overrides)

	agentName := defaults.AgentName
	if agentName == "" {
		agentName = "Mentat"
	}

	fallback := core.Persona{
		Model:    defaults.Model,
		Name:     fmt.Sprintf("%s [%s]", agentName, defaults.Model),
		Provider: defaults.Provider,
	}
	if defaults.Provider != "" && !strings.Contains(defaults.Model, "/") {
		fallback.Model = defaults.Provider + "/" + defaults.Model
	}

	logger.Info("Loaded persona table",
		zap.Int("personas", len(personas)),
		zap.Int("overrides", len(overrides)),
		zap.String("default_model", fallback.Model))

	return &Registry{
		personas: personas,
		fallback: fallback,
		logger:   logger,
	}
}

// Lookup finds a persona by local part, case-insensitively
func (r *Registry) Lookup(localPart string) (core.Persona, bool) {
	p, ok := r.personas[strings.ToLower(localPart)]
	return p, ok
}

// Default returns the persona used when nothing matches
func (r *Registry) Default() core.Persona {
	return r.fallback
}

// Keys returns the persona keys in sorted order
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.personas))
	for key := range r.personas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Select picks the first candidate whose local part is a known persona. If
// none matches, the first candidate acts with the default persona.
func (r *Registry) Select(candidates []string) (core.Selection, bool) {
	if len(candidates) == 0 {
		return core.Selection{}, false
	}

	for _, addr := range candidates {
		if p, ok := r.Lookup(address.LocalPart(addr)); ok {
			return core.Selection{Address: addr, Persona: p, Matched: true}, true
		}
	}

	addr := candidates[0]
	p := r.fallback
	p.Key = strings.ToLower(address.LocalPart(addr))

	r.logger.Debug("No persona matched recipients, using default",
		zap.Strings("candidates", candidates),
		zap.String("model", p.Model))

	return core.Selection{Address: addr, Persona: p, Matched: false}, true
}
