package persona

import (
	"reflect"
	"testing"

	"github.com/mikey/llm-mail-agent/internal/core"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T, overrides map[string]core.Persona) *Registry {
	t.Helper()
	return NewRegistry(overrides, Defaults{Provider: "openai", Model: "gpt-4o", AgentName: "Mentat"}, zaptest.NewLogger(t))
}

func TestSelect_FirstMatchingPersonaWins(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, nil)
	sel, ok := r.Select([]string{"bob@x.com", "Claude@mentat.example", "gpt4omini@mentat.example"})
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Address != "Claude@mentat.example" {
		t.Errorf("Address: got %q, want %q", sel.Address, "Claude@mentat.example")
	}
	if !sel.Matched {
		t.Error("expected Matched to be true")
	}
	if sel.Persona.Model != "anthropic/claude-3-5-sonnet-latest" {
		t.Errorf("Model: got %q", sel.Persona.Model)
	}
	if sel.Persona.Key != "claude" {
		t.Errorf("Key: got %q, want %q", sel.Persona.Key, "claude")
	}
}

func TestSelect_FallsBackToFirstAddress(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, nil)
	sel, ok := r.Select([]string{"helper@mentat.example", "bob@x.com"})
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Address != "helper@mentat.example" {
		t.Errorf("Address: got %q", sel.Address)
	}
	if sel.Matched {
		t.Error("expected Matched to be false")
	}
	want := core.Persona{Key: "helper", Model: "openai/gpt-4o", Name: "Mentat [gpt-4o]", Provider: "openai"}
	if !reflect.DeepEqual(sel.Persona, want) {
		t.Errorf("Persona: got %+v, want %+v", sel.Persona, want)
	}
}

func TestSelect_NoCandidates(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, nil)
	if _, ok := r.Select(nil); ok {
		t.Error("expected no selection for empty candidates")
	}
}

func TestOverridesReplaceBaseEntries(t *testing.T) {
	t.Parallel()

	overrides, err := ParseOverrides(`{"Claude": {"model": "bedrock/anthropic.claude-3-haiku-20240307-v1:0", "name": "Mentat [Haiku]", "provider": "bedrock"}, "llama": {"model": "openai/llama-3", "name": "Llama", "provider": "openai"}}`)
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}

	r := newTestRegistry(t, overrides)

	p, ok := r.Lookup("claude")
	if !ok {
		t.Fatal("expected claude persona")
	}
	if p.Provider != "bedrock" || p.Name != "Mentat [Haiku]" {
		t.Errorf("claude override not applied: %+v", p)
	}
	if _, ok := r.Lookup("LLAMA"); !ok {
		t.Error("expected llama persona from overrides")
	}
	if _, ok := r.Lookup("gpt4omini"); !ok {
		t.Error("expected base persona gpt4omini to survive the merge")
	}
}

func TestParseOverrides(t *testing.T) {
	t.Parallel()

	got, err := ParseOverrides("")
	if err != nil || len(got) != 0 {
		t.Errorf("empty input: got %v, %v", got, err)
	}

	if _, err := ParseOverrides("{not json"); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestDefaultKeepsQualifiedModel(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, Defaults{Provider: "gemini", Model: "gemini/gemini-2.0-flash"}, zaptest.NewLogger(t))
	if got := r.Default().Model; got != "gemini/gemini-2.0-flash" {
		t.Errorf("Default model: got %q", got)
	}
	if got := r.Default().Name; got != "Mentat [gemini/gemini-2.0-flash]" {
		t.Errorf("Default name: got %q", got)
	}
}
