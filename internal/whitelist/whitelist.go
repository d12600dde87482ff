package whitelist

import (
	"strings"

	"github.com/mikey/llm-mail-agent/internal/address"
	"go.uber.org/zap"
)

// Checker decides whether a sender address may use the agent
type Checker struct {
	entries []string
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	// Normalize entries (lowercase, no blanks)
	normalized := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		normalized = append(normalized, entry)
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized whitelist checker", zap.Strings("entries", normalized))
	}

	return &Checker{
		entries: normalized,
		logger:  logger,
	}
}

// IsWhitelisted checks the sender against the configured entries
func (c *Checker) IsWhitelisted(sender string) bool {
	ok := IsWhitelisted(sender, c.entries)
	if ok && c.logger != nil {
		c.logger.Debug("Sender is whitelisted", zap.String("email", sender))
	}
	return ok
}

// Entries returns the normalized entries
func (c *Checker) Entries() []string {
	return append([]string(nil), c.entries...)
}

// IsWhitelisted reports whether addr matches any entry. Entries may be an
// exact address, a domain wildcard ("*@example.com") or a universal wildcard
// ("*", "*@*", "*@*.*"). Matching is case-insensitive.
func IsWhitelisted(addr string, entries []string) bool {
	addr = strings.ToLower(addr)
	domain := address.Domain(addr)

	for _, entry := range entries {
		entry = strings.ToLower(entry)

		switch {
		case isUniversal(entry):
			return true
		case strings.HasPrefix(entry, "*@"):
			if domain != "" && domain == entry[2:] {
				return true
			}
		case entry == addr:
			return true
		}
	}

	return false
}

func isUniversal(entry string) bool {
	return entry == "*" || entry == "*@*" || entry == "*@*.*"
}
