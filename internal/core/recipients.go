package core

import (
	"strings"

	"github.com/mikey/llm-mail-agent/internal/address"
)

// ReplySubject prefixes subject with "Re: " unless it already has it
func ReplySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(subject, "Re: ") {
		return subject
	}
	return "Re: " + subject
}

// ReplyRecipients computes To and Cc for a reply sent from persona. The
// original sender comes first unless it is the persona itself; the persona
// address and duplicates are removed from both lists, and Cc never repeats
// an address already in To.
func ReplyRecipients(sender string, to, cc []string, persona string) ([]string, []string) {
	seen := make(map[string]bool)
	seen[strings.ToLower(persona)] = true

	add := func(list []string, addr string) []string {
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			return list
		}
		seen[key] = true
		return append(list, addr)
	}

	var replyTo []string
	replyTo = add(replyTo, address.ExtractEmail(sender))
	for _, addr := range to {
		replyTo = add(replyTo, addr)
	}

	var replyCc []string
	for _, addr := range cc {
		replyCc = add(replyCc, addr)
	}

	return replyTo, replyCc
}
