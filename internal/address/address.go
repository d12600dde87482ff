// Package address normalizes free-form email header values.
package address

import (
	"regexp"
	"strings"
)

var (
	bracketPattern = regexp.MustCompile(`<([^<>]+@[^<>]+)>`)
	emailPattern   = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
)

// ExtractEmail returns the canonical address found in a From/To/Cc value.
// The last angle-bracketed address wins, then the last bare address. If
// nothing matches, the trimmed input is returned unchanged.
func ExtractEmail(raw string) string {
	if matches := bracketPattern.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		return strings.TrimSpace(matches[len(matches)-1][1])
	}

	if matches := emailPattern.FindAllString(raw, -1); len(matches) > 0 {
		return strings.TrimSpace(matches[len(matches)-1])
	}

	return strings.TrimSpace(raw)
}

// SplitAddressList splits a comma-separated header value and extracts the
// address of each non-empty entry.
func SplitAddressList(raw string) []string {
	return ExtractAll(strings.Split(raw, ","))
}

// ExtractAll applies ExtractEmail to an already split list, dropping blanks.
func ExtractAll(entries []string) []string {
	addrs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		addrs = append(addrs, ExtractEmail(entry))
	}
	return addrs
}

// LocalPart returns everything before the first "@".
func LocalPart(addr string) string {
	local, _, _ := strings.Cut(addr, "@")
	return local
}

// Domain returns everything after the first "@", or "" when there is none.
func Domain(addr string) string {
	_, domain, found := strings.Cut(addr, "@")
	if !found {
		return ""
	}
	return domain
}

// Equal compares two addresses case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}
