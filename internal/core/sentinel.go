package core

import (
	"strings"
)

// Sentinel is a suppression token found in a completion
type Sentinel int

const (
	SentinelNone Sentinel = iota
	SentinelFoundNoReply
	SentinelFoundLooping
)

// DetectSentinel looks for the suppression tokens anywhere in reply,
// case-insensitively. NOREPLY gates suppression; the looping token only
// changes which suppression is reported.
func DetectSentinel(reply string) Sentinel {
	lower := strings.ToLower(reply)
	if !strings.Contains(lower, strings.ToLower(SentinelNoReply)) {
		return SentinelNone
	}
	if strings.Contains(lower, strings.ToLower(SentinelLooping)) {
		return SentinelFoundLooping
	}
	return SentinelFoundNoReply
}
