package core

import "testing"

func TestDetectSentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply string
		want  Sentinel
	}{
		{"NOREPLY", SentinelFoundNoReply},
		{"I think noreply is right here.", SentinelFoundNoReply},
		{"NOREPLY_LOOPING", SentinelFoundLooping},
		{"we seem to be stuck. noreply_looping", SentinelFoundLooping},
		{"Sure, here is the summary you asked for.", SentinelNone},
		{"", SentinelNone},
	}

	for _, tt := range tests {
		if got := DetectSentinel(tt.reply); got != tt.want {
			t.Errorf("DetectSentinel(%q): got %v, want %v", tt.reply, got, tt.want)
		}
	}
}
