package core

import (
	"reflect"
	"testing"
)

func TestReplySubject(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Hello":     "Re: Hello",
		"  Hello  ": "Re: Hello",
		"Re: Hello": "Re: Hello",
		"RE: Hello": "Re: RE: Hello",
		"":          "Re: ",
	}
	for in, want := range tests {
		if got := ReplySubject(in); got != want {
			t.Errorf("ReplySubject(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestReplyRecipients(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sender  string
		to      []string
		cc      []string
		persona string
		wantTo  []string
		wantCc  []string
	}{
		{
			name:    "sender only",
			sender:  "Alice <alice@x.com>",
			to:      []string{"gpt4omini@y.com"},
			persona: "gpt4omini@y.com",
			wantTo:  []string{"alice@x.com"},
		},
		{
			name:    "group thread",
			sender:  "alice@x.com",
			to:      []string{"Claude@y.com", "bob@x.com", "BOB@x.com", "alice@x.com"},
			cc:      []string{"carol@x.com", "claude@y.com", "bob@x.com"},
			persona: "claude@y.com",
			wantTo:  []string{"alice@x.com", "bob@x.com"},
			wantCc:  []string{"carol@x.com"},
		},
		{
			name:    "persona wrote to itself",
			sender:  "gpt4o@y.com",
			to:      []string{"gpt4o@y.com"},
			persona: "gpt4o@y.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTo, gotCc := ReplyRecipients(tt.sender, tt.to, tt.cc, tt.persona)
			if !reflect.DeepEqual(gotTo, tt.wantTo) {
				t.Errorf("To: got %v, want %v", gotTo, tt.wantTo)
			}
			if !reflect.DeepEqual(gotCc, tt.wantCc) {
				t.Errorf("Cc: got %v, want %v", gotCc, tt.wantCc)
			}
		})
	}
}

func TestThreadReferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  InboundMessage
		want string
	}{
		{InboundMessage{MessageID: "<b@x>", References: "<a@x>"}, "<a@x> <b@x>"},
		{InboundMessage{MessageID: "<b@x>"}, "<b@x>"},
		{InboundMessage{References: "<a@x>"}, "<a@x>"},
		{InboundMessage{}, ""},
	}
	for _, tt := range tests {
		if got := tt.msg.ThreadReferences(); got != tt.want {
			t.Errorf("ThreadReferences(%+v): got %q, want %q", tt.msg, got, tt.want)
		}
	}
}
