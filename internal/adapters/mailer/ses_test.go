package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"go.uber.org/zap/zaptest"
)

type mockSendEmailAPI struct {
	err       error
	callCount int
	lastInput *sesv2.SendEmailInput
}

func (m *mockSendEmailAPI) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.err != nil {
		return nil, m.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-456")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	t.Parallel()

	mock := &mockSendEmailAPI{}
	m := NewSESMailer(mock, zaptest.NewLogger(t))

	res, err := m.Send(context.Background(), testEnvelope())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MessageID != "ses-456" {
		t.Errorf("message id: got %q, want %q", res.MessageID, "ses-456")
	}
	if mock.callCount != 1 {
		t.Fatalf("SendEmail called %d times, want 1", mock.callCount)
	}

	in := mock.lastInput
	if got := aws.ToString(in.FromEmailAddress); got != "claude@agents.example.com" {
		t.Errorf("from: got %q", got)
	}
	if len(in.Destination.ToAddresses) != 2 || len(in.Destination.CcAddresses) != 1 {
		t.Errorf("destination: got %+v", in.Destination)
	}
	if in.Content.Raw == nil || !bytes.Contains(in.Content.Raw.Data, []byte("Subject: Re: Hello")) {
		t.Error("expected raw MIME content with the reply subject")
	}
}

func TestSESMailer_Error(t *testing.T) {
	t.Parallel()

	m := NewSESMailer(&mockSendEmailAPI{err: errors.New("MessageRejected")}, zaptest.NewLogger(t))
	if _, err := m.Send(context.Background(), testEnvelope()); err == nil {
		t.Fatal("expected error")
	}
}
