package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

type sentMail struct {
	to, subject, text, html string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, text, html})
	return nil
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandleTemplateJob(t *testing.T) {
	s := &fakeSender{}
	job := EmailJob{
		To:       "jane@x.io",
		Template: mailtpl.Welcome,
		Data:     mailtpl.ToMap(mailtpl.EmailData{Name: "jane", AppName: "Accounts"}),
	}
	require.NoError(t, Handle(context.Background(), s, mustJSON(t, job)))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "Welcome to Accounts, jane", s.sent[0].subject)
	assert.Contains(t, s.sent[0].text, "jane@x.io")
}

func TestHandleRawJob(t *testing.T) {
	s := &fakeSender{}
	job := EmailJob{To: "a@b.co", Subject: "hi", Text: "body"}
	require.NoError(t, Handle(context.Background(), s, mustJSON(t, job)))
	assert.Equal(t, sentMail{"a@b.co", "hi", "body", ""}, s.sent[0])
}

func TestHandlePermanentFailures(t *testing.T) {
	s := &fakeSender{}
	for name, body := range map[string][]byte{
		"invalid json":     []byte("{"),
		"no recipient":     mustJSON(t, EmailJob{Subject: "x"}),
		"unknown template": mustJSON(t, EmailJob{To: "a@b.co", Template: "nope"}),
	} {
		err := Handle(context.Background(), s, body)
		assert.ErrorIs(t, err, ErrBadJob, name)
	}
	assert.Empty(t, s.sent)
}

func TestHandleSendFailureIsRetryable(t *testing.T) {
	boom := errors.New("smtp down")
	s := &fakeSender{err: boom}
	err := Handle(context.Background(), s, mustJSON(t, EmailJob{To: "a@b.co", Text: "x"}))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrBadJob)
}
