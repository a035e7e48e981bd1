package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSenderRecords(t *testing.T) {
	s := &LogSender{}

	err := s.SendWelcome(context.Background(), "a@x.com", "Alice", "pw123")
	require.NoError(t, err)
	require.Len(t, s.Messages(), 1)
	assert.Equal(t, "a@x.com", s.Messages()[0].Email)
	assert.Equal(t, "pw123", s.Messages()[0].Password)
}

func TestLogSenderFailureInjection(t *testing.T) {
	s := &LogSender{Err: errors.New("smtp down")}

	err := s.SendWelcome(context.Background(), "a@x.com", "Alice", "pw")
	assert.Error(t, err)
	assert.Empty(t, s.Messages())
}

func TestSMTPSenderBuildMessage(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{
		Host: "localhost", Port: 25,
		From: "noreply@trefle.example", FromName: "Trèfle",
	})

	msg := string(s.buildMessage("bob@x.com", "Bienvenue", "<p>salut</p>"))
	assert.Contains(t, msg, "From: Trèfle <noreply@trefle.example>")
	assert.Contains(t, msg, "To: bob@x.com")
	assert.Contains(t, msg, "Subject: Bienvenue")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "<p>salut</p>")
}

func TestWelcomeTemplateRenders(t *testing.T) {
	var out struct{ FirstName, Email, Password string }
	out.FirstName, out.Email, out.Password = "Léa", "lea@x.com", "Xk2!aaaa"

	buf := &capturingWriter{}
	require.NoError(t, welcomeTemplate.Execute(buf, out))
	assert.Contains(t, buf.String(), "Léa")
	assert.Contains(t, buf.String(), "Xk2!aaaa")
}

type capturingWriter struct{ data []byte }

func (w *capturingWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *capturingWriter) String() string { return string(w.data) }
