package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig holds SMTP delivery configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string

	// SendTimeout bounds a single delivery. Defaults to 15s.
	SendTimeout time.Duration
}

// SMTPSender delivers welcome mail over SMTP with an HTML body.
type SMTPSender struct {
	config   SMTPConfig
	template *template.Template
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Bienvenue {{.FirstName}} !</h2>
  <p>Ton compte membre vient d'être créé.</p>
  <p>Identifiant : <strong>{{.Email}}</strong><br>
     Mot de passe provisoire : <strong>{{.Password}}</strong></p>
  <p>Ce mot de passe doit être changé à ta première connexion.</p>
  <p style="font-size: 12px; color: #6b7280;">L'équipe Trèfle</p>
</div>
</body>
</html>
`))

// NewSMTPSender creates a sender from the given config.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	if config.SendTimeout <= 0 {
		config.SendTimeout = 15 * time.Second
	}
	return &SMTPSender{config: config, template: welcomeTemplate}
}

// SendWelcome delivers the welcome mail. The call is bounded by the
// configured send timeout on top of the caller's context.
func (s *SMTPSender) SendWelcome(ctx context.Context, email, firstName, plaintextPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	defer cancel()

	var body bytes.Buffer
	err := s.template.Execute(&body, struct {
		FirstName, Email, Password string
	}{firstName, email, plaintextPassword})
	if err != nil {
		return fmt.Errorf("failed to render welcome mail: %w", err)
	}

	msg := s.buildMessage(email, "Bienvenue dans l'association", body.String())
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.User != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}

	// net/smtp has no context support; run the send in a goroutine and race
	// it against the deadline so a wedged SMTP server cannot stall callers.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.config.From, []string{email}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send welcome mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("welcome mail delivery timed out: %w", ctx.Err())
	}
}

func (s *SMTPSender) buildMessage(to, subject, htmlBody string) []byte {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
