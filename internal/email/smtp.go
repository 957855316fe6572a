// Package email delivers operator notification mail over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/lrz80/chatbot-backend-sub001/platform/config"
)

// Sender delivers operator mail via the configured SMTP server.
type Sender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	enabled   bool
}

// NewSender creates the SMTP sender. When email is disabled in config the
// sender silently drops everything.
func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		enabled:   cfg.GetEmailEnabled(),
	}
}

func (s *Sender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	if !s.enabled {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var overrideAlertTmpl = template.Must(template.New("override_alert").Parse(`
<h2>Un cliente necesita atención humana</h2>
<p><strong>Canal:</strong> {{.Canal}}<br>
<strong>Contacto:</strong> {{.Contact}}<br>
<strong>Motivo:</strong> {{.Reason}}</p>
{{if .Snippet}}<blockquote>{{.Snippet}}</blockquote>{{end}}
<p>El bot está en pausa para esta conversación.</p>
`))

type overrideAlertData struct {
	Canal   string
	Contact string
	Reason  string
	Snippet string
}

// SendOverrideAlert mails the operator that a conversation was handed off.
func (s *Sender) SendOverrideAlert(ctx context.Context, toEmail, canal, contact, reason, snippet string) error {
	var body bytes.Buffer
	if err := overrideAlertTmpl.Execute(&body, overrideAlertData{
		Canal:   canal,
		Contact: contact,
		Reason:  reason,
		Snippet: snippet,
	}); err != nil {
		return fmt.Errorf("render override alert: %w", err)
	}

	return s.send(ctx, toEmail, "Cliente en espera de atención humana", body.String())
}
