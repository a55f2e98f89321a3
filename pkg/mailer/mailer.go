package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/globlecampus/campus-api/pkg/config"
	apperrors "github.com/globlecampus/campus-api/pkg/errors"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers email messages. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender delivers mail through a plain-auth SMTP relay (Gmail style).
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender builds a sender from SMTP credentials.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Configured reports whether credentials are present.
func (s *SMTPSender) Configured() bool {
	return s.cfg.Email != "" && s.cfg.Password != ""
}

// Send delivers the message via SMTP with STARTTLS.
func (s *SMTPSender) Send(msg Message) error {
	if !s.Configured() {
		return apperrors.ErrMailUnconfigured
	}
	if msg.To == "" || msg.Subject == "" {
		return fmt.Errorf("recipient and subject are required")
	}

	var body bytes.Buffer
	body.WriteString("MIME-version: 1.0;\r\n")
	body.WriteString(fmt.Sprintf("From: GlobleCampus <%s>\r\n", s.cfg.Email))
	body.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)

	auth := smtp.PlainAuth("", s.cfg.Email, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if err := smtp.SendMail(addr, auth, s.cfg.Email, []string{msg.To}, body.Bytes()); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

var (
	credentialsTmpl = template.Must(template.New("credentials").Parse(`
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>Welcome to GlobleCampus, {{.Name}}!</h2>
  <p>Your account has been created. Here are your sign-in details:</p>
  <p><strong>Email:</strong> {{.Email}}<br>
     <strong>Password:</strong> {{.Password}}</p>
  <p>🎉 Welcome bonus &mdash; {{.WelcomeBonus}} free GC-Tokens!</p>
  <p>Please change your password after your first login.</p>
  <p><a href="{{.SiteURL}}">Go to GlobleCampus</a></p>
</div>`))

	passwordResetTmpl = template.Must(template.New("password_reset").Parse(`
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>Password Reset</h2>
  <p>Hi {{.Name}},</p>
  <p>Your password has been reset. Your new temporary password is:</p>
  <p><strong>{{.Password}}</strong></p>
  <p>Please sign in and change it as soon as possible.</p>
  <p><a href="{{.SiteURL}}">Go to GlobleCampus</a></p>
</div>`))

	contactRelayTmpl = template.Must(template.New("contact_relay").Parse(`
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>New Contact Query</h2>
  <p><strong>From:</strong> {{.Name}} ({{.Email}})</p>
  <p><strong>Subject:</strong> {{.Subject}}</p>
  <p>{{.Body}}</p>
</div>`))

	supportRelayTmpl = template.Must(template.New("support_relay").Parse(`
<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">
  <h2>New Premium Support Query</h2>
  <p><strong>From:</strong> {{.Name}} ({{.Email}})</p>
  <p><strong>GC-Token balance:</strong> {{.Balance}}</p>
  <p><strong>Subject:</strong> {{.Subject}}</p>
  <p>{{.Body}}</p>
</div>`))
)

// CredentialsData fills the account-credentials template.
type CredentialsData struct {
	Name         string
	Email        string
	Password     string
	WelcomeBonus float64
	SiteURL      string
}

// PasswordResetData fills the password-reset template.
type PasswordResetData struct {
	Name     string
	Password string
	SiteURL  string
}

// RelayData fills the contact and support relay templates.
type RelayData struct {
	Name    string
	Email   string
	Subject string
	Body    string
	Balance float64
}

// RenderCredentials produces the welcome email body.
func RenderCredentials(data CredentialsData) (string, error) {
	return render(credentialsTmpl, data)
}

// RenderPasswordReset produces the password-reset email body.
func RenderPasswordReset(data PasswordResetData) (string, error) {
	return render(passwordResetTmpl, data)
}

// RenderContactRelay produces the admin-facing contact query body.
func RenderContactRelay(data RelayData) (string, error) {
	return render(contactRelayTmpl, data)
}

// RenderSupportRelay produces the admin-facing premium support body.
func RenderSupportRelay(data RelayData) (string, error) {
	return render(supportRelayTmpl, data)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
