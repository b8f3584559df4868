// Package mail renders notification templates and delivers them over SMTP.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net"
	"net/smtp"
	"path"
	"strconv"
	"strings"
	"text/template"

	"adops/internal/config"
	"adops/internal/utils/logger"
)

const (
	TemplateInvitation         = "invitation"
	TemplatePermissionsChanged = "permissions_changed"
	TemplateBrandAccessChanged = "brand_access_changed"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, templateName string, data map[string]interface{}) error
}

// Message is a rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Bytes formats m as an RFC 5322 message.
func (m Message) Bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return b.Bytes()
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer renders embedded templates. With no SMTP host configured it logs messages instead of sending.
type Mailer struct {
	cfg       config.MailConfig
	templates map[string]*template.Template
	send      sendFunc
	logger    *logger.Logger
}

func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		tmpl, err := template.ParseFS(templateFS, "templates/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to parse mail template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Mailer{
		cfg:       cfg,
		templates: templates,
		send:      smtp.SendMail,
		logger:    logger.New("mailer"),
	}, nil
}

// Render executes templateName for data.
func (m *Mailer) Render(to, templateName string, data map[string]interface{}) (Message, error) {
	tmpl, ok := m.templates[templateName]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail template %q", templateName)
	}

	var subject, body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Message{}, fmt.Errorf("failed to render subject of %s: %w", templateName, err)
	}
	if err := tmpl.ExecuteTemplate(&body, "body", data); err != nil {
		return Message{}, fmt.Errorf("failed to render body of %s: %w", templateName, err)
	}

	return Message{
		From:    m.cfg.From,
		To:      to,
		Subject: strings.TrimSpace(subject.String()),
		Body:    strings.TrimLeft(body.String(), "\n"),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, to, templateName string, data map[string]interface{}) error {
	msg, err := m.Render(to, templateName, data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.cfg.Host == "" {
		m.logger.Info("📧 [not sent, no SMTP host] to=%s subject=%q", msg.To, msg.Subject)
		m.logger.Debug("%s", msg.Body)
		return nil
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, msg.From, []string{msg.To}, msg.Bytes()); err != nil {
		return m.logger.Error("Failed to send %s mail to %s", err, templateName, to)
	}

	m.logger.Success("📧 Sent %s mail to %s", templateName, to)
	return nil
}
