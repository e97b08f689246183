package delivery

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"mashup/internal/config"
	"mashup/internal/services"
	"mashup/internal/textutil"
)

// Message is one outbound delivery.
type Message struct {
	To         string
	Artist     string
	Attachment string
}

// Sender delivers a packaged mashup to a recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender mails the attachment through an SMTP relay.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// NewSMTPSender builds a sender from the [smtp] config section.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		Host:     strings.TrimSpace(cfg.SMTP.Host),
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     strings.TrimSpace(cfg.SMTP.From),
		Timeout:  30 * time.Second,
	}
}

// Send composes and transmits msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.Host == "" || s.From == "" {
		return services.Wrap(services.ErrConfiguration, "deliver", "smtp", "smtp is not configured", nil)
	}
	m, err := s.compose(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.Host, s.clientOptions()...)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "smtp", "create smtp client", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "smtp", fmt.Sprintf("send to %s", msg.To), err)
	}
	return nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if s.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.Timeout))
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	return opts
}

func (s *SMTPSender) compose(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.From); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "deliver", "compose", "invalid sender address", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "deliver", "compose", "invalid recipient address", err)
	}
	m.Subject(Subject(msg.Artist))
	m.SetBodyString(mail.TypeTextPlain, Body(msg.Artist))
	if msg.Attachment != "" {
		m.AttachFile(msg.Attachment, mail.WithFileName(filepath.Base(msg.Attachment)))
	}
	return m, nil
}

// Subject is the mail subject line for an artist's mashup.
func Subject(artist string) string {
	return "Your Mashup: " + textutil.DisplayArtist(artist)
}

// Body is the plain-text mail body for an artist's mashup.
func Body(artist string) string {
	return fmt.Sprintf("Hi,\n\nYour %s mashup is attached as a zip archive.\n\nEnjoy!\n", textutil.DisplayArtist(artist))
}
