package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"time"

	gomail "github.com/wneessen/go-mail"

	"mercator-hq/autopublish/pkg/config"
)

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NewSender returns an SMTPSender for cfg, or a NoopSender when no host is
// configured.
func NewSender(cfg *config.MailConfig) Sender {
	if cfg == nil || cfg.Host == "" {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}

// SMTPSender delivers through an SMTP server, upgrading to TLS when the
// server offers STARTTLS.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
	logger   *slog.Logger

	// tlsConfig is used for STARTTLS. Tests replace it.
	tlsConfig *tls.Config
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultMailTimeout
	}
	return &SMTPSender{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		timeout:   timeout,
		logger:    slog.Default().With("component", "mail.smtp"),
		tlsConfig: &tls.Config{ServerName: cfg.Host},
	}
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTimeout(s.timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTLSConfig(s.tlsConfig),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}
	return gomail.NewClient(s.host, opts...)
}

// Send delivers msg to every recipient in one SMTP transaction.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m, err := msg.build()
	if err != nil {
		return NewSendError(s.host, "validate", err)
	}

	client, err := s.client()
	if err != nil {
		return NewSendError(s.host, "config", err)
	}

	if err := client.DialWithContext(ctx); err != nil {
		return NewSendError(s.host, "dial", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.logger.Debug("smtp close failed", "error", err)
		}
	}()

	if err := client.Send(m); err != nil {
		return NewSendError(s.host, sendStage(err), err)
	}

	s.logger.Info("mail sent", "recipients", msg.To, "subject", msg.Subject)
	return nil
}

// sendStage names the SMTP step a delivery error came from.
func sendStage(err error) string {
	var sendErr *gomail.SendError
	if !errors.As(err, &sendErr) {
		return "send"
	}
	switch sendErr.Reason {
	case gomail.ErrGetSender, gomail.ErrSMTPMailFrom:
		return "mail"
	case gomail.ErrGetRcpts, gomail.ErrSMTPRcptTo:
		return "rcpt"
	case gomail.ErrSMTPData, gomail.ErrSMTPDataClose, gomail.ErrWriteContent:
		return "data"
	default:
		return "send"
	}
}

// NoopSender discards messages.
type NoopSender struct{}

// Send logs and discards msg.
func (NoopSender) Send(_ context.Context, msg *Message) error {
	slog.Default().With("component", "mail.noop").Warn("no mail host configured, discarding mail",
		"recipients", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// RecordingSender keeps every message it is given.
type RecordingSender struct {
	mu       sync.Mutex
	messages []Message

	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

// Send records msg.
func (r *RecordingSender) Send(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	cp := *msg
	cp.To = append([]string(nil), msg.To...)
	r.messages = append(r.messages, cp)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *RecordingSender) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
