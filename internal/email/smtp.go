package email

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/PersonalGenomesOrg/gennotes/internal/metrics"
	"github.com/PersonalGenomesOrg/gennotes/internal/platform/retry"
)

// SMTPOptions carries the EMAIL_* settings for SMTP delivery.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	Clock    clockwork.Clock
}

// SMTP delivers mail over net/smtp with STARTTLS and AUTH PLAIN/LOGIN.
type SMTP struct {
	opts   SMTPOptions
	policy retry.Policy

	// dial is swapped in tests.
	dial func(addr string) (smtpConn, error)
}

// smtpConn is the subset of *smtp.Client the backend drives.
type smtpConn interface {
	StartTLS(cfg *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

func NewSMTP(opts SMTPOptions) *SMTP {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &SMTP{
		opts: opts,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   500 * time.Millisecond,
			RateLimitBackoff: 5 * time.Second,
		},
		dial: func(addr string) (smtpConn, error) {
			return smtp.Dial(addr)
		},
	}
}

// classify maps SMTP reply codes to retry actions: 4xx replies are
// transient, 5xx are permanent, anything else (dial, TLS) is transient.
func classify(err error) retry.Action {
	var proto *textproto.Error
	if errors.As(err, &proto) {
		switch {
		case proto.Code == 421 || proto.Code == 450:
			return retry.After
		case proto.Code >= 400 && proto.Code < 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	return retry.Retry
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	start := s.opts.Clock.Now()
	err := retry.DoVoid(ctx, s.policy, classify, func() error {
		return s.deliver(msg)
	})
	metrics.EmailSendDuration.WithLabelValues("smtp").
		Observe(s.opts.Clock.Since(start).Seconds())

	if err != nil {
		metrics.EmailSendsTotal.WithLabelValues("smtp", "failed").Inc()
		return fmt.Errorf("smtp delivery to %s: %w", msg.To, err)
	}
	metrics.EmailSendsTotal.WithLabelValues("smtp", "sent").Inc()
	return nil
}

func (s *SMTP) deliver(msg Message) error {
	addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
	conn, err := s.dial(addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if s.opts.UseTLS {
		if err := conn.StartTLS(&tls.Config{ServerName: s.opts.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.opts.Username != "" {
		if err := conn.Auth(s.auth()); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := conn.Mail(s.opts.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := conn.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(s.render(msg)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return conn.Quit()
}

// auth prefers PLAIN; older servers that only advertise LOGIN get the
// LOGIN challenge-response dance instead.
func (s *SMTP) auth() smtp.Auth {
	if s.opts.UseTLS {
		return smtp.PlainAuth("", s.opts.Username, s.opts.Password, s.opts.Host)
	}
	return &loginAuth{username: s.opts.Username, password: s.opts.Password}
}

// render builds the RFC 5322 message.
func (s *SMTP) render(msg Message) []byte {
	var b strings.Builder
	b.WriteString("Message-Id: <" + newMessageID() + "@" + s.opts.Host + ">\r\n")
	b.WriteString("Date: " + s.opts.Clock.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("From: " + s.opts.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func newMessageID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// loginAuth implements the legacy AUTH LOGIN mechanism.
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, errors.New("unknown server challenge")
	}
}
