package email

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/PersonalGenomesOrg/gennotes/internal/platform/config"
)

// Message is one outbound mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Backend delivers mail. Implementations: Console (logs), SMTP.
type Backend interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a backend from EMAIL_BACKEND.
func New(cfg *config.Config, clock clockwork.Clock) (Backend, error) {
	switch cfg.EmailBackend {
	case config.EmailBackendConsole:
		return NewConsole(), nil
	case config.EmailBackendSMTP:
		return NewSMTP(SMTPOptions{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailHostUser,
			Password: cfg.EmailHostPassword,
			UseTLS:   cfg.EmailUseTLS,
			From:     cfg.EmailFrom,
			Clock:    clock,
		}), nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.EmailBackend)
	}
}
