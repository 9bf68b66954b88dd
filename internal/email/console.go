package email

import (
	"context"
	"log/slog"

	"github.com/PersonalGenomesOrg/gennotes/internal/metrics"
)

// Console logs outbound mail instead of delivering it. Default in
// development so signup flows work without an MTA.
type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "Email (console backend)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	metrics.EmailSendsTotal.WithLabelValues("console", "sent").Inc()
	return nil
}
