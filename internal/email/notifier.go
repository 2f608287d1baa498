// Package email delivers verification codes to account holders. The core
// only depends on the Notifier interface; delivery failures propagate to the
// caller and are never retried here.
package email

import (
	"context"
	"log/slog"
)

type Notifier interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// LogNotifier writes the code to the log instead of sending mail. Used in
// development and tests where no SMTP server is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerificationCode(ctx context.Context, to, code string) error {
	n.logger.InfoContext(ctx, "verification code issued",
		"email", to,
		"code", code,
	)
	return nil
}
