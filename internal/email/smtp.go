package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/val/markdown-notes/internal/config"
)

type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

func NewSMTPNotifier(cfg *config.Config, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		logger:   logger,
	}
}

func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, to, code string) error {
	msg := n.buildMessage(to, code)

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.username, n.password, n.host)

	if err := smtp.SendMail(addr, auth, n.from, []string{to}, msg); err != nil {
		n.logger.ErrorContext(ctx, "failed to send verification email",
			"email", to,
			"error", err,
		)
		return err
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(to, code string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: \"No Reply\" <%s>\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: Verify Your Email\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), n.host)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, `<h3>Welcome!</h3>
<p>Your verification code is:</p>
<h2 style="background: #f4f4f4; padding: 10px; text-align: center; font-size: 24px; letter-spacing: 5px;">%s</h2>
<p>This code will expire in 1 hour.</p>
<p>If you didn't request this code, please ignore this email.</p>`, code)
	return []byte(b.String())
}
