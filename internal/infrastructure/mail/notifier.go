package mail

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/reliability/circuitbreaker"
	"github.com/yourorg/greenthumb/pkg/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers reminders through an SMTP relay. A circuit breaker
// stops the sweep from hammering a relay that keeps failing.
type SMTPNotifier struct {
	addr           string
	from           string
	auth           smtp.Auth
	send           sendFunc
	circuitBreaker *circuitbreaker.CircuitBreaker
	logger         *slog.Logger
}

// NewSMTPNotifier creates a notifier for the configured relay
func NewSMTPNotifier(cfg config.SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	cb := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	cb.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("smtp circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &SMTPNotifier{
		addr:           net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:           cfg.From,
		auth:           auth,
		send:           smtp.SendMail,
		circuitBreaker: cb,
		logger:         logger,
	}
}

// Notify sends one reminder. It is not retried; an open breaker fails fast.
func (n *SMTPNotifier) Notify(ctx context.Context, reminder domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reminder.Recipient == "" {
		return domain.Validationf("reminder has no recipient")
	}

	msg := buildMessage(n.from, reminder)
	err := n.circuitBreaker.Execute(func() error {
		return n.send(n.addr, n.auth, n.from, []string{reminder.Recipient}, msg)
	})
	if err != nil {
		return fmt.Errorf("send reminder to %s: %w", reminder.Recipient, err)
	}

	n.logger.Info("reminder mailed",
		slog.String("recipient", reminder.Recipient),
		slog.String("plant", reminder.PlantName),
	)
	return nil
}

// singleLine folds CR, LF and runs of whitespace into single spaces so user
// text cannot start a new header or body line.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// buildMessage renders the reminder mail. Plant names are user text: header
// values are flattened to one line and non-ASCII subjects are Q-encoded.
func buildMessage(from string, n domain.Notification) []byte {
	plant := singleLine(n.PlantName)
	subject := mime.QEncoding.Encode("utf-8", singleLine(fmt.Sprintf("Reminder: %s %s", n.Task, plant)))
	body := fmt.Sprintf("Your %s task for %s was due on %s.",
		strings.ToLower(string(n.Task)), plant, n.DueOn.Format(domain.DateLayout))

	var b strings.Builder
	b.WriteString("From: " + singleLine(from) + "\r\n")
	b.WriteString("To: " + singleLine(n.Recipient) + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body + "\r\n")
	return []byte(b.String())
}

// LogNotifier writes reminders to the log. It is used when no SMTP relay is
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, reminder domain.Notification) error {
	n.logger.Info("care reminder",
		slog.String("recipient", reminder.Recipient),
		slog.String("plant", reminder.PlantName),
		slog.String("task", string(reminder.Task)),
		slog.String("due_on", reminder.DueOn.Format(domain.DateLayout)),
	)
	return nil
}

// NewNotifier picks SMTP when a relay host is configured.
func NewNotifier(cfg config.SMTPConfig, logger *slog.Logger) domain.Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(logger)
	}
	return NewSMTPNotifier(cfg, logger)
}
