package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/yourorg/greenthumb/internal/infrastructure/logger"
)

// Outcome values
const (
	StatusSuccess = "success"
	StatusDenied  = "denied"
	StatusFailed  = "failed"
)

type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{logger: log, now: time.Now}
}

// LogAction writes one audit line. resourceID 0 means "no specific resource".
func (al *Logger) LogAction(ctx context.Context, userID int64, action, resource string, resourceID int64, status, details string) {
	id := ""
	if resourceID > 0 {
		id = strconv.FormatInt(resourceID, 10)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", id),
		slog.Int64("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", logger.RequestID(ctx)),
		slog.Time("timestamp", al.now()),
	)
}

// LogMutation records a successful create, update or delete.
func (al *Logger) LogMutation(ctx context.Context, userID int64, action, resource string, resourceID int64) {
	al.LogAction(ctx, userID, action, resource, resourceID, StatusSuccess, "")
}

// LogDenied records an ownership or authentication rejection.
func (al *Logger) LogDenied(ctx context.Context, userID int64, action, resource string, resourceID int64, reason string) {
	al.LogAction(ctx, userID, action, resource, resourceID, StatusDenied, reason)
}
