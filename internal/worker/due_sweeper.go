package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/observability/metrics"
	"github.com/yourorg/greenthumb/internal/observability/tracing"
)

// ClaimTTL bounds how long the ledger remembers a sent reminder. A schedule
// left unchanged for longer than this is reminded again.
const ClaimTTL = 90 * 24 * time.Hour

// SweepResult summarizes one pass over the schedules
type SweepResult struct {
	Checked int
	Due     int
	Sent    int
	Skipped int // already claimed by an earlier pass
	Failed  int
}

// DueSweeper periodically finds due care schedules and reminds their owners.
// Every reminder is claimed in the ledger before it is sent, so a reminder
// is attempted at most once even when delivery fails.
type DueSweeper struct {
	schedules  domain.CareScheduleRepository
	ledger     domain.NotificationLedger
	notifier   domain.Notifier
	recurrence domain.Recurrence
	logger     *slog.Logger
	interval   time.Duration
	now        func() time.Time
}

// NewDueSweeper creates a new due sweeper
func NewDueSweeper(
	schedules domain.CareScheduleRepository,
	ledger domain.NotificationLedger,
	notifier domain.Notifier,
	recurrence domain.Recurrence,
	logger *slog.Logger,
	interval time.Duration,
) *DueSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &DueSweeper{
		schedules:  schedules,
		ledger:     ledger,
		notifier:   notifier,
		recurrence: recurrence,
		logger:     logger,
		interval:   interval,
		now:        time.Now,
	}
}

// Start begins the sweep loop. It runs until ctx is cancelled.
func (w *DueSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("due sweeper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("due sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx, w.now()); err != nil {
				w.logger.Error("due sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// SweepOnce evaluates every schedule against now and sends one reminder per
// due schedule and due date. Per-schedule failures are logged and counted;
// only a failure to list schedules aborts the pass.
func (w *DueSweeper) SweepOnce(ctx context.Context, now time.Time) (SweepResult, error) {
	ctx, span := tracing.Tracer().Start(ctx, "worker.due_sweep")
	defer span.End()

	start := time.Now()
	var res SweepResult

	listings, err := w.schedules.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list schedules")
		metrics.ObserveSweep("error", time.Since(start), 0)
		return res, fmt.Errorf("list schedules: %w", err)
	}

	for _, l := range listings {
		res.Checked++
		w.sweepOne(ctx, l, now, &res)
	}

	span.SetAttributes(
		attribute.Int("sweep.checked", res.Checked),
		attribute.Int("sweep.due", res.Due),
		attribute.Int("sweep.sent", res.Sent),
		attribute.Int("sweep.failed", res.Failed),
	)
	result := "success"
	if res.Failed > 0 {
		result = "partial"
	}
	metrics.ObserveSweep(result, time.Since(start), res.Due)

	w.logger.Info("due sweep finished",
		slog.Int("checked", res.Checked),
		slog.Int("due", res.Due),
		slog.Int("sent", res.Sent),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

func (w *DueSweeper) sweepOne(ctx context.Context, l *domain.ScheduleListing, now time.Time, res *SweepResult) {
	logger := w.logger.With(slog.Int64("schedule_id", l.Schedule.ID))

	state, err := l.Schedule.DueState(w.recurrence, now)
	if err != nil {
		logger.Warn("skipping schedule without a next due date", slog.String("error", err.Error()))
		return
	}
	if !state.Due {
		return
	}
	res.Due++

	key := ReminderKey(l.Schedule.ID, state.NextDue)
	claimed, err := w.ledger.Claim(ctx, key, ClaimTTL)
	if err != nil {
		res.Failed++
		metrics.ObserveNotification("error")
		logger.Error("failed to claim reminder", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if !claimed {
		res.Skipped++
		metrics.ObserveNotification("skipped")
		return
	}

	err = w.notifier.Notify(ctx, domain.Notification{
		Recipient: l.OwnerEmail,
		PlantName: l.PlantName,
		Task:      l.Schedule.Task,
		DueOn:     state.NextDue,
	})
	if err != nil {
		res.Failed++
		metrics.ObserveNotification("error")
		logger.Error("failed to send reminder", slog.String("error", err.Error()))
		return
	}

	res.Sent++
	metrics.ObserveNotification("sent")
	logger.Debug("reminder sent", slog.String("key", key))
}

// ReminderKey identifies a reminder for a schedule and one due date.
func ReminderKey(scheduleID int64, dueOn time.Time) string {
	return fmt.Sprintf("notified:%d:%s", scheduleID, dueOn.Format(domain.DateLayout))
}
