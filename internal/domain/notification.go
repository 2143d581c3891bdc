package domain

import (
	"context"
	"time"
)

// Notification is a single due-schedule reminder
type Notification struct {
	Recipient string
	PlantName string
	Task      Task
	DueOn     time.Time
}

// Notifier delivers reminders. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationLedger records which reminders were already attempted.
// Claim returns false when key was claimed before, making delivery at-most-once.
type NotificationLedger interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
