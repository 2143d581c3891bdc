package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of schedule dates.
const DateLayout = "2006-01-02"

// Task is the kind of care a schedule tracks
type Task string

const (
	TaskWatering    Task = "Watering"
	TaskPruning     Task = "Pruning"
	TaskFertilizing Task = "Fertilizing"
	TaskHarvesting  Task = "Harvesting"
)

// Tasks lists the accepted tasks.
func Tasks() []Task {
	return []Task{TaskWatering, TaskPruning, TaskFertilizing, TaskHarvesting}
}

// ParseTask accepts task names case-insensitively.
func ParseTask(s string) (Task, error) {
	trimmed := strings.TrimSpace(s)
	for _, t := range Tasks() {
		if strings.EqualFold(trimmed, string(t)) {
			return t, nil
		}
	}
	return "", Validationf("unsupported task %q (want Watering, Pruning, Fertilizing or Harvesting)", s)
}

// ParseScheduleDate parses a YYYY-MM-DD date as UTC midnight.
func ParseScheduleDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, Validationf("schedule_date must be YYYY-MM-DD, got %q", s)
	}
	return d, nil
}

// CareSchedule is a recurring task on a plant. Ownership is always resolved
// through the plant; the schedule carries no owner of its own.
type CareSchedule struct {
	ID           int64
	PlantID      int64
	Task         Task
	ScheduleDate time.Time
	Interval     Interval
	CreatedAt    time.Time
}

// DueState evaluates the schedule against now. The schedule is not modified.
func (s *CareSchedule) DueState(r Recurrence, now time.Time) (DueState, error) {
	state, err := r.ComputeDueState(s.ScheduleDate, s.Interval, now)
	if err != nil {
		return DueState{}, fmt.Errorf("care schedule %d: %w", s.ID, err)
	}
	return state, nil
}

// SchedulePatch carries a partial update; nil fields are left untouched.
type SchedulePatch struct {
	Task         *string
	ScheduleDate *string
	Interval     *string
}

// Apply validates the patch and copies set fields onto s.
// Nothing is copied when any field is invalid.
func (s *CareSchedule) Apply(patch SchedulePatch) error {
	next := *s
	if patch.Task != nil {
		task, err := ParseTask(*patch.Task)
		if err != nil {
			return err
		}
		next.Task = task
	}
	if patch.ScheduleDate != nil {
		date, err := ParseScheduleDate(*patch.ScheduleDate)
		if err != nil {
			return err
		}
		next.ScheduleDate = date
	}
	if patch.Interval != nil {
		interval, err := ParseInterval(*patch.Interval)
		if err != nil {
			return err
		}
		next.Interval = interval
	}
	*s = next
	return nil
}

// ScheduleListing is a schedule joined with its plant and the plant's owner
type ScheduleListing struct {
	Schedule   *CareSchedule
	PlantName  string
	OwnerID    int64
	OwnerEmail string
}

// CareScheduleRepository defines data access for care schedules.
// ListByOwner joins through plants; ListAll feeds the due sweep.
type CareScheduleRepository interface {
	Create(ctx context.Context, schedule *CareSchedule) error
	GetByID(ctx context.Context, id int64) (*CareSchedule, error)
	ListByPlant(ctx context.Context, plantID int64) ([]*CareSchedule, error)
	ListByOwner(ctx context.Context, userID int64) ([]*ScheduleListing, error)
	ListAll(ctx context.Context) ([]*ScheduleListing, error)
	Update(ctx context.Context, schedule *CareSchedule) error
	Delete(ctx context.Context, id int64) error
}
