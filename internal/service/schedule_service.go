package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/security"
)

// ScheduleInput is the payload for a new care schedule. All fields are required.
type ScheduleInput struct {
	PlantID      int64
	Task         string
	ScheduleDate string
	Interval     string
}

// ScheduleView is a schedule with its derived recurrence state. NextDue is
// nil when the stored interval has no defined next date.
type ScheduleView struct {
	Schedule  *domain.CareSchedule
	PlantName string
	OwnerID   int64
	NextDue   *time.Time
	Due       bool
}

// ScheduleService manages care schedules on the caller's plants
type ScheduleService struct {
	schedules  domain.CareScheduleRepository
	plants     domain.PlantRepository
	guard      *security.Guard
	recurrence domain.Recurrence
	now        func() time.Time
	logger     *slog.Logger
}

func NewScheduleService(
	schedules domain.CareScheduleRepository,
	plants domain.PlantRepository,
	guard *security.Guard,
	recurrence domain.Recurrence,
	logger *slog.Logger,
) *ScheduleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{
		schedules:  schedules,
		plants:     plants,
		guard:      guard,
		recurrence: recurrence,
		now:        time.Now,
		logger:     logger,
	}
}

// Create adds a schedule to a plant the caller owns.
func (s *ScheduleService) Create(ctx context.Context, userID int64, in ScheduleInput) (*ScheduleView, error) {
	if in.PlantID <= 0 {
		return nil, domain.Validationf("plant_id is required")
	}
	task, err := domain.ParseTask(in.Task)
	if err != nil {
		return nil, err
	}
	date, err := domain.ParseScheduleDate(in.ScheduleDate)
	if err != nil {
		return nil, err
	}
	interval, err := domain.ParseInterval(in.Interval)
	if err != nil {
		return nil, err
	}

	plant, err := s.plants.GetByID(ctx, in.PlantID)
	if err != nil {
		return nil, err
	}

	schedule := &domain.CareSchedule{
		PlantID:      plant.ID,
		Task:         task,
		ScheduleDate: date,
		Interval:     interval,
	}
	if err := s.guard.Authorize(ctx, userID, security.ActionCreate, plant); err != nil {
		return nil, err
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}
	s.guard.Record(ctx, userID, security.ActionCreate, schedule)
	return s.view(schedule, plant.Name, plant.UserID), nil
}

// ListOwned returns every schedule on the caller's plants.
func (s *ScheduleService) ListOwned(ctx context.Context, userID int64) ([]*ScheduleView, error) {
	listings, err := s.schedules.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]*ScheduleView, 0, len(listings))
	for _, l := range listings {
		views = append(views, s.view(l.Schedule, l.PlantName, l.OwnerID))
	}
	return views, nil
}

// ListDue returns the caller's schedules that are due now.
func (s *ScheduleService) ListDue(ctx context.Context, userID int64) ([]*ScheduleView, error) {
	all, err := s.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}
	due := make([]*ScheduleView, 0, len(all))
	for _, v := range all {
		if v.Due {
			due = append(due, v)
		}
	}
	return due, nil
}

// ListForPlant returns the schedules of one of the caller's plants.
func (s *ScheduleService) ListForPlant(ctx context.Context, userID, plantID int64) ([]*ScheduleView, error) {
	plant, err := s.plants.GetOwned(ctx, plantID, userID)
	if err != nil {
		return nil, err
	}
	schedules, err := s.schedules.ListByPlant(ctx, plant.ID)
	if err != nil {
		return nil, err
	}
	views := make([]*ScheduleView, 0, len(schedules))
	for _, sc := range schedules {
		views = append(views, s.view(sc, plant.Name, plant.UserID))
	}
	return views, nil
}

func (s *ScheduleService) Update(ctx context.Context, userID, id int64, patch domain.SchedulePatch) (*ScheduleView, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.guard.Mutate(ctx, userID, security.ActionUpdate, schedule, func(ctx context.Context) error {
		if err := schedule.Apply(patch); err != nil {
			return err
		}
		return s.schedules.Update(ctx, schedule)
	})
	if err != nil {
		return nil, err
	}

	plant, err := s.plants.GetByID(ctx, schedule.PlantID)
	if err != nil {
		return nil, err
	}
	return s.view(schedule, plant.Name, plant.UserID), nil
}

func (s *ScheduleService) Delete(ctx context.Context, userID, id int64) error {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.guard.Mutate(ctx, userID, security.ActionDelete, schedule, func(ctx context.Context) error {
		return s.schedules.Delete(ctx, schedule.ID)
	})
}

func (s *ScheduleService) view(schedule *domain.CareSchedule, plantName string, ownerID int64) *ScheduleView {
	v := &ScheduleView{Schedule: schedule, PlantName: plantName, OwnerID: ownerID}
	state, err := schedule.DueState(s.recurrence, s.now())
	if err != nil {
		// rows written before intervals were validated
		s.logger.Warn("schedule has no next due date",
			slog.Int64("schedule_id", schedule.ID),
			slog.String("interval", string(schedule.Interval)),
		)
		return v
	}
	next := state.NextDue
	v.NextDue = &next
	v.Due = state.Due
	return v
}
