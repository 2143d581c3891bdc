package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
)

// PostgresCareScheduleRepository implements domain.CareScheduleRepository.
// Schedule dates are written as YYYY-MM-DD strings so the session time zone
// cannot shift them.
type PostgresCareScheduleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresCareScheduleRepository(db *sql.DB, logger *slog.Logger) *PostgresCareScheduleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCareScheduleRepository{db: db, logger: logger}
}

const scheduleColumns = `s.id, s.plant_id, s.task, s.schedule_date, s.repeat_interval, s.created_at`

const listingQuery = `
	SELECT ` + scheduleColumns + `, p.name, u.id, u.email
	FROM care_schedules s
	JOIN plants p ON p.id = s.plant_id
	JOIN users u ON u.id = p.user_id
`

func scanSchedule(row rowScanner, extra ...any) (*domain.CareSchedule, error) {
	s := &domain.CareSchedule{}
	var task, interval string
	var date time.Time
	dest := append([]any{&s.ID, &s.PlantID, &task, &date, &interval, &s.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.Task = domain.Task(task)
	s.Interval = domain.Interval(interval)
	s.ScheduleDate = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return s, nil
}

func (r *PostgresCareScheduleRepository) Create(ctx context.Context, schedule *domain.CareSchedule) error {
	query := `
		INSERT INTO care_schedules (plant_id, task, schedule_date, repeat_interval)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		schedule.PlantID,
		string(schedule.Task),
		schedule.ScheduleDate.Format(domain.DateLayout),
		string(schedule.Interval),
	).Scan(&schedule.ID, &schedule.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create care schedule",
			slog.Int64("plant_id", schedule.PlantID),
			slog.String("error", err.Error()),
		)
		return translate(err, fmt.Sprintf("plant %d", schedule.PlantID))
	}
	return nil
}

func (r *PostgresCareScheduleRepository) GetByID(ctx context.Context, id int64) (*domain.CareSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM care_schedules s WHERE s.id = $1`
	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("care schedule %d", id))
	}
	return s, nil
}

func (r *PostgresCareScheduleRepository) ListByPlant(ctx context.Context, plantID int64) ([]*domain.CareSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM care_schedules s WHERE s.plant_id = $1 ORDER BY s.schedule_date, s.id`
	rows, err := r.db.QueryContext(ctx, query, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list care schedules: %w", err)
	}
	defer rows.Close()

	out := []*domain.CareSchedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan care schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByOwner returns the schedules of every plant userID owns.
func (r *PostgresCareScheduleRepository) ListByOwner(ctx context.Context, userID int64) ([]*domain.ScheduleListing, error) {
	return r.listings(ctx, listingQuery+` WHERE p.user_id = $1 ORDER BY s.schedule_date, s.id`, userID)
}

// ListAll returns every schedule with its plant and owner; it feeds the due sweep.
func (r *PostgresCareScheduleRepository) ListAll(ctx context.Context) ([]*domain.ScheduleListing, error) {
	return r.listings(ctx, listingQuery+` ORDER BY s.id`)
}

func (r *PostgresCareScheduleRepository) listings(ctx context.Context, query string, args ...any) ([]*domain.ScheduleListing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list care schedules", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list care schedules: %w", err)
	}
	defer rows.Close()

	out := []*domain.ScheduleListing{}
	for rows.Next() {
		l := &domain.ScheduleListing{}
		s, err := scanSchedule(rows, &l.PlantName, &l.OwnerID, &l.OwnerEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan care schedule: %w", err)
		}
		l.Schedule = s
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresCareScheduleRepository) Update(ctx context.Context, schedule *domain.CareSchedule) error {
	query := `
		UPDATE care_schedules
		SET task = $1, schedule_date = $2, repeat_interval = $3
		WHERE id = $4
	`
	what := fmt.Sprintf("care schedule %d", schedule.ID)
	res, err := r.db.ExecContext(ctx, query,
		string(schedule.Task),
		schedule.ScheduleDate.Format(domain.DateLayout),
		string(schedule.Interval),
		schedule.ID,
	)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

func (r *PostgresCareScheduleRepository) Delete(ctx context.Context, id int64) error {
	what := fmt.Sprintf("care schedule %d", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM care_schedules WHERE id = $1`, id)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}
