package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
)

// PostgresGardenLayoutRepository implements domain.GardenLayoutRepository.
// layout_data is stored as TEXT so the client's bytes survive unchanged.
type PostgresGardenLayoutRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresGardenLayoutRepository(db *sql.DB, logger *slog.Logger) *PostgresGardenLayoutRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGardenLayoutRepository{db: db, logger: logger}
}

const layoutColumns = `id, name, user_id, layout_data, created_at, updated_at`

func scanLayout(row rowScanner) (*domain.GardenLayout, error) {
	l := &domain.GardenLayout{}
	var data string
	if err := row.Scan(&l.ID, &l.Name, &l.UserID, &data, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.LayoutData = json.RawMessage(data)
	return l, nil
}

func (r *PostgresGardenLayoutRepository) Create(ctx context.Context, layout *domain.GardenLayout) error {
	query := `
		INSERT INTO garden_layouts (name, user_id, layout_data)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, layout.Name, layout.UserID, string(layout.LayoutData)).
		Scan(&layout.ID, &layout.CreatedAt, &layout.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create garden layout", slog.Int64("user_id", layout.UserID), slog.String("error", err.Error()))
		return translate(err, "garden layout")
	}
	return nil
}

func (r *PostgresGardenLayoutRepository) GetByID(ctx context.Context, id int64) (*domain.GardenLayout, error) {
	l, err := scanLayout(r.db.QueryRowContext(ctx, `SELECT `+layoutColumns+` FROM garden_layouts WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("garden layout %d", id))
	}
	return l, nil
}

// GetOwned reads a layout only if userID owns it.
func (r *PostgresGardenLayoutRepository) GetOwned(ctx context.Context, id, userID int64) (*domain.GardenLayout, error) {
	query := `SELECT ` + layoutColumns + ` FROM garden_layouts WHERE id = $1 AND user_id = $2`
	l, err := scanLayout(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("garden layout %d", id))
	}
	return l, nil
}

func (r *PostgresGardenLayoutRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.GardenLayout, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+layoutColumns+` FROM garden_layouts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list garden layouts: %w", err)
	}
	defer rows.Close()

	layouts := []*domain.GardenLayout{}
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan garden layout: %w", err)
		}
		layouts = append(layouts, l)
	}
	return layouts, rows.Err()
}

func (r *PostgresGardenLayoutRepository) Update(ctx context.Context, layout *domain.GardenLayout) error {
	query := `
		UPDATE garden_layouts
		SET name = $1, layout_data = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, layout.Name, string(layout.LayoutData), layout.ID).Scan(&layout.UpdatedAt)
	if err != nil {
		return translate(err, fmt.Sprintf("garden layout %d", layout.ID))
	}
	return nil
}

func (r *PostgresGardenLayoutRepository) Delete(ctx context.Context, id int64) error {
	what := fmt.Sprintf("garden layout %d", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM garden_layouts WHERE id = $1`, id)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}
