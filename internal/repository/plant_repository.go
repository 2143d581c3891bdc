package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
)

// PostgresPlantRepository implements domain.PlantRepository
type PostgresPlantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresPlantRepository(db *sql.DB, logger *slog.Logger) *PostgresPlantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPlantRepository{db: db, logger: logger}
}

const plantColumns = `id, name, img_url, description, user_id, created_at`

func scanPlant(row rowScanner) (*domain.Plant, error) {
	p := &domain.Plant{}
	err := row.Scan(&p.ID, &p.Name, &p.ImgURL, &p.Description, &p.UserID, &p.CreatedAt)
	return p, err
}

func (r *PostgresPlantRepository) Create(ctx context.Context, plant *domain.Plant) error {
	query := `
		INSERT INTO plants (name, img_url, description, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		plant.Name, plant.ImgURL, plant.Description, plant.UserID,
	).Scan(&plant.ID, &plant.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create plant",
			slog.Int64("user_id", plant.UserID),
			slog.String("error", err.Error()),
		)
		return translate(err, "plant")
	}
	return nil
}

// GetByID reads a plant regardless of owner. Used for ownership resolution.
func (r *PostgresPlantRepository) GetByID(ctx context.Context, id int64) (*domain.Plant, error) {
	query := `SELECT ` + plantColumns + ` FROM plants WHERE id = $1`
	p, err := scanPlant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("plant %d", id))
	}
	return p, nil
}

// GetOwned reads a plant only if userID owns it.
func (r *PostgresPlantRepository) GetOwned(ctx context.Context, id, userID int64) (*domain.Plant, error) {
	query := `SELECT ` + plantColumns + ` FROM plants WHERE id = $1 AND user_id = $2`
	p, err := scanPlant(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("plant %d", id))
	}
	return p, nil
}

func (r *PostgresPlantRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Plant, error) {
	query := `SELECT ` + plantColumns + ` FROM plants WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list plants",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	defer rows.Close()

	plants := []*domain.Plant{}
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func (r *PostgresPlantRepository) Update(ctx context.Context, plant *domain.Plant) error {
	query := `UPDATE plants SET name = $1, img_url = $2, description = $3 WHERE id = $4`
	what := fmt.Sprintf("plant %d", plant.ID)
	res, err := r.db.ExecContext(ctx, query, plant.Name, plant.ImgURL, plant.Description, plant.ID)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}

// Delete removes the plant; its care schedules go with it (ON DELETE CASCADE).
func (r *PostgresPlantRepository) Delete(ctx context.Context, id int64) error {
	what := fmt.Sprintf("plant %d", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM plants WHERE id = $1`, id)
	if err != nil {
		return translate(err, what)
	}
	return expectOne(res, what)
}
