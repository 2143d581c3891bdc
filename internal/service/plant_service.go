package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/security"
)

// PlantInput is the payload for a new plant
type PlantInput struct {
	Name        string
	ImgURL      string
	Description string
}

// PlantService manages the caller's plants
type PlantService struct {
	plants domain.PlantRepository
	guard  *security.Guard
	logger *slog.Logger
}

func NewPlantService(plants domain.PlantRepository, guard *security.Guard, logger *slog.Logger) *PlantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlantService{plants: plants, guard: guard, logger: logger}
}

func (s *PlantService) Create(ctx context.Context, userID int64, in PlantInput) (*domain.Plant, error) {
	plant := &domain.Plant{UserID: userID}
	patch := domain.PlantPatch{Name: &in.Name, ImgURL: &in.ImgURL, Description: &in.Description}
	if err := plant.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.plants.Create(ctx, plant); err != nil {
		return nil, err
	}
	s.guard.Record(ctx, userID, security.ActionCreate, plant)
	return plant, nil
}

// List returns the caller's plants.
func (s *PlantService) List(ctx context.Context, userID int64) ([]*domain.Plant, error) {
	return s.plants.ListByUser(ctx, userID)
}

// Get returns one of the caller's plants; other users' plants are not found.
func (s *PlantService) Get(ctx context.Context, userID, id int64) (*domain.Plant, error) {
	return s.plants.GetOwned(ctx, id, userID)
}

func (s *PlantService) Update(ctx context.Context, userID, id int64, patch domain.PlantPatch) (*domain.Plant, error) {
	plant, err := s.plants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.guard.Mutate(ctx, userID, security.ActionUpdate, plant, func(ctx context.Context) error {
		if err := plant.Apply(patch); err != nil {
			return err
		}
		return s.plants.Update(ctx, plant)
	})
	if err != nil {
		return nil, err
	}
	return plant, nil
}

// Delete removes the plant together with its care schedules.
func (s *PlantService) Delete(ctx context.Context, userID, id int64) error {
	plant, err := s.plants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.guard.Mutate(ctx, userID, security.ActionDelete, plant, func(ctx context.Context) error {
		return s.plants.Delete(ctx, plant.ID)
	})
}
