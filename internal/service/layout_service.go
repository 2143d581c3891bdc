package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/security"
)

// LayoutService manages the caller's garden layouts. Layout data is stored
// and returned without interpretation.
type LayoutService struct {
	layouts domain.GardenLayoutRepository
	guard   *security.Guard
	logger  *slog.Logger
}

func NewLayoutService(layouts domain.GardenLayoutRepository, guard *security.Guard, logger *slog.Logger) *LayoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutService{layouts: layouts, guard: guard, logger: logger}
}

func (s *LayoutService) Create(ctx context.Context, userID int64, name string, data json.RawMessage) (*domain.GardenLayout, error) {
	name, err := domain.ValidateLayoutName(name)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateLayoutData(data); err != nil {
		return nil, err
	}
	layout := &domain.GardenLayout{
		Name:       name,
		UserID:     userID,
		LayoutData: append(json.RawMessage(nil), data...),
	}
	if err := s.layouts.Create(ctx, layout); err != nil {
		return nil, err
	}
	s.guard.Record(ctx, userID, security.ActionCreate, layout)
	return layout, nil
}

func (s *LayoutService) List(ctx context.Context, userID int64) ([]*domain.GardenLayout, error) {
	return s.layouts.ListByUser(ctx, userID)
}

func (s *LayoutService) Get(ctx context.Context, userID, id int64) (*domain.GardenLayout, error) {
	return s.layouts.GetOwned(ctx, id, userID)
}

func (s *LayoutService) Update(ctx context.Context, userID, id int64, patch domain.LayoutPatch) (*domain.GardenLayout, error) {
	layout, err := s.layouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.guard.Mutate(ctx, userID, security.ActionUpdate, layout, func(ctx context.Context) error {
		if err := layout.Apply(patch); err != nil {
			return err
		}
		return s.layouts.Update(ctx, layout)
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *LayoutService) Delete(ctx context.Context, userID, id int64) error {
	layout, err := s.layouts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.guard.Mutate(ctx, userID, security.ActionDelete, layout, func(ctx context.Context) error {
		return s.layouts.Delete(ctx, layout.ID)
	})
}
