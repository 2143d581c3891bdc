package domain

import (
	"context"
	"strings"
	"time"
)

// Plant is a plant record owned by one user
type Plant struct {
	ID          int64
	Name        string
	ImgURL      string // optional image reference
	Description string // optional
	UserID      int64
	CreatedAt   time.Time
}

// OwnerID returns the user that controls the plant.
func (p *Plant) OwnerID() int64 { return p.UserID }

// PlantPatch carries a partial update; nil fields are left untouched.
type PlantPatch struct {
	Name        *string
	ImgURL      *string
	Description *string
}

// Apply validates the patch and copies set fields onto p.
// Nothing is copied when any field is invalid.
func (p *Plant) Apply(patch PlantPatch) error {
	next := *p
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Validationf("plant name is required")
		}
		if err := CheckLength("plant name", name, MaxPlantNameLength); err != nil {
			return err
		}
		next.Name = name
	}
	if patch.ImgURL != nil {
		imgURL := strings.TrimSpace(*patch.ImgURL)
		if err := CheckLength("img_url", imgURL, MaxImgURLLength); err != nil {
			return err
		}
		next.ImgURL = imgURL
	}
	if patch.Description != nil {
		if err := CheckLength("description", *patch.Description, MaxDescriptionLength); err != nil {
			return err
		}
		next.Description = *patch.Description
	}
	*p = next
	return nil
}

// PlantRepository defines data access for plants.
// GetOwned is the filtered read: a plant of another user is ErrNotFound.
type PlantRepository interface {
	Create(ctx context.Context, plant *Plant) error
	GetByID(ctx context.Context, id int64) (*Plant, error)
	GetOwned(ctx context.Context, id, userID int64) (*Plant, error)
	ListByUser(ctx context.Context, userID int64) ([]*Plant, error)
	Update(ctx context.Context, plant *Plant) error
	Delete(ctx context.Context, id int64) error
}
