package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// GardenLayout stores a user's plant arrangement. LayoutData is any JSON
// value and is kept byte-for-byte; nothing here interprets its schema.
type GardenLayout struct {
	ID         int64
	Name       string
	UserID     int64
	LayoutData json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (l *GardenLayout) OwnerID() int64 { return l.UserID }

// LayoutPatch carries a partial update; nil fields are left untouched.
type LayoutPatch struct {
	Name       *string
	LayoutData json.RawMessage
}

// ValidateLayoutData requires a present, well-formed JSON value.
func ValidateLayoutData(data json.RawMessage) error {
	if len(data) == 0 || string(data) == "null" {
		return Validationf("layout_data is required")
	}
	if !json.Valid(data) {
		return Validationf("layout_data must be valid JSON")
	}
	return nil
}

// ValidateLayoutName trims name and checks it is present and fits.
func ValidateLayoutName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Validationf("layout name is required")
	}
	if err := CheckLength("layout name", name, MaxLayoutNameLength); err != nil {
		return "", err
	}
	return name, nil
}

// Apply validates and copies the patch onto l.
func (l *GardenLayout) Apply(patch LayoutPatch) error {
	name := l.Name
	if patch.Name != nil {
		var err error
		if name, err = ValidateLayoutName(*patch.Name); err != nil {
			return err
		}
	}
	data := l.LayoutData
	if patch.LayoutData != nil {
		if err := ValidateLayoutData(patch.LayoutData); err != nil {
			return err
		}
		data = append(json.RawMessage(nil), patch.LayoutData...)
	}
	l.Name, l.LayoutData = name, data
	return nil
}

// GardenLayoutRepository defines data access for garden layouts
type GardenLayoutRepository interface {
	Create(ctx context.Context, layout *GardenLayout) error
	GetByID(ctx context.Context, id int64) (*GardenLayout, error)
	GetOwned(ctx context.Context, id, userID int64) (*GardenLayout, error)
	ListByUser(ctx context.Context, userID int64) ([]*GardenLayout, error)
	Update(ctx context.Context, layout *GardenLayout) error
	Delete(ctx context.Context, id int64) error
}
