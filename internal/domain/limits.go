package domain

import "unicode/utf8"

// Column widths of the relational schema. Values are checked here so both
// storage backends reject the same input.
const (
	MaxUsernameLength    = 64
	MaxEmailLength       = 120
	MaxPlantNameLength   = 64
	MaxImgURLLength      = 255
	MaxDescriptionLength = 500
	MaxTipTitleLength    = 100
	MaxPostTitleLength   = 128
	MaxLayoutNameLength  = 64

	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// CheckLength rejects values longer than max characters.
func CheckLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return Validationf("%s exceeds %d characters", field, max)
	}
	return nil
}
