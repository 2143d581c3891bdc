package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/yourorg/greenthumb/internal/domain"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, domain.ErrNotFound},
		{"unique violation", &pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"}, domain.ErrConflict},
		{"foreign key violation", &pq.Error{Code: pqForeignKeyViolation}, domain.ErrNotFound},
		{"value too long", &pq.Error{Code: pqStringTooLong, Message: "value too long for type character varying(64)"}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.err, "plant 4"), tt.want)
		})
	}
}

func TestTranslateKeepsUnknownErrorsInternal(t *testing.T) {
	err := translate(errors.New("connection reset"), "plant 4")
	assert.EqualError(t, err, "plant 4: connection reset")
	assert.False(t, errors.Is(err, domain.ErrValidation))
	assert.NoError(t, translate(nil, "plant 4"))
}

func TestConstraintField(t *testing.T) {
	assert.Equal(t, "email", constraintField("users_email_key"))
	assert.Equal(t, "username", constraintField("users_username_key"))
}
