package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/greenthumb/internal/infrastructure/logger"
)

func TestLogDeniedFields(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := logger.WithRequestID(context.Background(), "req-1")
	al.LogDenied(ctx, 2, "delete", "plant", 10, "not the owner")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "delete", line["action"])
	assert.Equal(t, "plant", line["resource"])
	assert.Equal(t, "10", line["resource_id"])
	assert.Equal(t, float64(2), line["user_id"])
	assert.Equal(t, StatusDenied, line["status"])
	assert.Equal(t, "req-1", line["request_id"])
}
