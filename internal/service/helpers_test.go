package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/repository/memory"
	"github.com/yourorg/greenthumb/internal/security"
	"github.com/yourorg/greenthumb/internal/security/audit"
	"github.com/yourorg/greenthumb/internal/security/auth"
)

type testEnv struct {
	store     *memory.Store
	auth      *AuthService
	plants    *PlantService
	schedules *ScheduleService
	tips      *TipService
	forum     *ForumService
	layouts   *LayoutService
}

func newTestEnv(t *testing.T, policy security.CommentOwnerPolicy) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	resolver := security.NewOwnerResolver(store.Plants(), store.Posts(), policy)
	guard := security.NewGuard(resolver, audit.NewLogger(log), log)
	tokens := auth.NewTokenManager("test-secret", "greenthumb", time.Minute, time.Hour)

	authSvc := NewAuthService(store.Users(), tokens, store.Denylist(), log)
	authSvc.hashCost = bcrypt.MinCost

	return &testEnv{
		store:     store,
		auth:      authSvc,
		plants:    NewPlantService(store.Plants(), guard, log),
		schedules: NewScheduleService(store.Schedules(), store.Plants(), guard, domain.Recurrence{}, log),
		tips:      NewTipService(store.Tips(), guard, log),
		forum:     NewForumService(store.Posts(), store.Comments(), guard, log),
		layouts:   NewLayoutService(store.Layouts(), guard, log),
	}
}

func (e *testEnv) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }
