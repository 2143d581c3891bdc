package app

import (
	"fmt"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/featureflags"
	"github.com/yourorg/greenthumb/internal/security"
	"github.com/yourorg/greenthumb/internal/security/audit"
	"github.com/yourorg/greenthumb/internal/security/auth"
	"github.com/yourorg/greenthumb/internal/service"
	"github.com/yourorg/greenthumb/pkg/config"
)

const tokenIssuer = "greenthumb"

// Services is the business layer built on a Storage
type Services struct {
	Tokens     *auth.TokenManager
	Recurrence domain.Recurrence
	Auth       *service.AuthService
	Plants     *service.PlantService
	Schedules  *service.ScheduleService
	Tips       *service.TipService
	Forum      *service.ForumService
	Layouts    *service.LayoutService
}

// NewServices builds every service with one ownership guard.
func NewServices(cfg *config.Config, st *Storage, log *slog.Logger) (*Services, error) {
	policy, err := security.ParseCommentOwnerPolicy(cfg.CommentOwnerPolicy)
	if err != nil {
		return nil, fmt.Errorf("COMMENT_OWNER_POLICY: %w", err)
	}

	resolver := security.NewOwnerResolver(st.Plants, st.Posts, policy)
	guard := security.NewGuard(resolver, audit.NewLogger(log), log)
	tokens := auth.NewTokenManager(cfg.JWTSecret, tokenIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	recurrence := domain.Recurrence{LegacyFallback: featureflags.Enabled(featureflags.LegacyIntervalFallback)}

	log.Info("ownership policy configured",
		slog.String("comment_owner", string(resolver.CommentPolicy())),
		slog.Bool("legacy_interval_fallback", recurrence.LegacyFallback),
	)

	return &Services{
		Tokens:     tokens,
		Recurrence: recurrence,
		Auth:       service.NewAuthService(st.Users, tokens, st.Denylist, log),
		Plants:     service.NewPlantService(st.Plants, guard, log),
		Schedules:  service.NewScheduleService(st.Schedules, st.Plants, guard, recurrence, log),
		Tips:       service.NewTipService(st.Tips, guard, log),
		Forum:      service.NewForumService(st.Posts, st.Comments, guard, log),
		Layouts:    service.NewLayoutService(st.Layouts, guard, log),
	}, nil
}
