package security

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/observability/metrics"
	"github.com/yourorg/greenthumb/internal/security/audit"
)

// Action identifies what operation is being performed
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Guard enforces that only a resource's owner may change it.
// Reads are not routed through the guard; they use owner-filtered queries.
type Guard struct {
	resolver *OwnerResolver
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewGuard creates a new ownership guard
func NewGuard(resolver *OwnerResolver, auditLog *audit.Logger, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &Guard{resolver: resolver, audit: auditLog, logger: logger}
}

// Authorize returns nil when callerID owns resource and an error matching
// domain.ErrUnauthorized otherwise. Resolution failures are returned as is.
func (g *Guard) Authorize(ctx context.Context, callerID int64, action Action, resource any) error {
	owner, err := g.resolver.ResolveOwner(ctx, resource)
	if err != nil {
		return err
	}
	if owner == callerID {
		return nil
	}

	kind, id := Describe(resource)
	g.logger.Warn("resource access denied",
		slog.Int64("user_id", callerID),
		slog.String("resource_type", kind),
		slog.Int64("resource_id", id),
		slog.Int64("owner_id", owner),
		slog.String("action", string(action)),
	)
	g.audit.LogDenied(ctx, callerID, string(action), kind, id, "not owner")
	metrics.ObserveOwnershipDenial(kind, string(action))
	return fmt.Errorf("%w: you do not own this %s", domain.ErrUnauthorized, kind)
}

// Mutate authorizes the caller and only then runs mutate. A successful
// mutation is written to the audit log.
func (g *Guard) Mutate(ctx context.Context, callerID int64, action Action, resource any, mutate func(context.Context) error) error {
	if err := g.Authorize(ctx, callerID, action, resource); err != nil {
		return err
	}
	if err := mutate(ctx); err != nil {
		return err
	}
	kind, id := Describe(resource)
	g.audit.LogMutation(ctx, callerID, string(action), kind, id)
	return nil
}

// Record audits a mutation that needed no ownership check, such as creating
// a top-level resource.
func (g *Guard) Record(ctx context.Context, callerID int64, action Action, resource any) {
	kind, id := Describe(resource)
	g.audit.LogMutation(ctx, callerID, string(action), kind, id)
}
