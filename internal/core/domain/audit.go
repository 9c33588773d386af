// internal/core/domain/audit.go
package domain

import (
	"context"
	"time"
)

// SystemActor is the audit identity used for writes that happen outside a
// user request, such as the scheduled snapshot job.
const SystemActor = "system"

type actorKey struct{}

// WithActor returns a context carrying the id of the user performing the
// current request. Repositories read it to stamp audit columns.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the current actor id, or SystemActor when none is set.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return SystemActor
}

// AuditFields are the stamping columns shared by every persisted entity.
// They are written by the repositories, never by callers.
type AuditFields struct {
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	UpdatedBy *string    `json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *string    `json:"deleted_by,omitempty"`
}
