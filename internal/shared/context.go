package shared

import "context"

// Role enumerates staff access levels, least to most privileged.
type Role string

const (
	RoleUser    Role = "user"
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies the authenticated user attached to a request.
type Actor struct {
	UserID int64
	Role   Role
}

type contextKey string

const actorKey contextKey = "actor"

// ContextWithActor stores the authenticated actor in the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
