package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RolePetOwner     Role = "pet_owner"
	RoleFarmer       Role = "farmer"
	RoleVeterinarian Role = "veterinarian"
	RoleAdmin        Role = "admin"
	// RoleSystem marks background work such as the missed sweep.
	RoleSystem Role = "system"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RolePetOwner, RoleFarmer, RoleVeterinarian, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsOwnerRole reports whether r books on behalf of animals it owns.
func (r Role) IsOwnerRole() bool {
	return r == RolePetOwner || r == RoleFarmer
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

var System = Actor{Role: RoleSystem}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
