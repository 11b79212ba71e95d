package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	actor := Actor{UserID: uuid.New(), Role: RoleVeterinarian}

	token, err := m.NewAccessToken(actor)
	require.NoError(t, err)

	got, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestParseRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	expired, err := (&Manager{Secret: m.Secret, AccessTTL: -time.Minute}).NewAccessToken(Actor{UserID: uuid.New(), Role: RoleAdmin})
	require.NoError(t, err)
	wrongKey, err := NewManager("other", time.Hour).NewAccessToken(Actor{UserID: uuid.New(), Role: RoleAdmin})
	require.NoError(t, err)
	badRole, err := m.NewAccessToken(Actor{UserID: uuid.New(), Role: RoleSystem})
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"}).SignedString(m.Secret)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":    expired,
		"wrong key":  wrongKey,
		"bad role":   badRole,
		"no subject": noSubject,
		"garbage":    "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	a := Actor{UserID: uuid.New(), Role: RoleFarmer}
	got, ok := ActorFrom(WithActor(context.Background(), a))
	require.True(t, ok)
	assert.Equal(t, a, got)
	assert.True(t, got.Role.IsOwnerRole())
	assert.False(t, got.IsAdmin())
}
