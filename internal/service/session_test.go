package service

import (
	"context"
	"testing"
	"time"

	"geocms/internal/models"
	"geocms/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService(t *testing.T) {
	store := repository.NewMemorySessionRepository(time.Hour)
	svc := NewSessionService(store, testLogger())
	ctx := context.Background()

	user := &models.User{ID: 5, Username: "jperera", Name: "J. Perera", Role: models.RoleLecturer}

	session, err := svc.Create(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, models.RoleLecturer, session.Role)

	// Tokens are unique per login.
	second, err := svc.Create(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, second.Token)

	resolved, err := svc.Resolve(ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, int64(5), resolved.UserID)

	// Empty and unknown tokens resolve to no session without error.
	resolved, err = svc.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, resolved)

	require.NoError(t, svc.Destroy(ctx, session.Token))
	resolved, err = svc.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}
