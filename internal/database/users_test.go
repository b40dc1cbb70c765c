package database

import (
	"context"
	"testing"

	"geocms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Username:     "jperera",
		Name:         "J. Perera",
		Email:        "jp@geo.example.edu",
		Role:         models.RoleStudent,
		PasswordHash: "hash-original",
		IsActive:     true,
	}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))
	assert.NotZero(t, user.ID)

	// Upsert with a new role keeps the stored password hash.
	updated := &models.User{
		Username:     "jperera",
		Name:         "J. Perera",
		Email:        "jp@geo.example.edu",
		Role:         models.RoleStaff,
		PasswordHash: "hash-other",
		IsActive:     true,
	}
	require.NoError(t, db.CreateOrUpdateUser(ctx, updated))
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, models.RoleStaff, updated.Role)
	assert.Equal(t, "hash-original", updated.PasswordHash)
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUsersByRole(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	users := []*models.User{
		{Username: "tech1", Name: "Tech Silva", Role: models.RoleStaff, IsActive: true},
		{Username: "tech2", Name: "Tech Bandara", Role: models.RoleStaff, IsActive: false},
		{Username: "stud1", Name: "Student", Role: models.RoleStudent, IsActive: true},
	}
	for _, u := range users {
		require.NoError(t, db.CreateOrUpdateUser(ctx, u))
	}

	staff, err := db.GetUsersByRole(ctx, models.RoleStaff)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "tech1", staff[0].Username)

	// Three created here on top of the ten-account roster from setupTestDB.
	all, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 13)
}

func TestUpdateUserActivity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Username: "active", Name: "A", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	before := user.LastActivity
	require.NoError(t, db.UpdateUserActivity(ctx, user.ID))

	loaded, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, !loaded.LastActivity.Before(before))
}
