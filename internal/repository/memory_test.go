package repository

import (
	"context"
	"testing"
	"time"

	"krishi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRoundtrip(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	session := &models.Session{Token: "tok", UserID: 1, Role: models.RoleLabor}
	require.NoError(t, repo.SetSession(ctx, session))

	got, err := repo.GetSession(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.UserID)

	require.NoError(t, repo.ClearSession(ctx, "tok"))

	got, err = repo.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySession_Expiry(t *testing.T) {
	repo := NewMemorySessionRepository(10 * time.Millisecond)
	ctx := context.Background()

	session := &models.Session{Token: "tok", UserID: 1, Role: models.RoleLabor}
	require.NoError(t, repo.SetSession(ctx, session))

	time.Sleep(20 * time.Millisecond)

	got, err := repo.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryRateLimit(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "client", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, "client", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different key has its own window.
	allowed, err = repo.CheckRateLimit(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimit_WindowReset(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	allowed, err := repo.CheckRateLimit(ctx, "client", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, "client", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = repo.CheckRateLimit(ctx, "client", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}
