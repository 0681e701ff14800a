package users

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises behaviour every Repository shares.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("save assigns id and round trips", func(t *testing.T) {
		r := newRepo(t)
		exp := time.UnixMilli(1_900_000_000_000).UTC()

		u := models.NewUser("alice", exp)
		u.PasswordHash = "hash"
		u.GrantRole(models.RoleUser)

		saved, err := r.Save(ctx, u)
		require.NoError(t, err)
		require.NotZero(t, saved.ID)

		got, err := r.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.True(t, exp.Equal(got.ExpiresAt))
		assert.True(t, got.HasRole(models.RoleUser))
		assert.False(t, got.HasRole(models.RoleAdmin))

		byID, err := r.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
	})

	t.Run("zero expiry stays zero", func(t *testing.T) {
		r := newRepo(t)
		saved, err := r.Save(ctx, &models.User{Username: "bob", PasswordHash: "h"})
		require.NoError(t, err)

		got, err := r.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.True(t, got.ExpiresAt.IsZero())
		assert.Empty(t, got.Authorities)
	})

	t.Run("update replaces authorities", func(t *testing.T) {
		r := newRepo(t)
		u := &models.User{Username: "carol", PasswordHash: "h"}
		u.GrantRole(models.RoleUser)
		u, err := r.Save(ctx, u)
		require.NoError(t, err)

		u.RevokeRole(models.RoleUser)
		u.GrantRole(models.RoleAdmin)
		u.PasswordHash = "h2"
		_, err = r.Save(ctx, u)
		require.NoError(t, err)

		got, err := r.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "h2", got.PasswordHash)
		assert.Equal(t, []string{"ADMIN"}, got.RoleNames())
	})

	t.Run("duplicate authorities stored once", func(t *testing.T) {
		r := newRepo(t)
		u := &models.User{Username: "dave", PasswordHash: "h", Authorities: []models.Authority{
			{Authority: "ROLE_USER"}, {UserID: 99, Authority: "ROLE_USER"},
		}}
		u, err := r.Save(ctx, u)
		require.NoError(t, err)

		got, err := r.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, got.Authorities, 1)
		assert.Equal(t, u.ID, got.Authorities[0].UserID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Save(ctx, &models.User{Username: "eve", PasswordHash: "h"})
		require.NoError(t, err)

		_, err = r.Save(ctx, &models.User{Username: "eve", PasswordHash: "h"})
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	})

	t.Run("not found", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.FindByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		_, err = r.FindByID(ctx, 12345)
		assert.ErrorIs(t, err, common.ErrorNotFound)

		_, err = r.Save(ctx, &models.User{ID: 12345, Username: "ghost"})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("list ordered by id with authorities", func(t *testing.T) {
		r := newRepo(t)
		a := &models.User{Username: "admin", PasswordHash: "h"}
		a.GrantRole(models.RoleAdmin)
		a.GrantRole(models.RoleUser)
		_, err := r.Save(ctx, a)
		require.NoError(t, err)
		_, err = r.Save(ctx, &models.User{Username: "plain", PasswordHash: "h"})
		require.NoError(t, err)

		list, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "admin", list[0].Username)
		assert.ElementsMatch(t, []string{"ADMIN", "USER"}, list[0].RoleNames())
		assert.Equal(t, "plain", list[1].Username)
		assert.Empty(t, list[1].Authorities)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository { return NewMemoryRepository() })
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	u := &models.User{Username: "alice"}
	u.GrantRole(models.RoleUser)
	_, err := r.Save(ctx, u)
	require.NoError(t, err)

	got, err := r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	got.GrantRole(models.RoleAdmin)
	got.Username = "mallory"

	again, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)
	assert.False(t, again.HasRole(models.RoleAdmin))
}

func TestMemoryRepository_Snapshot(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	_, err := r.Save(ctx, &models.User{Username: "keep"})
	require.NoError(t, err)

	restore := r.Snapshot()
	_, err = r.Save(ctx, &models.User{Username: "drop"})
	require.NoError(t, err)
	restore()

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].Username)

	u, err := r.Save(ctx, &models.User{Username: "next"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
}
