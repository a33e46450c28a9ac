package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"urldash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRepository_Fake(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateUser populates every field and commits", func(t *testing.T) {
		store := newFakeStore()
		repo := NewUsersRepository(store)
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		repo.now = func() time.Time { return fixed }

		user, err := repo.CreateUser(ctx, CreateUserData{
			Username:     "alice",
			DisplayName:  strPtr("Alice"),
			Role:         models.RoleManagedUser,
			PasswordHash: "hash",
			TempPassword: true,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, user.PublicID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "Alice", *user.DisplayName)
		assert.Equal(t, "hash", user.PasswordHash)
		assert.True(t, user.TempPassword)
		assert.Equal(t, fixed, user.CreatedAt)
		assert.Equal(t, 1, store.commits)
	})

	t.Run("CreateUser and CreateOidcUser always allocate fresh public ids", func(t *testing.T) {
		repo := NewUsersRepository(newFakeStore())
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			u, err := repo.CreateUser(ctx, CreateUserData{Username: "u", Role: models.RoleManagedUser})
			require.NoError(t, err)
			o, err := repo.CreateOidcUser(ctx, CreateOidcUserData{Username: "o", Role: models.RoleManagedUser, OidcSubject: "s"})
			require.NoError(t, err)

			assert.False(t, seen[u.PublicID])
			seen[u.PublicID] = true
			assert.False(t, seen[o.PublicID])
			seen[o.PublicID] = true
		}
	})

	t.Run("CreateOidcUser has no temp password and keeps nil display name", func(t *testing.T) {
		repo := NewUsersRepository(newFakeStore())
		user, err := repo.CreateOidcUser(ctx, CreateOidcUserData{
			Username:    "bob",
			Role:        models.RoleManagedUser,
			OidcSubject: "subject-1",
		})

		require.NoError(t, err)
		assert.False(t, user.TempPassword)
		assert.Nil(t, user.DisplayName)
		require.NotNil(t, user.OidcSubject)
		assert.Equal(t, "subject-1", *user.OidcSubject)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("FindAndCountUsers defaults to newest first and ORs the search", func(t *testing.T) {
		store := newFakeStore()
		store.addUser("user-1", models.RoleAdmin)
		repo := NewUsersRepository(store)

		_, total, err := repo.FindAndCountUsers(ctx, ListOptions{Limit: 10, Offset: 20, SearchTerm: "ali"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		require.Len(t, store.finds, 1)
		q := store.finds[0].q
		assert.Equal(t, []Order{{Column: "users.created_at", Desc: true}}, q.Order)
		assert.Len(t, q.AnyOf, 2)
		assert.Equal(t, 10, q.Limit)
		assert.Equal(t, 20, q.Offset)

		require.Len(t, store.counts, 1)
		assert.Len(t, store.counts[0].q.AnyOf, 2)
	})

	t.Run("FindAndCountUsers honours caller ordering", func(t *testing.T) {
		store := newFakeStore()
		repo := NewUsersRepository(store)

		_, _, err := repo.FindAndCountUsers(ctx, ListOptions{OrderBy: &OrderBy{Field: "username", Direction: Asc}})
		require.NoError(t, err)
		assert.Equal(t, []Order{{Column: "users.username"}}, store.finds[0].q.Order)
		assert.Empty(t, store.finds[0].q.AnyOf)
	})

	t.Run("UpdateUser clears servers when the role can no longer hold them", func(t *testing.T) {
		store := newFakeStore()
		store.addUser("user-1", models.RoleManagedUser)
		repo := NewUsersRepository(store)

		role := models.RoleAdmin
		updated, err := repo.UpdateUser(ctx, "user-1", UserPatch{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, updated.Role)
		assert.Equal(t, []string{"Servers"}, store.cleared)
		assert.Equal(t, 1, store.commits)
		assert.Len(t, store.saved, 1)
	})

	t.Run("UpdateUser keeps servers for roles that hold them", func(t *testing.T) {
		store := newFakeStore()
		store.addUser("user-1", models.RoleManagedUser)
		repo := NewUsersRepository(store)

		role := models.RoleManagedUser
		_, err := repo.UpdateUser(ctx, "user-1", UserPatch{Role: &role, DisplayName: strPtr("Alice")})
		require.NoError(t, err)
		assert.Empty(t, store.cleared)
	})

	t.Run("Store errors propagate", func(t *testing.T) {
		store := newFakeStore()
		store.findErr = errors.New("boom")
		repo := NewUsersRepository(store)

		_, _, err := repo.FindAndCountUsers(ctx, ListOptions{})
		assert.ErrorContains(t, err, "boom")
	})
}

func TestUsersRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewGormStore(db)
	users := NewUsersRepository(store)

	alice := mustCreateUser(t, users, "alice", models.RoleAdmin)
	time.Sleep(5 * time.Millisecond)
	bob, err := users.CreateUser(ctx, CreateUserData{
		Username:     "bob",
		DisplayName:  strPtr("Robert Smith"),
		Role:         models.RoleManagedUser,
		PasswordHash: "hash",
		TempPassword: false,
	})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	carol, err := users.CreateOidcUser(ctx, CreateOidcUserData{
		Username:    "carol",
		Role:        models.RoleManagedUser,
		OidcSubject: "oidc-carol",
	})
	require.NoError(t, err)

	t.Run("Persisted temp password flag is explicit", func(t *testing.T) {
		found, err := users.FindByPublicID(ctx, bob.PublicID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.False(t, found.TempPassword)

		found, err = users.FindByOidcSubject(ctx, "oidc-carol")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, carol.PublicID, found.PublicID)
		assert.False(t, found.TempPassword)
		assert.Nil(t, found.DisplayName)
	})

	t.Run("Find returns nil for unknown users", func(t *testing.T) {
		found, err := users.FindByUsername(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("Default order is newest first", func(t *testing.T) {
		list, total, err := users.FindAndCountUsers(ctx, ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"carol", "bob", "alice"}, []string{list[0].Username, list[1].Username, list[2].Username})
	})

	t.Run("Search matches username or display name and counts before paging", func(t *testing.T) {
		list, total, err := users.FindAndCountUsers(ctx, ListOptions{SearchTerm: "SMITH"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, "bob", list[0].Username)

		list, total, err = users.FindAndCountUsers(ctx, ListOptions{
			SearchTerm: "o",
			Limit:      1,
			OrderBy:    &OrderBy{Field: "username", Direction: Asc},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, list, 1)
		assert.Equal(t, "bob", list[0].Username)
	})

	t.Run("UpdateUser is partial", func(t *testing.T) {
		role := models.RoleAdmin
		updated, err := users.UpdateUser(ctx, bob.PublicID, UserPatch{Role: &role})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, models.RoleAdmin, updated.Role)
		assert.Equal(t, "Robert Smith", *updated.DisplayName)

		updated, err = users.UpdateUser(ctx, bob.PublicID, UserPatch{DisplayName: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, updated.DisplayName)
		assert.Equal(t, models.RoleAdmin, updated.Role)

		missing, err := users.UpdateUser(ctx, "missing", UserPatch{Role: &role})
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Demotion to a server-less role drops assignments", func(t *testing.T) {
		servers := NewServersRepository(store)
		dave := mustCreateUser(t, users, "dave", models.RoleManagedUser)
		server := mustCreateServer(t, servers, dave.PublicID, "dave-srv")

		role := models.RoleAdmin
		updated, err := users.UpdateUser(ctx, dave.PublicID, UserPatch{Role: &role})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, models.RoleAdmin, updated.Role)

		found, err := servers.FindByPublicIDAndUserID(ctx, server.PublicID, dave.PublicID)
		require.NoError(t, err)
		assert.Nil(t, found)

		var links int64
		require.NoError(t, db.Table("servers_users").Where("server_id = ?", server.ID).Count(&links).Error)
		assert.Zero(t, links)
	})

	t.Run("Duplicate username fails", func(t *testing.T) {
		_, err := users.CreateUser(ctx, CreateUserData{Username: "alice", Role: models.RoleAdmin, PasswordHash: "x"})
		assert.Error(t, err)
	})

	t.Run("DeleteUser", func(t *testing.T) {
		deleted, err := users.DeleteUser(ctx, alice.PublicID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = users.DeleteUser(ctx, alice.PublicID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
