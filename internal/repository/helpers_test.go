package repository

import (
	"context"
	"fmt"
	"testing"

	"urldash/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func mustCreateUser(t *testing.T, repo *UsersRepository, username string, role models.Role) *models.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), CreateUserData{
		Username:     username,
		Role:         role,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func mustCreateServer(t *testing.T, repo *ServersRepository, userID, name string) *models.Server {
	t.Helper()
	server, err := repo.CreateServer(context.Background(), userID, CreateServerData{
		Name:    name,
		BaseURL: "https://" + name + ".example.com",
		APIKey:  "key-" + name,
	})
	require.NoError(t, err)
	return server
}

func strPtr(s string) *string {
	return &s
}
