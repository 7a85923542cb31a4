package repository

import (
	"context"
	"testing"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	creds := &Credentials{
		Driver:            DriverSQLite,
		Path:              ":memory:",
		MigrationsDirPath: "./migrations/sqlite",
	}

	db, err := NewDB(creds)
	require.NoError(t, err)

	err = db.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %s", err)
		}
	}
	return db, cleanup
}

func createUser(t *testing.T, db *DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Fullname:     "Test " + username,
		Username:     username,
		Email:        username + "@example.com",
		PhoneNumber:  "0123456789",
		PasswordHash: "hash",
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func ptr[T any](v T) *T { return &v }
