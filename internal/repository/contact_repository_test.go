package repository

import (
	"context"
	"testing"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContactRepository(db)
	ctx := context.Background()

	exists, err := repo.ExistsByName(ctx, "Alice")
	require.NoError(t, err)
	assert.False(t, exists)

	msg := &domain.ContactMessage{YourName: "Alice", Email: "alice@example.com", Message: "Hello"}
	require.NoError(t, repo.Create(ctx, msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	exists, err = repo.ExistsByName(ctx, "Alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByName(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)
}
