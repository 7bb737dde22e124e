package services_test

import (
	"context"
	"testing"

	"opsboard/internal/cache"
	"opsboard/internal/models"
	"opsboard/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedLabelService_ServesFromCacheUntilMutation(t *testing.T) {
	db := newTestDB(t)
	labels := services.NewCachedLabelService(
		services.NewLabelService(db, services.NewActivityRecorder(db)),
		cache.NewMultiLevelCache(nil),
	)
	ctx := context.Background()

	first, err := labels.ListLabels(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Label{Name: "Sneaky", Color: "#111111"}).Error)

	cached, err := labels.ListLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	_, err = labels.CreateLabel(ctx, "Ops", "#000000")
	require.NoError(t, err)

	fresh, err := labels.ListLabels(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, len(first)+2)
}

func TestCachedBoardService_InvalidatesOnRename(t *testing.T) {
	db := newTestDB(t)
	boards := services.NewCachedBoardService(services.NewBoardService(db, nil), cache.NewMemoryCache())
	ctx := context.Background()

	board, err := boards.CreateBoard(ctx, "Ops")
	require.NoError(t, err)

	list, err := boards.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = boards.RenameBoard(ctx, board.ID, "Platform")
	require.NoError(t, err)

	list, err = boards.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Platform", list[0].Name)

	require.NoError(t, boards.DeleteBoard(ctx, board.ID))
	list, err = boards.ListBoards(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Contains(t, boards.CacheStats(), "hits")
}
