package services_test

import (
	"context"
	"errors"
	"testing"

	"opsboard/internal/database"
	"opsboard/internal/models"
	"opsboard/internal/services"
	"opsboard/internal/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	pool, err := database.OpenSQLite(":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, database.Migrate(pool.DB))
	return pool.DB
}

func newTestStore(t *testing.T) *storage.LocalStore {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func requireKind(t *testing.T, err error, kind services.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, services.KindOf(err), "unexpected error: %v", err)
}

func seedBoard(t *testing.T, db *gorm.DB, name string, columns ...string) (models.Board, []models.Column) {
	t.Helper()

	board := models.Board{Name: name}
	require.NoError(t, db.Create(&board).Error)

	created := make([]models.Column, len(columns))
	for i, columnName := range columns {
		created[i] = models.Column{Name: columnName, BoardID: board.ID, Position: i}
		require.NoError(t, db.Create(&created[i]).Error)
	}
	return board, created
}

func seedTask(t *testing.T, db *gorm.DB, column models.Column, title string) models.Task {
	t.Helper()

	task := models.Task{
		Title:    title,
		ColumnID: column.ID,
		BoardID:  column.BoardID,
		Priority: models.PriorityMedium,
	}
	require.NoError(t, db.Create(&task).Error)
	return task
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()

	user := models.User{Name: name}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func columnPositions(t *testing.T, db *gorm.DB, boardID uint) map[string]int {
	t.Helper()

	var columns []models.Column
	require.NoError(t, db.Where("board_id = ?", boardID).Order("position").Find(&columns).Error)

	positions := make(map[string]int, len(columns))
	for _, column := range columns {
		positions[column.Name] = column.Position
	}
	return positions
}

func orderedColumnNames(t *testing.T, db *gorm.DB, boardID uint) ([]string, []int) {
	t.Helper()

	var columns []models.Column
	require.NoError(t, db.Where("board_id = ?", boardID).Order("position, id").Find(&columns).Error)

	names := make([]string, len(columns))
	positions := make([]int, len(columns))
	for i, column := range columns {
		names[i] = column.Name
		positions[i] = column.Position
	}
	return names, positions
}

func activityFor(t *testing.T, db *gorm.DB, taskID uint, action models.ActivityAction) []models.ActivityLog {
	t.Helper()

	var entries []models.ActivityLog
	require.NoError(t, db.Where("task_id = ? AND action = ?", taskID, action).Order("id").Find(&entries).Error)
	return entries
}

func uintPtr(v uint) *uint {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// flakyStore fails every Delete while failDeletes is set.
type flakyStore struct {
	*storage.LocalStore
	failDeletes bool
}

func (s *flakyStore) Delete(path string) error {
	if s.failDeletes {
		return errors.New("disk unavailable")
	}
	return s.LocalStore.Delete(path)
}

// recordingCleaner captures the folders handed to it.
type recordingCleaner struct {
	folders []string
}

func (c *recordingCleaner) CleanupFolders(_ context.Context, folders []string) {
	c.folders = append(c.folders, folders...)
}
