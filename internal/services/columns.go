package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"opsboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ColumnPosition is one entry of a reorder batch. Both fields are pointers
// so an omitted field can be told apart from a zero value.
type ColumnPosition struct {
	ID       *uint `json:"id"`
	Position *int  `json:"position"`
}

type DeleteColumnResult struct {
	FallbackColumnID uint `json:"fallback_column_id"`
	MovedTasks       int  `json:"moved_tasks"`
}

type ColumnService interface {
	ListColumns(ctx context.Context, boardID uint) ([]models.Column, error)
	CreateColumn(ctx context.Context, boardID uint, name string) (models.Column, error)
	RenameColumn(ctx context.Context, columnID uint, name string) (models.Column, error)
	ReorderColumns(ctx context.Context, updates []ColumnPosition) error
	DeleteColumn(ctx context.Context, columnID uint, fallbackID *uint, userID *uint) (DeleteColumnResult, error)
}

type ColumnServiceImpl struct {
	db       *gorm.DB
	activity ActivityRecorder
}

func NewColumnService(db *gorm.DB, activity ActivityRecorder) *ColumnServiceImpl {
	return &ColumnServiceImpl{db: db, activity: activity}
}

func (s *ColumnServiceImpl) ListColumns(ctx context.Context, boardID uint) ([]models.Column, error) {
	db := s.db.WithContext(ctx)

	var board models.Board
	if err := db.First(&board, boardID).Error; err != nil {
		return nil, fromStore(err, "board")
	}

	var columns []models.Column
	if err := db.Where("board_id = ?", boardID).Order("position, id").Find(&columns).Error; err != nil {
		return nil, fromStore(err, "columns")
	}
	return columns, nil
}

func (s *ColumnServiceImpl) CreateColumn(ctx context.Context, boardID uint, name string) (models.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Column{}, invalidInput("column name is required")
	}

	column := models.Column{Name: name, BoardID: boardID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The board row lock serialises concurrent appends to the same board.
		var board models.Board
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&board, boardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidReference("board %d does not exist", boardID)
			}
			return err
		}

		var maxPosition int
		err := tx.Model(&models.Column{}).
			Where("board_id = ?", boardID).
			Select("COALESCE(MAX(position), -1)").
			Scan(&maxPosition).Error
		if err != nil {
			return err
		}

		column.Position = maxPosition + 1
		return tx.Create(&column).Error
	})
	if err != nil {
		return models.Column{}, fromStore(err, "column")
	}
	return column, nil
}

func (s *ColumnServiceImpl) RenameColumn(ctx context.Context, columnID uint, name string) (models.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Column{}, invalidInput("column name is required")
	}

	db := s.db.WithContext(ctx)

	var column models.Column
	if err := db.First(&column, columnID).Error; err != nil {
		return models.Column{}, fromStore(err, "column")
	}
	if err := db.Model(&column).Update("name", name).Error; err != nil {
		return models.Column{}, fromStore(err, "column")
	}
	column.Name = name
	return column, nil
}

// ReorderColumns applies the batch atomically. Every board touched by the
// batch is renumbered to 0..N-1 afterwards; ties keep the requested columns
// ahead of the ones the batch did not mention.
func (s *ColumnServiceImpl) ReorderColumns(ctx context.Context, updates []ColumnPosition) error {
	if len(updates) == 0 {
		return invalidInput("reorder batch is empty")
	}
	for i, update := range updates {
		if update.ID == nil || update.Position == nil {
			return invalidInput("reorder entry %d must have id and position", i)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requested := make(map[uint]bool, len(updates))
		boards := make(map[uint]bool)

		for _, update := range updates {
			var column models.Column
			if err := tx.First(&column, *update.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFound(fmt.Sprintf("column %d", *update.ID))
				}
				return err
			}
			if err := tx.Model(&column).Update("position", *update.Position).Error; err != nil {
				return err
			}
			requested[column.ID] = true
			boards[column.BoardID] = true
		}

		for boardID := range boards {
			var columns []models.Column
			if err := tx.Where("board_id = ?", boardID).Order("position, id").Find(&columns).Error; err != nil {
				return err
			}
			sort.SliceStable(columns, func(i, j int) bool {
				if columns[i].Position != columns[j].Position {
					return columns[i].Position < columns[j].Position
				}
				return requested[columns[i].ID] && !requested[columns[j].ID]
			})
			if err := renumber(tx, columns); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fromStore(err, "column")
	}
	return nil
}

// DeleteColumn moves every task of the column to the resolved fallback,
// deletes the column and closes the position gap, all in one transaction.
func (s *ColumnServiceImpl) DeleteColumn(ctx context.Context, columnID uint, fallbackID *uint, userID *uint) (DeleteColumnResult, error) {
	var (
		result   DeleteColumnResult
		target   models.Column
		fallback models.Column
		moved    []uint
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&target, columnID).Error; err != nil {
			return err
		}

		var siblings []models.Column
		if err := tx.Where("board_id = ?", target.BoardID).Order("position, id").Find(&siblings).Error; err != nil {
			return err
		}
		if len(siblings) <= 1 {
			return invalidOperation("cannot delete the last remaining section")
		}

		var ok bool
		fallback, ok = ResolveFallback(siblings, columnID, fallbackID)
		if !ok {
			return invalidOperation("no fallback section available")
		}

		if err := tx.Model(&models.Task{}).Where("column_id = ?", columnID).Pluck("id", &moved).Error; err != nil {
			return err
		}
		if len(moved) > 0 {
			err := tx.Model(&models.Task{}).
				Where("column_id = ?", columnID).
				Updates(map[string]interface{}{
					"column_id":  fallback.ID,
					"updated_at": time.Now(),
				}).Error
			if err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Column{}, columnID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storageFault("column delete affected no rows", nil)
		}

		remaining := make([]models.Column, 0, len(siblings)-1)
		for _, sibling := range siblings {
			if sibling.ID != columnID {
				remaining = append(remaining, sibling)
			}
		}
		return renumber(tx, remaining)
	})
	if err != nil {
		return result, fromStore(err, "column")
	}

	details := fmt.Sprintf("Moved from %s to %s (section deleted)", target.Name, fallback.Name)
	for _, taskID := range moved {
		s.activity.Record(ctx, taskID, models.ActionMoved, userID, details)
	}

	result.FallbackColumnID = fallback.ID
	result.MovedTasks = len(moved)
	return result, nil
}

// ResolveFallback picks the column that inherits the tasks of columnID.
// siblings are all columns of the board ordered by position. The requested
// column wins when it is a different sibling, then the "To Do" column, then
// the first remaining column.
func ResolveFallback(siblings []models.Column, columnID uint, requested *uint) (models.Column, bool) {
	if requested != nil && *requested != columnID {
		for _, column := range siblings {
			if column.ID == *requested {
				return column, true
			}
		}
	}

	for _, column := range siblings {
		if column.ID != columnID && column.IsInbox() {
			return column, true
		}
	}

	for _, column := range siblings {
		if column.ID != columnID {
			return column, true
		}
	}

	return models.Column{}, false
}

func renumber(tx *gorm.DB, columns []models.Column) error {
	for i, column := range columns {
		if column.Position == i {
			continue
		}
		if err := tx.Model(&models.Column{}).Where("id = ?", column.ID).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}
