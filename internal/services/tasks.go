package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"opsboard/internal/models"

	"gorm.io/gorm"
)

type TaskInput struct {
	Title       string
	Description string
	DueDate     *string
	Priority    models.Priority
	ColumnID    uint
	BoardID     uint
	CreatedBy   *uint
}

// TaskUpdate changes only the fields that are set.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *models.Priority
	ColumnID    *uint
	UserID      *uint
}

// TaskDetails is a consistent snapshot of one task.
type TaskDetails struct {
	models.Task
	Attachments     []models.Attachment  `json:"attachments"`
	PendingDeletion []models.Attachment  `json:"pending_deletion"`
	Activities      []models.ActivityLog `json:"activities"`
}

type TaskService interface {
	CreateTask(ctx context.Context, input TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, id uint, update TaskUpdate) (models.Task, error)
	MoveTask(ctx context.Context, id, columnID uint, userID *uint) (models.Task, error)
	ArchiveTask(ctx context.Context, id uint, userID *uint) error
	RestoreTask(ctx context.Context, id uint, userID *uint) error
	ListArchived(ctx context.Context, boardID uint) ([]models.Task, error)
	DeleteTask(ctx context.Context, id uint) error
	GetTaskDetails(ctx context.Context, id uint) (TaskDetails, error)
}

type TaskServiceImpl struct {
	db       *gorm.DB
	activity ActivityRecorder
	cleaner  FolderCleaner
}

func NewTaskService(db *gorm.DB, activity ActivityRecorder, cleaner FolderCleaner) *TaskServiceImpl {
	return &TaskServiceImpl{db: db, activity: activity, cleaner: cleaner}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, input TaskInput) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Task{}, invalidInput("title is required")
	}
	if input.ColumnID == 0 {
		return models.Task{}, invalidInput("column_id is required")
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return models.Task{}, invalidInput("invalid priority %q", input.Priority)
	}
	dueDate, err := normalizeDueDate(input.DueDate)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		Title:       title,
		Description: input.Description,
		DueDate:     dueDate,
		Priority:    input.Priority,
		ColumnID:    input.ColumnID,
		CreatedBy:   input.CreatedBy,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var column models.Column
		if err := tx.First(&column, input.ColumnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidReference("column %d does not exist", input.ColumnID)
			}
			return err
		}
		if input.BoardID != 0 && input.BoardID != column.BoardID {
			return invalidReference("column %d does not belong to board %d", column.ID, input.BoardID)
		}
		task.BoardID = column.BoardID
		return tx.Create(&task).Error
	})
	if err != nil {
		return models.Task{}, fromStore(err, "task")
	}

	s.activity.Record(ctx, task.ID, models.ActionCreated, input.CreatedBy, "")
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, id uint, update TaskUpdate) (models.Task, error) {
	changes := map[string]interface{}{}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Task{}, invalidInput("title is required")
		}
		changes["title"] = title
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if update.DueDate != nil {
		dueDate, err := normalizeDueDate(update.DueDate)
		if err != nil {
			return models.Task{}, err
		}
		changes["due_date"] = dueDate
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return models.Task{}, invalidInput("invalid priority %q", *update.Priority)
		}
		changes["priority"] = *update.Priority
	}

	var (
		task     models.Task
		moveFrom string
		moveTo   string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}

		if update.ColumnID != nil && *update.ColumnID != task.ColumnID {
			from, to, err := columnChange(tx, task.ColumnID, *update.ColumnID)
			if err != nil {
				return err
			}
			changes["column_id"] = to.ID
			changes["board_id"] = to.BoardID
			moveFrom, moveTo = from, to.Name
		}

		changes["updated_at"] = time.Now()
		if err := tx.Model(&task).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&task, id).Error
	})
	if err != nil {
		return models.Task{}, fromStore(err, "task")
	}

	s.activity.Record(ctx, task.ID, models.ActionUpdated, update.UserID, "")
	if moveTo != "" {
		s.activity.Record(ctx, task.ID, models.ActionMoved, update.UserID, fmt.Sprintf("Moved from %s to %s", moveFrom, moveTo))
	}
	return task, nil
}

// MoveTask puts the task into columnID and keeps board_id in step with the
// column. A move into the current column records nothing.
func (s *TaskServiceImpl) MoveTask(ctx context.Context, id, columnID uint, userID *uint) (models.Task, error) {
	if columnID == 0 {
		return models.Task{}, invalidInput("column_id is required")
	}

	var (
		task    models.Task
		from    string
		to      string
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}
		if task.ColumnID == columnID {
			return nil
		}

		fromName, target, err := columnChange(tx, task.ColumnID, columnID)
		if err != nil {
			return err
		}
		err = tx.Model(&task).Updates(map[string]interface{}{
			"column_id":  target.ID,
			"board_id":   target.BoardID,
			"updated_at": time.Now(),
		}).Error
		if err != nil {
			return err
		}
		from, to, changed = fromName, target.Name, true
		return tx.First(&task, id).Error
	})
	if err != nil {
		return models.Task{}, fromStore(err, "task")
	}

	if changed {
		s.activity.Record(ctx, task.ID, models.ActionMoved, userID, fmt.Sprintf("Moved from %s to %s", from, to))
	}
	return task, nil
}

func (s *TaskServiceImpl) ArchiveTask(ctx context.Context, id uint, userID *uint) error {
	return s.setArchived(ctx, id, true, models.ActionArchived, userID)
}

func (s *TaskServiceImpl) RestoreTask(ctx context.Context, id uint, userID *uint) error {
	return s.setArchived(ctx, id, false, models.ActionRestored, userID)
}

func (s *TaskServiceImpl) setArchived(ctx context.Context, id uint, archived bool, action models.ActivityAction, userID *uint) error {
	res := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"archived": archived, "updated_at": time.Now()})
	if res.Error != nil {
		return fromStore(res.Error, "task")
	}
	if res.RowsAffected == 0 {
		return notFound("task")
	}

	s.activity.Record(ctx, id, action, userID, "")
	return nil
}

func (s *TaskServiceImpl) ListArchived(ctx context.Context, boardID uint) ([]models.Task, error) {
	if boardID == 0 {
		return nil, invalidInput("board_id is required")
	}

	var tasks []models.Task
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Select("tasks.*, users.name AS creator_name").
		Joins("LEFT JOIN users ON users.id = tasks.created_by").
		Where("tasks.board_id = ? AND tasks.archived = ?", boardID, true).
		Order("tasks.updated_at DESC, tasks.id DESC").
		Scan(&tasks).Error
	if err != nil {
		return nil, fromStore(err, "tasks")
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// DeleteTask removes the task with its attachments, labels and history, then
// removes its upload folders.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, id uint) error {
	var folders []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}

		var err error
		folders, err = uploadFolders(tx, []models.Task{task})
		if err != nil {
			return err
		}

		res := tx.Delete(&models.Task{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("task")
		}
		return nil
	})
	if err != nil {
		return fromStore(err, "task")
	}

	if s.cleaner != nil && len(folders) > 0 {
		s.cleaner.CleanupFolders(ctx, folders)
	}
	return nil
}

func (s *TaskServiceImpl) GetTaskDetails(ctx context.Context, id uint) (TaskDetails, error) {
	var details TaskDetails
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tasks []models.Task
		err := tx.Model(&models.Task{}).
			Select("tasks.*, users.name AS creator_name, columns.name AS column_name").
			Joins("LEFT JOIN users ON users.id = tasks.created_by").
			Joins("LEFT JOIN columns ON columns.id = tasks.column_id").
			Where("tasks.id = ?", id).
			Limit(1).
			Scan(&tasks).Error
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := attachLabels(tx, tasks); err != nil {
			return err
		}
		details.Task = tasks[0]

		if err := tx.Where("task_id = ? AND deleted_at IS NULL", id).Order("id").Find(&details.Attachments).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ? AND deleted_at IS NOT NULL", id).Order("deleted_at, id").Find(&details.PendingDeletion).Error; err != nil {
			return err
		}

		details.Activities, err = listActivity(tx, id)
		return err
	})
	if err != nil {
		return TaskDetails{}, fromStore(err, "task")
	}

	if details.Attachments == nil {
		details.Attachments = []models.Attachment{}
	}
	if details.PendingDeletion == nil {
		details.PendingDeletion = []models.Attachment{}
	}
	if details.Activities == nil {
		details.Activities = []models.ActivityLog{}
	}
	return details, nil
}

// columnChange loads the current and target columns of a move.
func columnChange(tx *gorm.DB, fromID, toID uint) (string, models.Column, error) {
	var target models.Column
	if err := tx.First(&target, toID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.Column{}, invalidReference("column %d does not exist", toID)
		}
		return "", models.Column{}, err
	}

	fromName := "Unknown"
	var current models.Column
	if err := tx.Select("name").First(&current, fromID).Error; err == nil {
		fromName = current.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", models.Column{}, err
	}
	return fromName, target, nil
}

// normalizeDueDate accepts a calendar date or an RFC 3339 timestamp. An
// empty string clears the due date.
func normalizeDueDate(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if _, err := time.Parse("2006-01-02", trimmed); err == nil {
		return &trimmed, nil
	}
	if _, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &trimmed, nil
	}
	return nil, invalidInput("invalid due_date %q", trimmed)
}
