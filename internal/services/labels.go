package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opsboard/internal/models"

	"gorm.io/gorm"
)

type LabelService interface {
	ListLabels(ctx context.Context) ([]models.Label, error)
	CreateLabel(ctx context.Context, name, color string) (models.Label, error)
	DeleteLabel(ctx context.Context, id uint) error
	AddTaskLabel(ctx context.Context, taskID, labelID uint, userID *uint) error
	RemoveTaskLabel(ctx context.Context, taskID, labelID uint, userID *uint) error
}

type LabelServiceImpl struct {
	db       *gorm.DB
	activity ActivityRecorder
}

func NewLabelService(db *gorm.DB, activity ActivityRecorder) *LabelServiceImpl {
	return &LabelServiceImpl{db: db, activity: activity}
}

func (s *LabelServiceImpl) ListLabels(ctx context.Context) ([]models.Label, error) {
	var labels []models.Label
	if err := s.db.WithContext(ctx).Order("id").Find(&labels).Error; err != nil {
		return nil, fromStore(err, "labels")
	}
	return labels, nil
}

func (s *LabelServiceImpl) CreateLabel(ctx context.Context, name, color string) (models.Label, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if name == "" || color == "" {
		return models.Label{}, invalidInput("name and color are required")
	}

	label := models.Label{Name: name, Color: color}
	if err := s.db.WithContext(ctx).Create(&label).Error; err != nil {
		return models.Label{}, fromStore(err, "label")
	}
	return label, nil
}

func (s *LabelServiceImpl) DeleteLabel(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Label{}, id)
	if res.Error != nil {
		return fromStore(res.Error, "label")
	}
	if res.RowsAffected == 0 {
		return notFound("label")
	}
	return nil
}

func (s *LabelServiceImpl) AddTaskLabel(ctx context.Context, taskID, labelID uint, userID *uint) error {
	if labelID == 0 {
		return invalidInput("label_id is required")
	}

	var label models.Label
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Select("id").First(&task, taskID).Error; err != nil {
			return err
		}
		if err := tx.First(&label, labelID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidReference("label %d does not exist", labelID)
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.TaskLabel{}).Where("task_id = ? AND label_id = ?", taskID, labelID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return invalidInput("label already added to task")
		}
		return tx.Create(&models.TaskLabel{TaskID: taskID, LabelID: labelID}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return invalidInput("label already added to task")
		}
		return fromStore(err, "task")
	}

	s.activity.Record(ctx, taskID, models.ActionLabelAdded, userID, fmt.Sprintf("Added label %s", label.Name))
	return nil
}

func (s *LabelServiceImpl) RemoveTaskLabel(ctx context.Context, taskID, labelID uint, userID *uint) error {
	db := s.db.WithContext(ctx)

	var label models.Label
	if err := db.First(&label, labelID).Error; err != nil {
		return fromStore(err, "label")
	}

	res := db.Where("task_id = ? AND label_id = ?", taskID, labelID).Delete(&models.TaskLabel{})
	if res.Error != nil {
		return fromStore(res.Error, "label")
	}
	if res.RowsAffected == 0 {
		return notFound("task label")
	}

	s.activity.Record(ctx, taskID, models.ActionLabelRemoved, userID, fmt.Sprintf("Removed label %s", label.Name))
	return nil
}
