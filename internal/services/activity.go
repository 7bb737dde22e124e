package services

import (
	"context"
	"log"

	"opsboard/internal/models"

	"gorm.io/gorm"
)

type ActivityRecorder interface {
	Record(ctx context.Context, taskID uint, action models.ActivityAction, userID *uint, details string)
	ListForTask(ctx context.Context, taskID uint) ([]models.ActivityLog, error)
}

type ActivityRecorderImpl struct {
	db *gorm.DB
}

func NewActivityRecorder(db *gorm.DB) *ActivityRecorderImpl {
	return &ActivityRecorderImpl{db: db}
}

// Record appends an entry. A failed write is logged and never reaches the
// caller. Call it after the surrounding transaction has committed.
func (r *ActivityRecorderImpl) Record(ctx context.Context, taskID uint, action models.ActivityAction, userID *uint, details string) {
	entry := models.ActivityLog{
		TaskID:  taskID,
		Action:  action,
		UserID:  userID,
		Details: details,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("failed to record %s activity for task %d: %v", action, taskID, err)
	}
}

func (r *ActivityRecorderImpl) ListForTask(ctx context.Context, taskID uint) ([]models.ActivityLog, error) {
	entries, err := listActivity(r.db.WithContext(ctx), taskID)
	if err != nil {
		return nil, fromStore(err, "activity")
	}
	return entries, nil
}

func listActivity(tx *gorm.DB, taskID uint) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := tx.Model(&models.ActivityLog{}).
		Select("activity_logs.*, users.name AS user_name").
		Joins("LEFT JOIN users ON users.id = activity_logs.user_id").
		Where("activity_logs.task_id = ?", taskID).
		Order("activity_logs.created_at DESC, activity_logs.id DESC").
		Scan(&entries).Error
	return entries, err
}
