package models

import (
	"time"
)

type ActivityAction string

const (
	ActionCreated           ActivityAction = "created"
	ActionUpdated           ActivityAction = "updated"
	ActionMoved             ActivityAction = "moved"
	ActionArchived          ActivityAction = "archived"
	ActionRestored          ActivityAction = "restored"
	ActionLabelAdded        ActivityAction = "label_added"
	ActionLabelRemoved      ActivityAction = "label_removed"
	ActionAttachmentAdded   ActivityAction = "attachment_added"
	ActionAttachmentDeleted ActivityAction = "attachment_deleted"
	ActionAttachmentPurged  ActivityAction = "attachment_purged"
)

// ActivityLog rows are append-only.
type ActivityLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TaskID    uint           `json:"task_id" gorm:"not null;index"`
	Action    ActivityAction `json:"action" gorm:"size:32;not null"`
	UserID    *uint          `json:"user_id"`
	Details   string         `json:"details"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`

	UserName string `json:"user_name,omitempty" gorm:"->;-:migration"`
}
