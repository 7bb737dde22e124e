package models

import (
	"time"
)

type AttachmentState string

const (
	AttachmentActive          AttachmentState = "active"
	AttachmentPendingDeletion AttachmentState = "pending_deletion"
)

// Attachment is ACTIVE while DeletedAt is nil and PENDING_DELETION once it is set.
// A purged attachment has no row.
type Attachment struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	TaskID       uint       `json:"task_id" gorm:"not null;index"`
	Filename     string     `json:"filename" gorm:"not null"`
	OriginalName string     `json:"original_name" gorm:"not null"`
	Folder       string     `json:"folder" gorm:"not null;default:''"`
	Path         string     `json:"path" gorm:"not null"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (a Attachment) State() AttachmentState {
	if a.DeletedAt != nil {
		return AttachmentPendingDeletion
	}
	return AttachmentActive
}

func (a Attachment) IsPendingDeletion() bool {
	return a.State() == AttachmentPendingDeletion
}
