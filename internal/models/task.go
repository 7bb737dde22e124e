package models

import (
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task belongs to a column; BoardID always mirrors the board of ColumnID.
type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	DueDate     *string   `json:"due_date" gorm:"size:32"`
	Priority    Priority  `json:"priority" gorm:"size:16;not null;default:'Medium'"`
	ColumnID    uint      `json:"column_id" gorm:"not null;index"`
	BoardID     uint      `json:"board_id" gorm:"not null;index"`
	Archived    bool      `json:"archived" gorm:"not null;default:false;index"`
	CreatedBy   *uint     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"index"`

	CreatorName string  `json:"creator_name,omitempty" gorm:"->;-:migration"`
	ColumnName  string  `json:"column_name,omitempty" gorm:"->;-:migration"`
	Labels      []Label `json:"labels,omitempty" gorm:"-"`

	Attachments []Attachment  `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Activities  []ActivityLog `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}
