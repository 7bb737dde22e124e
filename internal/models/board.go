package models

import (
	"strings"
	"time"
)

// DefaultColumnNames are created, in order, for every new board.
var DefaultColumnNames = []string{"To Do", "In Progress", "Done"}

// InboxColumnName is the conventional column that inherits tasks of a deleted column.
const InboxColumnName = "to do"

type Board struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	Columns []Column `json:"-" gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
	Tasks   []Task   `json:"-" gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
}

// Column positions are 0-based and kept gap-free within a board.
type Column struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null"`
	BoardID  uint   `json:"board_id" gorm:"not null;index"`
	Position int    `json:"position" gorm:"not null"`

	Tasks []Task `json:"-" gorm:"foreignKey:ColumnID;constraint:OnDelete:CASCADE"`
}

func (c Column) IsInbox() bool {
	return strings.ToLower(strings.TrimSpace(c.Name)) == InboxColumnName
}
