package models

import (
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:191;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`

	Tasks      []Task        `json:"-" gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL"`
	Activities []ActivityLog `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}
