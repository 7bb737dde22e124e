package models

// Label is global to the installation and attached to tasks through TaskLabel.
type Label struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"not null"`
	Color string `json:"color" gorm:"not null"`
}

type TaskLabel struct {
	TaskID  uint `json:"task_id" gorm:"primaryKey;autoIncrement:false"`
	LabelID uint `json:"label_id" gorm:"primaryKey;autoIncrement:false"`

	Task  Task  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Label Label `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// DefaultLabels are seeded into an empty labels table.
var DefaultLabels = []Label{
	{Name: "Bug", Color: "#ef4444"},
	{Name: "Feature", Color: "#3b82f6"},
	{Name: "Design", Color: "#a855f7"},
	{Name: "Urgent", Color: "#f97316"},
	{Name: "Backend", Color: "#10b981"},
	{Name: "Frontend", Color: "#ec4899"},
}
