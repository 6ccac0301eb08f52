package course

import "gorm.io/gorm"

// Module represents a unit of course content. OrderIndex is a display
// ordering only; module identity is the row ID and never changes.
type Module struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration" gorm:"default:0"` // minutes
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsDeleted   bool   `gorm:"default:false"`
}
