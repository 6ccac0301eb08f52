package course

import "gorm.io/gorm"

// Course represents a marketplace course
type Course struct {
	gorm.Model
	Title              string `json:"title"`
	Description        string `json:"description"`
	Instructor         string `json:"instructor"`
	Category           string `json:"category"`
	Level              string `json:"level"` // Beginner, Intermediate, Advanced
	Price              int64  `json:"price" gorm:"default:0"`    // minor currency units
	Discount           uint   `json:"discount" gorm:"default:0"` // percent, 0-100
	Currency           string `json:"currency" gorm:"default:'usd'"`
	ThumbnailURL       string `json:"thumbnail_url"`
	Language           string `json:"language" gorm:"default:'English'"`
	CertificateEnabled bool   `json:"certificate_enabled" gorm:"default:true"`
	IsPublished        bool   `json:"is_published" gorm:"default:false"`
	IsFeatured         bool   `json:"is_featured" gorm:"default:false"`
	IsDeleted          bool   `gorm:"default:false"`

	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}
