package models

import "gorm.io/gorm"

// User is the account record. Authentication lives outside this service;
// the row is only read for role checks and notification addresses.
type User struct {
	gorm.Model
	Name      string `json:"name"`
	Email     string `json:"email" gorm:"uniqueIndex"`
	Role      string `json:"role" gorm:"default:'student'"` // student, instructor, admin
	IsDeleted bool   `gorm:"default:false"`
}
