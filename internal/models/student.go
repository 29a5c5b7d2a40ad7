package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type Student struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Carnet       string    `gorm:"size:32;uniqueIndex" json:"carnet"`
	PasswordHash string    `gorm:"column:password" json:"-"`
	Role         string    `gorm:"size:16;default:student" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Role == "" {
		s.Role = RoleStudent
	}
	return nil
}

var allowedRoles = map[string]struct{}{
	RoleAdmin:   {},
	RoleStudent: {},
}

func IsValidRole(role string) bool {
	_, ok := allowedRoles[role]
	return ok
}
