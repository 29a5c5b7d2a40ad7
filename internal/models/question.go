package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is read-only through the API; rows come from the seed file.
type Question struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"_id"`
	Area       string `gorm:"index" json:"area"`
	Tipo       string `json:"tipo"`
	Dificultad string `gorm:"index" json:"dificultad"`
	Pregunta   string `gorm:"type:text" json:"pregunta"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}
