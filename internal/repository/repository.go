// Package repository holds the credential, question and answer stores.
// Handlers depend on the interfaces; main wires the gorm implementations
// and tests wire the in-memory ones.
package repository

import (
	"context"

	"github.com/zaqqye/questionnaire_backend/internal/models"
)

type StudentRepository interface {
	Create(ctx context.Context, carnet, password string) (*models.Student, error)
	FindByCarnet(ctx context.Context, carnet string) (*models.Student, error)
	ValidatePassword(ctx context.Context, carnet, password string) (bool, error)
	UpdatePassword(ctx context.Context, carnet, newPassword string) (bool, error)
	SetRole(ctx context.Context, carnet, role string) error
}

type QuestionRepository interface {
	ListAll(ctx context.Context) ([]models.Question, error)
	ListByArea(ctx context.Context, area string) ([]models.Question, error)
	ListByDifficulty(ctx context.Context, level string) ([]models.Question, error)
	GetByID(ctx context.Context, id string) (*models.Question, error)
	Exists(ctx context.Context, id string) (bool, error)
	Seed(ctx context.Context, questions []models.Question) (int, error)
}

type AnswerRepository interface {
	Upsert(ctx context.Context, carnet, questionID string, answer *string) (*models.Answer, bool, error)
	ListByStudent(ctx context.Context, carnet string) ([]models.Answer, error)
	DeleteOne(ctx context.Context, carnet, questionID string) (bool, error)
	CountByStudent(ctx context.Context, carnet string) (int64, error)
}

// Store bundles the three repositories behind one handle.
type Store struct {
	Students  StudentRepository
	Questions QuestionRepository
	Answers   AnswerRepository
}

var (
	_ StudentRepository  = (*GormStudentRepository)(nil)
	_ QuestionRepository = (*GormQuestionRepository)(nil)
	_ AnswerRepository   = (*GormAnswerRepository)(nil)
	_ StudentRepository  = (*Memory)(nil)
	_ QuestionRepository = (*Memory)(nil)
	_ AnswerRepository   = (*Memory)(nil)
)
