package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
	"github.com/zaqqye/questionnaire_backend/internal/models"
)

type GormQuestionRepository struct {
	DB *gorm.DB
}

func (r *GormQuestionRepository) ListAll(ctx context.Context) ([]models.Question, error) {
	return r.find(r.DB.WithContext(ctx))
}

func (r *GormQuestionRepository) ListByArea(ctx context.Context, area string) ([]models.Question, error) {
	return r.find(r.DB.WithContext(ctx).Where("area = ?", area))
}

func (r *GormQuestionRepository) ListByDifficulty(ctx context.Context, level string) ([]models.Question, error) {
	return r.find(r.DB.WithContext(ctx).Where("dificultad = ?", level))
}

func (r *GormQuestionRepository) find(q *gorm.DB) ([]models.Question, error) {
	questions := []models.Question{}
	if err := q.Find(&questions).Error; err != nil {
		return nil, apperr.Internal("failed to fetch questions", err)
	}
	return questions, nil
}

func (r *GormQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	if !ValidQuestionID(id) {
		return nil, errInvalidQuestionID
	}
	var q models.Question
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errQuestionNotFound
		}
		return nil, apperr.Internal("failed to fetch question", err)
	}
	return &q, nil
}

func (r *GormQuestionRepository) Exists(ctx context.Context, id string) (bool, error) {
	if !ValidQuestionID(id) {
		return false, nil
	}
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperr.Internal("failed to fetch question", err)
	}
	return count > 0, nil
}

// Seed inserts the questions not already stored, keyed by (area, pregunta).
func (r *GormQuestionRepository) Seed(ctx context.Context, questions []models.Question) (int, error) {
	inserted := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range questions {
			var count int64
			if err := tx.Model(&models.Question{}).
				Where("area = ? AND pregunta = ?", q.Area, q.Pregunta).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			rec := q
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Internal("failed to seed questions", err)
	}
	return inserted, nil
}
