package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
	"github.com/zaqqye/questionnaire_backend/internal/models"
)

type GormAnswerRepository struct {
	DB *gorm.DB
}

// upsertAnswerSQL relies on the uniq_student_question index. xmax is zero
// only for freshly inserted rows, which tells us whether we updated.
const upsertAnswerSQL = `
INSERT INTO answers (student_carnet, question_id, answer, "timestamp")
VALUES (?, ?, ?, ?)
ON CONFLICT (student_carnet, question_id)
DO UPDATE SET answer = EXCLUDED.answer, "timestamp" = EXCLUDED."timestamp"
RETURNING id, (xmax = 0) AS inserted`

func (r *GormAnswerRepository) Upsert(ctx context.Context, carnet, questionID string, answer *string) (*models.Answer, bool, error) {
	if carnet == "" || questionID == "" || answer == nil {
		return nil, false, errAnswerFieldsMissing
	}
	now := time.Now().UTC()
	var row struct {
		ID       uint
		Inserted bool
	}
	if err := r.DB.WithContext(ctx).Raw(upsertAnswerSQL, carnet, questionID, *answer, now).Scan(&row).Error; err != nil {
		return nil, false, apperr.Internal("failed to save answer", err)
	}
	return &models.Answer{
		ID:            row.ID,
		StudentCarnet: carnet,
		QuestionID:    questionID,
		Answer:        *answer,
		Timestamp:     now,
	}, !row.Inserted, nil
}

func (r *GormAnswerRepository) ListByStudent(ctx context.Context, carnet string) ([]models.Answer, error) {
	answers := []models.Answer{}
	err := r.DB.WithContext(ctx).
		Where("student_carnet = ?", carnet).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order("id DESC").
		Find(&answers).Error
	if err != nil {
		return nil, apperr.Internal("failed to fetch answers", err)
	}
	return answers, nil
}

func (r *GormAnswerRepository) DeleteOne(ctx context.Context, carnet, questionID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("student_carnet = ? AND question_id = ?", carnet, questionID).
		Delete(&models.Answer{})
	if res.Error != nil {
		return false, apperr.Internal("failed to delete answer", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormAnswerRepository) CountByStudent(ctx context.Context, carnet string) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Answer{}).Where("student_carnet = ?", carnet).Count(&total).Error; err != nil {
		return 0, apperr.Internal("failed to count answers", err)
	}
	return total, nil
}

// NewGormStore wires the gorm-backed repositories onto one connection.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Students:  &GormStudentRepository{DB: db},
		Questions: &GormQuestionRepository{DB: db},
		Answers:   &GormAnswerRepository{DB: db},
	}
}
