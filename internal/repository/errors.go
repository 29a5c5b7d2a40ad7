package repository

import (
	"github.com/google/uuid"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
)

var (
	errCredentialsRequired = apperr.Validation("Carnet and password are required")
	errCarnetTaken         = apperr.Conflict("Student with this carnet already exists")
	errStudentNotFound     = apperr.NotFound("Student not found")
	errInvalidQuestionID   = apperr.Validation("Invalid question ID format")
	errQuestionNotFound    = apperr.NotFound("Question not found")
	errAnswerFieldsMissing = apperr.Validation("Student carnet, question ID, and answer are required")
	errInvalidRole         = apperr.Validation("invalid role")
)

// ValidQuestionID reports whether id has the format question ids are stored in.
func ValidQuestionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
