package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
	"github.com/zaqqye/questionnaire_backend/internal/config"
	"github.com/zaqqye/questionnaire_backend/internal/models"
	"github.com/zaqqye/questionnaire_backend/internal/repository"
)

// LoadQuestions reads a JSON array of questions. Ids that are not valid
// question ids are dropped so the store assigns fresh ones.
func LoadQuestions(path string) ([]models.Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var questions []models.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}
	for i := range questions {
		if questions[i].ID != "" && !repository.ValidQuestionID(questions[i].ID) {
			questions[i].ID = ""
		}
	}
	return questions, nil
}

// SeedQuestions imports cfg.QuestionsSeedFile if set. Rerunning it only
// inserts questions that are not there yet.
func SeedQuestions(ctx context.Context, repo repository.QuestionRepository, cfg *config.Config) error {
	if cfg.QuestionsSeedFile == "" {
		return nil
	}
	questions, err := LoadQuestions(cfg.QuestionsSeedFile)
	if err != nil {
		return err
	}
	n, err := repo.Seed(ctx, questions)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d new questions from %s (%d in file)", n, cfg.QuestionsSeedFile, len(questions))
	return nil
}

// SeedAdmin makes sure ADMIN_CARNET exists with the admin role. Nothing
// happens unless both ADMIN_CARNET and ADMIN_PASSWORD are set.
func SeedAdmin(ctx context.Context, repo repository.StudentRepository, cfg *config.Config) error {
	if cfg.AdminCarnet == "" || cfg.AdminPassword == "" {
		return nil
	}
	st, err := repo.Create(ctx, cfg.AdminCarnet, cfg.AdminPassword)
	switch {
	case err == nil:
		log.Println("Seeded initial admin:", st.Carnet)
	case errors.Is(err, apperr.ErrConflict):
		// already registered; promote below
	default:
		return err
	}
	return repo.SetRole(ctx, cfg.AdminCarnet, models.RoleAdmin)
}
