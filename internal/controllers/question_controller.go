package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/repository"
)

type QuestionController struct {
	Questions repository.QuestionRepository
	Debug     bool
}

func (qc *QuestionController) List(c *gin.Context) {
	questions, err := qc.Questions.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, qc.Debug, err, "Error fetching questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(questions),
		"questions": questions,
	})
}

func (qc *QuestionController) ListByArea(c *gin.Context) {
	area := c.Param("area")
	questions, err := qc.Questions.ListByArea(c.Request.Context(), area)
	if err != nil {
		respondError(c, qc.Debug, err, "Error fetching questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"area":      area,
		"count":     len(questions),
		"questions": questions,
	})
}

func (qc *QuestionController) ListByDifficulty(c *gin.Context) {
	difficulty := c.Param("difficulty")
	questions, err := qc.Questions.ListByDifficulty(c.Request.Context(), difficulty)
	if err != nil {
		respondError(c, qc.Debug, err, "Error fetching questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"difficulty": difficulty,
		"count":      len(questions),
		"questions":  questions,
	})
}

// Get answers 400 for ids that are not in the store's id format, 404 for
// well-formed ids with no question behind them.
func (qc *QuestionController) Get(c *gin.Context) {
	question, err := qc.Questions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, qc.Debug, err, "Error fetching question")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"question": question,
	})
}
