package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/models"
	"github.com/zaqqye/questionnaire_backend/internal/repository"
	"github.com/zaqqye/questionnaire_backend/internal/ws"
)

type AnswerController struct {
	Answers   repository.AnswerRepository
	Questions repository.QuestionRepository
	Hubs      *ws.Hubs
	Debug     bool
}

type submitAnswerRequest struct {
	QuestionID string  `json:"questionId"`
	Answer     *string `json:"answer"`
}

// Submit upserts the caller's answer: 201 when created, 200 when it
// replaced an earlier one.
func (ac *AnswerController) Submit(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.QuestionID == "" || req.Answer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Question ID and answer are required"})
		return
	}
	ctx := c.Request.Context()
	carnet := identity(c).Carnet

	if !repository.ValidQuestionID(req.QuestionID) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid question ID format"})
		return
	}
	exists, err := ac.Questions.Exists(ctx, req.QuestionID)
	if err != nil {
		respondError(c, ac.Debug, err, "Error saving answer")
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Question not found"})
		return
	}

	saved, updated, err := ac.Answers.Upsert(ctx, carnet, req.QuestionID, req.Answer)
	if err != nil {
		respondError(c, ac.Debug, err, "Error saving answer")
		return
	}

	ac.Hubs.Publish(ws.AnswerEvent{
		Type:          ws.EventAnswerSaved,
		StudentCarnet: saved.StudentCarnet,
		QuestionID:    saved.QuestionID,
		Updated:       updated,
		Timestamp:     saved.Timestamp,
	})

	status, message := http.StatusCreated, "Answer saved successfully"
	if updated {
		status, message = http.StatusOK, "Answer updated successfully"
	}
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"studentCarnet": saved.StudentCarnet,
			"questionId":    saved.QuestionID,
			"answer":        saved.Answer,
			"timestamp":     saved.Timestamp,
			"updated":       updated,
		},
	})
}

func (ac *AnswerController) MyAnswers(c *gin.Context) {
	ac.listFor(c, identity(c).Carnet, "Error fetching answers")
}

// ByCarnet lists any student's answers. Ownership is enforced by the
// router only when answer reads are restricted.
func (ac *AnswerController) ByCarnet(c *gin.Context) {
	ac.listFor(c, c.Param("carnet"), "Error fetching student answers")
}

func (ac *AnswerController) listFor(c *gin.Context, carnet, fallback string) {
	answers, err := ac.Answers.ListByStudent(c.Request.Context(), carnet)
	if err != nil {
		respondError(c, ac.Debug, err, fallback)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"carnet":  carnet,
		"count":   len(answers),
		"answers": answers,
	})
}

func (ac *AnswerController) MyStats(c *gin.Context) {
	carnet := identity(c).Carnet
	total, err := ac.Answers.CountByStudent(c.Request.Context(), carnet)
	if err != nil {
		respondError(c, ac.Debug, err, "Error fetching answer statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   models.AnswerStats{TotalAnswers: total, StudentCarnet: carnet},
	})
}

func (ac *AnswerController) Delete(c *gin.Context) {
	carnet := identity(c).Carnet
	questionID := c.Param("questionId")

	deleted, err := ac.Answers.DeleteOne(c.Request.Context(), carnet, questionID)
	if err != nil {
		respondError(c, ac.Debug, err, "Error deleting answer")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Answer not found"})
		return
	}

	ac.Hubs.Publish(ws.AnswerEvent{
		Type:          ws.EventAnswerDeleted,
		StudentCarnet: carnet,
		QuestionID:    questionID,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Answer deleted successfully"})
}
