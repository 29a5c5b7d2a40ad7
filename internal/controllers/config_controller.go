package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/config"
)

type ConfigController struct {
	Cfg *config.Config
}

// Get exposes the client-facing settings, currently the questionnaire
// submission policy.
func (cc *ConfigController) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"minimumRequiredAnswers": cc.Cfg.MinRequiredAnswers,
		"restrictAnswerReads":    cc.Cfg.RestrictAnswerReads,
	})
}
