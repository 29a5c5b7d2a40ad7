package controllers

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
	"github.com/zaqqye/questionnaire_backend/internal/middleware"
	"github.com/zaqqye/questionnaire_backend/internal/token"
)

// respondError writes {success:false, message, error?}. Internal errors
// use fallback as the message and only expose err when debug is on.
func respondError(c *gin.Context, debug bool, err error, fallback string) {
	status := apperr.Status(err)
	body := gin.H{"success": false}
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Printf("%s %s: %s: %v", c.Request.Method, c.FullPath(), fallback, err)
		body["message"] = fallback
		if debug {
			body["error"] = err.Error()
		}
	} else {
		body["message"] = apperr.Message(err, fallback)
	}
	c.JSON(status, body)
}

// identity is only called behind AuthMiddleware.
func identity(c *gin.Context) token.Identity {
	id, _ := middleware.CurrentIdentity(c)
	return id
}
