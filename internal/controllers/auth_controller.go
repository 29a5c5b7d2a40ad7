package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
	"github.com/zaqqye/questionnaire_backend/internal/repository"
	"github.com/zaqqye/questionnaire_backend/internal/token"
)

type AuthController struct {
	Students repository.StudentRepository
	Tokens   *token.Service
	Debug    bool
}

type registerRequest struct {
	Carnet   CarnetField `json:"carnet" binding:"required,carnet"`
	Password string      `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Carnet   CarnetField `json:"carnet" binding:"required"`
	Password string      `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

var registerMessages = map[string]string{
	"Carnet.required":   "Carnet and password are required",
	"Password.required": "Carnet and password are required",
	"Carnet.carnet":     "Carnet must contain only numbers",
	"Password.min":      "Password must be at least 6 characters long",
}

var loginMessages = map[string]string{
	"Carnet":   "Carnet and password are required",
	"Password": "Carnet and password are required",
}

var changePasswordMessages = map[string]string{
	"CurrentPassword":      "Current and new password are required",
	"NewPassword.required": "Current and new password are required",
	"NewPassword.min":      "Password must be at least 6 characters long",
}

func (a *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": bindingMessage(err, registerMessages, "Carnet and password are required"),
		})
		return
	}

	student, err := a.Students.Create(c.Request.Context(), req.Carnet.String(), req.Password)
	if err != nil {
		respondError(c, a.Debug, err, "Error registering student")
		return
	}

	tok, err := a.Tokens.Issue(token.Identity{Carnet: student.Carnet, StudentID: student.ID, Role: student.Role})
	if err != nil {
		respondError(c, a.Debug, err, "Error registering student")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Student registered successfully",
		"token":   tok,
		"student": gin.H{
			"carnet":    student.Carnet,
			"role":      student.Role,
			"createdAt": student.CreatedAt,
		},
	})
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": bindingMessage(err, loginMessages, "Carnet and password are required"),
		})
		return
	}
	ctx := c.Request.Context()
	carnet := req.Carnet.String()

	ok, err := a.Students.ValidatePassword(ctx, carnet, req.Password)
	if err != nil {
		respondError(c, a.Debug, err, "Error logging in")
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid carnet or password"})
		return
	}

	student, err := a.Students.FindByCarnet(ctx, carnet)
	if err != nil {
		// Validated a moment ago; anything but a store failure is still a bad login.
		if apperr.KindOf(err) == apperr.KindNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid carnet or password"})
			return
		}
		respondError(c, a.Debug, err, "Error logging in")
		return
	}

	tok, err := a.Tokens.Issue(token.Identity{Carnet: student.Carnet, StudentID: student.ID, Role: student.Role})
	if err != nil {
		respondError(c, a.Debug, err, "Error logging in")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   tok,
		"student": gin.H{
			"carnet": student.Carnet,
			"role":   student.Role,
		},
	})
}

func (a *AuthController) Me(c *gin.Context) {
	id := identity(c)
	student, err := a.Students.FindByCarnet(c.Request.Context(), id.Carnet)
	if err != nil {
		respondError(c, a.Debug, err, "Error fetching student")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"student": gin.H{
			"id":        student.ID,
			"carnet":    student.Carnet,
			"role":      student.Role,
			"createdAt": student.CreatedAt,
			"updatedAt": student.UpdatedAt,
		},
	})
}

func (a *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": bindingMessage(err, changePasswordMessages, "Current and new password are required"),
		})
		return
	}
	ctx := c.Request.Context()
	carnet := identity(c).Carnet

	ok, err := a.Students.ValidatePassword(ctx, carnet, req.CurrentPassword)
	if err != nil {
		respondError(c, a.Debug, err, "Error updating password")
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Current password is incorrect"})
		return
	}
	if _, err := a.Students.UpdatePassword(ctx, carnet, req.NewPassword); err != nil {
		respondError(c, a.Debug, err, "Error updating password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
}

// Logout is a no-op for stateless tokens: the client discards its token.
func (a *AuthController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}
