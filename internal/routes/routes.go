package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/config"
	"github.com/zaqqye/questionnaire_backend/internal/controllers"
	"github.com/zaqqye/questionnaire_backend/internal/middleware"
	"github.com/zaqqye/questionnaire_backend/internal/models"
	"github.com/zaqqye/questionnaire_backend/internal/repository"
	"github.com/zaqqye/questionnaire_backend/internal/token"
	"github.com/zaqqye/questionnaire_backend/internal/ws"
)

// Deps is everything the router needs; main builds it once.
type Deps struct {
	Store  *repository.Store
	Tokens *token.Service
	Cfg    *config.Config
	Hubs   *ws.Hubs // optional
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	if gin.Mode() != gin.TestMode {
		r.Use(gin.Logger())
	}
	debug := !d.Cfg.IsProduction()
	r.Use(controllers.Recovery(debug))
	Register(r, d)
	return r
}

func Register(r *gin.Engine, d Deps) {
	controllers.RegisterValidators()
	debug := !d.Cfg.IsProduction()

	authCtrl := &controllers.AuthController{Students: d.Store.Students, Tokens: d.Tokens, Debug: debug}
	questionCtrl := &controllers.QuestionController{Questions: d.Store.Questions, Debug: debug}
	answerCtrl := &controllers.AnswerController{
		Answers:   d.Store.Answers,
		Questions: d.Store.Questions,
		Hubs:      d.Hubs,
		Debug:     debug,
	}
	cfgCtrl := &controllers.ConfigController{Cfg: d.Cfg}

	r.NoRoute(controllers.NotFound)
	r.GET("/health", controllers.Health)

	api := r.Group("/api")
	api.GET("/health", controllers.Health)
	api.GET("/config/public", cfgCtrl.Get)

	// Public
	auth := api.Group("/auth")
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)
	}

	// Protected
	authMW := middleware.AuthMiddleware(d.Tokens)
	protected := api.Group("", authMW)
	{
		protected.GET("/auth/me", authCtrl.Me)
		protected.PUT("/auth/password", authCtrl.ChangePassword)
		protected.POST("/auth/logout", authCtrl.Logout)

		questions := protected.Group("/questions")
		{
			questions.GET("", questionCtrl.List)
			questions.GET("/area/:area", questionCtrl.ListByArea)
			questions.GET("/difficulty/:difficulty", questionCtrl.ListByDifficulty)
			questions.GET("/:id", questionCtrl.Get)
		}

		answers := protected.Group("/answers")
		{
			answers.POST("", answerCtrl.Submit)
			answers.GET("/my-answers", answerCtrl.MyAnswers)
			answers.GET("/stats/me", answerCtrl.MyStats)
			if d.Cfg.RestrictAnswerReads {
				answers.GET("/:carnet", middleware.RequireSelfOrAdmin("carnet"), answerCtrl.ByCarnet)
			} else {
				answers.GET("/:carnet", answerCtrl.ByCarnet)
			}
			answers.DELETE("/:questionId", answerCtrl.Delete)
		}

		if d.Hubs != nil {
			protected.GET("/ws/activity", middleware.RequireRoles(models.RoleAdmin), ws.ActivityHandler(d.Hubs.Activity))
			protected.GET("/ws/me", ws.StudentHandler(d.Hubs.Student))
		}
	}
}
