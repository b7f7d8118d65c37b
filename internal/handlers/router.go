package handlers

import (
	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/config"
	"aicodegen-backend/internal/middleware"
)

type RouterConfig struct {
	Config             *config.Config
	ProjectsHandler    *ProjectsHandler
	GenerationsHandler *GenerationsHandler
	FilesHandler       *FilesHandler
	CreditsHandler     *CreditsHandler
	ComponentsHandler  *ComponentsHandler
	Pingers            []Pinger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Config.CORSOrigins))

	// Health checks (no auth)
	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadyHandler(cfg.Pingers...))

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.Config))

	// Projects
	api.POST("/projects", cfg.ProjectsHandler.CreateProject)
	api.GET("/projects", cfg.ProjectsHandler.ListProjects)
	api.GET("/projects/:project_id", cfg.ProjectsHandler.GetProject)
	api.DELETE("/projects/:project_id", cfg.ProjectsHandler.DeleteProject)
	api.GET("/projects/:project_id/screens", cfg.ProjectsHandler.ListScreens)
	api.GET("/projects/:project_id/files", cfg.FilesHandler.GetFiles)
	api.POST("/projects/:project_id/components", cfg.ComponentsHandler.GenerateComponent)

	// Generations
	api.POST("/projects/:project_id/generations", cfg.GenerationsHandler.StartGeneration)
	api.GET("/projects/:project_id/generations", cfg.GenerationsHandler.ListGenerations)
	api.GET("/generations/:generation_id", cfg.GenerationsHandler.GetGeneration)
	api.POST("/generations/:generation_id/cancel", cfg.GenerationsHandler.CancelGeneration)

	// Credits
	api.GET("/credits", cfg.CreditsHandler.GetCredits)

	return router
}
