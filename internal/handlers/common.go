package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/middleware"
	"aicodegen-backend/internal/models"
)

// ProjectStore is the read/write surface the HTTP layer needs. Both
// generation.MemoryStore and supabase.DatabaseClient implement it.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
	HasRunningGeneration(ctx context.Context, projectID uuid.UUID) (bool, error)
	GetGeneration(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	ListGenerations(ctx context.Context, projectID uuid.UUID) ([]models.Generation, error)
	ListScreens(ctx context.Context, projectID uuid.UUID) ([]models.Screen, error)
}

type AccountStore interface {
	GetOrCreateAccount(ctx context.Context, accountID uuid.UUID, defaultCredits int) (*models.Account, error)
}

// FileStore lists and removes exported artifact files.
type FileStore interface {
	ListProjectFiles(ctx context.Context, userID, projectID uuid.UUID) ([]models.FileResponse, error)
	DeleteProjectFiles(ctx context.Context, userID, projectID uuid.UUID) error
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + label + " id"})
		return uuid.Nil, false
	}
	return id, true
}

// ownedProject loads the project and answers 404 unless userID owns it.
func ownedProject(c *gin.Context, store ProjectStore, userID, projectID uuid.UUID) (*models.Project, bool) {
	project, err := store.GetProject(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, generation.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get project",
			Message: err.Error(),
		})
		return nil, false
	}
	if project.UserID != userID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return nil, false
	}
	return project, true
}

// writeRunError maps the run lifecycle errors onto HTTP statuses.
func writeRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, generation.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, models.ErrorResponse{Error: "insufficient credits", Message: err.Error()})
	case errors.Is(err, generation.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
	case errors.Is(err, generation.ErrRunNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "generation not found"})
	case errors.Is(err, generation.ErrRunAlreadyInProgress):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "generation already in progress", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "generation request failed", Message: err.Error()})
	}
}

func projectResponse(p *models.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description.String,
		Prompt:      p.Prompt,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
