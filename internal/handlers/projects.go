package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/models"
)

type ProjectsHandler struct {
	store ProjectStore
	files FileStore
	log   *logger.Logger
}

// NewProjectsHandler wires the project endpoints. files may be nil when
// storage is not configured.
func NewProjectsHandler(store ProjectStore, files FileStore, log *logger.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		store: store,
		files: files,
		log:   log.With("component", "ProjectsHandler"),
	}
}

// CreateProject godoc
// @Summary     Create project
// @Description Creates a DRAFT project owned by the caller
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       body body models.CreateProjectRequest true "Project"
// @Success     201 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "prompt is required"})
		return
	}

	project := &models.Project{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
		Prompt:      strings.TrimSpace(req.Prompt),
		Status:      models.ProjectStatusDraft,
	}
	if err := h.store.CreateProject(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, projectResponse(project))
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.store.ListProjects(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list projects",
			Message: err.Error(),
		})
		return
	}

	out := make([]models.ProjectResponse, len(projects))
	for i := range projects {
		out[i] = projectResponse(&projects[i])
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: out})
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "project_id", "project")
	if !ok {
		return
	}

	project, ok := ownedProject(c, h.store, userID, projectID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, projectResponse(project))
}

// DeleteProject godoc
// @Summary     Delete project
// @Description Deletes the project, its generations and screens, and its exported files
// @Tags        projects
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "project_id", "project")
	if !ok {
		return
	}
	if _, ok := ownedProject(c, h.store, userID, projectID); !ok {
		return
	}

	ctx := c.Request.Context()
	running, err := h.store.HasRunningGeneration(ctx, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete project", Message: err.Error()})
		return
	}
	if running {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "generation in progress", Message: "cancel the running generation first"})
		return
	}

	if err := h.store.DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, generation.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete project", Message: err.Error()})
		return
	}

	if h.files != nil {
		if err := h.files.DeleteProjectFiles(ctx, userID, projectID); err != nil {
			h.log.Warn("Failed to delete project files", "project_id", projectID, "error", err)
		}
	}

	c.Status(http.StatusNoContent)
}

// ListScreens returns the screens materialized for a project.
func (h *ProjectsHandler) ListScreens(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "project_id", "project")
	if !ok {
		return
	}
	if _, ok := ownedProject(c, h.store, userID, projectID); !ok {
		return
	}

	screens, err := h.store.ListScreens(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list screens", Message: err.Error()})
		return
	}

	out := make([]models.ScreenResponse, len(screens))
	for i, s := range screens {
		out[i] = models.ScreenResponse{
			ID:          s.ID.String(),
			Name:        s.Name,
			Type:        s.Type,
			Width:       s.Width,
			Height:      s.Height,
			X:           s.X,
			Y:           s.Y,
			ImageURL:    s.ImageURL.String,
			Route:       s.Route.String,
			Component:   s.Component.String,
			IsGenerated: s.IsGenerated,
			Metadata:    s.Metadata,
			CreatedAt:   s.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, models.ScreensResponse{Screens: out})
}
