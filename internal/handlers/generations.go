package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/models"
)

type GenerationsHandler struct {
	runner         *generation.Runner
	store          ProjectStore
	accounts       AccountStore
	defaultCredits int
	log            *logger.Logger
}

func NewGenerationsHandler(runner *generation.Runner, store ProjectStore, accounts AccountStore, defaultCredits int, log *logger.Logger) *GenerationsHandler {
	return &GenerationsHandler{
		runner:         runner,
		store:          store,
		accounts:       accounts,
		defaultCredits: defaultCredits,
		log:            log.With("component", "GenerationsHandler"),
	}
}

// StartGeneration godoc
// @Summary     Start generation
// @Description Charges the caller, plans the run and starts executing it in the background
// @Tags        generations
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       body body models.StartGenerationRequest false "Optional prompt override"
// @Success     200 {object} models.StartGenerationResponse
// @Failure     402 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/generations [post]
func (h *GenerationsHandler) StartGeneration(c *gin.Context) {
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

	var req models.StartGenerationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	if _, err := h.accounts.GetOrCreateAccount(ctx, userID, h.defaultCredits); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load account", Message: err.Error()})
		return
	}

	started, err := h.runner.StartRun(ctx, userID, projectID, req.Prompt)
	if err != nil {
		if !errors.Is(err, generation.ErrInsufficientCredits) && !errors.Is(err, generation.ErrRunAlreadyInProgress) {
			h.log.Error("Failed to start generation", "project_id", projectID, "error", err)
		}
		writeRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StartGenerationResponse{
		ID:         started.Generation.ID.String(),
		Status:     started.Generation.Status,
		TotalSteps: started.Generation.TotalSteps,
		Steps:      generation.StepResponses(started.Steps),
	})
}

// ListGenerations returns the run history of a project, newest first.
func (h *GenerationsHandler) ListGenerations(c *gin.Context) {
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

	gens, err := h.store.ListGenerations(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list generations", Message: err.Error()})
		return
	}

	out := make([]models.GenerationSummary, len(gens))
	for i, g := range gens {
		out[i] = models.GenerationSummary{
			ID:           g.ID.String(),
			Status:       g.Status,
			Progress:     g.Progress,
			TotalSteps:   g.TotalSteps,
			StartedAt:    g.StartedAt,
			ErrorMessage: g.ErrorMessage.String,
		}
		if g.CompletedAt.Valid {
			completed := g.CompletedAt.Time
			out[i].CompletedAt = &completed
		}
	}
	c.JSON(http.StatusOK, models.GenerationListResponse{Generations: out})
}

// ownedGeneration answers 404 unless the run belongs to a project of userID.
func (h *GenerationsHandler) ownedGeneration(c *gin.Context) (*models.Generation, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	runID, ok := pathID(c, "generation_id", "generation")
	if !ok {
		return nil, false
	}

	gen, err := h.store.GetGeneration(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, generation.ErrNotFound) {
			writeRunError(c, generation.ErrRunNotFound)
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get generation", Message: err.Error()})
		return nil, false
	}
	project, err := h.store.GetProject(c.Request.Context(), gen.ProjectID)
	if err != nil || project.UserID != userID {
		writeRunError(c, generation.ErrRunNotFound)
		return nil, false
	}
	return gen, true
}

// GetGeneration godoc
// @Summary     Generation status
// @Description Returns the persisted state of a run and its steps; clients poll this
// @Tags        generations
// @Produce     json
// @Security    Bearer
// @Param       generation_id path string true "Generation ID (UUID)"
// @Success     200 {object} models.RunStatus
// @Failure     404 {object} models.ErrorResponse
// @Router      /generations/{generation_id} [get]
func (h *GenerationsHandler) GetGeneration(c *gin.Context) {
	gen, ok := h.ownedGeneration(c)
	if !ok {
		return
	}
	status, err := h.runner.GetRunStatus(c.Request.Context(), gen.ID)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *GenerationsHandler) CancelGeneration(c *gin.Context) {
	gen, ok := h.ownedGeneration(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)
	if err := h.runner.CancelRun(c.Request.Context(), userID, gen.ID); err != nil {
		writeRunError(c, err)
		return
	}

	status, err := h.runner.GetRunStatus(c.Request.Context(), gen.ID)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
