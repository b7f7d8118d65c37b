package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/models"
)

type ComponentsHandler struct {
	generator *generation.ComponentGenerator
	store     ProjectStore
}

func NewComponentsHandler(generator *generation.ComponentGenerator, store ProjectStore) *ComponentsHandler {
	return &ComponentsHandler{generator: generator, store: store}
}

// GenerateComponent godoc
// @Summary     Generate component
// @Description Generates one React component through the text-generation provider, or a minimal inline component when it is unavailable
// @Tags        components
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       body body models.GenerateComponentRequest true "Component"
// @Success     200 {object} models.ComponentResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/components [post]
func (h *ComponentsHandler) GenerateComponent(c *gin.Context) {
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

	var req models.GenerateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	artifact := h.generator.Generate(c.Request.Context(), req.Name, req.Description, project.Prompt)
	c.JSON(http.StatusOK, models.ComponentResponse{
		Name:  artifact.Name,
		Code:  artifact.SourceCode,
		Files: artifact.Files,
	})
}
