package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/models"
)

type FilesHandler struct {
	store ProjectStore
	files FileStore
}

func NewFilesHandler(store ProjectStore, files FileStore) *FilesHandler {
	return &FilesHandler{
		store: store,
		files: files,
	}
}

// GetFiles godoc
// @Summary     Get project files
// @Description Returns the exported artifact files of a project with their Supabase Storage URLs
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.FilesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /projects/{project_id}/files [get]
func (h *FilesHandler) GetFiles(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}
	if h.files == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "storage not configured"})
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

	files, err := h.files.ListProjectFiles(c.Request.Context(), userID, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list files",
			Message: err.Error(),
		})
		return
	}
	if files == nil {
		files = []models.FileResponse{}
	}
	c.JSON(http.StatusOK, models.FilesResponse{Files: files})
}
