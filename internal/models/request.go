package models

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required" example:"Task tracker"`
	Description string `json:"description,omitempty"`
	// Prompt is the natural-language description of the desired application.
	Prompt string `json:"prompt" binding:"required" example:"A todo app with login"`
}

type StartGenerationRequest struct {
	// Optional prompt override; the project's stored prompt is used when empty.
	Prompt string `json:"prompt,omitempty"`
}

type GenerateComponentRequest struct {
	Name        string `json:"name" binding:"required" example:"PricingTable"`
	Description string `json:"description" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
