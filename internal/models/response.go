package models

import "time"

type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Prompt      string    `json:"prompt"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type StepResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	Order       int    `json:"order"`
}

// RunStatus is the polled read-side view of a generation run.
type RunStatus struct {
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	Progress     int            `json:"progress"`
	CurrentStep  *string        `json:"currentStep"`
	TotalSteps   int            `json:"totalSteps"`
	ErrorMessage string         `json:"errorMsg,omitempty"`
	Steps        []StepResponse `json:"steps"`
}

type StartGenerationResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	TotalSteps int            `json:"totalSteps"`
	Steps      []StepResponse `json:"steps"`
}

type GenerationSummary struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	TotalSteps   int        `json:"totalSteps"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ErrorMessage string     `json:"errorMsg,omitempty"`
}

type GenerationListResponse struct {
	Generations []GenerationSummary `json:"generations"`
}

type ScreenResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Route       string    `json:"route,omitempty"`
	Component   string    `json:"component,omitempty"`
	IsGenerated bool      `json:"isGenerated"`
	Metadata    string    `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ScreensResponse struct {
	Screens []ScreenResponse `json:"screens"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

type FileResponse struct {
	Path       string `json:"path"`
	StorageURL string `json:"storageUrl"`
}

type CreditsResponse struct {
	Credits      int `json:"credits"`
	MaxCredits   int `json:"maxCredits"`
	UsagePercent int `json:"usagePercent"`
}

type ArtifactFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type ComponentResponse struct {
	Name  string         `json:"name"`
	Code  string         `json:"code"`
	Files []ArtifactFile `json:"files"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
