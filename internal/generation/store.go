package generation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"aicodegen-backend/internal/models"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

var (
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrProjectNotFound      = errors.New("project not found")
	ErrRunAlreadyInProgress = errors.New("a generation is already running for this project")
	ErrRunNotFound          = errors.New("generation not found")
)

// Store is the persistence the runner needs. Every mutation touches a single
// row except CreateGeneration, which writes the run together with its steps.
type Store interface {
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	UpdateProjectStatus(ctx context.Context, id uuid.UUID, status string) error
	HasRunningGeneration(ctx context.Context, projectID uuid.UUID) (bool, error)

	CreateGeneration(ctx context.Context, gen *models.Generation, steps []models.GenerationStep) error
	GetGeneration(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	ListGenerationSteps(ctx context.Context, generationID uuid.UUID) ([]models.GenerationStep, error)
	UpdateGenerationStep(ctx context.Context, step *models.GenerationStep) error

	// UpdateGenerationProgress only applies while the run is RUNNING and
	// reports whether it did.
	UpdateGenerationProgress(ctx context.Context, id uuid.UUID, progress int, currentStep string) (bool, error)

	// FinishGeneration moves a RUNNING run to a terminal status and reports
	// whether the transition happened. COMPLETED also sets progress to 100 and
	// clears the current step.
	FinishGeneration(ctx context.Context, id uuid.UUID, status, errorMsg string, completedAt time.Time) (bool, error)

	CreateScreen(ctx context.Context, screen *models.Screen) error
}

// Ledger holds account credit balances.
type Ledger interface {
	HasSufficientCredits(ctx context.Context, accountID uuid.UUID, amount int) (bool, error)
	// Deduct subtracts amount only when the balance covers it.
	Deduct(ctx context.Context, accountID uuid.UUID, amount int) (bool, error)
	Add(ctx context.Context, accountID uuid.UUID, amount int) error
}

// ArtifactExporter receives the files of every generated artifact.
type ArtifactExporter interface {
	ExportArtifact(ctx context.Context, userID, projectID uuid.UUID, artifact Artifact) error
}
