package generation

import (
	"context"

	"github.com/google/uuid"
)

const (
	EventGenerationStarted   = "generation_started"
	EventStepCompleted       = "step_completed"
	EventGenerationCompleted = "generation_completed"
	EventGenerationFailed    = "generation_failed"
	EventGenerationCancelled = "generation_cancelled"
)

// Notifier publishes run events to listening clients.
type Notifier interface {
	PublishProjectEvent(ctx context.Context, projectID uuid.UUID, event string, payload map[string]interface{}) error
}

func GenerationStartedPayload(generationID uuid.UUID, totalSteps int) map[string]interface{} {
	return map[string]interface{}{
		"generation_id": generationID.String(),
		"status":        "RUNNING",
		"total_steps":   totalSteps,
	}
}

func StepCompletedPayload(generationID uuid.UUID, step string, progress int) map[string]interface{} {
	return map[string]interface{}{
		"generation_id": generationID.String(),
		"status":        "RUNNING",
		"current_step":  step,
		"progress":      progress,
	}
}

func GenerationCompletedPayload(generationID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"generation_id": generationID.String(),
		"status":        "COMPLETED",
		"progress":      100,
	}
}

func GenerationFailedPayload(generationID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"generation_id": generationID.String(),
		"status":        "FAILED",
		"error":         errorMsg,
	}
}

func GenerationCancelledPayload(generationID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"generation_id": generationID.String(),
		"status":        "CANCELLED",
	}
}
