package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	GenerationStatusPending   = "PENDING"
	GenerationStatusRunning   = "RUNNING"
	GenerationStatusCompleted = "COMPLETED"
	GenerationStatusFailed    = "FAILED"
	GenerationStatusCancelled = "CANCELLED"
)

const (
	StepStatusPending   = "PENDING"
	StepStatusRunning   = "RUNNING"
	StepStatusCompleted = "COMPLETED"
	StepStatusFailed    = "FAILED"
	StepStatusSkipped   = "SKIPPED"
)

const (
	StepTypeSetup        = "SETUP"
	StepTypeCode         = "CODE"
	StepTypeScreen       = "SCREEN"
	StepTypeOptimization = "OPTIMIZATION"
)

// Generation is one run of the generation pipeline for a project.
type Generation struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	Status       string
	Progress     int
	CurrentStep  sql.NullString
	TotalSteps   int
	StartedAt    time.Time
	CompletedAt  sql.NullTime
	ErrorMessage sql.NullString
}

// IsTerminal reports whether the run can no longer change.
func (g *Generation) IsTerminal() bool {
	return IsTerminalGenerationStatus(g.Status)
}

func IsTerminalGenerationStatus(status string) bool {
	switch status {
	case GenerationStatusCompleted, GenerationStatusFailed, GenerationStatusCancelled:
		return true
	}
	return false
}

type GenerationStep struct {
	ID           uuid.UUID
	GenerationID uuid.UUID
	Name         string
	Description  string
	Type         string
	Status       string
	Progress     int
	Order        int
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	ErrorMessage sql.NullString
}

func IsValidStepType(t string) bool {
	switch t {
	case StepTypeSetup, StepTypeCode, StepTypeScreen, StepTypeOptimization:
		return true
	}
	return false
}
