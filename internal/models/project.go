package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	ProjectStatusDraft      = "DRAFT"
	ProjectStatusGenerating = "GENERATING"
	ProjectStatusCompleted  = "COMPLETED"
	ProjectStatusError      = "ERROR"
)

type Project struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description sql.NullString
	Prompt      string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Account holds the credit balance consumed by generation runs.
// MaxCredits is a display ceiling only.
type Account struct {
	ID         uuid.UUID
	Credits    int
	MaxCredits int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
