package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	ScreenTypeDesktop = "DESKTOP"
	ScreenTypeTablet  = "TABLET"
	ScreenTypeMobile  = "MOBILE"
)

// Screen is a device-specific placement of a generated artifact on the project canvas.
type Screen struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Type        string
	Width       int
	Height      int
	X           int
	Y           int
	ImageURL    sql.NullString
	Route       sql.NullString
	Component   sql.NullString
	IsGenerated bool
	Metadata    string
	CreatedAt   time.Time
}
