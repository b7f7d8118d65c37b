package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/models"
)

// uniqueViolation is the Postgres error code raised by the one-running-run index.
const uniqueViolation = "23505"

// DatabaseClient is the Postgres implementation of the generation store and
// the credit ledger.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the pool for the migrator.
func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return generation.ErrNotFound
	}
	return err
}

const projectColumns = `id, user_id, name, description, prompt, status, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*models.Project, error) {
	var p models.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Prompt, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DatabaseClient) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusDraft
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, user_id, name, description, prompt, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.UserID, p.Name, p.Description, p.Prompt, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := scanProject(d.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (d *DatabaseClient) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// DeleteProject relies on ON DELETE CASCADE for runs, steps and screens.
func (d *DatabaseClient) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generation.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generation.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) HasRunningGeneration(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var running bool
	err := d.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM generations WHERE project_id = $1 AND status = $2
		)
	`, projectID, models.GenerationStatusRunning).Scan(&running)
	return running, err
}

// CreateGeneration writes the run and all of its steps in one transaction.
// A second RUNNING run for the same project violates the partial unique index
// and is reported as generation.ErrRunAlreadyInProgress.
func (d *DatabaseClient) CreateGeneration(ctx context.Context, gen *models.Generation, steps []models.GenerationStep) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO generations (id, project_id, status, progress, current_step, total_steps, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, gen.ID, gen.ProjectID, gen.Status, gen.Progress, gen.CurrentStep, gen.TotalSteps, gen.StartedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return generation.ErrRunAlreadyInProgress
		}
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO generation_steps (id, generation_id, name, description, type, status, progress, step_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range steps {
		if _, err := stmt.ExecContext(ctx, s.ID, s.GenerationID, s.Name, s.Description, s.Type, s.Status, s.Progress, s.Order); err != nil {
			return fmt.Errorf("failed to insert step %q: %w", s.Name, err)
		}
	}

	return tx.Commit()
}

const generationColumns = `id, project_id, status, progress, current_step, total_steps, started_at, completed_at, error_message`

func scanGeneration(row interface{ Scan(...interface{}) error }) (*models.Generation, error) {
	var g models.Generation
	err := row.Scan(&g.ID, &g.ProjectID, &g.Status, &g.Progress, &g.CurrentStep,
		&g.TotalSteps, &g.StartedAt, &g.CompletedAt, &g.ErrorMessage)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (d *DatabaseClient) GetGeneration(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	g, err := scanGeneration(d.db.QueryRowContext(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func (d *DatabaseClient) ListGenerations(ctx context.Context, projectID uuid.UUID) ([]models.Generation, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		WHERE project_id = $1
		ORDER BY started_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var gens []models.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		gens = append(gens, *g)
	}
	return gens, rows.Err()
}

func (d *DatabaseClient) ListGenerationSteps(ctx context.Context, generationID uuid.UUID) ([]models.GenerationStep, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, generation_id, name, description, type, status, progress, step_order,
		       started_at, completed_at, error_message
		FROM generation_steps
		WHERE generation_id = $1
		ORDER BY step_order ASC
	`, generationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation steps: %w", err)
	}
	defer rows.Close()

	var steps []models.GenerationStep
	for rows.Next() {
		var s models.GenerationStep
		err := rows.Scan(&s.ID, &s.GenerationID, &s.Name, &s.Description, &s.Type, &s.Status,
			&s.Progress, &s.Order, &s.StartedAt, &s.CompletedAt, &s.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (d *DatabaseClient) UpdateGenerationStep(ctx context.Context, step *models.GenerationStep) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE generation_steps
		SET status = $1, progress = $2, started_at = $3, completed_at = $4, error_message = $5
		WHERE id = $6
	`, step.Status, step.Progress, step.StartedAt, step.CompletedAt, step.ErrorMessage, step.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generation.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) UpdateGenerationProgress(ctx context.Context, id uuid.UUID, progress int, currentStep string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE generations
		SET progress = $1, current_step = NULLIF($2, '')
		WHERE id = $3 AND status = $4
	`, progress, currentStep, id, models.GenerationStatusRunning)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *DatabaseClient) FinishGeneration(ctx context.Context, id uuid.UUID, status, errorMsg string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE generations
		SET status = $1, completed_at = $2, error_message = NULLIF($3, '')
		WHERE id = $4 AND status = $5
	`
	if status == models.GenerationStatusCompleted {
		query = `
			UPDATE generations
			SET status = $1, completed_at = $2, error_message = NULLIF($3, ''), progress = 100, current_step = NULL
			WHERE id = $4 AND status = $5
		`
	}
	res, err := d.db.ExecContext(ctx, query, status, completedAt, errorMsg, id, models.GenerationStatusRunning)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *DatabaseClient) CreateScreen(ctx context.Context, s *models.Screen) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO screens (id, project_id, name, type, width, height, x, y, image_url, route, component, is_generated, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, s.ID, s.ProjectID, s.Name, s.Type, s.Width, s.Height, s.X, s.Y,
		s.ImageURL, s.Route, s.Component, s.IsGenerated, s.Metadata, s.CreatedAt)
	return err
}

func (d *DatabaseClient) ListScreens(ctx context.Context, projectID uuid.UUID) ([]models.Screen, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, project_id, name, type, width, height, x, y, image_url, route, component, is_generated, metadata, created_at
		FROM screens
		WHERE project_id = $1
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list screens: %w", err)
	}
	defer rows.Close()

	var screens []models.Screen
	for rows.Next() {
		var s models.Screen
		err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Type, &s.Width, &s.Height, &s.X, &s.Y,
			&s.ImageURL, &s.Route, &s.Component, &s.IsGenerated, &s.Metadata, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screen: %w", err)
		}
		screens = append(screens, s)
	}
	return screens, rows.Err()
}

// GetOrCreateAccount returns the caller's account, creating it with
// defaultCredits on first access.
func (d *DatabaseClient) GetOrCreateAccount(ctx context.Context, accountID uuid.UUID, defaultCredits int) (*models.Account, error) {
	var a models.Account
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, credits, max_credits)
		VALUES ($1, $2, $2)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, credits, max_credits, created_at, updated_at
	`, accountID, defaultCredits).Scan(&a.ID, &a.Credits, &a.MaxCredits, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &a, nil
}

func (d *DatabaseClient) HasSufficientCredits(ctx context.Context, accountID uuid.UUID, amount int) (bool, error) {
	var credits int
	err := d.db.QueryRowContext(ctx, `SELECT credits FROM accounts WHERE id = $1`, accountID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return credits >= amount, nil
}

// Deduct is a single conditional update, so concurrent deductions can never
// take the balance below zero.
func (d *DatabaseClient) Deduct(ctx context.Context, accountID uuid.UUID, amount int) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE accounts
		SET credits = credits - $1, updated_at = NOW()
		WHERE id = $2 AND credits >= $1
	`, amount, accountID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *DatabaseClient) Add(ctx context.Context, accountID uuid.UUID, amount int) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO accounts (id, credits, max_credits)
		VALUES ($1, $2, 0)
		ON CONFLICT (id) DO UPDATE SET credits = accounts.credits + EXCLUDED.credits, updated_at = NOW()
	`, accountID, amount)
	return err
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
