package generation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/models"
)

// errRunStopped ends the executor early because the run was cancelled,
// finished elsewhere, or the runner is shutting down.
var errRunStopped = errors.New("generation run stopped")

type RunnerConfig struct {
	// GenerationCost is deducted when a run starts.
	GenerationCost int
	// CancelRefund is returned to the account when a run is cancelled.
	CancelRefund int
	// TickDelay is the simulated work between two progress updates of a step.
	TickDelay time.Duration
	// ProgressIncrement is the per-tick step progress increase.
	ProgressIncrement int
	// MaxConcurrentRuns bounds how many runs execute at once.
	MaxConcurrentRuns int
}

func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		GenerationCost:    5,
		CancelRefund:      2,
		TickDelay:         250 * time.Millisecond,
		ProgressIncrement: 25,
		MaxConcurrentRuns: 8,
	}
}

type RunnerOption func(*Runner)

func WithLocker(l Locker) RunnerOption { return func(r *Runner) { r.locker = l } }

func WithNotifier(n Notifier) RunnerOption { return func(r *Runner) { r.notifier = n } }

func WithExporter(e ArtifactExporter) RunnerOption { return func(r *Runner) { r.exporter = e } }

// Runner owns the lifecycle of generation runs.
type Runner struct {
	store    Store
	ledger   Ledger
	planner  *Planner
	locker   Locker
	notifier Notifier
	exporter ArtifactExporter
	log      *logger.Logger
	cfg      RunnerConfig

	sem        *semaphore.Weighted
	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu     sync.Mutex
	active map[uuid.UUID]context.CancelFunc
}

func NewRunner(store Store, ledger Ledger, planner *Planner, log *logger.Logger, cfg RunnerConfig, opts ...RunnerOption) *Runner {
	if cfg.ProgressIncrement <= 0 || cfg.ProgressIncrement > 100 {
		cfg.ProgressIncrement = 25
	}
	if cfg.MaxConcurrentRuns < 1 {
		cfg.MaxConcurrentRuns = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		store:      store,
		ledger:     ledger,
		planner:    planner,
		log:        log.With("component", "GenerationRunner"),
		cfg:        cfg,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrentRuns)),
		baseCtx:    ctx,
		baseCancel: cancel,
		active:     make(map[uuid.UUID]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartedRun is what StartRun hands back before execution begins.
type StartedRun struct {
	Generation models.Generation
	Steps      []models.GenerationStep
}

// StartRun charges the account, plans the run, persists it and hands it to a
// background executor. It returns as soon as the run is persisted.
func (r *Runner) StartRun(ctx context.Context, accountID, projectID uuid.UUID, promptOverride string) (*StartedRun, error) {
	project, err := r.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, projectID.String())
		if err != nil {
			if errors.Is(err, ErrLockHeld) {
				return nil, ErrRunAlreadyInProgress
			}
			return nil, err
		}
		defer unlock()
	}

	// Without a locker this check races with concurrent starts for the same project.
	running, err := r.store.HasRunningGeneration(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check running generations: %w", err)
	}
	if running {
		return nil, ErrRunAlreadyInProgress
	}

	ok, err := r.ledger.Deduct(ctx, accountID, r.cfg.GenerationCost)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct credits: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	prompt := strings.TrimSpace(promptOverride)
	if prompt == "" {
		prompt = project.Prompt
	}

	started, err := r.createRun(ctx, project.ID, prompt)
	if err != nil {
		r.refund(accountID, r.cfg.GenerationCost, "start_failed")
		return nil, err
	}
	gen := started.Generation
	log := r.log.With("generation_id", gen.ID, "project_id", project.ID)

	if err := r.store.UpdateProjectStatus(ctx, project.ID, models.ProjectStatusGenerating); err != nil {
		if _, ferr := r.store.FinishGeneration(context.WithoutCancel(ctx), gen.ID, models.GenerationStatusFailed, err.Error(), time.Now()); ferr != nil {
			log.Error("Failed to mark generation failed", "error", ferr)
		}
		r.refund(accountID, r.cfg.GenerationCost, "start_failed")
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}

	log.Info("Generation started", "total_steps", gen.TotalSteps)
	r.publish(ctx, project.ID, EventGenerationStarted, GenerationStartedPayload(gen.ID, gen.TotalSteps))
	r.launch(gen.ID, *project)

	return started, nil
}

func (r *Runner) createRun(ctx context.Context, projectID uuid.UUID, prompt string) (started *StartedRun, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			started, err = nil, fmt.Errorf("failed to plan generation: %v", rec)
		}
	}()

	plan := r.planner.SynthesizePlan(ctx, prompt)
	if len(plan) == 0 {
		return nil, fmt.Errorf("failed to plan generation: empty plan")
	}

	now := time.Now()
	gen := models.Generation{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Status:     models.GenerationStatusRunning,
		Progress:   0,
		TotalSteps: len(plan),
		StartedAt:  now,
	}
	steps := make([]models.GenerationStep, len(plan))
	for i, p := range plan {
		steps[i] = models.GenerationStep{
			ID:           uuid.New(),
			GenerationID: gen.ID,
			Name:         p.Name,
			Description:  p.Description,
			Type:         p.Type,
			Status:       models.StepStatusPending,
			Order:        i + 1,
		}
	}

	if err := r.store.CreateGeneration(ctx, &gen, steps); err != nil {
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}
	return &StartedRun{Generation: gen, Steps: steps}, nil
}

func (r *Runner) launch(runID uuid.UUID, project models.Project) {
	runCtx, cancel := context.WithCancel(r.baseCtx)
	r.mu.Lock()
	r.active[runID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.forget(runID)

		if err := r.sem.Acquire(runCtx, 1); err != nil {
			r.failRun(runCtx, runID, project, errors.New("generation interrupted before start"))
			return
		}
		defer r.sem.Release(1)

		r.processRun(runCtx, runID, project)
	}()
}

func (r *Runner) forget(runID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.active[runID]; ok {
		cancel()
		delete(r.active, runID)
	}
}

// processRun executes the steps of one run in order. Any error or panic marks
// the run FAILED; completed steps are left as they are.
func (r *Runner) processRun(ctx context.Context, runID uuid.UUID, project models.Project) {
	log := r.log.With("generation_id", runID, "project_id", project.ID)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Generation panic", "panic", rec)
			r.failRun(ctx, runID, project, fmt.Errorf("unexpected error: %v", rec))
		}
	}()

	gen, err := r.store.GetGeneration(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return
		}
		r.failRun(ctx, runID, project, err)
		return
	}
	if gen.Status != models.GenerationStatusRunning {
		return
	}
	steps, err := r.store.ListGenerationSteps(ctx, runID)
	if err != nil {
		r.failRun(ctx, runID, project, err)
		return
	}

	if err := r.executeSteps(ctx, gen, project, steps); err != nil {
		if errors.Is(err, errRunStopped) {
			log.Info("Generation stopped")
			// No-op unless the run is still RUNNING, e.g. during shutdown.
			r.failRun(ctx, runID, project, errors.New("generation interrupted"))
			return
		}
		r.failRun(ctx, runID, project, err)
		return
	}
	r.completeRun(ctx, runID, project)
}

func (r *Runner) executeSteps(ctx context.Context, gen *models.Generation, project models.Project, steps []models.GenerationStep) error {
	screenIndex := 0
	for i := range steps {
		step := &steps[i]
		if ctx.Err() != nil {
			return errRunStopped
		}

		if err := r.runStep(ctx, step); err != nil {
			return err
		}

		if step.Type == models.StepTypeScreen {
			if err := r.materializeScreens(ctx, project, step, screenIndex); err != nil {
				r.markStepFailed(ctx, step, err)
				return fmt.Errorf("step %q: %w", step.Name, err)
			}
			screenIndex++
		}

		progress := int(math.Round(100 * float64(i+1) / float64(len(steps))))
		applied, err := r.store.UpdateGenerationProgress(ctx, gen.ID, progress, step.Name)
		if err != nil {
			return fmt.Errorf("failed to update generation progress: %w", err)
		}
		if !applied {
			return errRunStopped
		}
		r.publish(ctx, project.ID, EventStepCompleted, StepCompletedPayload(gen.ID, step.Name, progress))
	}
	return nil
}

// runStep moves one step through RUNNING with progress ticks to COMPLETED.
func (r *Runner) runStep(ctx context.Context, step *models.GenerationStep) error {
	step.Status = models.StepStatusRunning
	step.Progress = 0
	step.StartedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := r.store.UpdateGenerationStep(ctx, step); err != nil {
		return fmt.Errorf("failed to start step %q: %w", step.Name, err)
	}

	for p := r.cfg.ProgressIncrement; p < 100; p += r.cfg.ProgressIncrement {
		if err := r.sleep(ctx); err != nil {
			return err
		}
		step.Progress = p
		if err := r.store.UpdateGenerationStep(ctx, step); err != nil {
			return fmt.Errorf("failed to update step %q: %w", step.Name, err)
		}
	}
	if err := r.sleep(ctx); err != nil {
		return err
	}

	step.Status = models.StepStatusCompleted
	step.Progress = 100
	step.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := r.store.UpdateGenerationStep(ctx, step); err != nil {
		return fmt.Errorf("failed to complete step %q: %w", step.Name, err)
	}
	return nil
}

func (r *Runner) sleep(ctx context.Context) error {
	if r.cfg.TickDelay <= 0 {
		if ctx.Err() != nil {
			return errRunStopped
		}
		return nil
	}
	t := time.NewTimer(r.cfg.TickDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return errRunStopped
	case <-t.C:
		return nil
	}
}

func (r *Runner) markStepFailed(ctx context.Context, step *models.GenerationStep, cause error) {
	step.Status = models.StepStatusFailed
	step.ErrorMessage = sql.NullString{String: cause.Error(), Valid: true}
	if err := r.store.UpdateGenerationStep(context.WithoutCancel(ctx), step); err != nil {
		r.log.Warn("Failed to mark step failed", "step", step.Name, "error", err)
	}
}

// materializeScreens renders the step's artifact once and stores one Screen per device type.
func (r *Runner) materializeScreens(ctx context.Context, project models.Project, step *models.GenerationStep, screenIndex int) error {
	artifact := GenerateArtifact(step.Name, step.Description, CategoryFor(step.Name))
	metadata, err := EncodeScreenMetadata(artifact, true)
	if err != nil {
		return err
	}

	route := "/" + Slug(step.Name)
	for _, pl := range ScreenPlacements(screenIndex) {
		screen := &models.Screen{
			ID:          uuid.New(),
			ProjectID:   project.ID,
			Name:        fmt.Sprintf("%s - %s", step.Name, pl.Label),
			Type:        pl.Type,
			Width:       pl.Width,
			Height:      pl.Height,
			X:           pl.X,
			Y:           pl.Y,
			Route:       sql.NullString{String: route, Valid: true},
			Component:   sql.NullString{String: artifact.Name, Valid: true},
			IsGenerated: true,
			Metadata:    metadata,
			CreatedAt:   time.Now(),
		}
		if err := r.store.CreateScreen(ctx, screen); err != nil {
			return fmt.Errorf("failed to create screen: %w", err)
		}
	}

	if r.exporter != nil {
		if err := r.exporter.ExportArtifact(ctx, project.UserID, project.ID, artifact); err != nil {
			return fmt.Errorf("failed to export artifact: %w", err)
		}
	}
	return nil
}

func (r *Runner) completeRun(ctx context.Context, runID uuid.UUID, project models.Project) {
	ctx = context.WithoutCancel(ctx)
	log := r.log.With("generation_id", runID, "project_id", project.ID)
	applied, err := r.store.FinishGeneration(ctx, runID, models.GenerationStatusCompleted, "", time.Now())
	if err != nil {
		r.failRun(ctx, runID, project, err)
		return
	}
	if !applied {
		log.Info("Generation already finished, skipping completion")
		return
	}
	if err := r.store.UpdateProjectStatus(ctx, project.ID, models.ProjectStatusCompleted); err != nil {
		log.Error("Failed to update project status", "error", err)
	}
	log.Info("Generation completed")
	r.publish(ctx, project.ID, EventGenerationCompleted, GenerationCompletedPayload(runID))
}

func (r *Runner) failRun(ctx context.Context, runID uuid.UUID, project models.Project, cause error) {
	ctx = context.WithoutCancel(ctx)
	log := r.log.With("generation_id", runID, "project_id", project.ID)
	msg := "generation failed"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}

	applied, err := r.store.FinishGeneration(ctx, runID, models.GenerationStatusFailed, msg, time.Now())
	if err != nil {
		log.Error("Failed to mark generation failed", "error", err, "cause", msg)
		return
	}
	if !applied {
		return
	}
	if err := r.store.UpdateProjectStatus(ctx, project.ID, models.ProjectStatusError); err != nil {
		log.Error("Failed to update project status", "error", err)
	}
	log.Warn("Generation failed", "error", msg)
	r.publish(ctx, project.ID, EventGenerationFailed, GenerationFailedPayload(runID, msg))
}

// CancelRun marks a RUNNING run CANCELLED, resets the project to DRAFT and
// partially refunds the account. The executor notices on its next step or tick.
func (r *Runner) CancelRun(ctx context.Context, accountID, runID uuid.UUID) error {
	gen, err := r.store.GetGeneration(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrRunNotFound
		}
		return fmt.Errorf("failed to load generation: %w", err)
	}
	if gen.Status != models.GenerationStatusRunning {
		return ErrRunNotFound
	}

	applied, err := r.store.FinishGeneration(ctx, runID, models.GenerationStatusCancelled, "", time.Now())
	if err != nil {
		return fmt.Errorf("failed to cancel generation: %w", err)
	}
	if !applied {
		return ErrRunNotFound
	}

	log := r.log.With("generation_id", runID, "project_id", gen.ProjectID)
	if err := r.store.UpdateProjectStatus(ctx, gen.ProjectID, models.ProjectStatusDraft); err != nil {
		log.Error("Failed to reset project status", "error", err)
	}
	r.refund(accountID, r.cfg.CancelRefund, "cancelled")

	r.mu.Lock()
	if cancel, ok := r.active[runID]; ok {
		cancel()
	}
	r.mu.Unlock()

	log.Info("Generation cancelled")
	r.publish(ctx, gen.ProjectID, EventGenerationCancelled, GenerationCancelledPayload(runID))
	return nil
}

// GetRunStatus reads the current persisted state of a run.
func (r *Runner) GetRunStatus(ctx context.Context, runID uuid.UUID) (*models.RunStatus, error) {
	gen, err := r.store.GetGeneration(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to load generation: %w", err)
	}
	steps, err := r.store.ListGenerationSteps(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load generation steps: %w", err)
	}
	return ProjectRunStatus(gen, steps), nil
}

// ProjectRunStatus builds the polled view from stored records.
func ProjectRunStatus(gen *models.Generation, steps []models.GenerationStep) *models.RunStatus {
	status := &models.RunStatus{
		ID:         gen.ID.String(),
		Status:     gen.Status,
		Progress:   gen.Progress,
		TotalSteps: gen.TotalSteps,
		Steps:      StepResponses(steps),
	}
	if gen.CurrentStep.Valid {
		current := gen.CurrentStep.String
		status.CurrentStep = &current
	}
	if gen.ErrorMessage.Valid {
		status.ErrorMessage = gen.ErrorMessage.String
	}
	return status
}

func StepResponses(steps []models.GenerationStep) []models.StepResponse {
	out := make([]models.StepResponse, len(steps))
	for i, s := range steps {
		out[i] = models.StepResponse{
			ID:          s.ID.String(),
			Name:        s.Name,
			Description: s.Description,
			Type:        s.Type,
			Status:      s.Status,
			Progress:    s.Progress,
			Order:       s.Order,
		}
	}
	return out
}

func (r *Runner) refund(accountID uuid.UUID, amount int, reason string) {
	if amount <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.ledger.Add(ctx, accountID, amount); err != nil {
		r.log.Error("Credit refund failed", "account_id", accountID, "amount", amount, "reason", reason, "error", err)
		return
	}
	r.log.Info("Credits refunded", "account_id", accountID, "amount", amount, "reason", reason)
}

func (r *Runner) publish(ctx context.Context, projectID uuid.UUID, event string, payload map[string]interface{}) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.PublishProjectEvent(ctx, projectID, event, payload); err != nil {
		r.log.Warn("Failed to publish event", "event", event, "project_id", projectID, "error", err)
	}
}

// Wait blocks until every launched run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown stops all executors and waits for them, or until ctx expires.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.baseCancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
