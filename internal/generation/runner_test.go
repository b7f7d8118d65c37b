package generation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/models"
	"aicodegen-backend/internal/textgen"
)

func TestStartRun_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	notifier := &recordingNotifier{}
	exporter := &recordingExporter{}
	runner := newRunner(f.store, f.ledger, textgen.Disabled{},
		generation.WithNotifier(notifier), generation.WithExporter(exporter))

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusRunning, started.Generation.Status)
	assert.Equal(t, 4, started.Generation.TotalSteps)
	require.Len(t, started.Steps, 4)

	names := []string{"Setup", "Base components", "Login screen", "Optimization"}
	types := []string{models.StepTypeSetup, models.StepTypeCode, models.StepTypeScreen, models.StepTypeOptimization}
	for i, step := range started.Steps {
		assert.Equal(t, names[i], step.Name)
		assert.Equal(t, types[i], step.Type)
		assert.Equal(t, i+1, step.Order)
		assert.Equal(t, models.StepStatusPending, step.Status)
	}
	assert.Equal(t, 5, f.ledger.Balance(f.accountID))

	runner.Wait()

	gen, err := f.store.GetGeneration(ctx, started.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusCompleted, gen.Status)
	assert.Equal(t, 100, gen.Progress)
	assert.False(t, gen.CurrentStep.Valid)
	assert.True(t, gen.CompletedAt.Valid)

	project, err := f.store.GetProject(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, project.Status)

	steps, err := f.store.ListGenerationSteps(ctx, gen.ID)
	require.NoError(t, err)
	for _, step := range steps {
		assert.Equal(t, models.StepStatusCompleted, step.Status)
		assert.Equal(t, 100, step.Progress)
	}

	screens, err := f.store.ListScreens(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, screens, 3)
	sizes := map[string][2]int{
		models.ScreenTypeDesktop: {1440, 900},
		models.ScreenTypeTablet:  {768, 1024},
		models.ScreenTypeMobile:  {375, 812},
	}
	for _, s := range screens {
		assert.True(t, s.IsGenerated)
		assert.Equal(t, sizes[s.Type], [2]int{s.Width, s.Height})
		assert.Equal(t, screens[0].Metadata, s.Metadata)
		assert.Equal(t, "LoginScreen", s.Component.String)
		assert.Equal(t, "/login-screen", s.Route.String)
	}

	artifact, responsive, err := generation.DecodeScreenMetadata(screens[0].Metadata)
	require.NoError(t, err)
	assert.True(t, responsive)
	assert.Contains(t, artifact.SourceCode, "type=\"password\"")

	require.Len(t, exporter.artifacts, 1)
	assert.Equal(t, "LoginScreen", exporter.artifacts[0].Name)

	assert.Equal(t, []string{
		generation.EventGenerationStarted,
		generation.EventStepCompleted,
		generation.EventStepCompleted,
		generation.EventStepCompleted,
		generation.EventStepCompleted,
		generation.EventGenerationCompleted,
	}, notifier.Events())
}

func TestStartRun_ProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "an online store for shoes", 10)
	runner := newRunner(f.store, f.ledger, textgen.Disabled{})

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	runner.Wait()

	history := f.store.ProgressHistory(started.Generation.ID)
	require.NotEmpty(t, history)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i], history[i-1], "progress went backwards at %d: %v", i, history)
	}
	assert.Equal(t, 100, history[len(history)-1])

	// 7 steps: 14, 29, 43, 57, 71, 86, 100
	assert.Equal(t, []int{0, 14, 29, 43, 57, 71, 86, 100, 100}, history)
}

func TestStartRun_StepsRunInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "social network with a feed", 10)
	runner := newRunner(f.store, f.ledger, textgen.Disabled{})

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	runner.Wait()

	history := f.store.StepHistory(started.Generation.ID)
	require.NotEmpty(t, history)

	completed := map[int]bool{}
	lastOrder := 0
	for _, write := range history {
		assert.GreaterOrEqual(t, write.Order, lastOrder)
		lastOrder = write.Order
		if write.Status == models.StepStatusRunning {
			for order := 1; order < write.Order; order++ {
				assert.True(t, completed[order], "step %d running before step %d completed", write.Order, order)
			}
		}
		if write.Status == models.StepStatusCompleted {
			completed[write.Order] = true
		}
	}

	// Each step is written RUNNING at 0, then 25, 50, 75, then COMPLETED.
	assert.Len(t, history, started.Generation.TotalSteps*5)

	screens, err := f.store.ListScreens(ctx, f.project.ID)
	require.NoError(t, err)
	// Login, Feed and Profile screens.
	assert.Len(t, screens, 9)
}

func TestStartRun_InsufficientCredits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 3)
	runner := newRunner(f.store, f.ledger, textgen.Disabled{})

	_, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	assert.ErrorIs(t, err, generation.ErrInsufficientCredits)
	assert.Equal(t, 3, f.ledger.Balance(f.accountID))

	gens, err := f.store.ListGenerations(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Empty(t, gens)

	project, err := f.store.GetProject(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusDraft, project.Status)
}

func TestStartRun_ProjectNotFound(t *testing.T) {
	f := newFixture(t, "todo app", 10)
	runner := newRunner(f.store, f.ledger, textgen.Disabled{})

	_, err := runner.StartRun(context.Background(), f.accountID, uuid.New(), "")
	assert.ErrorIs(t, err, generation.ErrProjectNotFound)
	assert.Equal(t, 10, f.ledger.Balance(f.accountID))
}

func TestStartRun_RejectsSecondRunWhileRunning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 20)
	store := newGatedStore(f.store)
	runner := newRunner(store, f.ledger, textgen.Disabled{})

	_, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	<-store.entered

	_, err = runner.StartRun(ctx, f.accountID, f.project.ID, "")
	assert.ErrorIs(t, err, generation.ErrRunAlreadyInProgress)
	assert.Equal(t, 15, f.ledger.Balance(f.accountID))

	close(store.release)
	runner.Wait()
}

type failingCreateStore struct {
	*generation.MemoryStore
}

func (s failingCreateStore) CreateGeneration(context.Context, *models.Generation, []models.GenerationStep) error {
	return errors.New("disk full")
}

func TestStartRun_RefundsWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	runner := newRunner(failingCreateStore{f.store}, f.ledger, textgen.Disabled{})

	_, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 10, f.ledger.Balance(f.accountID))

	gens, err := f.store.ListGenerations(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Empty(t, gens)
}

func TestStartRun_RefundsWhenPlanningPanics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	provider := textgen.ProviderFunc(func(context.Context, string, textgen.Options) (string, error) {
		panic("provider exploded")
	})
	runner := newRunner(f.store, f.ledger, provider)

	_, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.Error(t, err)
	assert.Equal(t, 10, f.ledger.Balance(f.accountID))
}

func TestStartRun_ProviderFailureUsesFallbackPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "analytics dashboard for sales", 10)
	provider := textgen.ProviderFunc(func(context.Context, string, textgen.Options) (string, error) {
		return "", errors.New("503 service unavailable")
	})
	runner := newRunner(f.store, f.ledger, provider)

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	runner.Wait()

	expected := generation.FallbackPlan(f.project.Prompt)
	require.Len(t, started.Steps, len(expected))
	for i, step := range started.Steps {
		assert.Equal(t, expected[i].Name, step.Name)
		assert.Equal(t, expected[i].Type, step.Type)
	}
}

func TestStartRun_UsesProviderPlanAndPromptOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	var gotPrompt string
	provider := textgen.ProviderFunc(func(_ context.Context, prompt string, _ textgen.Options) (string, error) {
		gotPrompt = prompt
		return `Here is the plan:
[{"name":"Scaffold","description":"Create project","type":"SETUP","order":7},
 {"name":"Counter screen","description":"A counter","type":"SCREEN","order":3}]`, nil
	})
	runner := newRunner(f.store, f.ledger, provider)

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "a counter widget")
	require.NoError(t, err)
	runner.Wait()

	assert.Contains(t, gotPrompt, "a counter widget")
	require.Len(t, started.Steps, 2)
	assert.Equal(t, 1, started.Steps[0].Order)
	assert.Equal(t, 2, started.Steps[1].Order)

	screens, err := f.store.ListScreens(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, screens, 3)
	assert.Contains(t, screens[0].Metadata, "increment")
}

type failingScreenStore struct {
	*generation.MemoryStore
}

func (s failingScreenStore) CreateScreen(context.Context, *models.Screen) error {
	return errors.New("connection reset")
}

func TestProcessRun_FailureMarksRunFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	runner := newRunner(failingScreenStore{f.store}, f.ledger, textgen.Disabled{})

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	runner.Wait()

	gen, err := f.store.GetGeneration(ctx, started.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFailed, gen.Status)
	assert.Contains(t, gen.ErrorMessage.String, "connection reset")
	assert.True(t, gen.CompletedAt.Valid)
	assert.Equal(t, 50, gen.Progress)

	project, err := f.store.GetProject(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusError, project.Status)

	steps, err := f.store.ListGenerationSteps(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusCompleted, steps[0].Status)
	assert.Equal(t, models.StepStatusCompleted, steps[1].Status)
	assert.Equal(t, models.StepStatusFailed, steps[2].Status)
	assert.Equal(t, models.StepStatusPending, steps[3].Status)

	// No refund on mid-run failure.
	assert.Equal(t, 5, f.ledger.Balance(f.accountID))
}

func TestCancelRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	store := newGatedStore(f.store)
	notifier := &recordingNotifier{}
	runner := newRunner(store, f.ledger, textgen.Disabled{}, generation.WithNotifier(notifier))

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	<-store.entered

	require.NoError(t, runner.CancelRun(ctx, f.accountID, started.Generation.ID))

	gen, err := f.store.GetGeneration(ctx, started.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusCancelled, gen.Status)
	assert.True(t, gen.CompletedAt.Valid)
	assert.False(t, gen.ErrorMessage.Valid)

	project, err := f.store.GetProject(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusDraft, project.Status)
	assert.Equal(t, 7, f.ledger.Balance(f.accountID))

	progressAtCancel := f.store.ProgressHistory(gen.ID)
	stepsAtCancel, err := f.store.ListGenerationSteps(ctx, gen.ID)
	require.NoError(t, err)

	close(store.release)
	runner.Wait()

	after, err := f.store.GetGeneration(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, *gen, *after)
	assert.Equal(t, progressAtCancel, f.store.ProgressHistory(gen.ID))
	stepsAfter, err := f.store.ListGenerationSteps(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, stepsAtCancel, stepsAfter)

	screens, err := f.store.ListScreens(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Empty(t, screens)
	assert.Contains(t, notifier.Events(), generation.EventGenerationCancelled)
	assert.NotContains(t, notifier.Events(), generation.EventGenerationFailed)
}

func TestCancelRun_NotRunning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	runner := newRunner(f.store, f.ledger, textgen.Disabled{})

	err := runner.CancelRun(ctx, f.accountID, uuid.New())
	assert.ErrorIs(t, err, generation.ErrRunNotFound)

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	runner.Wait()

	before, err := f.store.GetGeneration(ctx, started.Generation.ID)
	require.NoError(t, err)

	err = runner.CancelRun(ctx, f.accountID, started.Generation.ID)
	assert.ErrorIs(t, err, generation.ErrRunNotFound)

	after, err := f.store.GetGeneration(ctx, started.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, *before, *after)
	assert.Equal(t, 5, f.ledger.Balance(f.accountID))
}

func TestGetRunStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	runner := newRunner(f.store, f.ledger, textgen.Disabled{})

	_, err := runner.GetRunStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, generation.ErrRunNotFound)

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	runner.Wait()

	status, err := runner.GetRunStatus(ctx, started.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, started.Generation.ID.String(), status.ID)
	assert.Equal(t, models.GenerationStatusCompleted, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Nil(t, status.CurrentStep)
	assert.Equal(t, 4, status.TotalSteps)
	require.Len(t, status.Steps, 4)
	assert.Equal(t, "Login screen", status.Steps[2].Name)
}

func TestStartRun_LockerAllowsSingleRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 100)
	store := newGatedStore(f.store)
	runner := newRunner(store, f.ledger, textgen.Disabled{}, generation.WithLocker(generation.NewKeyedLocker()))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = runner.StartRun(ctx, f.accountID, f.project.ID, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, generation.ErrRunAlreadyInProgress)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 95, f.ledger.Balance(f.accountID))

	close(store.release)
	runner.Wait()
}

// racingStore makes two starts observe "no running run" before either creates one.
type racingStore struct {
	*generation.MemoryStore
	barrier sync.WaitGroup
}

func (s *racingStore) HasRunningGeneration(ctx context.Context, projectID uuid.UUID) (bool, error) {
	running, err := s.MemoryStore.HasRunningGeneration(ctx, projectID)
	s.barrier.Done()
	s.barrier.Wait()
	return running, err
}

func TestStartRun_WithoutLockerConcurrentStartsCanBothWin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 20)
	store := &racingStore{MemoryStore: f.store}
	store.barrier.Add(2)
	runner := newRunner(store, f.ledger, textgen.Disabled{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = runner.StartRun(ctx, f.accountID, f.project.ID, "")
		}(i)
	}
	wg.Wait()
	runner.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	gens, err := f.store.ListGenerations(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, gens, 2)
	assert.Equal(t, 10, f.ledger.Balance(f.accountID))
}

func TestShutdown_InterruptsRunningRuns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "todo app", 10)
	store := newGatedStore(f.store)
	runner := newRunner(store, f.ledger, textgen.Disabled{})

	started, err := runner.StartRun(ctx, f.accountID, f.project.ID, "")
	require.NoError(t, err)
	<-store.entered

	expired, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, runner.Shutdown(expired), context.Canceled)

	close(store.release)
	require.NoError(t, runner.Shutdown(ctx))

	gen, err := f.store.GetGeneration(ctx, started.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFailed, gen.Status)
	assert.Equal(t, "generation interrupted", gen.ErrorMessage.String)
}
