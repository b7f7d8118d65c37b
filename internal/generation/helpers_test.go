package generation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/models"
	"aicodegen-backend/internal/textgen"
)

type fixture struct {
	store     *generation.MemoryStore
	ledger    *generation.MemoryLedger
	accountID uuid.UUID
	project   *models.Project
}

func newFixture(t *testing.T, prompt string, credits int) *fixture {
	t.Helper()
	f := &fixture{
		store:     generation.NewMemoryStore(),
		ledger:    generation.NewMemoryLedger(),
		accountID: uuid.New(),
	}
	f.ledger.SetBalance(f.accountID, credits, 100)
	f.project = &models.Project{UserID: f.accountID, Name: "Test", Prompt: prompt}
	require.NoError(t, f.store.CreateProject(context.Background(), f.project))
	return f
}

func testConfig() generation.RunnerConfig {
	cfg := generation.DefaultRunnerConfig()
	cfg.TickDelay = 0
	return cfg
}

func newRunner(store generation.Store, ledger generation.Ledger, provider textgen.Provider, opts ...generation.RunnerOption) *generation.Runner {
	log := logger.Nop()
	return generation.NewRunner(store, ledger, generation.NewPlanner(provider, log), log, testConfig(), opts...)
}

// gatedStore blocks the executor right after its first step write until released.
type gatedStore struct {
	*generation.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(inner *generation.MemoryStore) *gatedStore {
	return &gatedStore{
		MemoryStore: inner,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) UpdateGenerationStep(ctx context.Context, step *models.GenerationStep) error {
	err := s.MemoryStore.UpdateGenerationStep(ctx, step)
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) PublishProjectEvent(_ context.Context, _ uuid.UUID, event string, _ map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type recordingExporter struct {
	mu        sync.Mutex
	artifacts []generation.Artifact
}

func (e *recordingExporter) ExportArtifact(_ context.Context, _, _ uuid.UUID, artifact generation.Artifact) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.artifacts = append(e.artifacts, artifact)
	return nil
}
