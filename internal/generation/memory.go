package generation

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"aicodegen-backend/internal/models"
)

// MemoryStore keeps everything in process memory. It backs the server when no
// DATABASE_URL is configured and is used throughout the tests.
type MemoryStore struct {
	mu          sync.RWMutex
	projects    map[uuid.UUID]models.Project
	generations map[uuid.UUID]models.Generation
	steps       map[uuid.UUID][]models.GenerationStep
	screens     map[uuid.UUID][]models.Screen

	progressLog map[uuid.UUID][]int
	stepLog     map[uuid.UUID][]models.GenerationStep
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:    make(map[uuid.UUID]models.Project),
		generations: make(map[uuid.UUID]models.Generation),
		steps:       make(map[uuid.UUID][]models.GenerationStep),
		screens:     make(map[uuid.UUID][]models.Screen),
		progressLog: make(map[uuid.UUID][]int),
		stepLog:     make(map[uuid.UUID][]models.GenerationStep),
	}
}

func (m *MemoryStore) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusDraft
	}
	p.CreatedAt, p.UpdatedAt = now, now
	m.projects[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProject(_ context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListProjects(_ context.Context, userID uuid.UUID) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteProject removes the project and everything it owns.
func (m *MemoryStore) DeleteProject(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	delete(m.screens, id)
	for genID, gen := range m.generations {
		if gen.ProjectID == id {
			delete(m.generations, genID)
			delete(m.steps, genID)
		}
	}
	return nil
}

func (m *MemoryStore) UpdateProjectStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	m.projects[id] = p
	return nil
}

func (m *MemoryStore) HasRunningGeneration(_ context.Context, projectID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.generations {
		if g.ProjectID == projectID && g.Status == models.GenerationStatusRunning {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateGeneration(_ context.Context, gen *models.Generation, steps []models.GenerationStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[gen.ID] = *gen
	m.steps[gen.ID] = append([]models.GenerationStep(nil), steps...)
	m.progressLog[gen.ID] = []int{gen.Progress}
	return nil
}

func (m *MemoryStore) GetGeneration(_ context.Context, id uuid.UUID) (*models.Generation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.generations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *MemoryStore) ListGenerations(_ context.Context, projectID uuid.UUID) ([]models.Generation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Generation
	for _, g := range m.generations {
		if g.ProjectID == projectID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (m *MemoryStore) ListGenerationSteps(_ context.Context, generationID uuid.UUID) ([]models.GenerationStep, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.GenerationStep(nil), m.steps[generationID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *MemoryStore) UpdateGenerationStep(_ context.Context, step *models.GenerationStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps := m.steps[step.GenerationID]
	for i := range steps {
		if steps[i].ID == step.ID {
			steps[i] = *step
			m.stepLog[step.GenerationID] = append(m.stepLog[step.GenerationID], *step)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) UpdateGenerationProgress(_ context.Context, id uuid.UUID, progress int, currentStep string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.generations[id]
	if !ok || g.Status != models.GenerationStatusRunning {
		return false, nil
	}
	g.Progress = progress
	g.CurrentStep = sql.NullString{String: currentStep, Valid: currentStep != ""}
	m.generations[id] = g
	m.progressLog[id] = append(m.progressLog[id], progress)
	return true, nil
}

func (m *MemoryStore) FinishGeneration(_ context.Context, id uuid.UUID, status, errorMsg string, completedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.generations[id]
	if !ok || g.Status != models.GenerationStatusRunning {
		return false, nil
	}
	g.Status = status
	g.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	switch status {
	case models.GenerationStatusCompleted:
		g.Progress = 100
		g.CurrentStep = sql.NullString{}
		m.progressLog[id] = append(m.progressLog[id], 100)
	case models.GenerationStatusFailed:
		g.ErrorMessage = sql.NullString{String: errorMsg, Valid: true}
	}
	m.generations[id] = g
	return true, nil
}

func (m *MemoryStore) CreateScreen(_ context.Context, screen *models.Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if screen.CreatedAt.IsZero() {
		screen.CreatedAt = time.Now()
	}
	m.screens[screen.ProjectID] = append(m.screens[screen.ProjectID], *screen)
	return nil
}

func (m *MemoryStore) ListScreens(_ context.Context, projectID uuid.UUID) ([]models.Screen, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Screen(nil), m.screens[projectID]...), nil
}

// ProgressHistory returns every progress value written for a run, in order.
func (m *MemoryStore) ProgressHistory(id uuid.UUID) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.progressLog[id]...)
}

// StepHistory returns every step write for a run, in order.
func (m *MemoryStore) StepHistory(id uuid.UUID) []models.GenerationStep {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.GenerationStep(nil), m.stepLog[id]...)
}

// MemoryLedger is the in-process credit ledger.
type MemoryLedger struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]models.Account
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{accounts: make(map[uuid.UUID]models.Account)}
}

// SetBalance creates or overwrites an account balance.
func (l *MemoryLedger) SetBalance(accountID uuid.UUID, credits, maxCredits int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.accounts[accountID] = models.Account{ID: accountID, Credits: credits, MaxCredits: maxCredits, CreatedAt: now, UpdatedAt: now}
}

func (l *MemoryLedger) Balance(accountID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[accountID].Credits
}

func (l *MemoryLedger) GetOrCreateAccount(_ context.Context, accountID uuid.UUID, defaultCredits int) (*models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok {
		now := time.Now()
		acct = models.Account{ID: accountID, Credits: defaultCredits, MaxCredits: defaultCredits, CreatedAt: now, UpdatedAt: now}
		l.accounts[accountID] = acct
	}
	return &acct, nil
}

func (l *MemoryLedger) HasSufficientCredits(_ context.Context, accountID uuid.UUID, amount int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[accountID].Credits >= amount, nil
}

func (l *MemoryLedger) Deduct(_ context.Context, accountID uuid.UUID, amount int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok || acct.Credits < amount {
		return false, nil
	}
	acct.Credits -= amount
	acct.UpdatedAt = time.Now()
	l.accounts[accountID] = acct
	return true, nil
}

func (l *MemoryLedger) Add(_ context.Context, accountID uuid.UUID, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok {
		acct = models.Account{ID: accountID, CreatedAt: time.Now()}
	}
	acct.Credits += amount
	acct.UpdatedAt = time.Now()
	l.accounts[accountID] = acct
	return nil
}
