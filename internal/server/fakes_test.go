package server

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/storage"
	"github.com/google/uuid"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu    sync.Mutex
	plans []models.PlanRecord
	logs  []storage.ConversionLog
	users map[string]int
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{users: map[string]int{}}
}

func (m *memStore) InsertPlan(_ context.Context, rec *models.PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, *rec)
	return nil
}

func (m *memStore) GetPlan(_ context.Context, id uuid.UUID, userID int) (*models.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == id && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListPlans(_ context.Context, userID, limit int) ([]models.PlanSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PlanSummary{}
	for i := len(m.plans) - 1; i >= 0 && len(out) < limit; i-- {
		if m.plans[i].UserID == userID {
			out = append(out, m.plans[i].Summary())
		}
	}
	return out, nil
}

func (m *memStore) DeletePlan(_ context.Context, id uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.plans {
		if p.ID == id && p.UserID == userID {
			m.plans = append(m.plans[:i], m.plans[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) GetPlanStats(_ context.Context, userID int) (*storage.PlanStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &storage.PlanStats{PlansBySource: []storage.SourceStat{}}
	for _, p := range m.plans {
		if p.UserID == userID {
			stats.TotalPlans++
			stats.TotalSets += int64(p.SetCount)
		}
	}
	stats.TotalConversions = int64(len(m.logs))
	return stats, nil
}

func (m *memStore) InsertConversionLog(_ context.Context, log storage.ConversionLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, log)
	return log.ID, nil
}

func (m *memStore) QueryConversionLogs(_ context.Context, userID, limit int) ([]storage.ConversionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []storage.ConversionLog{}
	for _, l := range m.logs {
		if l.UserID == userID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.users[login]; ok {
		return id, nil
	}
	id := len(m.users) + 2
	m.users[login] = id
	return id, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	log := slog.New(slog.DiscardHandler)
	provider := notes.NewProvider(notes.NewParser(notes.Defaults{}, log), store, log)
	return New(store, provider, "secret", log), store
}
