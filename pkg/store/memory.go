package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warmline/warmline/pkg/core"
)

// Memory is an in-process Store. It backs deployments without a database
// and the tests; records live for the process lifetime only.
type Memory struct {
	mu      sync.Mutex
	records []TransferRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveTransfer(_ context.Context, rec TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) MarkCompleted(_ context.Context, roomID string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Newest matching record wins; retried completions are harmless.
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].RoomID == roomID && !m.records[i].Completed {
			m.records[i].Completed = true
			m.records[i].CompletedAt = completedAt
			return nil
		}
	}
	return nil
}

func (m *Memory) ListTransfers(_ context.Context, roomID string, limit int) ([]TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TransferRecord, 0, len(m.records))
	for _, rec := range m.records {
		if roomID != "" && rec.RoomID != roomID {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) GetTransfer(_ context.Context, id string) (TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return TransferRecord{}, core.NewNotFoundError("transfer record not found: " + id)
}

func (m *Memory) Close() {}
