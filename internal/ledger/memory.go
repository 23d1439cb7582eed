package ledger

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process ledger. Records do not survive the process, so it
// is only useful for dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	records map[string]DeliveryRecord
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]DeliveryRecord)}
}

func (m *Memory) Has(_ context.Context, gameID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[gameID]
	return ok, nil
}

func (m *Memory) Record(_ context.Context, gameID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[gameID]; ok {
		return ErrAlreadyRecorded
	}
	m.records[gameID] = DeliveryRecord{GameID: gameID, NotifiedAt: at}
	return nil
}

func (m *Memory) Get(_ context.Context, gameID string) (DeliveryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[gameID]
	if !ok {
		return DeliveryRecord{}, ErrNotFound
	}
	return rec, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Memory) Close() error { return nil }
