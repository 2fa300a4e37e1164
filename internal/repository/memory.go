package repository

import (
	"context"
	"encoding/json"
	"sync"

	"tankboard/internal/models"
)

// MemoryRepository is an in-memory TankRepository for tests and local
// development without a Redis instance. Records round-trip through
// JSON exactly as the Redis implementation's do, so the read path sees
// the same untyped shapes.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []byte
	states  map[string]models.TemperatureState

	// Err, when set, is returned by every operation to simulate a
	// store outage.
	Err error
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		states: make(map[string]models.TemperatureState),
	}
}

func (r *MemoryRepository) LoadRawRecords(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, &StorageError{Op: "load records", Err: r.Err}
	}
	if r.records == nil {
		return map[string]interface{}{}, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(r.records, &raw); err != nil {
		return map[string]interface{}{}, nil
	}
	return raw, nil
}

func (r *MemoryRepository) SaveRecords(ctx context.Context, records map[string]models.TankRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return &StorageError{Op: "save records", Err: r.Err}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return &StorageError{Op: "encode records", Err: err}
	}
	r.records = data
	return nil
}

func (r *MemoryRepository) GetTemperatureState(ctx context.Context, id string) (*models.TemperatureState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, &StorageError{Op: "load temperature state", Err: r.Err}
	}

	state, ok := r.states[id]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *MemoryRepository) SetTemperatureState(ctx context.Context, id string, state models.TemperatureState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return &StorageError{Op: "save temperature state", Err: r.Err}
	}
	r.states[id] = state
	return nil
}

func (r *MemoryRepository) ReplaceTemperatureStates(ctx context.Context, states map[string]models.TemperatureState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return &StorageError{Op: "replace temperature states", Err: r.Err}
	}

	r.states = make(map[string]models.TemperatureState, len(states))
	for id, state := range states {
		r.states[id] = state
	}
	return nil
}

func (r *MemoryRepository) HealthCheck(ctx context.Context) error {
	if r.Err != nil {
		return &StorageError{Op: "health check", Err: r.Err}
	}
	return nil
}

// SetRawRecords stores a raw JSON document as the record mapping,
// bypassing sanitization. Useful for exercising corrupt-data recovery.
func (r *MemoryRepository) SetRawRecords(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = data
}
