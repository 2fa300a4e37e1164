package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tankboard/internal/models"
	"tankboard/pkg/kv"
	"tankboard/pkg/logging"
)

// Storage keys. Records are one JSON object under a string key; the
// temperature states live in a hash with one field per tank id so a
// single tank can be read and written without touching the rest.
const (
	recordsKey   = "tankboard:records"
	tempStateKey = "tankboard:tempstate"
)

// TankRepository provides data access for tank records and
// temperature state
type TankRepository interface {
	// LoadRawRecords returns the stored record mapping as untyped JSON,
	// ready for sanitization. Corrupt stored data yields an empty
	// mapping, not an error; only store failures error.
	LoadRawRecords(ctx context.Context) (map[string]interface{}, error)

	// SaveRecords replaces the entire stored record set.
	SaveRecords(ctx context.Context, records map[string]models.TankRecord) error

	// GetTemperatureState returns the persisted state for a tank, or
	// nil when none exists yet.
	GetTemperatureState(ctx context.Context, id string) (*models.TemperatureState, error)

	// SetTemperatureState persists one tank's state.
	SetTemperatureState(ctx context.Context, id string, state models.TemperatureState) error

	// ReplaceTemperatureStates drops all persisted states and writes
	// the given set, sweeping orphans of removed tanks.
	ReplaceTemperatureStates(ctx context.Context, states map[string]models.TemperatureState) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error
}

// tankRepository implements TankRepository on the Redis wrapper
type tankRepository struct {
	kv       *kv.RedisKV
	logger   *logging.StructuredLogger
	stateTTL time.Duration
}

// NewTankRepository creates a Redis-backed tank repository. stateTTL
// bounds temperature-state growth; it is refreshed on every write.
func NewTankRepository(store *kv.RedisKV, logger *logging.StructuredLogger, stateTTL time.Duration) TankRepository {
	return &tankRepository{
		kv:       store,
		logger:   logger,
		stateTTL: stateTTL,
	}
}

func (r *tankRepository) LoadRawRecords(ctx context.Context) (map[string]interface{}, error) {
	val, found, err := r.kv.Get(ctx, recordsKey)
	if err != nil {
		return nil, &StorageError{Op: "load records", Err: err}
	}
	if !found {
		return map[string]interface{}{}, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(val), &raw); err != nil {
		// Corrupt stored data: recover with an empty set so the read
		// path still returns a well-formed response.
		r.logger.Warn(ctx, "[REPO_CORRUPT_RECORDS] Stored record mapping is not valid JSON, serving empty set", logging.Fields{
			"key": recordsKey,
		})
		return map[string]interface{}{}, nil
	}
	return raw, nil
}

func (r *tankRepository) SaveRecords(ctx context.Context, records map[string]models.TankRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return &StorageError{Op: "encode records", Err: err}
	}
	if err := r.kv.Set(ctx, recordsKey, string(data)); err != nil {
		return &StorageError{Op: "save records", Err: err}
	}

	r.logger.Debug(ctx, "[REPO_SAVE_RECORDS] Record set replaced", logging.Fields{
		"count": len(records),
	})
	return nil
}

func (r *tankRepository) GetTemperatureState(ctx context.Context, id string) (*models.TemperatureState, error) {
	val, found, err := r.kv.HGet(ctx, tempStateKey, id)
	if err != nil {
		return nil, &StorageError{Op: "load temperature state", Err: err}
	}
	if !found {
		return nil, nil
	}

	var state models.TemperatureState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		// Treat a corrupt state like a missing one; the engine will
		// re-derive it.
		r.logger.Warn(ctx, "[REPO_CORRUPT_STATE] Discarding unreadable temperature state", logging.Fields{
			"tank_id": id,
		})
		return nil, nil
	}
	return &state, nil
}

func (r *tankRepository) SetTemperatureState(ctx context.Context, id string, state models.TemperatureState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return &StorageError{Op: "encode temperature state", Err: err}
	}
	if err := r.kv.HSet(ctx, tempStateKey, id, string(data)); err != nil {
		return &StorageError{Op: "save temperature state", Err: err}
	}
	if err := r.kv.Expire(ctx, tempStateKey, r.stateTTL); err != nil {
		return &StorageError{Op: "refresh state expiry", Err: err}
	}
	return nil
}

func (r *tankRepository) ReplaceTemperatureStates(ctx context.Context, states map[string]models.TemperatureState) error {
	if err := r.kv.Del(ctx, tempStateKey); err != nil {
		return &StorageError{Op: "sweep temperature states", Err: err}
	}
	if len(states) == 0 {
		return nil
	}

	fields := make(map[string]string, len(states))
	for id, state := range states {
		data, err := json.Marshal(state)
		if err != nil {
			return &StorageError{Op: "encode temperature state", Err: err}
		}
		fields[id] = string(data)
	}

	if err := r.kv.HSetAll(ctx, tempStateKey, fields); err != nil {
		return &StorageError{Op: "replace temperature states", Err: err}
	}
	if err := r.kv.Expire(ctx, tempStateKey, r.stateTTL); err != nil {
		return &StorageError{Op: "refresh state expiry", Err: err}
	}

	r.logger.Debug(ctx, "[REPO_REPLACE_STATES] Temperature states replaced", logging.Fields{
		"count": len(states),
	})
	return nil
}

func (r *tankRepository) HealthCheck(ctx context.Context) error {
	return r.kv.HealthCheck(ctx)
}

// StorageError represents a failure of the underlying key-value store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsTransient returns true: store failures are usually retryable
func (e *StorageError) IsTransient() bool {
	return true
}
