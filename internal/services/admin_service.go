package services

import (
	"context"
	"encoding/json"
	"time"

	"tankboard/internal/models"
	"tankboard/internal/repository"
	"tankboard/internal/simulation"
	"tankboard/pkg/logging"
	"tankboard/pkg/metrics"
)

// AdminService handles the operator write surface: full record-set
// replacement and raw record inspection.
type AdminService struct {
	repo    repository.TankRepository
	engine  *simulation.Engine
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAdminService creates a new admin service
func NewAdminService(repo repository.TankRepository, engine *simulation.Engine, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AdminService {
	return &AdminService{
		repo:    repo,
		engine:  engine,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ListRecords returns the full sanitized record mapping, keyed by
// canonical tank id
func (s *AdminService) ListRecords(ctx context.Context) (map[string]models.TankRecord, error) {
	raw, err := s.repo.LoadRawRecords(ctx)
	if err != nil {
		return nil, err
	}
	return models.SanitizeRecords(raw), nil
}

// ReplaceRecords sanitizes the write payload, replaces the entire
// stored record set and resets every tank's temperature state to its
// manual or derived setpoint. States of removed tanks are swept.
func (s *AdminService) ReplaceRecords(ctx context.Context, body []byte, now time.Time) (map[string]models.TankRecord, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &models.ValidationError{
			Field:   "body",
			Message: "request body is not valid JSON",
		}
	}

	records := models.SanitizeRecords(raw)

	if err := s.repo.SaveRecords(ctx, records); err != nil {
		return nil, err
	}

	states := make(map[string]models.TemperatureState, len(records))
	for id, rec := range records {
		states[id] = s.engine.InitialState(id, rec, now)
	}
	if err := s.repo.ReplaceTemperatureStates(ctx, states); err != nil {
		return nil, err
	}

	s.metrics.RecordsSavedTotal.Add(float64(len(records)))
	s.logger.Info(ctx, "[ADMIN_SAVE] Record set replaced", logging.Fields{
		"count": len(records),
	})

	return records, nil
}
