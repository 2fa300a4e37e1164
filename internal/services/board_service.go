package services

import (
	"context"
	"sort"
	"time"

	"tankboard/internal/models"
	"tankboard/internal/phase"
	"tankboard/internal/repository"
	"tankboard/internal/simulation"
	"tankboard/pkg/logging"
	"tankboard/pkg/metrics"
)

// BoardService assembles the public dashboard: sanitized records,
// resolved phases and simulated temperatures, composed into tank views.
type BoardService struct {
	repo    repository.TankRepository
	engine  *simulation.Engine
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewBoardService creates a new board service
func NewBoardService(repo repository.TankRepository, engine *simulation.Engine, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *BoardService {
	return &BoardService{
		repo:    repo,
		engine:  engine,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ListTanks returns the visible tanks at now, sorted by tank number.
// A store failure loading the record set surfaces as an error; any
// per-tank trouble degrades that tank instead of aborting the batch.
func (s *BoardService) ListTanks(ctx context.Context, now time.Time) ([]models.TankView, error) {
	raw, err := s.repo.LoadRawRecords(ctx)
	if err != nil {
		return nil, err
	}

	records := models.SanitizeRecords(raw)

	views := make([]models.TankView, 0, len(records))
	for id, rec := range records {
		if !rec.Show {
			continue
		}
		views = append(views, s.observeTank(ctx, id, rec, now))
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Number < views[j].Number
	})

	s.metrics.TanksVisible.Set(float64(len(views)))

	return views, nil
}

// observeTank resolves one tank's phase, advances its temperature
// state and composes the view. State I/O failures are logged and the
// tank is served from a fresh in-memory trajectory.
func (s *BoardService) observeTank(ctx context.Context, id string, rec models.TankRecord, now time.Time) models.TankView {
	res := phase.Resolve(rec.Status, rec.Start, rec.End, now, s.engine.Cooldown())

	prev, err := s.repo.GetTemperatureState(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "[BOARD_STATE_READ] Serving tank without persisted state", logging.Fields{
			"tank_id": id,
			"error":   err.Error(),
		})
		prev = nil
	}

	obs := s.engine.Observe(id, rec, res, prev, now)

	if obs.Updated {
		s.metrics.SimBucketUpdatesTotal.Inc()
		if err := s.repo.SetTemperatureState(ctx, id, obs.State); err != nil {
			s.logger.Warn(ctx, "[BOARD_STATE_WRITE] Failed to persist temperature state", logging.Fields{
				"tank_id": id,
				"error":   err.Error(),
			})
		}
	}
	if obs.Reset {
		s.metrics.SimStateResetsTotal.Inc()
	}
	if obs.Locked {
		s.metrics.SimTerminalLocksTotal.Inc()
	}

	return composeView(id, rec, res, obs)
}
