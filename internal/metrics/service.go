// Service layer of the internal package metrics.

package metrics

import (
	"Codepad/internal/entity"
	"Codepad/pkg/log"
	"context"
	"time"
)

// StatsSource reports the live counters to persist, the room hub in production.
type StatsSource interface {
	Stats(ctx context.Context) (entity.Metrics, error)
}

// Service layer of internal package metrics which encapsulates metrics CRUD logic of Codepad.
type Service interface {
	// get the last stored Codepad metrics
	GetMetrics(ctx context.Context) (entity.Metrics, error)
	// store the current live counters
	Flush(ctx context.Context) error
	// flush on every tick until ctx is done, then once more
	Run(ctx context.Context)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	source      StatsSource
	metricsRepo Repository
	interval    time.Duration
	logger      log.Logger
}

func NewService(source StatsSource, metricsRepo Repository, interval time.Duration, logger log.Logger) Service {
	return service{source: source, metricsRepo: metricsRepo, interval: interval, logger: logger}
}

func (s service) GetMetrics(ctx context.Context) (entity.Metrics, error) {
	return s.metricsRepo.GetMetrics(ctx, s.logger)
}

func (s service) Flush(ctx context.Context) error {
	stats, err := s.source.Stats(ctx)
	if err != nil {
		return err
	}
	return s.metricsRepo.SetOrUpdateMetrics(ctx, s.logger, &stats)
}

func (s service) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.WithCtx(ctx).Info().Msg("Metrics flushing disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.WithCtx(ctx).Info().Dur("interval", s.interval).Msg("Launching metrics flusher")
	for {
		select {
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.WithCtx(ctx).Warn().Err(err).Msg("Metrics flush failed")
			}
		case <-ctx.Done():
			// The hub may already be gone, use what the source still answers.
			fctx, cancel := context.WithTimeout(context.Background(), time.Second)
			if err := s.Flush(fctx); err != nil {
				s.logger.Debug().Err(err).Msg("Final metrics flush skipped")
			}
			cancel()
			s.logger.Info().Msg("Successfully stopped metrics flusher")
			return
		}
	}
}
