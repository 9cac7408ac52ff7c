package services

import (
	"time"

	"github.com/rs/zerolog/log"
)

// RetentionService trims old rate and usage counter rows from the durable
// store. Rows with a live block are always kept.
type RetentionService struct {
	store  RateLimitStoreDB
	window time.Duration
}

func NewRetentionService(store RateLimitStoreDB, window time.Duration) *RetentionService {
	return &RetentionService{store: store, window: window}
}

// Start sweeps on the given interval until the process exits.
func (s *RetentionService) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			s.SweepOnce()
		}
	}()
}

func (s *RetentionService) SweepOnce() {
	cutoff := time.Now().Add(-s.window)
	deleted, err := s.store.DeleteOldRowsDB(cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("Counter retention sweep failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("rows", deleted).Msg("Trimmed old counter rows")
	}
}
