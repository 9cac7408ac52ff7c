package services

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NormalizeSourceURL truncates a source URL at the first '?'. The normalized
// form is the canonical key for both single-flight and idempotence.
func NormalizeSourceURL(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// AnalysisLockService is the process-wide single-flight registry: one
// in-progress analysis per user, with the locked URL recorded so a second
// request can report what is already running.
type AnalysisLockService struct {
	mu    sync.Mutex
	locks map[uuid.UUID]string
}

func NewAnalysisLockService() *AnalysisLockService {
	return &AnalysisLockService{
		locks: make(map[uuid.UUID]string),
	}
}

// TryAcquire records (user, normalizedURL) iff the user holds no lock.
// Otherwise it returns the URL currently locked and false.
func (s *AnalysisLockService) TryAcquire(userID uuid.UUID, normalizedURL string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, exists := s.locks[userID]; exists {
		return held, false
	}
	s.locks[userID] = normalizedURL
	return normalizedURL, true
}

// Release is idempotent: releasing an absent lock is a no-op.
func (s *AnalysisLockService) Release(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.locks[userID]; exists {
		delete(s.locks, userID)
		log.Debug().Str("user_id", userID.String()).Msg("Analysis lock released")
	}
}

// ActiveCount reports how many analyses are in flight right now.
func (s *AnalysisLockService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
