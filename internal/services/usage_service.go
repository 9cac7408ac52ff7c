package services

import (
	"fmt"
	"sync"
	"time"

	"recipe_reel_go_backend/internal/errors"
	"recipe_reel_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UsageLimits are the cost ceilings per wall-clock period.
type UsageLimits struct {
	DailyGlobal  int
	HourlyGlobal int
	DailyUser    int
}

type cachedCount struct {
	count     int
	fetchedAt time.Time
}

// UsageService is the cost gate. Counters live in the durable store shared
// with the rate gate; reads go through a short-lived cache so the hot path
// does not hit the database on every request. Store failures never deny.
type UsageService struct {
	store          RateLimitStoreDB
	limits         UsageLimits
	cacheTTL       time.Duration
	alertThreshold float64

	mu              sync.RWMutex
	cache           map[CounterKey]cachedCount
	lastAlertPeriod time.Time

	nowFn func() time.Time
}

func NewUsageService(store RateLimitStoreDB, limits UsageLimits, cacheTTL time.Duration, alertThreshold float64) *UsageService {
	return &UsageService{
		store:          store,
		limits:         limits,
		cacheTTL:       cacheTTL,
		alertThreshold: alertThreshold,
		cache:          make(map[CounterKey]cachedCount),
		nowFn:          time.Now,
	}
}

// dayStart is local midnight, hourStart the top of the local hour. Both are
// wall-clock boundaries, not rolling windows.
func dayStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func hourStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, now.Hour(), 0, 0, 0, now.Location())
}

// CheckLimits reports whether one more analysis fits under the ceilings.
// Checks run hourly global, then daily global, then daily user, so the
// broadest exhausted ceiling wins the error code.
func (s *UsageService) CheckLimits(userID uuid.UUID) error {
	now := s.nowFn()

	hourly, err := s.count(models.RateLimitHourlyGlobal, "", hourStart(now))
	if err == nil && hourly >= s.limits.HourlyGlobal {
		retry := secondsUntil(hourStart(now).Add(time.Hour), now)
		return errors.New429Error(errors.ErrorTypeHourlyLimitReached,
			"Hourly analysis capacity reached, try again next hour", retry).
			WithDetails(map[string]interface{}{"scope": models.RateLimitHourlyGlobal, "limit": s.limits.HourlyGlobal})
	}

	daily, err := s.count(models.RateLimitDailyGlobal, "", dayStart(now))
	if err == nil && daily >= s.limits.DailyGlobal {
		retry := secondsUntil(dayStart(now).AddDate(0, 0, 1), now)
		return errors.New429Error(errors.ErrorTypeDailyLimitReached,
			"Daily analysis capacity reached, try again tomorrow", retry).
			WithDetails(map[string]interface{}{"scope": models.RateLimitDailyGlobal, "limit": s.limits.DailyGlobal})
	}

	userDaily, err := s.count(models.RateLimitDailyUser, userID.String(), dayStart(now))
	if err == nil && userDaily >= s.limits.DailyUser {
		retry := secondsUntil(dayStart(now).AddDate(0, 0, 1), now)
		return errors.New429Error(errors.ErrorTypeUserDailyLimitReached,
			fmt.Sprintf("You reached your %d analyses for today", s.limits.DailyUser), retry).
			WithDetails(map[string]interface{}{"scope": models.RateLimitDailyUser, "limit": s.limits.DailyUser})
	}

	return nil
}

// RecordUsage bumps all three counters for one admitted analysis. Failures
// are logged, never surfaced: usage accounting must not fail a request that
// already passed the gate.
func (s *UsageService) RecordUsage(userID uuid.UUID) {
	now := s.nowFn()
	keys := []CounterKey{
		{Type: models.RateLimitDailyGlobal, Identifier: "", PeriodStart: dayStart(now)},
		{Type: models.RateLimitHourlyGlobal, Identifier: "", PeriodStart: hourStart(now)},
		{Type: models.RateLimitDailyUser, Identifier: userID.String(), PeriodStart: dayStart(now)},
	}

	if err := s.store.IncrementCountersDB(keys); err != nil {
		log.Error().Err(err).Msg("Failed to record usage counters")
		return
	}

	s.mu.Lock()
	for _, key := range keys {
		delete(s.cache, key)
	}
	s.mu.Unlock()

	s.checkAlert(now)
}

// checkAlert logs once per day when global usage crosses the alert share.
func (s *UsageService) checkAlert(now time.Time) {
	period := dayStart(now)

	s.mu.RLock()
	alerted := s.lastAlertPeriod.Equal(period)
	s.mu.RUnlock()
	if alerted {
		return
	}

	daily, err := s.count(models.RateLimitDailyGlobal, "", period)
	if err != nil {
		return
	}
	if float64(daily) < s.alertThreshold*float64(s.limits.DailyGlobal) {
		return
	}

	s.mu.Lock()
	if !s.lastAlertPeriod.Equal(period) {
		s.lastAlertPeriod = period
		log.Warn().
			Int("used", daily).
			Int("limit", s.limits.DailyGlobal).
			Msg("Daily analysis usage crossed alert threshold")
	}
	s.mu.Unlock()
}

// AnalysesToday returns the user's analysis count for the current day.
func (s *UsageService) AnalysesToday(userID uuid.UUID) (int, error) {
	return s.count(models.RateLimitDailyUser, userID.String(), dayStart(s.nowFn()))
}

func (s *UsageService) count(counterType, identifier string, periodStart time.Time) (int, error) {
	now := s.nowFn()
	key := CounterKey{Type: counterType, Identifier: identifier, PeriodStart: periodStart}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && now.Sub(cached.fetchedAt) < s.cacheTTL {
		return cached.count, nil
	}

	count, err := s.store.GetCounterDB(key)
	if err != nil {
		log.Warn().Err(err).Str("type", counterType).Msg("Usage counter lookup failed, failing open")
		return 0, err
	}

	s.mu.Lock()
	s.cache[key] = cachedCount{count: count, fetchedAt: now}
	s.mu.Unlock()
	return count, nil
}

// UsageSnapshot is the admin view of today's global consumption.
type UsageSnapshot struct {
	DailyGlobal       int `json:"daily_global"`
	DailyGlobalLimit  int `json:"daily_global_limit"`
	HourlyGlobal      int `json:"hourly_global"`
	HourlyGlobalLimit int `json:"hourly_global_limit"`
}

func (s *UsageService) Snapshot() UsageSnapshot {
	now := s.nowFn()
	daily, _ := s.count(models.RateLimitDailyGlobal, "", dayStart(now))
	hourly, _ := s.count(models.RateLimitHourlyGlobal, "", hourStart(now))
	return UsageSnapshot{
		DailyGlobal:       daily,
		DailyGlobalLimit:  s.limits.DailyGlobal,
		HourlyGlobal:      hourly,
		HourlyGlobalLimit: s.limits.HourlyGlobal,
	}
}
