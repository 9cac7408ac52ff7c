package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"recipe_reel_go_backend/internal/errors"
	"recipe_reel_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ScopeConfig is one scope's window. A zero BlockDuration means the scope
// never blocks: exceeding it is treated as overload instead.
type ScopeConfig struct {
	MaxRequests   int
	Window        time.Duration
	BlockDuration time.Duration
}

// RateProfile bundles the three scopes an endpoint is gated by.
type RateProfile struct {
	Name   string
	User   ScopeConfig
	IP     ScopeConfig
	Global ScopeConfig
}

// StandardProfile gates the analysis endpoint.
func StandardProfile() RateProfile {
	return RateProfile{
		Name:   "standard",
		User:   ScopeConfig{MaxRequests: 10, Window: time.Minute, BlockDuration: 5 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 20, Window: time.Minute, BlockDuration: 10 * time.Minute},
		Global: ScopeConfig{MaxRequests: 100, Window: time.Minute},
	}
}

// StrictProfile gates the generation endpoint.
func StrictProfile() RateProfile {
	return RateProfile{
		Name:   "strict",
		User:   ScopeConfig{MaxRequests: 5, Window: time.Minute, BlockDuration: 15 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 10, Window: time.Minute, BlockDuration: 15 * time.Minute},
		Global: ScopeConfig{MaxRequests: 50, Window: time.Minute},
	}
}

// RateHeaders carries the user-scope window state for response headers.
type RateHeaders struct {
	Limit     int
	Remaining int
	Reset     int
}

type scopeKind string

const (
	scopeGlobal scopeKind = "global"
	scopeIP     scopeKind = "ip"
	scopeUser   scopeKind = "user"
)

type scopeState struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

// RateLimitService enforces one profile's three scopes. The in-process maps
// are the fast path; user and IP blocks are mirrored to the durable store so
// they survive a restart. The global scope is purely in-process.
type RateLimitService struct {
	profile RateProfile
	store   RateLimitStoreDB

	mu      sync.Mutex
	entries map[string]*scopeState

	nowFn func() time.Time
}

// NewRateLimitService builds a gate for one profile. A positive sweep
// interval starts the background eviction of expired entries; tests pass 0.
func NewRateLimitService(profile RateProfile, store RateLimitStoreDB, sweepInterval time.Duration) *RateLimitService {
	s := &RateLimitService{
		profile: profile,
		store:   store,
		entries: make(map[string]*scopeState),
		nowFn:   time.Now,
	}
	if sweepInterval > 0 {
		go s.periodicSweep(sweepInterval)
	}
	return s
}

// Check runs the three scopes in order global, IP, user. On denial the
// returned error carries the code and retry hint; on success the returned
// headers describe the user-scope window.
func (s *RateLimitService) Check(userID uuid.UUID, clientIP string) (RateHeaders, error) {
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, denied := s.checkScope(scopeGlobal, "", s.profile.Global, "", now); denied != nil {
		return RateHeaders{}, denied
	}
	if _, _, denied := s.checkScope(scopeIP, clientIP, s.profile.IP, models.RateLimitIPMinute, now); denied != nil {
		return RateHeaders{}, denied
	}
	remaining, reset, denied := s.checkScope(scopeUser, userID.String(), s.profile.User, models.RateLimitUserMinute, now)
	if denied != nil {
		return RateHeaders{}, denied
	}
	return RateHeaders{Limit: s.profile.User.MaxRequests, Remaining: remaining, Reset: reset}, nil
}

// checkScope applies the window algorithm to one scope. Callers hold s.mu.
func (s *RateLimitService) checkScope(kind scopeKind, identifier string, cfg ScopeConfig, durableType string, now time.Time) (int, int, *errors.CustomError) {
	key := string(kind) + ":" + identifier
	entry := s.entries[key]

	// Fast path: a block already in memory
	if entry != nil && entry.blockedUntil.After(now) {
		return 0, 0, s.denyBlocked(kind, entry.blockedUntil, now)
	}

	// No entry yet: a block may be on record from before a restart. Store
	// errors fail open; the in-memory window below still caps the burst.
	if entry == nil && durableType != "" {
		stat, err := s.store.GetActiveBlockDB(durableType, identifier, now)
		if err != nil {
			log.Warn().Err(err).Str("scope", string(kind)).Msg("Rate block lookup failed, continuing")
		} else if stat != nil && stat.BlockedUntil != nil {
			s.entries[key] = &scopeState{
				count:        stat.Count,
				windowStart:  stat.PeriodStart,
				blockedUntil: *stat.BlockedUntil,
			}
			return 0, 0, s.denyBlocked(kind, *stat.BlockedUntil, now)
		}
	}

	if entry == nil {
		entry = &scopeState{}
		s.entries[key] = entry
	}

	if entry.windowStart.IsZero() || now.Sub(entry.windowStart) >= cfg.Window {
		entry.count = 1
		entry.windowStart = now
	} else {
		entry.count++
	}

	if entry.count > cfg.MaxRequests {
		if cfg.BlockDuration > 0 {
			entry.blockedUntil = now.Add(cfg.BlockDuration)
			if err := s.store.UpsertBlockDB(durableType, identifier, entry.windowStart, entry.count, entry.blockedUntil); err != nil {
				log.Warn().Err(err).Str("scope", string(kind)).Msg("Failed to persist rate block")
			}
			log.Info().
				Str("scope", string(kind)).
				Str("identifier", identifier).
				Time("blocked_until", entry.blockedUntil).
				Msg("Rate limit exceeded, block set")
			return 0, 0, s.denyExceeded(kind, cfg.BlockDuration)
		}
		// Global scope: no sticky block, the service is simply over capacity
		retry := secondsUntil(entry.windowStart.Add(cfg.Window), now)
		return 0, 0, errors.New503Error("Server is handling too many requests, try again shortly", retry)
	}

	remaining := cfg.MaxRequests - entry.count
	reset := secondsUntil(entry.windowStart.Add(cfg.Window), now)
	return remaining, reset, nil
}

func (s *RateLimitService) denyBlocked(kind scopeKind, blockedUntil time.Time, now time.Time) *errors.CustomError {
	retry := secondsUntil(blockedUntil, now)
	switch kind {
	case scopeIP:
		return errors.New429Error(errors.ErrorTypeIPBlocked,
			fmt.Sprintf("This IP is blocked for %d more seconds", retry), retry)
	default:
		return errors.New429Error(errors.ErrorTypeUserBlocked,
			fmt.Sprintf("Too many requests, blocked for %d more seconds", retry), retry)
	}
}

func (s *RateLimitService) denyExceeded(kind scopeKind, blockDuration time.Duration) *errors.CustomError {
	retry := int(blockDuration / time.Second)
	switch kind {
	case scopeIP:
		return errors.New429Error(errors.ErrorTypeIPRateLimited,
			"Too many requests from this IP, temporarily blocked", retry)
	default:
		return errors.New429Error(errors.ErrorTypeRateLimited,
			"Too many requests, temporarily blocked", retry)
	}
}

func secondsUntil(deadline, now time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func (s *RateLimitService) periodicSweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		s.SweepExpired()
	}
}

// SweepExpired evicts entries whose window and block have both lapsed.
func (s *RateLimitService) SweepExpired() {
	now := s.nowFn()
	window := s.longestWindow()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		windowOver := now.Sub(entry.windowStart) >= window
		blockOver := !entry.blockedUntil.After(now)
		if windowOver && blockOver {
			delete(s.entries, key)
		}
	}
}

func (s *RateLimitService) longestWindow() time.Duration {
	window := s.profile.User.Window
	if s.profile.IP.Window > window {
		window = s.profile.IP.Window
	}
	if s.profile.Global.Window > window {
		window = s.profile.Global.Window
	}
	return window
}

// RateSnapshot is the admin view of one gate.
type RateSnapshot struct {
	Profile       string         `json:"profile"`
	TrackedScopes int            `json:"tracked_scopes"`
	ActiveBlocks  map[string]int `json:"active_blocks"`
}

func (s *RateLimitService) Snapshot() RateSnapshot {
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := map[string]int{}
	for key, entry := range s.entries {
		if entry.blockedUntil.After(now) {
			scope, _, _ := strings.Cut(key, ":")
			blocks[scope]++
		}
	}
	return RateSnapshot{
		Profile:       s.profile.Name,
		TrackedScopes: len(s.entries),
		ActiveBlocks:  blocks,
	}
}
