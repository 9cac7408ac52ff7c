package services

import (
	"fmt"
	"testing"
	"time"

	"recipe_reel_go_backend/internal/errors"
	"recipe_reel_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRateLimitStore struct {
	mock.Mock
}

func (m *MockRateLimitStore) GetActiveBlockDB(scopeType, identifier string, now time.Time) (*models.RateLimitStat, error) {
	args := m.Called(scopeType, identifier, now)
	var stat *models.RateLimitStat
	if args.Get(0) != nil {
		stat = args.Get(0).(*models.RateLimitStat)
	}
	return stat, args.Error(1)
}

func (m *MockRateLimitStore) UpsertBlockDB(scopeType, identifier string, periodStart time.Time, count int, blockedUntil time.Time) error {
	args := m.Called(scopeType, identifier, periodStart, count, blockedUntil)
	return args.Error(0)
}

func (m *MockRateLimitStore) GetCounterDB(key CounterKey) (int, error) {
	args := m.Called(key)
	return args.Int(0), args.Error(1)
}

func (m *MockRateLimitStore) IncrementCountersDB(keys []CounterKey) error {
	args := m.Called(keys)
	return args.Error(0)
}

func (m *MockRateLimitStore) DeleteOldRowsDB(cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func quietRateStore() *MockRateLimitStore {
	store := new(MockRateLimitStore)
	store.On("GetActiveBlockDB", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	store.On("UpsertBlockDB", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return store
}

func asCustomError(t *testing.T, err error) *errors.CustomError {
	t.Helper()
	ce, ok := err.(*errors.CustomError)
	assert.True(t, ok, "expected *errors.CustomError, got %T", err)
	return ce
}

func TestRateLimitUserScope(t *testing.T) {
	store := quietRateStore()
	svc := NewRateLimitService(RateProfile{
		Name:   "test",
		User:   ScopeConfig{MaxRequests: 3, Window: time.Minute, BlockDuration: 5 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 100, Window: time.Minute, BlockDuration: 10 * time.Minute},
		Global: ScopeConfig{MaxRequests: 1000, Window: time.Minute},
	}, store, 0)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	userID := uuid.New()
	ip := "10.0.0.1"

	for i, wantRemaining := range []int{2, 1, 0} {
		headers, err := svc.Check(userID, ip)
		assert.NoError(t, err, "request %d should pass", i+1)
		assert.Equal(t, 3, headers.Limit)
		assert.Equal(t, wantRemaining, headers.Remaining)
		assert.Equal(t, 60, headers.Reset)
	}

	// The 4th request trips the limit and sets a durable block
	_, err := svc.Check(userID, ip)
	ce := asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeRateLimited, ce.Type)
	assert.Equal(t, 429, ce.StatusCode)
	assert.Equal(t, 300, ce.RetryAfter)
	store.AssertCalled(t, "UpsertBlockDB", models.RateLimitUserMinute, userID.String(), mock.Anything, mock.Anything, mock.Anything)

	// While blocked the code changes and the retry hint counts down
	now = now.Add(2 * time.Minute)
	_, err = svc.Check(userID, ip)
	ce = asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeUserBlocked, ce.Type)
	assert.Equal(t, 180, ce.RetryAfter)

	// After the block lapses the window starts fresh
	now = now.Add(3*time.Minute + time.Second)
	headers, err := svc.Check(userID, ip)
	assert.NoError(t, err)
	assert.Equal(t, 2, headers.Remaining)
}

func TestRateLimitIPScopeSharedAcrossUsers(t *testing.T) {
	store := quietRateStore()
	svc := NewRateLimitService(RateProfile{
		Name:   "test",
		User:   ScopeConfig{MaxRequests: 100, Window: time.Minute, BlockDuration: 5 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 4, Window: time.Minute, BlockDuration: 10 * time.Minute},
		Global: ScopeConfig{MaxRequests: 1000, Window: time.Minute},
	}, store, 0)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	userA := uuid.New()
	userB := uuid.New()
	ip := "203.0.113.7"

	for i := 0; i < 4; i++ {
		user := userA
		if i%2 == 1 {
			user = userB
		}
		_, err := svc.Check(user, ip)
		assert.NoError(t, err, "request %d should pass", i+1)
	}

	_, err := svc.Check(userA, ip)
	ce := asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeIPRateLimited, ce.Type)
	assert.Equal(t, 600, ce.RetryAfter)
	store.AssertCalled(t, "UpsertBlockDB", models.RateLimitIPMinute, ip, mock.Anything, mock.Anything, mock.Anything)

	_, err = svc.Check(userB, ip)
	ce = asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeIPBlocked, ce.Type)

	// A different IP is unaffected
	_, err = svc.Check(userA, "198.51.100.2")
	assert.NoError(t, err)
}

func TestRateLimitGlobalOverload(t *testing.T) {
	store := quietRateStore()
	svc := NewRateLimitService(RateProfile{
		Name:   "test",
		User:   ScopeConfig{MaxRequests: 100, Window: time.Minute, BlockDuration: 5 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 100, Window: time.Minute, BlockDuration: 10 * time.Minute},
		Global: ScopeConfig{MaxRequests: 2, Window: time.Minute},
	}, store, 0)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := svc.Check(uuid.New(), fmt.Sprintf("10.1.0.%d", i))
		assert.NoError(t, err)
	}

	// Over capacity: even a brand new caller is turned away
	_, err := svc.Check(uuid.New(), "10.9.9.9")
	ce := asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeServerOverloaded, ce.Type)
	assert.Equal(t, 503, ce.StatusCode)
	assert.Equal(t, 60, ce.RetryAfter)

	// No block row is ever written for the global scope
	store.AssertNotCalled(t, "UpsertBlockDB", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// The window lapsing clears the overload
	now = now.Add(61 * time.Second)
	_, err = svc.Check(uuid.New(), "10.9.9.9")
	assert.NoError(t, err)
}

func TestRateLimitDurableBlockSurvivesRestart(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	blockedUntil := now.Add(4 * time.Minute)

	store := new(MockRateLimitStore)
	store.On("GetActiveBlockDB", models.RateLimitIPMinute, mock.Anything, mock.Anything).Return(nil, nil)
	store.On("GetActiveBlockDB", models.RateLimitUserMinute, userID.String(), mock.Anything).Return(&models.RateLimitStat{
		Type:         models.RateLimitUserMinute,
		Identifier:   userID.String(),
		PeriodStart:  now.Add(-30 * time.Second),
		Count:        11,
		BlockedUntil: &blockedUntil,
	}, nil)

	svc := NewRateLimitService(StandardProfile(), store, 0)
	svc.nowFn = func() time.Time { return now }

	_, err := svc.Check(userID, "10.0.0.1")
	ce := asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeUserBlocked, ce.Type)
	assert.Equal(t, 240, ce.RetryAfter)

	// The block is mirrored in memory, so the store is not asked again
	_, err = svc.Check(userID, "10.0.0.1")
	ce = asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeUserBlocked, ce.Type)
	store.AssertNumberOfCalls(t, "GetActiveBlockDB", 2)
}

func TestRateLimitStoreOutageFailsOpen(t *testing.T) {
	store := new(MockRateLimitStore)
	store.On("GetActiveBlockDB", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)
	store.On("UpsertBlockDB", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	svc := NewRateLimitService(RateProfile{
		Name:   "test",
		User:   ScopeConfig{MaxRequests: 2, Window: time.Minute, BlockDuration: 5 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 100, Window: time.Minute, BlockDuration: 10 * time.Minute},
		Global: ScopeConfig{MaxRequests: 1000, Window: time.Minute},
	}, store, 0)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	userID := uuid.New()

	// Store failures never deny a request under the limit
	for i := 0; i < 2; i++ {
		_, err := svc.Check(userID, "10.0.0.1")
		assert.NoError(t, err)
	}

	// The in-memory window still enforces the cap
	_, err := svc.Check(userID, "10.0.0.1")
	ce := asCustomError(t, err)
	assert.Equal(t, errors.ErrorTypeRateLimited, ce.Type)
}

func TestRateLimitWindowReset(t *testing.T) {
	store := quietRateStore()
	svc := NewRateLimitService(RateProfile{
		Name:   "test",
		User:   ScopeConfig{MaxRequests: 2, Window: time.Minute, BlockDuration: 5 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 100, Window: time.Minute, BlockDuration: 10 * time.Minute},
		Global: ScopeConfig{MaxRequests: 1000, Window: time.Minute},
	}, store, 0)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	userID := uuid.New()

	for i := 0; i < 2; i++ {
		_, err := svc.Check(userID, "10.0.0.1")
		assert.NoError(t, err)
	}

	now = now.Add(61 * time.Second)
	headers, err := svc.Check(userID, "10.0.0.1")
	assert.NoError(t, err)
	assert.Equal(t, 1, headers.Remaining)
}

func TestRateLimitSweep(t *testing.T) {
	store := quietRateStore()
	svc := NewRateLimitService(RateProfile{
		Name:   "test",
		User:   ScopeConfig{MaxRequests: 1, Window: time.Minute, BlockDuration: 10 * time.Minute},
		IP:     ScopeConfig{MaxRequests: 100, Window: time.Minute, BlockDuration: 10 * time.Minute},
		Global: ScopeConfig{MaxRequests: 1000, Window: time.Minute},
	}, store, 0)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	blockedUser := uuid.New()
	svc.Check(blockedUser, "10.0.0.1")
	svc.Check(blockedUser, "10.0.0.1") // trips the user block
	svc.Check(uuid.New(), "10.0.0.2")

	snap := svc.Snapshot()
	assert.Equal(t, "test", snap.Profile)
	assert.Equal(t, 5, snap.TrackedScopes) // global, 2 IPs, 2 users
	assert.Equal(t, 1, snap.ActiveBlocks["user"])

	// Two minutes on: windows are over but the block is not
	now = now.Add(2 * time.Minute)
	svc.SweepExpired()

	snap = svc.Snapshot()
	assert.Equal(t, 1, snap.TrackedScopes)
	assert.Equal(t, 1, snap.ActiveBlocks["user"])

	// After the block lapses the entry goes too
	now = now.Add(10 * time.Minute)
	svc.SweepExpired()
	assert.Equal(t, 0, svc.Snapshot().TrackedScopes)
}

func TestRateProfiles(t *testing.T) {
	std := StandardProfile()
	assert.Equal(t, 10, std.User.MaxRequests)
	assert.Equal(t, time.Minute, std.User.Window)
	assert.Equal(t, 5*time.Minute, std.User.BlockDuration)
	assert.Equal(t, 20, std.IP.MaxRequests)
	assert.Equal(t, 10*time.Minute, std.IP.BlockDuration)
	assert.Equal(t, 100, std.Global.MaxRequests)
	assert.Zero(t, std.Global.BlockDuration)

	strict := StrictProfile()
	assert.Equal(t, 5, strict.User.MaxRequests)
	assert.Equal(t, 15*time.Minute, strict.User.BlockDuration)
	assert.Equal(t, 10, strict.IP.MaxRequests)
	assert.Equal(t, 50, strict.Global.MaxRequests)
}
