package services

import (
	"errors"
	"time"

	"recipe_reel_go_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterKey identifies one durable counter row.
type CounterKey struct {
	Type        string
	Identifier  string
	PeriodStart time.Time
}

// RateLimitStoreDB is the durable side of both the rate gate (block records)
// and the cost gate (period counters).
type RateLimitStoreDB interface {
	GetActiveBlockDB(scopeType, identifier string, now time.Time) (*models.RateLimitStat, error)
	UpsertBlockDB(scopeType, identifier string, periodStart time.Time, count int, blockedUntil time.Time) error
	GetCounterDB(key CounterKey) (int, error)
	IncrementCountersDB(keys []CounterKey) error
	DeleteOldRowsDB(cutoff time.Time) (int64, error)
}

// DefaultRateLimitStore implements RateLimitStoreDB
type DefaultRateLimitStore struct {
	db *gorm.DB
}

func NewRateLimitStoreDB(db *gorm.DB) RateLimitStoreDB {
	return &DefaultRateLimitStore{db: db}
}

// GetActiveBlockDB returns the current block row for a scope/identifier, or
// nil when none is in force.
func (s *DefaultRateLimitStore) GetActiveBlockDB(scopeType, identifier string, now time.Time) (*models.RateLimitStat, error) {
	var stat models.RateLimitStat
	err := s.db.
		Where("type = ? AND identifier = ? AND blocked_until > ?", scopeType, identifier, now).
		Order("blocked_until DESC").
		First(&stat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stat, nil
}

// UpsertBlockDB records a block on the row for (type, identifier,
// period_start), creating it when missing.
func (s *DefaultRateLimitStore) UpsertBlockDB(scopeType, identifier string, periodStart time.Time, count int, blockedUntil time.Time) error {
	stat := models.RateLimitStat{
		Type:         scopeType,
		Identifier:   identifier,
		PeriodStart:  periodStart,
		Count:        count,
		BlockedUntil: &blockedUntil,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "type"}, {Name: "identifier"}, {Name: "period_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":         count,
			"blocked_until": blockedUntil,
			"updated_at":    time.Now(),
		}),
	}).Create(&stat).Error
}

// GetCounterDB reads one counter, creating the row at count 0 when absent.
func (s *DefaultRateLimitStore) GetCounterDB(key CounterKey) (int, error) {
	stat := models.RateLimitStat{
		Type:        key.Type,
		Identifier:  key.Identifier,
		PeriodStart: key.PeriodStart,
	}
	err := s.db.
		Where("type = ? AND identifier = ? AND period_start = ?", key.Type, key.Identifier, key.PeriodStart).
		FirstOrCreate(&stat).Error
	if err != nil {
		return 0, err
	}
	return stat.Count, nil
}

// IncrementCountersDB bumps every key by one in a single upsert statement:
// a fresh period inserts at 1, an existing row increments in place.
func (s *DefaultRateLimitStore) IncrementCountersDB(keys []CounterKey) error {
	if len(keys) == 0 {
		return nil
	}
	rows := make([]models.RateLimitStat, len(keys))
	for i, key := range keys {
		rows[i] = models.RateLimitStat{
			Type:        key.Type,
			Identifier:  key.Identifier,
			PeriodStart: key.PeriodStart,
			Count:       1,
		}
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "type"}, {Name: "identifier"}, {Name: "period_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&rows).Error
}

// DeleteOldRowsDB drops rows whose period started before the cutoff. Blocks
// still in force are kept regardless of age.
func (s *DefaultRateLimitStore) DeleteOldRowsDB(cutoff time.Time) (int64, error) {
	result := s.db.
		Where("period_start < ? AND (blocked_until IS NULL OR blocked_until < ?)", cutoff, time.Now()).
		Delete(&models.RateLimitStat{})
	return result.RowsAffected, result.Error
}
