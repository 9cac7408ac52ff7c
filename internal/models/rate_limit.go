package models

import (
	"time"
)

// Rate-limit counter types. Minute scopes back the rate gate's durable block
// records; the daily/hourly scopes are the cost gate's counters.
const (
	RateLimitDailyGlobal  = "daily_global"
	RateLimitHourlyGlobal = "hourly_global"
	RateLimitDailyUser    = "daily_user"
	RateLimitIPMinute     = "ip_minute"
	RateLimitUserMinute   = "user_minute"
)

// RateLimitStat is one durable counter row. Identifier is "" for global
// scopes, the user id for user scopes and the IP literal for IP scopes.
type RateLimitStat struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Type         string     `gorm:"uniqueIndex:idx_rate_limit_period;not null" json:"type"`
	Identifier   string     `gorm:"uniqueIndex:idx_rate_limit_period" json:"identifier"`
	PeriodStart  time.Time  `gorm:"uniqueIndex:idx_rate_limit_period;not null" json:"period_start"`
	Count        int        `gorm:"default:0" json:"count"`
	BlockedUntil *time.Time `json:"blocked_until"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (RateLimitStat) TableName() string {
	return "rate_limit_stats"
}
