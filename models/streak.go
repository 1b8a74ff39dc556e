package models

import (
	"time"
)

// UserStreak tracks a user's consecutive correct winner picks. The row is
// global per user, not per tournament; a streak survives across events.
// Updates happen under a row lock inside the scoring transaction, and
// retirements never touch the streak.
type UserStreak struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null"`

	CurrentStreak int `json:"current_streak" gorm:"default:0"`
	LongestStreak int `json:"longest_streak" gorm:"default:0"`

	// LastMatchID is the match whose result last moved the counter.
	LastMatchID string `json:"last_match_id,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
