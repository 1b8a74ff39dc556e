package models

import (
	"time"
)

// UserRoundPick is one user's pick sheet for one round. The (user, round)
// pair is unique; that constraint doubles as the idempotency guard against
// duplicate final submissions. The cached aggregates are written only by the
// scoring engine.
type UserRoundPick struct {
	ID      string `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"not null;index:idx_user_round,unique"`
	RoundID string `json:"round_id" gorm:"not null;index:idx_user_round,unique"`

	IsDraft     bool       `json:"is_draft" gorm:"default:true"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	TotalPoints    int        `json:"total_points" gorm:"default:0"`
	CorrectWinners int        `json:"correct_winners" gorm:"default:0"`
	ExactScores    int        `json:"exact_scores" gorm:"default:0"`
	ScoredAt       *time.Time `json:"scored_at,omitempty"`

	MatchPicks []MatchPick `json:"match_picks,omitempty" gorm:"foreignKey:UserRoundPickID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// MatchPick is one predicted match outcome. Correctness flags are nil until
// the match is scored; a retirement leaves them nil with zero points.
type MatchPick struct {
	ID              string `json:"id" gorm:"primaryKey"`
	UserRoundPickID string `json:"user_round_pick_id" gorm:"not null;index:idx_pick_match,unique"`
	MatchID         string `json:"match_id" gorm:"not null;index:idx_pick_match,unique"`

	PredictedWinner   string `json:"predicted_winner" gorm:"not null"`
	PredictedSetsWon  int    `json:"predicted_sets_won"`
	PredictedSetsLost int    `json:"predicted_sets_lost"`

	IsWinnerCorrect *bool `json:"is_winner_correct,omitempty"`
	IsExactScore    *bool `json:"is_exact_score,omitempty"`
	PointsEarned    int   `json:"points_earned" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
