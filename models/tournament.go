package models

import (
	"time"

	"gorm.io/gorm"
)

// Tournament formats (sets required to win: best-of-3 → 2, best-of-5 → 3).
const (
	FormatBestOfThree = "best-of-3"
	FormatBestOfFive  = "best-of-5"
)

// Tournament statuses.
const (
	TournamentStatusDraft    = "draft"
	TournamentStatusActive   = "active"
	TournamentStatusArchived = "archived"
)

// Match statuses.
const (
	MatchStatusPending   = "pending"
	MatchStatusFinalized = "finalized"
)

// PlaceholderName marks a bracket slot whose player is not yet known.
const PlaceholderName = "TBD"

// Tournament owns the rounds of one draw upload.
type Tournament struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"not null"`
	Slug         string     `json:"slug" gorm:"uniqueIndex;not null"`
	Year         int        `json:"year"`
	Format       string     `json:"format" gorm:"type:varchar(16);default:'best-of-3'"`
	Status       string     `json:"status" gorm:"type:varchar(16);default:'draft'"`
	CurrentRound int        `json:"current_round" gorm:"default:0"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	// R2 URL of the raw draw payload this tournament was committed from.
	DrawArchiveURL string `json:"draw_archive_url,omitempty"`

	Rounds []Round `json:"rounds,omitempty" gorm:"foreignKey:TournamentID"`

	Timestamps
}

// SetsToWin returns the set count a winner must reach under the format.
func (t *Tournament) SetsToWin() int {
	if t.Format == FormatBestOfFive {
		return 3
	}
	return 2
}

// Round is one elimination depth of a tournament. RoundNumber is 1-based and
// increases toward the final. At most one round per tournament is active;
// AdminService enforces that procedurally, the schema does not.
type Round struct {
	ID           string `json:"id" gorm:"primaryKey"`
	TournamentID string `json:"tournament_id" gorm:"not null;index:idx_rounds_tournament_number,unique"`
	RoundNumber  int    `json:"round_number" gorm:"not null;index:idx_rounds_tournament_number,unique"`
	Name         string `json:"name" gorm:"not null"`
	IsActive     bool   `json:"is_active" gorm:"default:false"`
	IsFinalized  bool   `json:"is_finalized" gorm:"default:false"`

	OpensAt             *time.Time `json:"opens_at,omitempty"`
	Deadline            *time.Time `json:"deadline,omitempty"`
	SubmissionsClosedAt *time.Time `json:"submissions_closed_at,omitempty"`
	SubmissionsClosedBy string     `json:"submissions_closed_by,omitempty"`

	Matches     []Match      `json:"matches,omitempty" gorm:"foreignKey:RoundID"`
	ScoringRule *ScoringRule `json:"scoring_rule,omitempty" gorm:"foreignKey:RoundID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ScoringRule holds the point values for one round. The exact-score bonus is
// only ever paid on top of a correct winner.
type ScoringRule struct {
	ID               string `json:"id" gorm:"primaryKey"`
	RoundID          string `json:"round_id" gorm:"uniqueIndex;not null"`
	PointsPerWinner  int    `json:"points_per_winner" gorm:"default:10"`
	PointsExactScore int    `json:"points_exact_score" gorm:"default:5"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Match is one bracket position. MatchNumber is 1-based within the round and
// determines the next-round slot: match M feeds match ceil(M/2) of round+1,
// player1 slot when M is odd, player2 slot when M is even.
//
// Player1SourceMatchID / Player2SourceMatchID record which match propagated
// the name into the slot, so an unfinalize can retract exactly what it wrote.
type Match struct {
	ID          string `json:"id" gorm:"primaryKey"`
	RoundID     string `json:"round_id" gorm:"not null;index:idx_matches_round_number,unique"`
	MatchNumber int    `json:"match_number" gorm:"not null;index:idx_matches_round_number,unique"`

	Player1Name string `json:"player1_name" gorm:"default:'TBD'"`
	Player1Seed *int   `json:"player1_seed,omitempty"`
	Player2Name string `json:"player2_name" gorm:"default:'TBD'"`
	Player2Seed *int   `json:"player2_seed,omitempty"`

	Player1SourceMatchID *string `json:"player1_source_match_id,omitempty"`
	Player2SourceMatchID *string `json:"player2_source_match_id,omitempty"`

	Status       string `json:"status" gorm:"type:varchar(16);default:'pending'"`
	WinnerName   string `json:"winner_name,omitempty"`
	FinalScore   string `json:"final_score,omitempty"`
	SetsWon      *int   `json:"sets_won,omitempty"`
	SetsLost     *int   `json:"sets_lost,omitempty"`
	IsBye        bool   `json:"is_bye" gorm:"default:false"`
	IsRetirement bool   `json:"is_retirement" gorm:"default:false"`

	FinalizedBy string     `json:"finalized_by,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// HasResult reports whether the match carries a complete, scoreable result.
func (m *Match) HasResult() bool {
	return m.WinnerName != "" && m.SetsWon != nil && m.SetsLost != nil
}
