package services

import (
	"fmt"
	"testing"
	"time"

	"tennis-pickem-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns a fresh in-memory database with the full schema and
// the achievement catalog seeded.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.Round{},
		&models.ScoringRule{},
		&models.Match{},
		&models.UserRoundPick{},
		&models.MatchPick{},
		&models.UserStreak{},
		&models.AchievementDefinition{},
		&models.UserAchievement{},
	))
	require.NoError(t, SeedDefinitions(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := models.User{
		ID:       uuid.NewString(),
		Email:    username + "@example.com",
		Username: username,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

// bracketSpec describes one match to seed: round number, match number and
// the two slot names ("" means TBD).
type bracketSpec struct {
	round   int
	number  int
	player1 string
	player2 string
}

// seedBracket creates a tournament with the given rounds and matches.
// roundCounts[i] is the match count of round i+1; specs override slot names.
func seedBracket(t *testing.T, db *gorm.DB, format string, roundCounts []int, specs ...bracketSpec) *models.Tournament {
	t.Helper()
	tournament := models.Tournament{
		ID:     uuid.NewString(),
		Name:   "Test Open",
		Slug:   "test-open-" + uuid.NewString()[:8],
		Year:   2026,
		Format: format,
		Status: models.TournamentStatusActive,
	}
	require.NoError(t, db.Create(&tournament).Error)

	byKey := make(map[[2]int]bracketSpec, len(specs))
	for _, s := range specs {
		byKey[[2]int{s.round, s.number}] = s
	}

	for i, count := range roundCounts {
		round := models.Round{
			ID:           uuid.NewString(),
			TournamentID: tournament.ID,
			RoundNumber:  i + 1,
			Name:         fmt.Sprintf("Round %d", i+1),
		}
		require.NoError(t, db.Create(&round).Error)

		for n := 1; n <= count; n++ {
			match := models.Match{
				ID:          uuid.NewString(),
				RoundID:     round.ID,
				MatchNumber: n,
				Player1Name: models.PlaceholderName,
				Player2Name: models.PlaceholderName,
				Status:      models.MatchStatusPending,
			}
			if s, ok := byKey[[2]int{i + 1, n}]; ok {
				if s.player1 != "" {
					match.Player1Name = s.player1
				}
				if s.player2 != "" {
					match.Player2Name = s.player2
				}
			}
			require.NoError(t, db.Create(&match).Error)
			round.Matches = append(round.Matches, match)
		}
		tournament.Rounds = append(tournament.Rounds, round)
	}
	return &tournament
}

func matchAt(t *testing.T, db *gorm.DB, roundID string, number int) *models.Match {
	t.Helper()
	var m models.Match
	require.NoError(t, db.Where("round_id = ? AND match_number = ?", roundID, number).First(&m).Error)
	return &m
}

// finalizeInDB stamps a result directly, bypassing the admin flow, for
// tests that only care about downstream behavior.
func finalizeInDB(t *testing.T, db *gorm.DB, matchID, winner string, setsWon, setsLost int) *models.Match {
	t.Helper()
	var m models.Match
	require.NoError(t, db.First(&m, "id = ?", matchID).Error)
	now := time.Now()
	m.Status = models.MatchStatusFinalized
	m.WinnerName = winner
	m.SetsWon = &setsWon
	m.SetsLost = &setsLost
	m.FinalizedAt = &now
	require.NoError(t, db.Save(&m).Error)
	return &m
}

// createSheet creates a submitted (non-draft) pick sheet with the given
// picks, keyed match ID -> prediction.
type prediction struct {
	winner   string
	setsWon  int
	setsLost int
}

func createSheet(t *testing.T, db *gorm.DB, userID, roundID string, draft bool, picks map[string]prediction) *models.UserRoundPick {
	t.Helper()
	now := time.Now()
	sheet := models.UserRoundPick{
		ID:      uuid.NewString(),
		UserID:  userID,
		RoundID: roundID,
		IsDraft: draft,
	}
	if !draft {
		sheet.SubmittedAt = &now
	}
	require.NoError(t, db.Create(&sheet).Error)
	for matchID, p := range picks {
		pick := models.MatchPick{
			ID:                uuid.NewString(),
			UserRoundPickID:   sheet.ID,
			MatchID:           matchID,
			PredictedWinner:   p.winner,
			PredictedSetsWon:  p.setsWon,
			PredictedSetsLost: p.setsLost,
		}
		require.NoError(t, db.Create(&pick).Error)
	}
	return &sheet
}

func intPtr(n int) *int { return &n }
