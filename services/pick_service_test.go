package services

import (
	"testing"
	"time"

	"tennis-pickem-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func activeRound(t *testing.T, db *gorm.DB, tournament *models.Tournament) *models.Round {
	t.Helper()
	round := tournament.Rounds[0]
	require.NoError(t, db.Model(&round).Update("is_active", true).Error)
	round.IsActive = true
	return &round
}

func TestSavePicksDraftThenSubmit(t *testing.T) {
	db := openTestDB(t)
	svc := NewPickService(db, NewAchievementService(db))

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{2},
		bracketSpec{1, 1, "Alcaraz", "Rune"},
		bracketSpec{1, 2, "Sinner", "Zverev"},
	)
	round := activeRound(t, db, tournament)
	m1 := matchAt(t, db, round.ID, 1)
	m2 := matchAt(t, db, round.ID, 2)
	user := createUser(t, db, "picker")

	// Partial draft is fine.
	sheet, err := svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 2, PredictedSetsLost: 0},
	}, false)
	require.NoError(t, err)
	assert.True(t, sheet.IsDraft)
	assert.Len(t, sheet.MatchPicks, 1)

	// Draft resave replaces the sheet wholesale.
	sheet, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Rune", PredictedSetsWon: 2, PredictedSetsLost: 1},
		{MatchID: m2.ID, PredictedWinner: "Sinner", PredictedSetsWon: 2, PredictedSetsLost: 0},
	}, false)
	require.NoError(t, err)
	require.Len(t, sheet.MatchPicks, 2)

	var stored []models.MatchPick
	require.NoError(t, db.Where("user_round_pick_id = ?", sheet.ID).Find(&stored).Error)
	assert.Len(t, stored, 2)

	// Submitting locks it.
	sheet, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Rune", PredictedSetsWon: 2, PredictedSetsLost: 1},
		{MatchID: m2.ID, PredictedWinner: "Sinner", PredictedSetsWon: 2, PredictedSetsLost: 0},
	}, true)
	require.NoError(t, err)
	assert.False(t, sheet.IsDraft)
	require.NotNil(t, sheet.SubmittedAt)

	_, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 2, PredictedSetsLost: 0},
	}, false)
	assert.ErrorIs(t, err, ErrPickAlreadySubmitted)

	// First final submission unlocks First Serve.
	var count int64
	require.NoError(t, db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_code = ?", user.ID, models.AchievementFirstPick).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSavePicksSubmitRequiresFullSheet(t *testing.T) {
	db := openTestDB(t)
	svc := NewPickService(db, NewAchievementService(db))

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{2},
		bracketSpec{1, 1, "Alcaraz", "Rune"},
		bracketSpec{1, 2, "Sinner", "Zverev"},
	)
	round := activeRound(t, db, tournament)
	m1 := matchAt(t, db, round.ID, 1)
	user := createUser(t, db, "hasty")

	_, err := svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 2, PredictedSetsLost: 0},
	}, true)
	assert.ErrorIs(t, err, ErrPickIncomplete)
}

func TestSavePicksByesAreNotPickable(t *testing.T) {
	db := openTestDB(t)
	svc := NewPickService(db, NewAchievementService(db))

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{2},
		bracketSpec{1, 1, "Alcaraz", "Rune"},
		bracketSpec{1, 2, "Sinner", "BYE"},
	)
	round := activeRound(t, db, tournament)
	m1 := matchAt(t, db, round.ID, 1)
	m2 := matchAt(t, db, round.ID, 2)
	require.NoError(t, db.Model(m2).Update("is_bye", true).Error)
	user := createUser(t, db, "byepicker")

	_, err := svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m2.ID, PredictedWinner: "Sinner", PredictedSetsWon: 2, PredictedSetsLost: 0},
	}, false)
	assert.ErrorIs(t, err, ErrByeMatchImmutable)

	// A full submit only needs the one non-bye match.
	sheet, err := svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 2, PredictedSetsLost: 1},
	}, true)
	require.NoError(t, err)
	assert.False(t, sheet.IsDraft)
}

func TestSavePicksValidation(t *testing.T) {
	db := openTestDB(t)
	svc := NewPickService(db, NewAchievementService(db))

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{1},
		bracketSpec{1, 1, "Alcaraz", "Rune"},
	)
	round := activeRound(t, db, tournament)
	m1 := matchAt(t, db, round.ID, 1)
	user := createUser(t, db, "validator")

	_, err := svc.savePicks(user.ID, "no-such-round", nil, false)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	_, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: "foreign-match", PredictedWinner: "Alcaraz", PredictedSetsWon: 2},
	}, false)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Nadal", PredictedSetsWon: 2},
	}, false)
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)

	// Predicted set score must fit the format.
	_, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 3, PredictedSetsLost: 0},
	}, false)
	assert.ErrorIs(t, err, ErrPredictedSetScore)

	_, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 2, PredictedSetsLost: 2},
	}, false)
	assert.ErrorIs(t, err, ErrPredictedSetScore)

	// Duplicate picks for one match are rejected.
	_, err = svc.savePicks(user.ID, round.ID, []PickEntry{
		{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 2, PredictedSetsLost: 0},
		{MatchID: m1.ID, PredictedWinner: "Rune", PredictedSetsWon: 2, PredictedSetsLost: 1},
	}, false)
	assert.ErrorIs(t, err, ErrPickIncomplete)
}

func TestSavePicksClosedRound(t *testing.T) {
	db := openTestDB(t)
	svc := NewPickService(db, NewAchievementService(db))

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{1},
		bracketSpec{1, 1, "Alcaraz", "Rune"},
	)
	round := tournament.Rounds[0]
	m1 := matchAt(t, db, round.ID, 1)
	user := createUser(t, db, "latecomer")
	entry := []PickEntry{{MatchID: m1.ID, PredictedWinner: "Alcaraz", PredictedSetsWon: 2, PredictedSetsLost: 0}}

	// Inactive round.
	_, err := svc.savePicks(user.ID, round.ID, entry, false)
	assert.ErrorIs(t, err, ErrRoundNotActive)

	// Active but administratively closed.
	now := time.Now()
	require.NoError(t, db.Model(&round).Updates(map[string]interface{}{
		"is_active":             true,
		"submissions_closed_at": now,
	}).Error)
	_, err = svc.savePicks(user.ID, round.ID, entry, false)
	assert.ErrorIs(t, err, ErrSubmissionsClosed)

	// Active with an expired deadline.
	past := now.Add(-time.Hour)
	require.NoError(t, db.Model(&round).Updates(map[string]interface{}{
		"submissions_closed_at": nil,
		"deadline":              past,
	}).Error)
	_, err = svc.savePicks(user.ID, round.ID, entry, false)
	assert.ErrorIs(t, err, ErrSubmissionsClosed)
}
