package services

import (
	"testing"

	"tennis-pickem-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefinitionsIdempotent(t *testing.T) {
	db := openTestDB(t) // seeds once already
	require.NoError(t, SeedDefinitions(db))

	var count int64
	require.NoError(t, db.Model(&models.AchievementDefinition{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.AchievementCatalog)), count)
}

func TestAwardIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewAchievementService(db)
	user := createUser(t, db, "collector")

	created, err := svc.Award(db, user.ID, models.AchievementPerfectRound, "t1", "r1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Award(db, user.ID, models.AchievementPerfectRound, "t2", "r2")
	require.NoError(t, err)
	assert.False(t, created, "second trigger is a no-op, not an error")

	var count int64
	require.NoError(t, db.Model(&models.UserAchievement{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEvaluateRoundPerfectAndExactMaster(t *testing.T) {
	db := openTestDB(t)
	svc := NewAchievementService(db)

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{4, 2},
		bracketSpec{1, 1, "A", "B"},
		bracketSpec{1, 2, "C", "D"},
		bracketSpec{1, 3, "E", "F"},
		bracketSpec{1, 4, "G", "BYE"},
	)
	round := tournament.Rounds[0]
	require.NoError(t, db.Model(&models.Match{}).
		Where("round_id = ? AND match_number = ?", round.ID, 4).
		Update("is_bye", true).Error)

	perfect := createUser(t, db, "perfect")
	exact := createUser(t, db, "exacting")
	partial := createUser(t, db, "partial")

	// Scoreable matches are the three non-byes.
	writeSheet := func(userID string, winners, exacts int) {
		sheet := models.UserRoundPick{
			ID:             uuid.NewString(),
			UserID:         userID,
			RoundID:        round.ID,
			IsDraft:        false,
			CorrectWinners: winners,
			ExactScores:    exacts,
		}
		require.NoError(t, db.Create(&sheet).Error)
	}
	writeSheet(perfect.ID, 3, 0)
	writeSheet(exact.ID, 3, 3)
	writeSheet(partial.ID, 2, 2)

	require.NoError(t, svc.EvaluateRound(db, &round))

	has := func(userID, code string) bool {
		var count int64
		require.NoError(t, db.Model(&models.UserAchievement{}).
			Where("user_id = ? AND achievement_code = ?", userID, code).
			Count(&count).Error)
		return count > 0
	}
	assert.True(t, has(perfect.ID, models.AchievementPerfectRound))
	assert.False(t, has(perfect.ID, models.AchievementExactMaster))
	assert.True(t, has(exact.ID, models.AchievementPerfectRound))
	assert.True(t, has(exact.ID, models.AchievementExactMaster))
	assert.False(t, has(partial.ID, models.AchievementPerfectRound))
	assert.False(t, has(partial.ID, models.AchievementExactMaster))
}

func TestEvaluateMilestones(t *testing.T) {
	db := openTestDB(t)
	svc := NewAchievementService(db)
	user := createUser(t, db, "veteran")

	submitSheet := func() {
		tournament := seedBracket(t, db, models.FormatBestOfThree, []int{1},
			bracketSpec{1, 1, "A", "B"},
		)
		createSheet(t, db, user.ID, tournament.Rounds[0].ID, false, nil)
	}

	submitSheet()
	require.NoError(t, svc.EvaluateMilestones(db, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_code = ?", user.ID, models.AchievementFirstPick).
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "first final submission unlocks First Serve")

	require.NoError(t, db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_code = ?", user.ID, models.AchievementSeasonVeteran).
		Count(&count).Error)
	assert.Equal(t, int64(0), count)

	for i := 0; i < 4; i++ {
		submitSheet()
	}
	require.NoError(t, svc.EvaluateMilestones(db, user.ID))

	require.NoError(t, db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_code = ?", user.ID, models.AchievementSeasonVeteran).
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "five distinct tournaments unlocks Season Veteran")
}

func TestListForUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewAchievementService(db)
	user := createUser(t, db, "lister")

	_, err := svc.Award(db, user.ID, models.AchievementFirstPick, "", "")
	require.NoError(t, err)
	_, err = svc.Award(db, user.ID, models.AchievementStreakFive, "t1", "r1")
	require.NoError(t, err)

	unlocked, err := svc.ListForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, unlocked, 2)
	for _, ua := range unlocked {
		assert.NotEmpty(t, ua.Name)
		assert.NotEmpty(t, ua.Category)
	}
}
