package services

import (
	"testing"

	"tennis-pickem-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreakSeedOnFirstResult(t *testing.T) {
	db := openTestDB(t)
	svc := NewStreakService(db)
	user := createUser(t, db, "fresh")

	streak, err := svc.ApplyMatchResult(db, user.ID, "m1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 1, streak.LongestStreak)
	assert.Equal(t, "m1", streak.LastMatchID)
}

func TestStreakSeedOnFirstMiss(t *testing.T) {
	db := openTestDB(t)
	svc := NewStreakService(db)
	user := createUser(t, db, "missed")

	streak, err := svc.ApplyMatchResult(db, user.ID, "m1", false)
	require.NoError(t, err)
	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Equal(t, 0, streak.LongestStreak)
}

func TestStreakIncrementAndReset(t *testing.T) {
	db := openTestDB(t)
	svc := NewStreakService(db)
	user := createUser(t, db, "streaker")

	for i, correct := range []bool{true, true, true, false, true} {
		_, err := svc.ApplyMatchResult(db, user.ID, uuid.NewString(), correct)
		require.NoError(t, err, "result %d", i)
	}

	streak, err := svc.GetByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 3, streak.LongestStreak, "longest survives the reset")
}

func TestStreakGetByUserZeroValued(t *testing.T) {
	db := openTestDB(t)
	svc := NewStreakService(db)

	streak, err := svc.GetByUser("never-scored")
	require.NoError(t, err)
	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Equal(t, 0, streak.LongestStreak)
}

func TestStreakAchievementThresholds(t *testing.T) {
	db := openTestDB(t)
	streaks := NewStreakService(db)
	achievements := NewAchievementService(db)
	user := createUser(t, db, "onfire")

	for i := 0; i < 10; i++ {
		streak, err := streaks.ApplyMatchResult(db, user.ID, uuid.NewString(), true)
		require.NoError(t, err)
		require.NoError(t, achievements.EvaluateStreak(db, user.ID, streak.CurrentStreak, "", ""))
	}

	var unlocked []models.UserAchievement
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&unlocked).Error)
	codes := make(map[string]int)
	for _, ua := range unlocked {
		codes[ua.AchievementCode]++
	}
	assert.Equal(t, 1, codes[models.AchievementStreakFive], "awarded once despite re-triggering")
	assert.Equal(t, 1, codes[models.AchievementStreakTen])
}
