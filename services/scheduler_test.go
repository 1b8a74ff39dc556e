package services

import (
	"testing"
	"time"

	"tennis-pickem-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoActivateRoundsPicksHighestDueRound(t *testing.T) {
	db := openTestDB(t)
	svc := newAdminService(db)

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{2, 1},
		bracketSpec{1, 1, "Alcaraz", "Rune"},
		bracketSpec{1, 2, "Sinner", "Zverev"},
		bracketSpec{2, 1, "Alcaraz", "Sinner"},
	)
	require.NoError(t, db.Model(&models.Round{}).
		Where("id = ?", tournament.Rounds[0].ID).
		Update("opens_at", time.Now().Add(-2*time.Hour)).Error)
	require.NoError(t, db.Model(&models.Round{}).
		Where("id = ?", tournament.Rounds[1].ID).
		Update("opens_at", time.Now().Add(-time.Hour)).Error)

	svc.autoActivateRounds(time.Now())

	var r1, r2 models.Round
	require.NoError(t, db.First(&r1, "id = ?", tournament.Rounds[0].ID).Error)
	require.NoError(t, db.First(&r2, "id = ?", tournament.Rounds[1].ID).Error)
	assert.False(t, r1.IsActive)
	assert.True(t, r2.IsActive, "the latest due round ends up active")

	var reloaded models.Tournament
	require.NoError(t, db.First(&reloaded, "id = ?", tournament.ID).Error)
	assert.Equal(t, 2, reloaded.CurrentRound)
}

func TestAutoCloseRoundsPastDeadline(t *testing.T) {
	db := openTestDB(t)
	svc := newAdminService(db)

	tournament := seedBracket(t, db, models.FormatBestOfThree, []int{1},
		bracketSpec{1, 1, "Alcaraz", "Sinner"},
	)
	round := tournament.Rounds[0]
	require.NoError(t, db.Model(&models.Round{}).
		Where("id = ?", round.ID).
		Updates(map[string]interface{}{
			"is_active": true,
			"deadline":  time.Now().Add(-time.Minute),
		}).Error)

	svc.autoCloseRounds(time.Now())

	var reloaded models.Round
	require.NoError(t, db.First(&reloaded, "id = ?", round.ID).Error)
	require.NotNil(t, reloaded.SubmissionsClosedAt)
	assert.Equal(t, "scheduler", reloaded.SubmissionsClosedBy)
}
