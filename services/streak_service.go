package services

import (
	"errors"
	"fmt"

	"tennis-pickem-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakService maintains each user's consecutive-correct-pick counter.
// The row is global per user. Two matches finalizing at once can both touch
// the same user, so the read-modify-write runs under a row lock.
type StreakService struct {
	DB *gorm.DB
}

func NewStreakService(db *gorm.DB) *StreakService {
	return &StreakService{DB: db}
}

// ApplyMatchResult folds one scored pick result into the user's streak and
// returns the updated row. Must be called inside the scoring transaction.
// Retirement matches never reach this method.
func (s *StreakService) ApplyMatchResult(tx *gorm.DB, userID, matchID string, correct bool) (*models.UserStreak, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		// SQLite (the test backend) has no SELECT ... FOR UPDATE.
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var streak models.UserStreak
	err := q.Where("user_id = ?", userID).First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		streak = models.UserStreak{
			ID:          uuid.NewString(),
			UserID:      userID,
			LastMatchID: matchID,
		}
		if correct {
			streak.CurrentStreak = 1
			streak.LongestStreak = 1
		}
		if err := tx.Create(&streak).Error; err != nil {
			return nil, fmt.Errorf("failed to create streak for user %s: %w", userID, err)
		}
		return &streak, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load streak for user %s: %w", userID, err)
	}

	if correct {
		streak.CurrentStreak++
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
	} else {
		streak.CurrentStreak = 0
	}
	streak.LastMatchID = matchID

	if err := tx.Save(&streak).Error; err != nil {
		return nil, fmt.Errorf("failed to update streak for user %s: %w", userID, err)
	}
	return &streak, nil
}

// GetByUser returns the user's streak row, or a zero-valued one if the user
// has never been scored.
func (s *StreakService) GetByUser(userID string) (*models.UserStreak, error) {
	var streak models.UserStreak
	err := s.DB.Where("user_id = ?", userID).First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserStreak{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}
