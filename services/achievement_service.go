package services

import (
	"fmt"
	"log"
	"time"

	"tennis-pickem-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementService evaluates and awards achievements. Awards are
// idempotent: (user, code) is unique and a re-triggered threshold is a
// no-op, never an error.
type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// SeedDefinitions inserts any catalog entry not present yet. Called once at
// startup; existing rows are left untouched.
func SeedDefinitions(db *gorm.DB) error {
	for _, def := range models.AchievementCatalog {
		var count int64
		if err := db.Model(&models.AchievementDefinition{}).
			Where("code = ?", def.Code).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check achievement %s: %w", def.Code, err)
		}
		if count > 0 {
			continue
		}
		def.ID = uuid.NewString()
		if err := db.Create(&def).Error; err != nil {
			return fmt.Errorf("failed to seed achievement %s: %w", def.Code, err)
		}
	}
	return nil
}

// Award unlocks an achievement for a user unless already unlocked. Returns
// whether a new row was created.
func (s *AchievementService) Award(tx *gorm.DB, userID, code, tournamentID, roundID string) (bool, error) {
	var count int64
	if err := tx.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_code = ?", userID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	ua := models.UserAchievement{
		ID:              uuid.NewString(),
		UserID:          userID,
		AchievementCode: code,
		TournamentID:    tournamentID,
		RoundID:         roundID,
	}
	if err := tx.Create(&ua).Error; err != nil {
		return false, fmt.Errorf("failed to award %s to %s: %w", code, userID, err)
	}
	log.Printf("[ACHIEVEMENT] %s unlocked for user %s", code, userID)
	return true, nil
}

// EvaluateStreak awards any streak-category achievement whose threshold the
// current streak has reached.
func (s *AchievementService) EvaluateStreak(tx *gorm.DB, userID string, currentStreak int, tournamentID, roundID string) error {
	var defs []models.AchievementDefinition
	if err := tx.Where("category = ? AND threshold > 0 AND threshold <= ?",
		models.AchievementCategoryStreak, currentStreak).
		Find(&defs).Error; err != nil {
		return err
	}
	for _, def := range defs {
		if _, err := s.Award(tx, userID, def.Code, tournamentID, roundID); err != nil {
			return err
		}
	}
	return nil
}

// EvaluateRound runs the round-category checks once a round is fully
// finalized: Perfect Round (every scoreable match called correctly) and
// Exact Master (three exact scores in the round).
func (s *AchievementService) EvaluateRound(tx *gorm.DB, round *models.Round) error {
	var scoreable int64
	if err := tx.Model(&models.Match{}).
		Where("round_id = ? AND is_bye = ?", round.ID, false).
		Count(&scoreable).Error; err != nil {
		return err
	}

	var sheets []models.UserRoundPick
	if err := tx.Where("round_id = ? AND is_draft = ?", round.ID, false).
		Find(&sheets).Error; err != nil {
		return err
	}

	var exactMaster models.AchievementDefinition
	if err := tx.Where("code = ?", models.AchievementExactMaster).
		First(&exactMaster).Error; err != nil {
		return err
	}

	for _, sheet := range sheets {
		if scoreable > 0 && int64(sheet.CorrectWinners) == scoreable {
			if _, err := s.Award(tx, sheet.UserID, models.AchievementPerfectRound, round.TournamentID, round.ID); err != nil {
				return err
			}
		}
		if exactMaster.Threshold > 0 && sheet.ExactScores >= exactMaster.Threshold {
			if _, err := s.Award(tx, sheet.UserID, models.AchievementExactMaster, round.TournamentID, round.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateMilestones runs after a user submits a final pick sheet: first
// submission ever, and rounds played across five distinct tournaments.
func (s *AchievementService) EvaluateMilestones(tx *gorm.DB, userID string) error {
	var submitted int64
	if err := tx.Model(&models.UserRoundPick{}).
		Where("user_id = ? AND is_draft = ?", userID, false).
		Count(&submitted).Error; err != nil {
		return err
	}
	if submitted >= 1 {
		if _, err := s.Award(tx, userID, models.AchievementFirstPick, "", ""); err != nil {
			return err
		}
	}

	var tournaments int64
	err := tx.Model(&models.UserRoundPick{}).
		Joins("JOIN rounds ON rounds.id = user_round_picks.round_id").
		Where("user_round_picks.user_id = ? AND user_round_picks.is_draft = ?", userID, false).
		Distinct("rounds.tournament_id").
		Count(&tournaments).Error
	if err != nil {
		return err
	}
	if tournaments >= 5 {
		if _, err := s.Award(tx, userID, models.AchievementSeasonVeteran, "", ""); err != nil {
			return err
		}
	}
	return nil
}

// UnlockedAchievement is the read shape for a user's achievement list.
type UnlockedAchievement struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	TournamentID string    `json:"tournament_id,omitempty"`
	RoundID      string    `json:"round_id,omitempty"`
	UnlockedAt   time.Time `json:"unlocked_at"`
}

// ListForUser returns a user's unlocked achievements joined to their
// definitions, newest first.
func (s *AchievementService) ListForUser(userID string) ([]UnlockedAchievement, error) {
	var rows []UnlockedAchievement
	err := s.DB.Model(&models.UserAchievement{}).
		Select("user_achievements.achievement_code AS code, achievement_definitions.name, achievement_definitions.description, achievement_definitions.category, user_achievements.tournament_id, user_achievements.round_id, user_achievements.unlocked_at").
		Joins("JOIN achievement_definitions ON achievement_definitions.code = user_achievements.achievement_code").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.unlocked_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
