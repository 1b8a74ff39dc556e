package models

import (
	"time"
)

// Achievement categories.
const (
	AchievementCategoryRound     = "round"
	AchievementCategoryStreak    = "streak"
	AchievementCategoryMilestone = "milestone"
	AchievementCategorySpecial   = "special"
)

// Achievement codes awarded by the engine.
const (
	AchievementPerfectRound  = "PERFECT_ROUND"
	AchievementExactMaster   = "EXACT_MASTER"
	AchievementStreakFive    = "STREAK_5"
	AchievementStreakTen     = "STREAK_10"
	AchievementFirstPick     = "FIRST_PICK"
	AchievementSeasonVeteran = "SEASON_VETERAN"
)

// AchievementDefinition is a catalog entry. Threshold is the numeric trigger
// for streak/milestone categories; zero means the trigger is event-driven.
type AchievementDefinition struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Code        string `json:"code" gorm:"uniqueIndex;not null"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	Category    string `json:"category" gorm:"type:varchar(16);not null"`
	Threshold   int    `json:"threshold" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// UserAchievement is an unlocked instance. (user, achievement) is unique;
// re-triggering a met threshold is a no-op.
type UserAchievement struct {
	ID              string `json:"id" gorm:"primaryKey"`
	UserID          string `json:"user_id" gorm:"not null;index:idx_user_achievement,unique"`
	AchievementCode string `json:"achievement_code" gorm:"not null;index:idx_user_achievement,unique"`

	TournamentID string    `json:"tournament_id,omitempty"`
	RoundID      string    `json:"round_id,omitempty"`
	UnlockedAt   time.Time `json:"unlocked_at" gorm:"autoCreateTime"`
}

// AchievementCatalog is seeded into achievement_definitions at startup.
var AchievementCatalog = []AchievementDefinition{
	{
		Code:        AchievementPerfectRound,
		Name:        "Perfect Round",
		Description: "Called every match of a round correctly",
		Category:    AchievementCategoryRound,
	},
	{
		Code:        AchievementExactMaster,
		Name:        "Exact Master",
		Description: "Three exact-score predictions in a single round",
		Category:    AchievementCategoryRound,
		Threshold:   3,
	},
	{
		Code:        AchievementStreakFive,
		Name:        "On a Roll",
		Description: "Five correct winner picks in a row",
		Category:    AchievementCategoryStreak,
		Threshold:   5,
	},
	{
		Code:        AchievementStreakTen,
		Name:        "Clairvoyant",
		Description: "Ten correct winner picks in a row",
		Category:    AchievementCategoryStreak,
		Threshold:   10,
	},
	{
		Code:        AchievementFirstPick,
		Name:        "First Serve",
		Description: "Submitted your first final pick sheet",
		Category:    AchievementCategoryMilestone,
		Threshold:   1,
	},
	{
		Code:        AchievementSeasonVeteran,
		Name:        "Season Veteran",
		Description: "Played rounds in five different tournaments",
		Category:    AchievementCategoryMilestone,
		Threshold:   5,
	},
}
