package services

import (
	"errors"
	"fmt"
	"time"

	"tennis-pickem-system/models"
	"tennis-pickem-system/utils"

	"gorm.io/gorm"
)

// ScoringService computes pick correctness and points when a match is
// finalized, and rolls the results up into each user's round aggregates.
// Scoring is deterministic: re-running without intervening mutation yields
// identical flags and points.
type ScoringService struct {
	DB           *gorm.DB
	Streaks      *StreakService
	Achievements *AchievementService
}

func NewScoringService(db *gorm.DB, streaks *StreakService, achievements *AchievementService) *ScoringService {
	return &ScoringService{DB: db, Streaks: streaks, Achievements: achievements}
}

// ScoreMatch scores every pick on a finalized match in its own transaction.
func (s *ScoringService) ScoreMatch(matchID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.ScoreMatchTx(tx, matchID)
	})
}

// ScoreMatchTx is the transactional body, exposed so orchestration can score
// inside a wider finalize transaction.
func (s *ScoringService) ScoreMatchTx(tx *gorm.DB, matchID string) error {
	var match models.Match
	if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: match %s", ErrMatchNotFound, matchID)
		}
		return err
	}
	if match.Status != models.MatchStatusFinalized {
		return fmt.Errorf("%w: match %s", ErrMatchNotFinalized, matchID)
	}
	if !match.HasResult() {
		return fmt.Errorf("%w: match %s", ErrMatchMissingResult, matchID)
	}

	var round models.Round
	if err := tx.First(&round, "id = ?", match.RoundID).Error; err != nil {
		return fmt.Errorf("failed to load round for match %s: %w", matchID, err)
	}
	rule, err := s.resolveRule(tx, &round)
	if err != nil {
		return err
	}

	var picks []models.MatchPick
	if err := tx.Where("match_id = ?", matchID).Find(&picks).Error; err != nil {
		return fmt.Errorf("failed to load picks for match %s: %w", matchID, err)
	}

	affected := make(map[string]bool)
	correctByPickSheet := make(map[string]bool, len(picks))
	for i := range picks {
		pick := &picks[i]
		affected[pick.UserRoundPickID] = true

		if match.IsRetirement {
			// A retired match is not predictively scored: flags go back to
			// null and points to zero, but aggregates still recompute.
			err = tx.Model(pick).Updates(map[string]interface{}{
				"is_winner_correct": nil,
				"is_exact_score":    nil,
				"points_earned":     0,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to reset retirement pick %s: %w", pick.ID, err)
			}
			continue
		}

		winnerCorrect := utils.NamesEqual(pick.PredictedWinner, match.WinnerName)
		exactScore := winnerCorrect &&
			pick.PredictedSetsWon == *match.SetsWon &&
			pick.PredictedSetsLost == *match.SetsLost

		points := 0
		if winnerCorrect {
			points += rule.Winner
		}
		if exactScore {
			points += rule.Exact
		}

		err = tx.Model(pick).Updates(map[string]interface{}{
			"is_winner_correct": winnerCorrect,
			"is_exact_score":    exactScore,
			"points_earned":     points,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to score pick %s: %w", pick.ID, err)
		}
		correctByPickSheet[pick.UserRoundPickID] = winnerCorrect
	}

	if err := s.recalcAggregates(tx, keys(affected)); err != nil {
		return err
	}

	if match.IsRetirement {
		return nil // streaks are explicitly untouched by retirements
	}

	for sheetID, correct := range correctByPickSheet {
		var sheet models.UserRoundPick
		if err := tx.First(&sheet, "id = ?", sheetID).Error; err != nil {
			return fmt.Errorf("failed to load pick sheet %s: %w", sheetID, err)
		}
		streak, err := s.Streaks.ApplyMatchResult(tx, sheet.UserID, match.ID, correct)
		if err != nil {
			return err
		}
		if correct {
			if err := s.Achievements.EvaluateStreak(tx, sheet.UserID, streak.CurrentStreak, round.TournamentID, round.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// UnscoreMatch resets every pick on the match to the unscored state and
// recomputes the affected aggregates. Streaks are NOT reversed: the streak
// is a running counter over finalization events, and unwinding it reliably
// would require replaying history.
func (s *ScoringService) UnscoreMatch(matchID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.UnscoreMatchTx(tx, matchID)
	})
}

func (s *ScoringService) UnscoreMatchTx(tx *gorm.DB, matchID string) error {
	var picks []models.MatchPick
	if err := tx.Where("match_id = ?", matchID).Find(&picks).Error; err != nil {
		return fmt.Errorf("failed to load picks for match %s: %w", matchID, err)
	}

	affected := make(map[string]bool)
	for i := range picks {
		affected[picks[i].UserRoundPickID] = true
		err := tx.Model(&picks[i]).Updates(map[string]interface{}{
			"is_winner_correct": nil,
			"is_exact_score":    nil,
			"points_earned":     0,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to unscore pick %s: %w", picks[i].ID, err)
		}
	}

	return s.recalcAggregates(tx, keys(affected))
}

// RescoreRound re-invokes scoring for every finalized, non-bye match of the
// round. Used after a scoring-rule correction.
func (s *ScoringService) RescoreRound(roundID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, "id = ?", roundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: round %s", ErrRoundNotFound, roundID)
			}
			return err
		}

		var matches []models.Match
		err := tx.Where("round_id = ? AND status = ? AND is_bye = ?",
			roundID, models.MatchStatusFinalized, false).
			Order("match_number ASC").
			Find(&matches).Error
		if err != nil {
			return err
		}
		for i := range matches {
			if err := s.ScoreMatchTx(tx, matches[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// recalcAggregates rebuilds the cached totals of the given pick sheets from
// their match picks and stamps scored_at.
func (s *ScoringService) recalcAggregates(tx *gorm.DB, sheetIDs []string) error {
	now := time.Now()
	for _, id := range sheetIDs {
		var agg struct {
			Total   int
			Winners int
			Exacts  int
		}
		err := tx.Model(&models.MatchPick{}).
			Select("COALESCE(SUM(points_earned), 0) AS total, "+
				"COALESCE(SUM(CASE WHEN is_winner_correct THEN 1 ELSE 0 END), 0) AS winners, "+
				"COALESCE(SUM(CASE WHEN is_exact_score THEN 1 ELSE 0 END), 0) AS exacts").
			Where("user_round_pick_id = ?", id).
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("failed to aggregate pick sheet %s: %w", id, err)
		}

		err = tx.Model(&models.UserRoundPick{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"total_points":    agg.Total,
				"correct_winners": agg.Winners,
				"exact_scores":    agg.Exacts,
				"scored_at":       now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update pick sheet %s: %w", id, err)
		}
	}
	return nil
}

// resolveRule returns the round's scoring rule, falling back to the default
// tier table keyed by the round's distance from the final.
func (s *ScoringService) resolveRule(tx *gorm.DB, round *models.Round) (RulePoints, error) {
	var rule models.ScoringRule
	err := tx.Where("round_id = ?", round.ID).First(&rule).Error
	if err == nil {
		return RulePoints{Winner: rule.PointsPerWinner, Exact: rule.PointsExactScore}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return RulePoints{}, err
	}

	var totalRounds int64
	if err := tx.Model(&models.Round{}).
		Where("tournament_id = ?", round.TournamentID).
		Count(&totalRounds).Error; err != nil {
		return RulePoints{}, err
	}
	if totalRounds == 0 {
		return RulePointsForName(round.Name), nil
	}
	return DefaultRulePoints(round.RoundNumber, int(totalRounds)), nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
