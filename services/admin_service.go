package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tennis-pickem-system/models"
	"tennis-pickem-system/utils"

	"gorm.io/gorm"
)

// AdminService drives the tournament lifecycle: which round is open for
// picks, when submissions lock, and entering or reverting match results.
// Result entry fans out to scoring and bracket propagation inside one
// transaction, so a finalize either lands everywhere or nowhere.
type AdminService struct {
	DB          *gorm.DB
	Scoring     *ScoringService
	Propagation *PropagationService
	Streaks     *StreakService
	Achievement *AchievementService
}

func NewAdminService(db *gorm.DB, scoring *ScoringService, propagation *PropagationService, streaks *StreakService, achievements *AchievementService) *AdminService {
	return &AdminService{DB: db, Scoring: scoring, Propagation: propagation, Streaks: streaks, Achievement: achievements}
}

// MatchResult is the admin's result entry payload.
type MatchResult struct {
	WinnerName   string `json:"winner_name"`
	SetsWon      int    `json:"sets_won"`
	SetsLost     int    `json:"sets_lost"`
	FinalScore   string `json:"final_score,omitempty"`
	IsRetirement bool   `json:"is_retirement,omitempty"`
}

// SetActiveRound makes the given round the tournament's single active one.
// Only one round per tournament is ever active; every other round is
// deactivated in the same transaction. Activating a round also moves the
// tournament out of draft.
func (s *AdminService) SetActiveRound(tournamentID string, roundNumber int) (*models.Round, error) {
	var round models.Round
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrTournamentNotFound, tournamentID)
			}
			return err
		}

		err := tx.Where("tournament_id = ? AND round_number = ?", tournamentID, roundNumber).
			First(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: tournament %s has no round %d", ErrRoundNotFound, tournamentID, roundNumber)
		}
		if err != nil {
			return err
		}

		err = tx.Model(&models.Round{}).
			Where("tournament_id = ? AND is_active = ?", tournamentID, true).
			Update("is_active", false).Error
		if err != nil {
			return err
		}

		err = tx.Model(&round).Updates(map[string]interface{}{
			"is_active":             true,
			"submissions_closed_at": nil,
			"submissions_closed_by": "",
		}).Error
		if err != nil {
			return err
		}
		round.IsActive = true
		round.SubmissionsClosedAt = nil
		round.SubmissionsClosedBy = ""

		return tx.Model(&tournament).Updates(map[string]interface{}{
			"current_round": roundNumber,
			"status":        models.TournamentStatusActive,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ADMIN] round %d of tournament %s is now active", roundNumber, tournamentID)
	return &round, nil
}

// CloseRoundSubmissions locks the active round for picks and promotes every
// draft sheet to a final submission. Drafts are counted as submitted at
// close time; a user who never touched the round simply has no sheet.
func (s *AdminService) CloseRoundSubmissions(roundID, actor string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, "id = ?", roundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
			}
			return err
		}
		if !round.IsActive {
			return fmt.Errorf("%w: round %s", ErrRoundNotActive, roundID)
		}
		if round.SubmissionsClosedAt != nil {
			return fmt.Errorf("%w: round %s", ErrSubmissionsAlreadyClosed, roundID)
		}

		now := time.Now()
		err := tx.Model(&models.UserRoundPick{}).
			Where("round_id = ? AND is_draft = ?", roundID, true).
			Updates(map[string]interface{}{
				"is_draft":     false,
				"submitted_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to promote drafts for round %s: %w", roundID, err)
		}

		err = tx.Model(&round).Updates(map[string]interface{}{
			"submissions_closed_at": now,
			"submissions_closed_by": actor,
		}).Error
		if err != nil {
			return err
		}
		log.Printf("[ADMIN] submissions closed for round %s by %s", roundID, actor)
		return nil
	})
}

// FinalizeMatch records a match result, scores every pick on it, propagates
// the winner into the next round, and finalizes the round once its last
// match is in. Bye matches are immutable.
func (s *AdminService) FinalizeMatch(matchID string, result MatchResult, actor string) (*models.Match, error) {
	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
			}
			return err
		}
		if match.IsBye {
			return fmt.Errorf("%w: match %s", ErrByeMatchImmutable, matchID)
		}
		if match.Status == models.MatchStatusFinalized {
			return fmt.Errorf("%w: match %s", ErrMatchAlreadyFinalized, matchID)
		}
		if match.Player1Name == models.PlaceholderName || match.Player2Name == models.PlaceholderName {
			return fmt.Errorf("%w: match %s", ErrMatchAwaitingPlayers, matchID)
		}

		var round models.Round
		if err := tx.First(&round, "id = ?", match.RoundID).Error; err != nil {
			return err
		}
		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", round.TournamentID).Error; err != nil {
			return err
		}

		winner := utils.NormalizePlayerName(result.WinnerName)
		if !utils.NamesEqual(winner, match.Player1Name) && !utils.NamesEqual(winner, match.Player2Name) {
			return fmt.Errorf("%w: %q is not %q or %q", ErrWinnerNotInMatch, winner, match.Player1Name, match.Player2Name)
		}
		if !result.IsRetirement {
			if err := validateSetScore(tournament.SetsToWin(), result.SetsWon, result.SetsLost); err != nil {
				return err
			}
		}

		now := time.Now()
		match.Status = models.MatchStatusFinalized
		match.WinnerName = winner
		match.SetsWon = &result.SetsWon
		match.SetsLost = &result.SetsLost
		match.FinalScore = result.FinalScore
		match.IsRetirement = result.IsRetirement
		match.FinalizedBy = actor
		match.FinalizedAt = &now
		if err := tx.Save(&match).Error; err != nil {
			return fmt.Errorf("failed to finalize match %s: %w", matchID, err)
		}

		if err := s.Scoring.ScoreMatchTx(tx, match.ID); err != nil {
			return err
		}
		if err := s.Propagation.PropagateWinner(tx, &match); err != nil {
			return err
		}
		if err := s.maybeFinalizeRound(tx, &round); err != nil {
			return err
		}
		return s.finalizeResolvedRounds(tx, &round)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ADMIN] match %s finalized by %s: %s wins", matchID, actor, match.WinnerName)
	return &match, nil
}

// UnfinalizeMatch reverts a result entered in error: the result is cleared,
// every pick on the match is unscored, the propagated winner is retracted
// from the next round, and the round reopens if it had been finalized.
func (s *AdminService) UnfinalizeMatch(matchID, actor string) (*models.Match, error) {
	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
			}
			return err
		}
		if match.IsBye {
			return fmt.Errorf("%w: match %s", ErrByeMatchImmutable, matchID)
		}
		if match.Status != models.MatchStatusFinalized {
			return fmt.Errorf("%w: match %s", ErrMatchNotFinalized, matchID)
		}

		if err := s.Scoring.UnscoreMatchTx(tx, match.ID); err != nil {
			return err
		}
		if err := s.Propagation.RetractWinner(tx, &match); err != nil {
			return err
		}

		err := tx.Model(&match).Updates(map[string]interface{}{
			"status":        models.MatchStatusPending,
			"winner_name":   "",
			"final_score":   "",
			"sets_won":      nil,
			"sets_lost":     nil,
			"is_retirement": false,
			"finalized_by":  "",
			"finalized_at":  nil,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to unfinalize match %s: %w", matchID, err)
		}
		match.Status = models.MatchStatusPending
		match.WinnerName = ""
		match.FinalScore = ""
		match.SetsWon = nil
		match.SetsLost = nil
		match.IsRetirement = false
		match.FinalizedBy = ""
		match.FinalizedAt = nil

		return tx.Model(&models.Round{}).
			Where("id = ? AND is_finalized = ?", match.RoundID, true).
			Update("is_finalized", false).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ADMIN] match %s unfinalized by %s", matchID, actor)
	return &match, nil
}

// maybeFinalizeRound marks the round finalized once no pending matches
// remain, then runs the round-level achievement checks.
func (s *AdminService) maybeFinalizeRound(tx *gorm.DB, round *models.Round) error {
	var pending int64
	err := tx.Model(&models.Match{}).
		Where("round_id = ? AND status <> ?", round.ID, models.MatchStatusFinalized).
		Count(&pending).Error
	if err != nil {
		return err
	}
	if pending > 0 {
		return nil
	}

	if err := tx.Model(round).Update("is_finalized", true).Error; err != nil {
		return err
	}
	log.Printf("[ADMIN] round %s fully finalized", round.ID)
	return s.Achievement.EvaluateRound(tx, round)
}

// finalizeResolvedRounds walks the rounds after the given one. A propagated
// walkover can leave a later round with no pending matches, and that round
// would otherwise never be marked finalized.
func (s *AdminService) finalizeResolvedRounds(tx *gorm.DB, round *models.Round) error {
	for number := round.RoundNumber + 1; ; number++ {
		var next models.Round
		err := tx.Where("tournament_id = ? AND round_number = ?", round.TournamentID, number).
			First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if next.IsFinalized {
			continue
		}
		if err := s.maybeFinalizeRound(tx, &next); err != nil {
			return err
		}
	}
}
