package services

import (
	"errors"
	"fmt"
	"time"

	"tennis-pickem-system/models"
	"tennis-pickem-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PickService owns the user-facing pick sheet lifecycle: saving drafts,
// submitting them, and reading them back. A sheet is mutable while it is a
// draft and the round is open; a final submission is frozen.
type PickService struct {
	DB           *gorm.DB
	Achievements *AchievementService
}

func NewPickService(db *gorm.DB, achievements *AchievementService) *PickService {
	return &PickService{DB: db, Achievements: achievements}
}

// PickEntry is one predicted match outcome in a save request.
type PickEntry struct {
	MatchID           string `json:"match_id"`
	PredictedWinner   string `json:"predicted_winner"`
	PredictedSetsWon  int    `json:"predicted_sets_won"`
	PredictedSetsLost int    `json:"predicted_sets_lost"`
}

// SavePicks handles PUT /rounds/:round_id/picks. The body carries the full
// sheet; a draft save replaces any prior draft wholesale. submit=true locks
// the sheet, which then must cover every non-bye match of the round.
func (s *PickService) SavePicks(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	roundID := c.Params("round_id")

	var req struct {
		Picks  []PickEntry `json:"picks"`
		Submit bool        `json:"submit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}

	sheet, err := s.savePicks(userID, roundID, req.Picks, req.Submit)
	if err != nil {
		return jsonError(c, err)
	}
	status := fiber.StatusOK
	if req.Submit {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(sheet)
}

// GetMyPicks handles GET /rounds/:round_id/picks.
func (s *PickService) GetMyPicks(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	roundID := c.Params("round_id")

	var sheet models.UserRoundPick
	err := s.DB.Preload("MatchPicks").
		Where("user_id = ? AND round_id = ?", userID, roundID).
		First(&sheet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fmt.Errorf("%w: round %s", ErrPickNotFound, roundID))
	}
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(sheet)
}

func (s *PickService) savePicks(userID, roundID string, entries []PickEntry, submit bool) (*models.UserRoundPick, error) {
	var sheet *models.UserRoundPick
	err := s.DB.Transaction(func(tx *gorm.DB) error {
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
			return fmt.Errorf("%w: round %s", ErrSubmissionsClosed, roundID)
		}
		if round.Deadline != nil && time.Now().After(*round.Deadline) {
			return fmt.Errorf("%w: round %s deadline passed", ErrSubmissionsClosed, roundID)
		}

		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", round.TournamentID).Error; err != nil {
			return err
		}

		var matches []models.Match
		if err := tx.Where("round_id = ?", roundID).Find(&matches).Error; err != nil {
			return err
		}
		matchByID := make(map[string]*models.Match, len(matches))
		pickable := 0
		for i := range matches {
			matchByID[matches[i].ID] = &matches[i]
			if !matches[i].IsBye {
				pickable++
			}
		}

		if err := validateEntries(entries, matchByID, tournament.SetsToWin()); err != nil {
			return err
		}
		if submit && len(entries) < pickable {
			return fmt.Errorf("%w: %d of %d matches picked", ErrPickIncomplete, len(entries), pickable)
		}

		existing := models.UserRoundPick{}
		err := tx.Where("user_id = ? AND round_id = ?", userID, roundID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = models.UserRoundPick{
				ID:      uuid.NewString(),
				UserID:  userID,
				RoundID: roundID,
				IsDraft: true,
			}
			if err := tx.Create(&existing).Error; err != nil {
				return fmt.Errorf("failed to create pick sheet: %w", err)
			}
		case err != nil:
			return err
		case !existing.IsDraft:
			return fmt.Errorf("%w: round %s", ErrPickAlreadySubmitted, roundID)
		}

		// Replace the sheet contents wholesale; a draft save is the whole
		// sheet, not a patch.
		if err := tx.Where("user_round_pick_id = ?", existing.ID).
			Delete(&models.MatchPick{}).Error; err != nil {
			return err
		}
		picks := make([]models.MatchPick, 0, len(entries))
		for _, e := range entries {
			picks = append(picks, models.MatchPick{
				ID:                uuid.NewString(),
				UserRoundPickID:   existing.ID,
				MatchID:           e.MatchID,
				PredictedWinner:   utils.NormalizePlayerName(e.PredictedWinner),
				PredictedSetsWon:  e.PredictedSetsWon,
				PredictedSetsLost: e.PredictedSetsLost,
			})
		}
		if len(picks) > 0 {
			if err := tx.Create(&picks).Error; err != nil {
				return fmt.Errorf("failed to save picks: %w", err)
			}
		}

		if submit {
			now := time.Now()
			err := tx.Model(&existing).Updates(map[string]interface{}{
				"is_draft":     false,
				"submitted_at": now,
			}).Error
			if err != nil {
				return err
			}
			existing.IsDraft = false
			existing.SubmittedAt = &now
			if err := s.Achievements.EvaluateMilestones(tx, userID); err != nil {
				return err
			}
		}

		existing.MatchPicks = picks
		sheet = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// validateEntries checks each entry against its match: the match must
// belong to the round and be pickable, the predicted winner must be one of
// the named players, and the predicted set score must fit the format.
func validateEntries(entries []PickEntry, matchByID map[string]*models.Match, setsToWin int) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		match, ok := matchByID[e.MatchID]
		if !ok {
			return fmt.Errorf("%w: %s is not in this round", ErrMatchNotFound, e.MatchID)
		}
		if match.IsBye {
			return fmt.Errorf("%w: match %d is a bye", ErrByeMatchImmutable, match.MatchNumber)
		}
		if seen[e.MatchID] {
			return fmt.Errorf("%w: duplicate pick for match %d", ErrPickIncomplete, match.MatchNumber)
		}
		seen[e.MatchID] = true

		winner := utils.NormalizePlayerName(e.PredictedWinner)
		if winner == "" || utils.NamesEqual(winner, models.PlaceholderName) {
			return fmt.Errorf("%w: match %d has no predicted winner", ErrPickIncomplete, match.MatchNumber)
		}
		if !utils.NamesEqual(winner, match.Player1Name) && !utils.NamesEqual(winner, match.Player2Name) {
			return fmt.Errorf("%w: %q in match %d", ErrWinnerNotInMatch, winner, match.MatchNumber)
		}
		if e.PredictedSetsWon != setsToWin || e.PredictedSetsLost < 0 || e.PredictedSetsLost >= setsToWin {
			return fmt.Errorf("%w: %d-%d in match %d", ErrPredictedSetScore, e.PredictedSetsWon, e.PredictedSetsLost, match.MatchNumber)
		}
	}
	return nil
}
