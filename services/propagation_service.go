package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"tennis-pickem-system/models"
	"tennis-pickem-system/utils"

	"gorm.io/gorm"
)

// PropagationService pushes match winners into the next round of the
// bracket. Match M of round R feeds match ceil(M/2) of round R+1: player1
// slot when M is odd, player2 slot when M is even. Every write records the
// source match id on the slot so an unfinalize can retract it.
type PropagationService struct {
	DB *gorm.DB
}

func NewPropagationService(db *gorm.DB) *PropagationService {
	return &PropagationService{DB: db}
}

// NextSlot returns the next-round match number and slot (1 or 2) fed by a
// match number.
func NextSlot(matchNumber int) (int, int) {
	if matchNumber%2 == 1 {
		return (matchNumber + 1) / 2, 1
	}
	return matchNumber / 2, 2
}

// WinnerSeed resolves the seed of the match winner, nil when the winner is
// unseeded or cannot be matched to either slot.
func WinnerSeed(m *models.Match) *int {
	switch {
	case utils.NamesEqual(m.WinnerName, m.Player1Name):
		return m.Player1Seed
	case utils.NamesEqual(m.WinnerName, m.Player2Name):
		return m.Player2Seed
	}
	return nil
}

// PropagateWinner writes one finalized match's winner into the next round
// inside tx. A final (no next round) is a no-op, and re-running for the same
// winner lands in the same state, so it is safe to replay during recovery.
// Filling the open slot of a pending bye match finalizes it as a walkover
// and propagates that winner onward in turn.
func (s *PropagationService) PropagateWinner(tx *gorm.DB, match *models.Match) error {
	if match.WinnerName == "" {
		return fmt.Errorf("%w: match %s has no winner to propagate", ErrMatchMissingResult, match.ID)
	}

	var sourceRound models.Round
	if err := tx.First(&sourceRound, "id = ?", match.RoundID).Error; err != nil {
		return fmt.Errorf("failed to load round for match %s: %w", match.ID, err)
	}

	var targetRound models.Round
	err := tx.Where("tournament_id = ? AND round_number = ?",
		sourceRound.TournamentID, sourceRound.RoundNumber+1).
		First(&targetRound).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // final round, nowhere to go
	}
	if err != nil {
		return fmt.Errorf("failed to load next round: %w", err)
	}

	targetNumber, slot := NextSlot(match.MatchNumber)
	var target models.Match
	err = tx.Where("round_id = ? AND match_number = ?", targetRound.ID, targetNumber).
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // ragged draw without the destination match
	}
	if err != nil {
		return fmt.Errorf("failed to load target match: %w", err)
	}

	if !applySlotWrite(&target, slot, match.ID, match.WinnerName, WinnerSeed(match)) {
		return nil
	}
	walkover := finalizeWalkover(&target, time.Now())
	if err := tx.Save(&target).Error; err != nil {
		return fmt.Errorf("failed to write winner into match %s: %w", target.ID, err)
	}
	if walkover {
		return s.PropagateWinner(tx, &target)
	}
	return nil
}

// PropagateBracket replays propagation for every finalized match across the
// whole bracket, used during draw ingestion. Writes are grouped per target
// round and applied as one batched upsert per round; sources feeding the two
// slots of the same target match merge into a single row write.
func (s *PropagationService) PropagateBracket(tx *gorm.DB, rounds []models.Round) error {
	sorted := make([]models.Round, len(rounds))
	copy(sorted, rounds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RoundNumber < sorted[j].RoundNumber })

	byNumber := make(map[int]*models.Round, len(sorted))
	for i := range sorted {
		byNumber[sorted[i].RoundNumber] = &sorted[i]
	}

	for i := range sorted {
		source := &sorted[i]
		target, ok := byNumber[source.RoundNumber+1]
		if !ok {
			continue
		}

		targetByNumber := make(map[int]*models.Match, len(target.Matches))
		for j := range target.Matches {
			targetByNumber[target.Matches[j].MatchNumber] = &target.Matches[j]
		}

		dirty := make(map[int]*models.Match)
		for j := range source.Matches {
			m := &source.Matches[j]
			if m.Status != models.MatchStatusFinalized || m.WinnerName == "" {
				continue
			}
			targetNumber, slot := NextSlot(m.MatchNumber)
			tm, ok := targetByNumber[targetNumber]
			if !ok {
				continue
			}
			if applySlotWrite(tm, slot, m.ID, m.WinnerName, WinnerSeed(m)) {
				dirty[targetNumber] = tm
			}
		}

		if len(dirty) == 0 {
			continue
		}
		now := time.Now()
		batch := make([]models.Match, 0, len(dirty))
		for _, tm := range dirty {
			finalizeWalkover(tm, now)
			batch = append(batch, *tm)
		}
		if err := tx.Save(&batch).Error; err != nil {
			return fmt.Errorf("failed batched propagation into round %d: %w", target.RoundNumber, err)
		}
	}
	return nil
}

// RetractWinner clears any next-round slot that this match propagated into,
// resetting the name to TBD. Slots whose source pointer does not reference
// this match (manually entered names) are left alone.
func (s *PropagationService) RetractWinner(tx *gorm.DB, match *models.Match) error {
	var sourceRound models.Round
	if err := tx.First(&sourceRound, "id = ?", match.RoundID).Error; err != nil {
		return fmt.Errorf("failed to load round for match %s: %w", match.ID, err)
	}

	var targetRound models.Round
	err := tx.Where("tournament_id = ? AND round_number = ?",
		sourceRound.TournamentID, sourceRound.RoundNumber+1).
		First(&targetRound).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load next round: %w", err)
	}

	targetNumber, slot := NextSlot(match.MatchNumber)
	var target models.Match
	err = tx.Where("round_id = ? AND match_number = ?", targetRound.ID, targetNumber).
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load target match: %w", err)
	}

	updates := map[string]interface{}{}
	if slot == 1 && target.Player1SourceMatchID != nil && *target.Player1SourceMatchID == match.ID {
		updates["player1_name"] = models.PlaceholderName
		updates["player1_seed"] = nil
		updates["player1_source_match_id"] = nil
	}
	if slot == 2 && target.Player2SourceMatchID != nil && *target.Player2SourceMatchID == match.ID {
		updates["player2_name"] = models.PlaceholderName
		updates["player2_seed"] = nil
		updates["player2_source_match_id"] = nil
	}
	if len(updates) == 0 {
		return nil
	}

	// A walkover this slot produced comes undone with it, along with
	// anything the walkover propagated further up the bracket.
	if target.IsBye && target.Status == models.MatchStatusFinalized {
		if err := s.RetractWinner(tx, &target); err != nil {
			return err
		}
		updates["status"] = models.MatchStatusPending
		updates["winner_name"] = ""
		updates["finalized_at"] = nil
		err = tx.Model(&models.Round{}).
			Where("id = ? AND is_finalized = ?", target.RoundID, true).
			Update("is_finalized", false).Error
		if err != nil {
			return err
		}
	}

	if err := tx.Model(&target).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to retract winner from match %s: %w", target.ID, err)
	}
	return nil
}

// applySlotWrite mutates one slot of the target match and reports whether it
// wrote anything. A slot holding the bye marker is structural and is never
// overwritten; a nil seed never overwrites a seed already present.
func applySlotWrite(target *models.Match, slot int, sourceMatchID, winnerName string, seed *int) bool {
	if slot == 1 {
		if target.Player1Name == byeName {
			log.Printf("[PROPAGATION] slot 1 of match %s is a bye, dropping winner %s", target.ID, winnerName)
			return false
		}
		target.Player1Name = winnerName
		target.Player1SourceMatchID = &sourceMatchID
		if seed != nil {
			target.Player1Seed = seed
		}
		return true
	}
	if target.Player2Name == byeName {
		log.Printf("[PROPAGATION] slot 2 of match %s is a bye, dropping winner %s", target.ID, winnerName)
		return false
	}
	target.Player2Name = winnerName
	target.Player2SourceMatchID = &sourceMatchID
	if seed != nil {
		target.Player2Seed = seed
	}
	return true
}

// finalizeWalkover stamps a pending bye match once its open slot holds a real
// player: the bye's opponent advances without playing.
func finalizeWalkover(target *models.Match, now time.Time) bool {
	if !target.IsBye || target.Status == models.MatchStatusFinalized {
		return false
	}
	advancing := target.Player1Name
	if advancing == byeName {
		advancing = target.Player2Name
	}
	if advancing == "" || advancing == byeName || advancing == models.PlaceholderName {
		return false
	}
	target.Status = models.MatchStatusFinalized
	target.WinnerName = advancing
	target.FinalizedAt = &now
	return true
}
