package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tennis-pickem-system/models"
	"tennis-pickem-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// byeName is the canonical slot name stored for a bye position.
const byeName = "BYE"

// DrawService turns a parsed draw sheet into a committed tournament: the
// tournament row, its rounds and scoring rules, every match, bye
// auto-finalization and full bracket propagation, all in one transaction.
type DrawService struct {
	DB          *gorm.DB
	Propagation *PropagationService
	Scoring     *ScoringService
}

func NewDrawService(db *gorm.DB, propagation *PropagationService, scoring *ScoringService) *DrawService {
	return &DrawService{DB: db, Propagation: propagation, Scoring: scoring}
}

// CommitOptions tune a draw commit.
type CommitOptions struct {
	// Overwrite allows replacing an existing tournament that already has
	// user picks. The prior tournament is soft-deleted, never updated in
	// place.
	Overwrite bool
	// Actor is the admin identity recorded on auto-finalized matches.
	Actor string
	// ArchiveURL is where the raw draw payload was stored, if it was.
	ArchiveURL string
}

// CommitDraw validates and persists a parsed draw. The slug derived from
// tournament name and year identifies re-uploads of the same event: a
// re-upload over admin-finalized results is always rejected, one over
// existing picks requires Overwrite.
func (s *DrawService) CommitDraw(parsed *models.ParsedDraw, opts CommitOptions) (*models.Tournament, error) {
	if err := validateDraw(parsed); err != nil {
		return nil, err
	}

	tournamentSlug := slug.Make(fmt.Sprintf("%s %d", parsed.TournamentName, parsed.Year))

	var tournament *models.Tournament
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.retirePrior(tx, tournamentSlug, opts.Overwrite); err != nil {
			return err
		}

		format := parsed.Format
		if format != models.FormatBestOfFive {
			format = models.FormatBestOfThree
		}

		t := models.Tournament{
			ID:             uuid.NewString(),
			Name:           parsed.TournamentName,
			Slug:           tournamentSlug,
			Year:           parsed.Year,
			Format:         format,
			Status:         models.TournamentStatusDraft,
			DrawArchiveURL: opts.ArchiveURL,
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("failed to create tournament: %w", err)
		}

		rounds, err := s.buildRounds(tx, &t, parsed, opts.Actor)
		if err != nil {
			return err
		}

		if err := s.Propagation.PropagateBracket(tx, rounds); err != nil {
			return err
		}
		if err := s.finalizeCompleteRounds(tx, rounds); err != nil {
			return err
		}
		if err := s.scoreCommittedResults(tx, rounds); err != nil {
			return err
		}

		tournament = &t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[DRAW] committed tournament %s (%s), %d rounds", tournament.Name, tournament.Slug, len(parsed.Rounds))
	return tournament, nil
}

// retirePrior handles the re-upload guards for an existing tournament with
// the same slug. Soft-deleting keeps the prior row for audit; its slug is
// suffixed so the unique index accepts the replacement.
func (s *DrawService) retirePrior(tx *gorm.DB, tournamentSlug string, overwrite bool) error {
	var prior models.Tournament
	err := tx.Where("slug = ?", tournamentSlug).First(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var finalized int64
	err = tx.Model(&models.Match{}).
		Joins("JOIN rounds ON rounds.id = matches.round_id").
		Where("rounds.tournament_id = ? AND matches.status = ? AND matches.is_bye = ? AND matches.finalized_by <> ''",
			prior.ID, models.MatchStatusFinalized, false).
		Count(&finalized).Error
	if err != nil {
		return err
	}
	if finalized > 0 {
		return fmt.Errorf("%w: tournament %s has %d finalized matches", ErrDrawOverFinalizedMatches, prior.Slug, finalized)
	}

	var picks int64
	err = tx.Model(&models.UserRoundPick{}).
		Joins("JOIN rounds ON rounds.id = user_round_picks.round_id").
		Where("rounds.tournament_id = ?", prior.ID).
		Count(&picks).Error
	if err != nil {
		return err
	}
	if picks > 0 && !overwrite {
		return fmt.Errorf("%w: tournament %s has %d pick sheets", ErrDrawHasUserPicks, prior.Slug, picks)
	}

	retiredSlug := fmt.Sprintf("%s-replaced-%d", prior.Slug, time.Now().Unix())
	if err := tx.Model(&prior).Update("slug", retiredSlug).Error; err != nil {
		return err
	}
	if err := tx.Delete(&prior).Error; err != nil {
		return fmt.Errorf("failed to retire prior tournament %s: %w", prior.ID, err)
	}

	// The replaced bracket's matches go with it, so nothing joining through
	// rounds can still reach them.
	var roundIDs []string
	err = tx.Model(&models.Round{}).
		Where("tournament_id = ?", prior.ID).
		Pluck("id", &roundIDs).Error
	if err != nil {
		return err
	}
	if len(roundIDs) > 0 {
		if err := tx.Where("round_id IN ?", roundIDs).Delete(&models.Match{}).Error; err != nil {
			return fmt.Errorf("failed to retire matches of tournament %s: %w", prior.ID, err)
		}
	}
	log.Printf("[DRAW] retired prior tournament %s as %s", prior.ID, retiredSlug)
	return nil
}

// buildRounds creates the rounds, their scoring rules and all matches. Byes
// and matches the draw sheet already reports decided are finalized on the
// spot; the returned slice carries the created matches for propagation.
func (s *DrawService) buildRounds(tx *gorm.DB, t *models.Tournament, parsed *models.ParsedDraw, actor string) ([]models.Round, error) {
	now := time.Now()
	setsToWin := t.SetsToWin()
	totalRounds := len(parsed.Rounds)

	rounds := make([]models.Round, 0, totalRounds)
	for _, pr := range parsed.Rounds {
		round := models.Round{
			ID:           uuid.NewString(),
			TournamentID: t.ID,
			RoundNumber:  pr.RoundNumber,
			Name:         pr.Name,
		}
		if err := tx.Create(&round).Error; err != nil {
			return nil, fmt.Errorf("failed to create round %d: %w", pr.RoundNumber, err)
		}

		pts := DefaultRulePoints(pr.RoundNumber, totalRounds)
		rule := models.ScoringRule{
			ID:               uuid.NewString(),
			RoundID:          round.ID,
			PointsPerWinner:  pts.Winner,
			PointsExactScore: pts.Exact,
		}
		if err := tx.Create(&rule).Error; err != nil {
			return nil, fmt.Errorf("failed to create scoring rule for round %d: %w", pr.RoundNumber, err)
		}

		matches := make([]models.Match, 0, len(pr.Matches))
		for _, pm := range pr.Matches {
			match, err := buildMatch(&round, &pm, setsToWin, actor, now)
			if err != nil {
				return nil, err
			}
			matches = append(matches, *match)
		}
		if len(matches) > 0 {
			if err := tx.Create(&matches).Error; err != nil {
				return nil, fmt.Errorf("failed to create matches for round %d: %w", pr.RoundNumber, err)
			}
		}
		round.Matches = matches
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// buildMatch normalizes one parsed match into a row. One bye slot finalizes
// the match for the named opponent immediately; a result already printed on
// the sheet finalizes with that result after validation.
func buildMatch(round *models.Round, pm *models.ParsedMatch, setsToWin int, actor string, now time.Time) (*models.Match, error) {
	p1Bye := utils.IsByeMarker(pm.Player1Name)
	p2Bye := utils.IsByeMarker(pm.Player2Name)
	if p1Bye && p2Bye {
		return nil, fmt.Errorf("%w: round %d match %d", ErrBothPlayersBye, round.RoundNumber, pm.MatchNumber)
	}

	match := models.Match{
		ID:          uuid.NewString(),
		RoundID:     round.ID,
		MatchNumber: pm.MatchNumber,
		Player1Name: slotName(pm.Player1Name, p1Bye),
		Player2Name: slotName(pm.Player2Name, p2Bye),
		Player1Seed: pm.Player1Seed,
		Player2Seed: pm.Player2Seed,
		Status:      models.MatchStatusPending,
		IsBye:       p1Bye || p2Bye,
	}

	if match.IsBye {
		advancing := match.Player1Name
		if p1Bye {
			advancing = match.Player2Name
		}
		// A bye against a slot still waiting on a player stays pending.
		if advancing != models.PlaceholderName {
			match.Status = models.MatchStatusFinalized
			match.WinnerName = advancing
			match.FinalizedAt = &now
		}
		return &match, nil
	}

	if pm.WinnerName != "" {
		winner := utils.NormalizePlayerName(pm.WinnerName)
		if !utils.NamesEqual(winner, match.Player1Name) && !utils.NamesEqual(winner, match.Player2Name) {
			return nil, fmt.Errorf("%w: %q in round %d match %d", ErrWinnerNotInMatch, winner, round.RoundNumber, pm.MatchNumber)
		}
		if pm.SetsWon == nil || pm.SetsLost == nil {
			return nil, fmt.Errorf("%w: round %d match %d", ErrMatchMissingResult, round.RoundNumber, pm.MatchNumber)
		}
		if err := validateSetScore(setsToWin, *pm.SetsWon, *pm.SetsLost); err != nil {
			return nil, fmt.Errorf("round %d match %d: %w", round.RoundNumber, pm.MatchNumber, err)
		}
		match.Status = models.MatchStatusFinalized
		match.WinnerName = winner
		match.SetsWon = pm.SetsWon
		match.SetsLost = pm.SetsLost
		match.FinalScore = pm.FinalScore
		match.FinalizedBy = actor
		match.FinalizedAt = &now
	}
	return &match, nil
}

// finalizeCompleteRounds marks rounds whose every match came in finalized,
// so the sheet's already-played early rounds read as done.
func (s *DrawService) finalizeCompleteRounds(tx *gorm.DB, rounds []models.Round) error {
	for i := range rounds {
		round := &rounds[i]
		if len(round.Matches) == 0 {
			continue
		}
		done := true
		for j := range round.Matches {
			if round.Matches[j].Status != models.MatchStatusFinalized {
				done = false
				break
			}
		}
		if !done {
			continue
		}
		if err := tx.Model(round).Update("is_finalized", true).Error; err != nil {
			return err
		}
	}
	return nil
}

// scoreCommittedResults scores the non-bye matches the sheet reported
// decided. On a fresh commit there are no picks yet and this only stamps
// state; on an overwrite it keeps any surviving sheets consistent.
func (s *DrawService) scoreCommittedResults(tx *gorm.DB, rounds []models.Round) error {
	for i := range rounds {
		for j := range rounds[i].Matches {
			m := &rounds[i].Matches[j]
			if m.IsBye || m.Status != models.MatchStatusFinalized || !m.HasResult() {
				continue
			}
			if err := s.Scoring.ScoreMatchTx(tx, m.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateDraw rejects payloads no tournament can be built from.
func validateDraw(parsed *models.ParsedDraw) error {
	if parsed == nil || parsed.TournamentName == "" || len(parsed.Rounds) == 0 {
		return ErrEmptyDraw
	}
	for _, r := range parsed.Rounds {
		if len(r.Matches) == 0 {
			return fmt.Errorf("%w: round %d has no matches", ErrEmptyDraw, r.RoundNumber)
		}
	}
	return nil
}

// validateSetScore checks a result against the tournament format: the
// winner takes exactly setsToWin sets and the loser strictly fewer.
func validateSetScore(setsToWin, won, lost int) error {
	if won != setsToWin || lost < 0 || lost >= setsToWin {
		return fmt.Errorf("%w: %d-%d with %d sets to win", ErrInvalidSetScore, won, lost, setsToWin)
	}
	return nil
}

// slotName normalizes a parsed slot name: byes keep the canonical marker,
// empty names become the placeholder.
func slotName(raw string, isBye bool) string {
	if isBye {
		return byeName
	}
	name := utils.NormalizePlayerName(raw)
	if name == "" {
		return models.PlaceholderName
	}
	return name
}
