// services/scheduler.go
package services

import (
	"log"
	"time"

	"tennis-pickem-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartRoundScheduler runs the round lifecycle automation: rounds past
// their OpensAt become the active round, and rounds past their Deadline get
// their submissions closed, same as an admin doing it by hand.
func (s *AdminService) StartRoundScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()
			s.autoActivateRounds(now)
			s.autoCloseRounds(now)
		}),
	)
}

func (s *AdminService) autoActivateRounds(now time.Time) {
	var rounds []models.Round
	err := s.DB.
		Joins("JOIN tournaments ON tournaments.id = rounds.tournament_id").
		Where("rounds.is_active = ? AND rounds.is_finalized = ? AND rounds.opens_at IS NOT NULL AND rounds.opens_at <= ?",
			false, false, now).
		Where("tournaments.status <> ?", models.TournamentStatusArchived).
		Order("rounds.tournament_id ASC, rounds.round_number ASC").
		Find(&rounds).Error
	if err != nil {
		log.Printf("[SCHEDULER] DB error scanning rounds to open: %v", err)
		return
	}

	// Rounds come back ordered by round number, so when several rounds of
	// one tournament are due at once the highest one ends up active.
	for _, r := range rounds {
		if _, err := s.SetActiveRound(r.TournamentID, r.RoundNumber); err != nil {
			log.Printf("[SCHEDULER] failed to activate round %d of %s: %v", r.RoundNumber, r.TournamentID, err)
			continue
		}
		log.Printf("[SCHEDULER] auto-activated round %d of tournament %s", r.RoundNumber, r.TournamentID)
	}
}

func (s *AdminService) autoCloseRounds(now time.Time) {
	var rounds []models.Round
	err := s.DB.
		Where("is_active = ? AND submissions_closed_at IS NULL AND deadline IS NOT NULL AND deadline <= ?",
			true, now).
		Find(&rounds).Error
	if err != nil {
		log.Printf("[SCHEDULER] DB error scanning rounds to close: %v", err)
		return
	}

	for _, r := range rounds {
		if err := s.CloseRoundSubmissions(r.ID, "scheduler"); err != nil {
			log.Printf("[SCHEDULER] failed to close round %s: %v", r.ID, err)
			continue
		}
		log.Printf("[SCHEDULER] auto-closed submissions for round %s", r.ID)
	}
}
