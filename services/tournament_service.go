package services

import (
	"errors"
	"log"
	"math"
	"sort"
	"time"

	"tennis-pickem-system/models"
	"tennis-pickem-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TournamentService is the read surface: tournament lists, bracket views,
// leaderboards and the post-tournament summary. Everything here is
// side-effect free.
type TournamentService struct {
	DB *gorm.DB
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db}
}

// GetAllTournaments returns a minimal list for the lobby, newest first,
// with participant counts folded in by one grouped query.
func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	type TournamentMini struct {
		ID           string     `json:"id"`
		Name         string     `json:"name"`
		Slug         string     `json:"slug"`
		Year         int        `json:"year"`
		Format       string     `json:"format"`
		Status       string     `json:"status"`
		CurrentRound int        `json:"current_round"`
		ClosedAt     *time.Time `json:"closed_at,omitempty"`
		CreatedAt    time.Time  `json:"created_at"`
		RoundCount   int64      `json:"round_count"`
		PlayerCount  int64      `json:"player_count"`
	}
	var tournaments []TournamentMini
	query := `
        SELECT
            t.id,
            t.name,
            t.slug,
            t.year,
            t.format,
            t.status,
            t.current_round,
            t.closed_at,
            t.created_at,
            COUNT(DISTINCT r.id) AS round_count,
            COUNT(DISTINCT urp.user_id) AS player_count
        FROM tournaments t
        LEFT JOIN rounds r ON r.tournament_id = t.id
        LEFT JOIN user_round_picks urp ON urp.round_id = r.id AND urp.is_draft = false
        WHERE t.deleted_at IS NULL
        GROUP BY t.id
        ORDER BY t.created_at DESC
    `
	if err := s.DB.Raw(query).Scan(&tournaments).Error; err != nil {
		log.Printf("ERROR fetching tournament list: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

// GetTournamentBySlug returns the full tournament with rounds, matches and
// scoring rules, everything ordered by bracket position.
func (s *TournamentService) GetTournamentBySlug(c *fiber.Ctx) error {
	slugParam := c.Params("slug")
	var tournament models.Tournament
	err := s.DB.
		Preload("Rounds", func(db *gorm.DB) *gorm.DB {
			return db.Order("round_number ASC")
		}).
		Preload("Rounds.Matches", func(db *gorm.DB) *gorm.DB {
			return db.Order("match_number ASC")
		}).
		Preload("Rounds.ScoringRule").
		First(&tournament, "slug = ?", slugParam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, ErrTournamentNotFound)
	}
	if err != nil {
		log.Printf("ERROR fetching tournament %s: %v", slugParam, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(tournament)
}

// GetRoundLeaderboard ranks the round's submitted sheets by points, ties
// broken by earliest submission.
func (s *TournamentService) GetRoundLeaderboard(c *fiber.Ctx) error {
	roundID := c.Params("round_id")

	var count int64
	if err := s.DB.Model(&models.Round{}).Where("id = ?", roundID).Count(&count).Error; err != nil {
		return jsonError(c, err)
	}
	if count == 0 {
		return jsonError(c, ErrRoundNotFound)
	}

	var rows []LeaderboardRow
	query := `
        SELECT
            urp.user_id,
            u.username,
            urp.total_points,
            urp.correct_winners,
            urp.exact_scores,
            urp.submitted_at
        FROM user_round_picks urp
        LEFT JOIN users u ON u.id = urp.user_id
        WHERE urp.round_id = ? AND urp.is_draft = false
        ORDER BY urp.total_points DESC, urp.submitted_at ASC
    `
	if err := s.DB.Raw(query, roundID).Scan(&rows).Error; err != nil {
		log.Printf("ERROR fetching round leaderboard %s: %v", roundID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}
	return c.JSON(rankRows(rows))
}

// GetTournamentLeaderboard aggregates every round of the tournament. Ties
// break by the user's earliest submission across the tournament.
func (s *TournamentService) GetTournamentLeaderboard(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var count int64
	if err := s.DB.Model(&models.Tournament{}).Where("id = ?", tournamentID).Count(&count).Error; err != nil {
		return jsonError(c, err)
	}
	if count == 0 {
		return jsonError(c, ErrTournamentNotFound)
	}

	var rows []LeaderboardRow
	query := `
        SELECT
            urp.user_id,
            u.username,
            SUM(urp.total_points) AS total_points,
            SUM(urp.correct_winners) AS correct_winners,
            SUM(urp.exact_scores) AS exact_scores,
            MIN(urp.submitted_at) AS submitted_at
        FROM user_round_picks urp
        JOIN rounds r ON r.id = urp.round_id
        LEFT JOIN users u ON u.id = urp.user_id
        WHERE r.tournament_id = ? AND urp.is_draft = false
        GROUP BY urp.user_id, u.username
        ORDER BY total_points DESC, submitted_at ASC
    `
	if err := s.DB.Raw(query, tournamentID).Scan(&rows).Error; err != nil {
		log.Printf("ERROR fetching tournament leaderboard %s: %v", tournamentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}
	return c.JSON(rankRows(rows))
}

// GetAllTimeLeaderboard spans every tournament. Ties break by account age
// (older accounts first), then earliest submission.
func (s *TournamentService) GetAllTimeLeaderboard(c *fiber.Ctx) error {
	var rows []LeaderboardRow
	query := `
        SELECT
            urp.user_id,
            u.username,
            SUM(urp.total_points) AS total_points,
            SUM(urp.correct_winners) AS correct_winners,
            SUM(urp.exact_scores) AS exact_scores,
            MIN(urp.submitted_at) AS submitted_at
        FROM user_round_picks urp
        LEFT JOIN users u ON u.id = urp.user_id
        WHERE urp.is_draft = false
        GROUP BY urp.user_id, u.username, u.created_at
        ORDER BY total_points DESC, u.created_at ASC, submitted_at ASC
    `
	if err := s.DB.Raw(query).Scan(&rows).Error; err != nil {
		log.Printf("ERROR fetching all-time leaderboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch leaderboard"})
	}
	return c.JSON(rankRows(rows))
}

// GetTournamentSummary computes the wrap-up stats once results are in:
// contest accuracy, upset rate, the tightest leaderboard gap and the most
// consistent picker.
func (s *TournamentService) GetTournamentSummary(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, ErrTournamentNotFound)
		}
		return jsonError(c, err)
	}

	summary, err := s.buildSummary(&tournament)
	if err != nil {
		log.Printf("ERROR building summary for tournament %s: %v", tournamentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to build summary"})
	}
	return c.JSON(summary)
}

// LeaderboardRow is one ranked entry.
type LeaderboardRow struct {
	Rank           int        `json:"rank"`
	UserID         string     `json:"user_id"`
	Username       string     `json:"username"`
	TotalPoints    int        `json:"total_points"`
	CorrectWinners int        `json:"correct_winners"`
	ExactScores    int        `json:"exact_scores"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
}

// rankRows assigns dense ranks: equal points share a rank.
func rankRows(rows []LeaderboardRow) []LeaderboardRow {
	rank := 0
	lastPoints := math.MinInt
	for i := range rows {
		if rows[i].TotalPoints != lastPoints {
			rank++
			lastPoints = rows[i].TotalPoints
		}
		rows[i].Rank = rank
	}
	return rows
}

// TournamentSummary is the wrap-up view of a finished (or in-progress)
// tournament.
type TournamentSummary struct {
	TournamentID     string  `json:"tournament_id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	FinalizedMatches int     `json:"finalized_matches"`
	TotalPicks       int     `json:"total_picks"`
	OverallAccuracy  float64 `json:"overall_accuracy"`
	ExactScoreRate   float64 `json:"exact_score_rate"`
	UpsetRate        float64 `json:"upset_rate"`
	ClosestGap       *int    `json:"closest_gap,omitempty"`
	MostConsistent   string  `json:"most_consistent_user_id,omitempty"`
}

func (s *TournamentService) buildSummary(tournament *models.Tournament) (*TournamentSummary, error) {
	summary := &TournamentSummary{
		TournamentID: tournament.ID,
		Name:         tournament.Name,
		Status:       tournament.Status,
	}

	var matches []models.Match
	err := s.DB.
		Joins("JOIN rounds ON rounds.id = matches.round_id").
		Where("rounds.tournament_id = ? AND matches.status = ? AND matches.is_bye = ?",
			tournament.ID, models.MatchStatusFinalized, false).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	summary.FinalizedMatches = len(matches)

	upsets := 0
	for i := range matches {
		if isUpset(&matches[i]) {
			upsets++
		}
	}
	if len(matches) > 0 {
		summary.UpsetRate = round2(float64(upsets) / float64(len(matches)))
	}

	var pickStats struct {
		Total   int64
		Correct int64
		Exact   int64
	}
	err = s.DB.Model(&models.MatchPick{}).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN is_winner_correct THEN 1 ELSE 0 END), 0) AS correct, "+
			"COALESCE(SUM(CASE WHEN is_exact_score THEN 1 ELSE 0 END), 0) AS exact").
		Joins("JOIN user_round_picks ON user_round_picks.id = match_picks.user_round_pick_id").
		Joins("JOIN rounds ON rounds.id = user_round_picks.round_id").
		Where("rounds.tournament_id = ? AND user_round_picks.is_draft = ? AND match_picks.is_winner_correct IS NOT NULL",
			tournament.ID, false).
		Scan(&pickStats).Error
	if err != nil {
		return nil, err
	}
	summary.TotalPicks = int(pickStats.Total)
	if pickStats.Total > 0 {
		summary.OverallAccuracy = round2(float64(pickStats.Correct) / float64(pickStats.Total))
		summary.ExactScoreRate = round2(float64(pickStats.Exact) / float64(pickStats.Total))
	}

	var sheets []models.UserRoundPick
	err = s.DB.
		Joins("JOIN rounds ON rounds.id = user_round_picks.round_id").
		Where("rounds.tournament_id = ? AND user_round_picks.is_draft = ?", tournament.ID, false).
		Find(&sheets).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	perRound := make(map[string][]float64)
	for _, sheet := range sheets {
		totals[sheet.UserID] += sheet.TotalPoints
		perRound[sheet.UserID] = append(perRound[sheet.UserID], float64(sheet.TotalPoints))
	}
	summary.ClosestGap = closestGap(totals)
	summary.MostConsistent = mostConsistent(perRound)
	return summary, nil
}

// isUpset: the loser was the better (lower-numbered) seed, or an unseeded
// player beat a seed.
func isUpset(m *models.Match) bool {
	winnerSeed, loserSeed := m.Player1Seed, m.Player2Seed
	if utils.NamesEqual(m.WinnerName, m.Player2Name) {
		winnerSeed, loserSeed = m.Player2Seed, m.Player1Seed
	}
	if loserSeed == nil {
		return false
	}
	return winnerSeed == nil || *winnerSeed > *loserSeed
}

// closestGap is the smallest point difference between adjacent leaderboard
// positions, nil with fewer than two players.
func closestGap(totals map[string]int) *int {
	if len(totals) < 2 {
		return nil
	}
	points := make([]int, 0, len(totals))
	for _, p := range totals {
		points = append(points, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(points)))
	gap := points[0] - points[1]
	for i := 1; i < len(points)-1; i++ {
		if d := points[i] - points[i+1]; d < gap {
			gap = d
		}
	}
	return &gap
}

// mostConsistent is the user with the lowest per-round points variance,
// among users with at least two scored rounds.
func mostConsistent(perRound map[string][]float64) string {
	best := ""
	bestVar := math.MaxFloat64
	users := make([]string, 0, len(perRound))
	for u := range perRound {
		users = append(users, u)
	}
	sort.Strings(users)
	for _, u := range users {
		points := perRound[u]
		if len(points) < 2 {
			continue
		}
		if v := variance(points); v < bestVar {
			bestVar = v
			best = u
		}
	}
	return best
}

func variance(xs []float64) float64 {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return v / float64(len(xs))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
