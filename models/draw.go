package models

// ParsedDraw is the contract with the draw-parsing step. The parser is a
// separate concern (it chews MHTML draw sheets elsewhere); commit receives
// its output as-is. Player names arrive raw: empty names are normalized to
// TBD at commit time, and a name matching "bye" case-insensitively marks a
// bye slot.
type ParsedDraw struct {
	TournamentName string        `json:"tournament_name"`
	Year           int           `json:"year"`
	Format         string        `json:"format,omitempty"`
	Rounds         []ParsedRound `json:"rounds"`
}

type ParsedRound struct {
	RoundNumber int           `json:"round_number"`
	Name        string        `json:"name"`
	Matches     []ParsedMatch `json:"matches"`
}

type ParsedMatch struct {
	MatchNumber int    `json:"match_number"`
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
	Player1Seed *int   `json:"player1_seed,omitempty"`
	Player2Seed *int   `json:"player2_seed,omitempty"`

	// Already-decided matches: the parser reports the result it saw on the
	// sheet and commit auto-finalizes them.
	WinnerName string `json:"winner_name,omitempty"`
	SetsWon    *int   `json:"sets_won,omitempty"`
	SetsLost   *int   `json:"sets_lost,omitempty"`
	FinalScore string `json:"final_score,omitempty"`
}
