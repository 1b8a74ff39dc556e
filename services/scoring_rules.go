package services

import "strings"

// RulePoints is one scoring tier: points for a correct winner and the bonus
// for also nailing the set score.
type RulePoints struct {
	Winner int
	Exact  int
}

// Default tiers keyed by distance from the final (0 = the final itself).
// Keying by bracket position instead of round name means a draw labelled
// "Semifinal" or "SF" still lands in the right tier.
var defaultTiers = map[int]RulePoints{
	0: {Winner: 15, Exact: 8},
	1: {Winner: 12, Exact: 6},
}

var flatDefault = RulePoints{Winner: 10, Exact: 5}

// DefaultRulePoints resolves the default tier for round roundNumber of a
// bracket with totalRounds rounds.
func DefaultRulePoints(roundNumber, totalRounds int) RulePoints {
	if totalRounds <= 0 || roundNumber <= 0 || roundNumber > totalRounds {
		return flatDefault
	}
	if pts, ok := defaultTiers[totalRounds-roundNumber]; ok {
		return pts
	}
	return flatDefault
}

// RulePointsForName is the fallback for ad-hoc rounds created outside a full
// draw, where the bracket depth is unknown. Unrecognized names get the flat
// default.
func RulePointsForName(name string) RulePoints {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	switch n {
	case "final", "finals":
		return defaultTiers[0]
	case "semi final", "semi finals", "semifinal", "semifinals":
		return defaultTiers[1]
	}
	return flatDefault
}
