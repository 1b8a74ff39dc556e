package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRulePoints(t *testing.T) {
	tests := []struct {
		name        string
		roundNumber int
		totalRounds int
		want        RulePoints
	}{
		{"final of 7", 7, 7, RulePoints{15, 8}},
		{"semifinal of 7", 6, 7, RulePoints{12, 6}},
		{"quarterfinal of 7", 5, 7, RulePoints{10, 5}},
		{"first round of 7", 1, 7, RulePoints{10, 5}},
		{"final of 2", 2, 2, RulePoints{15, 8}},
		{"only round", 1, 1, RulePoints{15, 8}},
		{"zero total", 1, 0, RulePoints{10, 5}},
		{"out of range", 9, 7, RulePoints{10, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRulePoints(tt.roundNumber, tt.totalRounds))
		})
	}
}

func TestRulePointsForName(t *testing.T) {
	assert.Equal(t, RulePoints{15, 8}, RulePointsForName("Final"))
	assert.Equal(t, RulePoints{15, 8}, RulePointsForName("FINALS"))
	assert.Equal(t, RulePoints{12, 6}, RulePointsForName("Semi  Final"))
	assert.Equal(t, RulePoints{12, 6}, RulePointsForName("semifinals"))
	assert.Equal(t, RulePoints{10, 5}, RulePointsForName("Round of 16"))
	assert.Equal(t, RulePoints{10, 5}, RulePointsForName(""))
}
