package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlayerName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ALCARAZ C.", "Alcaraz C."},
		{"  SINNER   J. ", "Sinner J."},
		{"de Minaur A.", "de Minaur A."},
		{"Rune H.", "Rune H."},
		{"", ""},
		{"   ", ""},
		{"1", "1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePlayerName(tc.in), "input %q", tc.in)
	}
}

func TestNamesEqual(t *testing.T) {
	assert.True(t, NamesEqual("Djokovic N.", "ĐOKOVIĆ N."))
	assert.True(t, NamesEqual("alcaraz", "Alcáraz"))
	assert.True(t, NamesEqual(" Rune H. ", "rune h."))
	assert.False(t, NamesEqual("Sinner J.", "Sinner"))
}

func TestIsByeMarker(t *testing.T) {
	assert.True(t, IsByeMarker("bye"))
	assert.True(t, IsByeMarker(" BYE "))
	assert.True(t, IsByeMarker("Bye"))
	assert.False(t, IsByeMarker("Byers T."))
	assert.False(t, IsByeMarker(""))
}
