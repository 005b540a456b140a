package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein_Ratio(t *testing.T) {
	s := Levenshtein{}
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "whole foods market", "whole foods market", 1},
		{"both empty", "", "", 1},
		{"one empty", "", "abc", 0},
		{"one typo", "whole foods markt", "whole foods market", 1 - 1.0/18},
		{"ocr digit", "trader j0es", "trader joe's", 1 - 2.0/12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestLevenshtein_PartialRatio(t *testing.T) {
	s := Levenshtein{}

	// canonical name embedded in a longer header line
	assert.InDelta(t, 1.0, s.PartialRatio("walmart supercenter #1234", "walmart"), 1e-9)
	assert.InDelta(t, 1.0, s.PartialRatio("walmart", "walmart supercenter #1234"), 1e-9)

	// one substituted letter inside a 7-rune window
	assert.InDelta(t, 6.0/7, s.PartialRatio("store: walmqrt #9", "walmart"), 1e-9)

	assert.Zero(t, s.PartialRatio("", "walmart"))
	assert.Equal(t, 1.0, s.PartialRatio("", ""))
	assert.Less(t, s.PartialRatio("thank you for shopping", "costco wholesale"), 0.8)
}

func TestDefault(t *testing.T) {
	assert.IsType(t, Levenshtein{}, Default())
}
