package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSymbol(t *testing.T) {
	symbols := []string{"AAPL", "MSFT", "GOOG"}

	tests := []struct {
		name     string
		headline string
		want     string
		matched  bool
	}{
		{name: "exact ticker", headline: "AAPL beats earnings expectations", want: "AAPL", matched: true},
		{name: "lowercase headline", headline: "aapl hits all-time high", want: "AAPL", matched: true},
		{name: "ticker mid-sentence", headline: "Analysts upgrade MSFT ahead of earnings", want: "MSFT", matched: true},
		{name: "first match wins", headline: "MSFT and AAPL both rally", want: "AAPL", matched: true},
		{name: "substring of a word", headline: "GOOGLE parent reports record quarter", want: "GOOG", matched: true},
		{name: "no match", headline: "Oil prices slide on supply news", matched: false},
		{name: "empty headline", headline: "", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchSymbol(tt.headline, symbols)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchSymbol_NoSymbols(t *testing.T) {
	_, ok := MatchSymbol("AAPL rallies", nil)
	assert.False(t, ok)
}
