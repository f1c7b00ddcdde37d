package service

import "strings"

// MatchSymbol associates a headline with at most one portfolio symbol: the
// first symbol in iteration order whose ticker appears as a substring of the
// uppercased headline. Headlines mentioning several held symbols therefore
// resolve to whichever comes first in the candidate order; callers that need
// a stable outcome must pass a stable order.
func MatchSymbol(headline string, symbols []string) (string, bool) {
	upper := strings.ToUpper(headline)
	for _, symbol := range symbols {
		if symbol == "" {
			continue
		}
		if strings.Contains(upper, symbol) {
			return symbol, true
		}
	}
	return "", false
}
