package dto

import "time"

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FetchPricesResult is the outcome of one price ingestion run.
type FetchPricesResult struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Skipped []string `json:"skipped,omitempty"`
}

// FetchNewsResult is the outcome of one news ingestion run.
type FetchNewsResult struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// Mover is one position ranked by day-over-day percent change.
type Mover struct {
	Symbol        string  `json:"symbol"`
	ChangePercent float64 `json:"change_percent"`
}

// MoversSnapshot is the ranked gainer/loser snapshot stored on a digest.
type MoversSnapshot struct {
	TopGainers []Mover `json:"top_gainers"`
	TopLosers  []Mover `json:"top_losers"`
}

// DigestResponse is the API representation of a generated digest.
type DigestResponse struct {
	ID                 uint      `json:"id"`
	Date               string    `json:"date"`
	PortfolioValue     float64   `json:"portfolio_value"`
	DailyChange        float64   `json:"daily_change"`
	DailyChangePercent float64   `json:"daily_change_percent"`
	Summary            string    `json:"summary"`
	NewsCount          int       `json:"news_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// GenerateDigestResult is the outcome of one digest aggregation run.
type GenerateDigestResult struct {
	Success bool           `json:"success"`
	Digest  DigestResponse `json:"digest"`
}

// GetPricesParam filters price records by symbols and calendar date.
type GetPricesParam struct {
	Symbols []string
	Date    time.Time
}

// FindNewsParam filters scored news for digest aggregation.
type FindNewsParam struct {
	Symbols        []string
	PublishedSince time.Time
	Limit          int
}
