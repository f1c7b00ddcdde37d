package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/pkg/logger"

	"golang.org/x/time/rate"
)

// ErrNoQuote is returned when the provider answered but carried no usable
// close price for the symbol.
var ErrNoQuote = errors.New("no quote available")

// QuoteRepository defines the interface for the external daily quote provider.
type QuoteRepository interface {
	GetLatestClose(ctx context.Context, symbol string) (float64, error)
}

type quoteRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewQuoteRepository creates a quote client against a Yahoo-chart-shaped API.
func NewQuoteRepository(cfg *config.Config, log *logger.Logger) QuoteRepository {
	limit := rate.Inf
	if cfg.Quote.MaxRequestPerMinute > 0 {
		secondsPerRequest := time.Minute / time.Duration(cfg.Quote.MaxRequestPerMinute)
		limit = rate.Every(secondsPerRequest)
	}
	return &quoteRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Quote.Timeout,
		},
		requestLimiter: rate.NewLimiter(limit, 1),
	}
}

// chartResponse mirrors the provider's chart payload. The provider is
// untrusted: every level may be absent and close entries may be null.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (r *quoteRepository) GetLatestClose(ctx context.Context, symbol string) (float64, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", r.cfg.Quote.BaseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create quote request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read quote response: %w", err)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return 0, fmt.Errorf("failed to decode quote response: %w", err)
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return 0, ErrNoQuote
	}

	closes := chart.Chart.Result[0].Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil && *closes[i] > 0 {
			return *closes[i], nil
		}
	}

	return 0, ErrNoQuote
}
