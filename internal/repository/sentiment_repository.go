package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/pkg/logger"
)

// SentimentRepository defines the interface for the external text classifier.
type SentimentRepository interface {
	Score(ctx context.Context, text string) (float64, error)
}

type sentimentRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
}

// NewSentimentRepository creates a client for the sentiment scoring service.
func NewSentimentRepository(cfg *config.Config, log *logger.Logger) SentimentRepository {
	return &sentimentRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Sentiment.Timeout,
		},
	}
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// Score classifies the text and returns a score in [-1, 1]. Any transport or
// payload failure is returned as an error; the caller decides how to degrade.
func (r *sentimentRepository) Score(ctx context.Context, text string) (float64, error) {
	payload, err := json.Marshal(sentimentRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal sentiment request: %w", err)
	}

	url := r.cfg.Sentiment.BaseURL + "/sentiment"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call sentiment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sentiment service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read sentiment response: %w", err)
	}

	var result sentimentResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to decode sentiment response: %w", err)
	}

	score := result.Score
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score, nil
}
