package service

import (
	"context"
	"strings"
	"sync"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/internal/entity"
	"github.com/shab2022/Investing-Assistant/internal/repository"
	"github.com/shab2022/Investing-Assistant/pkg/logger"
	"github.com/shab2022/Investing-Assistant/pkg/utils"
)

const (
	defaultMaxTextLength = 512
	defaultMaxConcurrent = 5
)

// SentimentScorer assigns a sentiment score to each news item by calling the
// external classifier. A classifier failure of any kind degrades that item to
// a neutral score of exactly 0 and never surfaces to the caller.
type SentimentScorer struct {
	cfg           *config.Config
	log           *logger.Logger
	sentimentRepo repository.SentimentRepository
}

// NewSentimentScorer creates a new SentimentScorer.
func NewSentimentScorer(cfg *config.Config, log *logger.Logger, sentimentRepo repository.SentimentRepository) *SentimentScorer {
	return &SentimentScorer{
		cfg:           cfg,
		log:           log,
		sentimentRepo: sentimentRepo,
	}
}

// ScoreBatch scores all items in place. Items are independent, so they are
// scored concurrently over a bounded semaphore; each call is idempotent on
// retry.
func (s *SentimentScorer) ScoreBatch(ctx context.Context, items []*entity.NewsItem) {
	maxConcurrent := s.cfg.Sentiment.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrent)

	for _, item := range items {
		if !utils.ShouldContinue(ctx) {
			break
		}
		item := item
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			score := s.scoreOne(ctx, item)
			item.SentimentScore = &score
		})
	}

	wg.Wait()
}

func (s *SentimentScorer) scoreOne(ctx context.Context, item *entity.NewsItem) float64 {
	maxLen := s.cfg.Sentiment.MaxTextLength
	if maxLen <= 0 {
		maxLen = defaultMaxTextLength
	}

	text := item.Headline
	if item.Excerpt != "" {
		text = text + ". " + item.Excerpt
	}
	text = utils.TruncateRunes(strings.TrimSpace(text), maxLen)

	score, err := s.sentimentRepo.Score(ctx, text)
	if err != nil {
		s.log.Warn("Sentiment scoring failed, defaulting to neutral",
			logger.ErrorField(err), logger.StringField("url", item.URL))
		return 0
	}
	return score
}
