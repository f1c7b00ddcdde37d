package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/entity"
	"github.com/shab2022/Investing-Assistant/internal/repository"
	"github.com/shab2022/Investing-Assistant/pkg/logger"
	"github.com/shab2022/Investing-Assistant/pkg/telegram"
	"github.com/shab2022/Investing-Assistant/pkg/utils"

	"gorm.io/datatypes"
)

const (
	defaultNewsLimit = 10
	defaultTopMovers = 3

	positiveSentimentThreshold = 0.1
	negativeSentimentThreshold = -0.1
)

// DigestService aggregates positions, two days of prices, and today's scored
// news into one digest record per (user, date).
type DigestService interface {
	GenerateDigest(ctx context.Context, userID uint) (*dto.GenerateDigestResult, error)
	ListDigests(ctx context.Context, userID uint) ([]dto.DigestResponse, error)
}

type digestService struct {
	cfg          *config.Config
	log          *logger.Logger
	positionRepo repository.PositionRepository
	priceRepo    repository.PriceRepository
	newsRepo     repository.NewsRepository
	digestRepo   repository.DigestRepository
	userRepo     repository.UserRepository
	notifier     telegram.Notifier
	now          func() time.Time
}

// NewDigestService creates a new DigestService. notifier may be nil, in
// which case digest delivery is skipped.
func NewDigestService(cfg *config.Config, log *logger.Logger, positionRepo repository.PositionRepository, priceRepo repository.PriceRepository, newsRepo repository.NewsRepository, digestRepo repository.DigestRepository, userRepo repository.UserRepository, notifier telegram.Notifier) DigestService {
	return &digestService{
		cfg:          cfg,
		log:          log,
		positionRepo: positionRepo,
		priceRepo:    priceRepo,
		newsRepo:     newsRepo,
		digestRepo:   digestRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

// GenerateDigest computes the valuation snapshot and upserts the digest for
// the processing day. Missing prices value at zero rather than failing;
// "yesterday" is the previous calendar day, so Mondays and holidays without a
// price row yield zero change. Failure to read positions or prices, or to
// write the digest, aborts the run; a news-link write failure does not roll
// back a digest that already committed.
func (s *digestService) GenerateDigest(ctx context.Context, userID uint) (*dto.GenerateDigestResult, error) {
	positions, err := s.positionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	symbols := distinctSymbols(positions)
	today := utils.StartOfDay(s.now())
	yesterday := today.AddDate(0, 0, -1)

	todayPrices, err := s.loadPriceMap(ctx, symbols, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's prices: %w", err)
	}
	yesterdayPrices, err := s.loadPriceMap(ctx, symbols, yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to load yesterday's prices: %w", err)
	}

	portfolioValue := valuePortfolio(positions, todayPrices)
	yesterdayValue := valuePortfolio(positions, yesterdayPrices)

	dailyChange := portfolioValue - yesterdayValue
	dailyChangePercent := 0.0
	if yesterdayValue > 0 {
		dailyChangePercent = dailyChange / yesterdayValue * 100
	}

	topMovers := s.cfg.Digest.TopMovers
	if topMovers <= 0 {
		topMovers = defaultTopMovers
	}
	gainers, losers := rankMovers(positions, todayPrices, yesterdayPrices, topMovers)

	newsLimit := s.cfg.Digest.NewsLimit
	if newsLimit <= 0 {
		newsLimit = defaultNewsLimit
	}
	newsItems, err := s.newsRepo.FindForDigest(ctx, dto.FindNewsParam{
		Symbols:        symbols,
		PublishedSince: today,
		Limit:          newsLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load news: %w", err)
	}

	positiveCount, negativeCount := countSentiment(newsItems)
	summary := composeSummary(portfolioValue, dailyChange, dailyChangePercent, gainers, losers, positiveCount, negativeCount)

	moversJSON, err := json.Marshal(dto.MoversSnapshot{TopGainers: gainers, TopLosers: losers})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal movers: %w", err)
	}

	digest := &entity.Digest{
		UserID:             userID,
		Date:               datatypes.Date(today),
		PortfolioValue:     portfolioValue,
		DailyChange:        dailyChange,
		DailyChangePercent: dailyChangePercent,
		Summary:            summary,
		Movers:             moversJSON,
	}
	if err := s.digestRepo.Upsert(ctx, digest); err != nil {
		return nil, fmt.Errorf("failed to upsert digest: %w", err)
	}

	// The digest stands on its own; a failed link write degrades it to a
	// digest without news references instead of rolling it back.
	items := make([]entity.DigestItem, 0, len(newsItems))
	for _, news := range newsItems {
		symbol := ""
		if news.Symbol != nil {
			symbol = *news.Symbol
		}
		items = append(items, entity.DigestItem{
			DigestID:       digest.ID,
			NewsID:         news.ID,
			PositionSymbol: symbol,
		})
	}
	if err := s.digestRepo.UpsertItems(ctx, items); err != nil {
		s.log.Error("Failed to link news items to digest",
			logger.ErrorField(err), logger.Field("digest_id", digest.ID))
	}

	s.deliver(ctx, userID, summary)

	return &dto.GenerateDigestResult{
		Success: true,
		Digest: dto.DigestResponse{
			ID:                 digest.ID,
			Date:               today.Format("2006-01-02"),
			PortfolioValue:     portfolioValue,
			DailyChange:        dailyChange,
			DailyChangePercent: dailyChangePercent,
			Summary:            summary,
			NewsCount:          len(newsItems),
			CreatedAt:          digest.CreatedAt,
			UpdatedAt:          digest.UpdatedAt,
		},
	}, nil
}

// ListDigests returns the user's digests, newest first.
func (s *digestService) ListDigests(ctx context.Context, userID uint) ([]dto.DigestResponse, error) {
	digests, err := s.digestRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load digests: %w", err)
	}

	responses := make([]dto.DigestResponse, 0, len(digests))
	for _, d := range digests {
		responses = append(responses, dto.DigestResponse{
			ID:                 d.ID,
			Date:               time.Time(d.Date).Format("2006-01-02"),
			PortfolioValue:     d.PortfolioValue,
			DailyChange:        d.DailyChange,
			DailyChangePercent: d.DailyChangePercent,
			Summary:            d.Summary,
			CreatedAt:          d.CreatedAt,
			UpdatedAt:          d.UpdatedAt,
		})
	}
	return responses, nil
}

func (s *digestService) loadPriceMap(ctx context.Context, symbols []string, date time.Time) (map[string]float64, error) {
	records, err := s.priceRepo.Get(ctx, dto.GetPricesParam{Symbols: symbols, Date: date})
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(records))
	for _, r := range records {
		prices[r.Symbol] = r.Price
	}
	return prices, nil
}

// valuePortfolio sums quantity times price, pricing absent symbols at zero.
func valuePortfolio(positions []entity.Position, prices map[string]float64) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.Quantity * prices[p.Symbol]
	}
	return total
}

// rankMovers computes day-over-day percent change per position and returns the
// top gainers (descending) and losers (ascending). A missing or zero yesterday
// price yields zero change. Ties keep the original position order.
func rankMovers(positions []entity.Position, todayPrices, yesterdayPrices map[string]float64, limit int) (gainers, losers []dto.Mover) {
	movers := make([]dto.Mover, 0, len(positions))
	for _, p := range positions {
		change := 0.0
		if yesterdayPrice := yesterdayPrices[p.Symbol]; yesterdayPrice > 0 {
			change = (todayPrices[p.Symbol] - yesterdayPrice) / yesterdayPrice * 100
		}
		movers = append(movers, dto.Mover{Symbol: p.Symbol, ChangePercent: change})
	}

	gainers = make([]dto.Mover, len(movers))
	copy(gainers, movers)
	sort.SliceStable(gainers, func(i, j int) bool { return gainers[i].ChangePercent > gainers[j].ChangePercent })
	if len(gainers) > limit {
		gainers = gainers[:limit]
	}

	losers = make([]dto.Mover, len(movers))
	copy(losers, movers)
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].ChangePercent < losers[j].ChangePercent })
	if len(losers) > limit {
		losers = losers[:limit]
	}

	return gainers, losers
}

// countSentiment partitions news into positive and negative headline counts.
// Scores in (-0.1, 0.1] are neutral and counted in neither bucket; an
// unscored item counts as neutral.
func countSentiment(items []entity.NewsItem) (positive, negative int) {
	for _, item := range items {
		score := 0.0
		if item.SentimentScore != nil {
			score = *item.SentimentScore
		}
		switch {
		case score > positiveSentimentThreshold:
			positive++
		case score < negativeSentimentThreshold:
			negative++
		}
	}
	return positive, negative
}

// composeSummary renders the deterministic plain-text digest body.
func composeSummary(portfolioValue, dailyChange, dailyChangePercent float64, gainers, losers []dto.Mover, positiveCount, negativeCount int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Portfolio Value: $%.2f", portfolioValue)
	if dailyChange != 0 {
		fmt.Fprintf(&b, " (%+.2f, %.2f%%)", dailyChange, dailyChangePercent)
	}

	gainerParts := make([]string, 0, len(gainers))
	for _, g := range gainers {
		gainerParts = append(gainerParts, fmt.Sprintf("%s (%+.2f%%)", g.Symbol, g.ChangePercent))
	}
	loserParts := make([]string, 0, len(losers))
	for _, l := range losers {
		loserParts = append(loserParts, fmt.Sprintf("%s (%.2f%%)", l.Symbol, l.ChangePercent))
	}

	fmt.Fprintf(&b, "\n\nTop Gainers: %s", strings.Join(gainerParts, ", "))
	fmt.Fprintf(&b, "\nTop Losers: %s", strings.Join(loserParts, ", "))
	fmt.Fprintf(&b, "\n\nRelevant News: %d positive, %d negative headlines", positiveCount, negativeCount)

	return b.String()
}

// deliver sends the summary to the user's Telegram chat when configured.
// Delivery is best-effort and never affects the stored digest.
func (s *digestService) deliver(ctx context.Context, userID uint, summary string) {
	if s.notifier == nil {
		return
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load user for digest delivery",
			logger.ErrorField(err), logger.Field("user_id", userID))
		return
	}
	if user.TelegramChatID == nil {
		return
	}
	if err := s.notifier.SendMessage(*user.TelegramChatID, summary); err != nil {
		s.log.Warn("Failed to deliver digest",
			logger.ErrorField(err), logger.Field("user_id", userID))
	}
}
