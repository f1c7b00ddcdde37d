package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/entity"
	"github.com/shab2022/Investing-Assistant/internal/repository"
	"github.com/shab2022/Investing-Assistant/pkg/logger"
	redisPkg "github.com/shab2022/Investing-Assistant/pkg/redis"
	"github.com/shab2022/Investing-Assistant/pkg/utils"

	"gorm.io/datatypes"
)

const redisKeyLastPrice = "last_price:%s"

// PriceFetcher ingests the latest daily close price for every symbol a user
// holds and upserts the batch keyed by (symbol, processing date).
type PriceFetcher interface {
	FetchPrices(ctx context.Context, userID uint) (*dto.FetchPricesResult, error)
}

type priceFetcher struct {
	cfg          *config.Config
	log          *logger.Logger
	positionRepo repository.PositionRepository
	priceRepo    repository.PriceRepository
	quoteRepo    repository.QuoteRepository
	redisClient  *redisPkg.Client
	now          func() time.Time
}

// NewPriceFetcher creates a new PriceFetcher. redisClient may be nil, in
// which case the last-price cache is skipped.
func NewPriceFetcher(cfg *config.Config, log *logger.Logger, positionRepo repository.PositionRepository, priceRepo repository.PriceRepository, quoteRepo repository.QuoteRepository, redisClient *redisPkg.Client) PriceFetcher {
	return &priceFetcher{
		cfg:          cfg,
		log:          log,
		positionRepo: positionRepo,
		priceRepo:    priceRepo,
		quoteRepo:    quoteRepo,
		redisClient:  redisClient,
		now:          time.Now,
	}
}

// FetchPrices looks up a quote per held symbol and bulk-upserts the records
// dated to the processing day. Records are pinned to "today" even on
// non-trading days. A failed or empty quote skips that symbol only; a partial
// batch is written as-is.
func (f *priceFetcher) FetchPrices(ctx context.Context, userID uint) (*dto.FetchPricesResult, error) {
	positions, err := f.positionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	symbols := distinctSymbols(positions)
	today := utils.StartOfDay(f.now())

	maxConcurrent := f.cfg.Quote.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		records   []entity.PriceRecord
		skipped   []string
		semaphore = make(chan struct{}, maxConcurrent)
	)

	for _, symbol := range symbols {
		if !utils.ShouldContinue(ctx) {
			break
		}
		symbol := symbol
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			price, err := f.quoteRepo.GetLatestClose(ctx, symbol)
			if err != nil {
				f.log.Warn("Skipping symbol without a usable quote",
					logger.ErrorField(err), logger.StringField("symbol", symbol))
				mu.Lock()
				skipped = append(skipped, symbol)
				mu.Unlock()
				return
			}

			mu.Lock()
			records = append(records, entity.PriceRecord{
				Symbol: symbol,
				Date:   datatypes.Date(today),
				Price:  price,
			})
			mu.Unlock()

			f.cacheLastPrice(ctx, symbol, price)
		})
	}

	wg.Wait()

	// Deterministic write order for a batch assembled concurrently.
	sort.Slice(records, func(i, j int) bool { return records[i].Symbol < records[j].Symbol })

	if err := f.priceRepo.BulkUpsert(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to upsert price records: %w", err)
	}

	sort.Strings(skipped)
	f.log.Info("Price ingestion finished",
		logger.IntField("fetched", len(records)),
		logger.IntField("skipped", len(skipped)),
		logger.Field("user_id", userID))

	return &dto.FetchPricesResult{Success: true, Count: len(records), Skipped: skipped}, nil
}

func (f *priceFetcher) cacheLastPrice(ctx context.Context, symbol string, price float64) {
	if f.redisClient == nil {
		return
	}
	key := fmt.Sprintf(redisKeyLastPrice, symbol)
	pipe := f.redisClient.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"price":     price,
		"timestamp": f.now().Unix(),
	})
	ttl := f.cfg.Quote.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		f.log.Warn("Failed to cache last price",
			logger.ErrorField(err), logger.StringField("symbol", symbol))
	}
}

// distinctSymbols preserves the stored position order, which downstream
// matching treats as the canonical iteration order.
func distinctSymbols(positions []entity.Position) []string {
	seen := make(map[string]struct{}, len(positions))
	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.Symbol]; ok {
			continue
		}
		seen[p.Symbol] = struct{}{}
		symbols = append(symbols, p.Symbol)
	}
	return symbols
}
