package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/entity"
	"github.com/shab2022/Investing-Assistant/internal/repository"
	"github.com/shab2022/Investing-Assistant/pkg/logger"
	"github.com/shab2022/Investing-Assistant/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
)

const (
	defaultMaxItemsPerFeed  = 10
	defaultMaxExcerptLength = 500
)

// NewsFetcher pulls candidate headlines from the configured feeds, matches
// each one to at most one held symbol, scores the batch, and upserts items
// keyed by canonical URL.
type NewsFetcher interface {
	FetchNews(ctx context.Context, userID uint) (*dto.FetchNewsResult, error)
}

type newsFetcher struct {
	cfg          *config.Config
	log          *logger.Logger
	positionRepo repository.PositionRepository
	newsRepo     repository.NewsRepository
	scorer       *SentimentScorer
	feedCache    *cache.Cache
	now          func() time.Time
}

// NewNewsFetcher creates a new NewsFetcher.
func NewNewsFetcher(cfg *config.Config, log *logger.Logger, positionRepo repository.PositionRepository, newsRepo repository.NewsRepository, scorer *SentimentScorer) NewsFetcher {
	ttl := cfg.News.FeedCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &newsFetcher{
		cfg:          cfg,
		log:          log,
		positionRepo: positionRepo,
		newsRepo:     newsRepo,
		scorer:       scorer,
		feedCache:    cache.New(ttl, 2*ttl),
		now:          time.Now,
	}
}

// feedSource is one feed to scan. Symbol is set for targeted per-symbol
// feeds and empty for general market feeds.
type feedSource struct {
	URL    string
	Source string
	Symbol string
}

// FetchNews processes every configured feed for the user's symbols. A single
// feed failure is logged and skipped; it never aborts the remaining feeds.
func (f *newsFetcher) FetchNews(ctx context.Context, userID uint) (*dto.FetchNewsResult, error) {
	positions, err := f.positionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	symbols := distinctSymbols(positions)
	sources := f.buildSources(symbols)

	maxConcurrent := f.cfg.News.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		collected []*entity.NewsItem
		semaphore = make(chan struct{}, maxConcurrent)
	)

	for _, source := range sources {
		if !utils.ShouldContinue(ctx) {
			break
		}
		source := source
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			items, err := f.processFeed(ctx, source, symbols)
			if err != nil {
				f.log.Error("Failed to process feed, skipping",
					logger.ErrorField(err), logger.StringField("url", source.URL))
				return
			}
			mu.Lock()
			collected = append(collected, items...)
			mu.Unlock()
		})
	}

	wg.Wait()

	// Two feeds reporting the same article collapse before scoring so the
	// classifier is called once per canonical URL.
	deduped := dedupeByURL(collected)

	f.scorer.ScoreBatch(ctx, deduped)

	for _, item := range deduped {
		if err := f.newsRepo.Upsert(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to upsert news item %q: %w", item.URL, err)
		}
	}

	f.log.Info("News ingestion finished",
		logger.IntField("count", len(deduped)),
		logger.Field("user_id", userID))

	return &dto.FetchNewsResult{Success: true, Count: len(deduped)}, nil
}

func (f *newsFetcher) buildSources(symbols []string) []feedSource {
	var sources []feedSource
	if f.cfg.News.SymbolFeedURL != "" {
		for _, symbol := range symbols {
			sources = append(sources, feedSource{
				URL:    fmt.Sprintf(f.cfg.News.SymbolFeedURL, symbol),
				Source: f.cfg.News.SymbolFeedSource,
				Symbol: symbol,
			})
		}
	}
	for _, feed := range f.cfg.News.GeneralFeeds {
		sources = append(sources, feedSource{URL: feed.URL, Source: feed.Name})
	}
	return sources
}

func (f *newsFetcher) processFeed(ctx context.Context, source feedSource, symbols []string) ([]*entity.NewsItem, error) {
	feed, err := f.parseFeed(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	maxItems := f.cfg.News.MaxItemsPerFeed
	if maxItems <= 0 {
		maxItems = defaultMaxItemsPerFeed
	}

	// The per-feed cap applies before matching.
	items := feed.Items
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	var matched []*entity.NewsItem
	for _, item := range items {
		newsItem, ok := f.toNewsItem(item, source, symbols)
		if !ok {
			continue
		}
		matched = append(matched, newsItem)
	}
	return matched, nil
}

func (f *newsFetcher) parseFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	if cached, ok := f.feedCache.Get(url); ok {
		return cached.(*gofeed.Feed), nil
	}

	fp := gofeed.NewParser()
	feed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	f.feedCache.SetDefault(url, feed)
	return feed, nil
}

// toNewsItem converts one feed entry, returning false for entries that are
// dropped: no title and no link, or no matched symbol.
func (f *newsFetcher) toNewsItem(item *gofeed.Item, source feedSource, symbols []string) (*entity.NewsItem, bool) {
	headline := utils.CleanToValidUTF8(strings.TrimSpace(item.Title))
	link := strings.TrimSpace(item.Link)
	if headline == "" && link == "" {
		return nil, false
	}

	symbol := source.Symbol
	if symbol != "" {
		// Targeted feeds still require the ticker in the headline text.
		if _, ok := MatchSymbol(headline, []string{symbol}); !ok {
			return nil, false
		}
	} else {
		matchedSymbol, ok := MatchSymbol(headline, symbols)
		if !ok {
			return nil, false
		}
		symbol = matchedSymbol
	}

	publishedAt := f.now()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	}

	return &entity.NewsItem{
		URL:         link,
		Headline:    headline,
		Source:      source.Source,
		PublishedAt: publishedAt,
		Symbol:      &symbol,
		Excerpt:     f.extractExcerpt(item.Description),
	}, true
}

// extractExcerpt turns an HTML feed description into bounded plain text for
// the classifier payload. Extraction failures degrade to an empty excerpt.
func (f *newsFetcher) extractExcerpt(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}

	// Short feed descriptions often fall below the extractor's content
	// threshold, so an empty extraction falls back to the raw markup.
	content := description
	if doc, err := readability.NewDocument(description); err == nil {
		if extracted := strings.TrimSpace(doc.Content()); extracted != "" {
			content = extracted
		}
	}

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(gq.Text()), " ")

	maxLen := f.cfg.News.MaxExcerptLength
	if maxLen <= 0 {
		maxLen = defaultMaxExcerptLength
	}
	return utils.TruncateRunes(utils.CleanToValidUTF8(text), maxLen)
}

func dedupeByURL(items []*entity.NewsItem) []*entity.NewsItem {
	byURL := make(map[string]int, len(items))
	var deduped []*entity.NewsItem
	for _, item := range items {
		if idx, ok := byURL[item.URL]; ok {
			// Last write wins on non-key fields, matching store semantics.
			deduped[idx] = item
			continue
		}
		byURL[item.URL] = len(deduped)
		deduped = append(deduped, item)
	}
	return deduped
}
