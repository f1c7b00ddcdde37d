package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/internal/entity"
	"github.com/shab2022/Investing-Assistant/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssFeed(items ...string) string {
	body := ""
	for _, item := range items {
		body += item
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>` + body + `</channel></rss>`
}

func rssItem(title, link, description, pubDate string) string {
	item := "<item>"
	if title != "" {
		item += "<title>" + title + "</title>"
	}
	if link != "" {
		item += "<link>" + link + "</link>"
	}
	if description != "" {
		item += "<description><![CDATA[" + description + "]]></description>"
	}
	if pubDate != "" {
		item += "<pubDate>" + pubDate + "</pubDate>"
	}
	return item + "</item>"
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestNewsFetcher(cfg *config.Config, positions *fakePositionRepo, news *fakeNewsRepo) *newsFetcher {
	scorer := NewSentimentScorer(cfg, logger.NewNop(), &fakeSentimentRepo{})
	svc := NewNewsFetcher(cfg, logger.NewNop(), positions, news, scorer).(*newsFetcher)
	svc.now = fixedNow
	return svc
}

func appleFeedConfig(generalURL string) *config.Config {
	cfg := &config.Config{}
	cfg.News.GeneralFeeds = []config.Feed{{Name: "Test Wire", URL: generalURL}}
	return cfg
}

func applePositions() *fakePositionRepo {
	return &fakePositionRepo{positions: []entity.Position{
		{ID: 1, UserID: 1, Symbol: "AAPL", Quantity: 10},
		{ID: 2, UserID: 1, Symbol: "MSFT", Quantity: 5},
	}}
}

func TestFetchNews_MatchesAndStores(t *testing.T) {
	srv := serveFeed(t, rssFeed(
		rssItem("AAPL unveils new chip", "https://example.com/aapl", "Faster silicon.", "Tue, 12 Mar 2024 10:00:00 GMT"),
		rssItem("Oil prices slide", "https://example.com/oil", "", ""),
		rssItem("MSFT signs cloud deal", "https://example.com/msft", "", "Tue, 12 Mar 2024 11:00:00 GMT"),
	))

	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(appleFeedConfig(srv.URL), applePositions(), news)

	result, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Count)

	stored := news.byURL["https://example.com/aapl"]
	require.NotNil(t, stored)
	assert.Equal(t, "AAPL unveils new chip", stored.Headline)
	assert.Equal(t, "Test Wire", stored.Source)
	require.NotNil(t, stored.Symbol)
	assert.Equal(t, "AAPL", *stored.Symbol)
	assert.Equal(t, "Faster silicon.", stored.Excerpt)
	require.NotNil(t, stored.SentimentScore)

	_, unmatched := news.byURL["https://example.com/oil"]
	assert.False(t, unmatched)
}

func TestFetchNews_PerFeedCapAppliesBeforeMatching(t *testing.T) {
	// 12 fillers ahead of the only matching item; the cap of 10 must be
	// taken from the head of the feed, so the match never gets seen.
	var items []string
	for i := 0; i < 12; i++ {
		items = append(items, rssItem(fmt.Sprintf("Market note %d", i), fmt.Sprintf("https://example.com/%d", i), "", ""))
	}
	items = append(items, rssItem("AAPL soars", "https://example.com/aapl", "", ""))
	srv := serveFeed(t, rssFeed(items...))

	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(appleFeedConfig(srv.URL), applePositions(), news)

	result, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, result.Count)
}

func TestFetchNews_MissingPubDateDefaultsToNow(t *testing.T) {
	srv := serveFeed(t, rssFeed(
		rssItem("AAPL steady", "https://example.com/aapl", "", ""),
	))

	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(appleFeedConfig(srv.URL), applePositions(), news)

	_, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)

	stored := news.byURL["https://example.com/aapl"]
	require.NotNil(t, stored)
	assert.Equal(t, fixedNow(), stored.PublishedAt)
}

func TestFetchNews_DropsItemsWithoutTitleAndLink(t *testing.T) {
	srv := serveFeed(t, rssFeed(
		rssItem("", "", "orphan description", ""),
		rssItem("AAPL steady", "https://example.com/aapl", "", ""),
	))

	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(appleFeedConfig(srv.URL), applePositions(), news)

	result, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}

func TestFetchNews_FeedFailureIsIsolated(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)
	healthy := serveFeed(t, rssFeed(
		rssItem("AAPL steady", "https://example.com/aapl", "", ""),
	))

	cfg := &config.Config{}
	cfg.News.GeneralFeeds = []config.Feed{
		{Name: "Broken Wire", URL: broken.URL},
		{Name: "Test Wire", URL: healthy.URL},
	}
	cfg.News.MaxConcurrent = 1

	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(cfg, applePositions(), news)

	result, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}

func TestFetchNews_DedupesAcrossFeeds(t *testing.T) {
	body := rssFeed(rssItem("AAPL steady", "https://example.com/aapl", "", ""))
	first := serveFeed(t, body)
	second := serveFeed(t, body)

	cfg := &config.Config{}
	cfg.News.GeneralFeeds = []config.Feed{
		{Name: "Wire A", URL: first.URL},
		{Name: "Wire B", URL: second.URL},
	}

	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(cfg, applePositions(), news)

	result, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Len(t, news.byURL, 1)
}

func TestFetchNews_TargetedFeedRequiresTickerInHeadline(t *testing.T) {
	srv := serveFeed(t, rssFeed(
		rssItem("AAPL beats estimates", "https://example.com/match", "", ""),
		rssItem("Cupertino firm beats estimates", "https://example.com/nomatch", "", ""),
	))

	cfg := &config.Config{}
	cfg.News.SymbolFeedURL = srv.URL + "/?s=%s"
	cfg.News.SymbolFeedSource = "Symbol Wire"

	positions := &fakePositionRepo{positions: []entity.Position{
		{ID: 1, UserID: 1, Symbol: "AAPL", Quantity: 10},
	}}
	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(cfg, positions, news)

	result, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)

	stored := news.byURL["https://example.com/match"]
	require.NotNil(t, stored)
	assert.Equal(t, "Symbol Wire", stored.Source)
}

func TestFetchNews_NoPositions(t *testing.T) {
	svc := newTestNewsFetcher(&config.Config{}, &fakePositionRepo{}, newFakeNewsRepo())

	_, err := svc.FetchNews(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoPositions)
}

func TestFetchNews_ReRunIsIdempotent(t *testing.T) {
	srv := serveFeed(t, rssFeed(
		rssItem("AAPL steady", "https://example.com/aapl", "", ""),
	))

	news := newFakeNewsRepo()
	svc := newTestNewsFetcher(appleFeedConfig(srv.URL), applePositions(), news)

	_, err := svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)
	firstID := news.byURL["https://example.com/aapl"].ID

	_, err = svc.FetchNews(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, news.byURL, 1)
	assert.Equal(t, firstID, news.byURL["https://example.com/aapl"].ID)
}

func TestExtractExcerpt(t *testing.T) {
	cfg := &config.Config{}
	cfg.News.MaxExcerptLength = 30
	svc := &newsFetcher{cfg: cfg, log: logger.NewNop()}

	t.Run("strips markup", func(t *testing.T) {
		got := svc.extractExcerpt("<p>Shares <b>rose</b>   after hours.</p>")
		assert.Equal(t, "Shares rose after hours.", got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", svc.extractExcerpt("   "))
	})

	t.Run("truncates", func(t *testing.T) {
		got := svc.extractExcerpt("<p>This description runs well past the configured excerpt bound.</p>")
		assert.LessOrEqual(t, len(got), 30)
	})
}
