package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartBody(closes string) string {
	return fmt.Sprintf(`{"chart":{"result":[{"indicators":{"quote":[{"close":%s}]}}],"error":null}}`, closes)
}

func newQuoteTestServer(t *testing.T, handler http.HandlerFunc) *config.Config {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{}
	cfg.Quote.BaseURL = srv.URL
	cfg.Quote.Timeout = 2 * time.Second
	return cfg
}

func TestGetLatestClose(t *testing.T) {
	cfg := newQuoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody("[148.5,149.2,150.0]"))
	})
	repo := NewQuoteRepository(cfg, logger.NewNop())

	price, err := repo.GetLatestClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.0, price)
}

func TestGetLatestClose_SkipsTrailingNulls(t *testing.T) {
	cfg := newQuoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody("[148.5,150.0,null,null]"))
	})
	repo := NewQuoteRepository(cfg, logger.NewNop())

	price, err := repo.GetLatestClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.0, price)
}

func TestGetLatestClose_AllNulls(t *testing.T) {
	cfg := newQuoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody("[null,null]"))
	})
	repo := NewQuoteRepository(cfg, logger.NewNop())

	_, err := repo.GetLatestClose(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrNoQuote)
}

func TestGetLatestClose_EmptyResult(t *testing.T) {
	cfg := newQuoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})
	repo := NewQuoteRepository(cfg, logger.NewNop())

	_, err := repo.GetLatestClose(context.Background(), "UNKNOWN")
	require.ErrorIs(t, err, ErrNoQuote)
}

func TestGetLatestClose_ProviderError(t *testing.T) {
	cfg := newQuoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	repo := NewQuoteRepository(cfg, logger.NewNop())

	_, err := repo.GetLatestClose(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGetLatestClose_MalformedBody(t *testing.T) {
	cfg := newQuoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	})
	repo := NewQuoteRepository(cfg, logger.NewNop())

	_, err := repo.GetLatestClose(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestGetLatestClose_ContextCanceled(t *testing.T) {
	cfg := newQuoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody("[150.0]"))
	})
	repo := NewQuoteRepository(cfg, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetLatestClose(ctx, "AAPL")
	require.Error(t, err)
}
