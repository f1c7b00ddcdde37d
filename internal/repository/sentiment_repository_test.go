package repository

import (
	"context"
	"encoding/json"
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

func newSentimentTestServer(t *testing.T, handler http.HandlerFunc) *config.Config {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{}
	cfg.Sentiment.BaseURL = srv.URL
	cfg.Sentiment.Timeout = 2 * time.Second
	return cfg
}

func TestScore(t *testing.T) {
	cfg := newSentimentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sentiment", r.URL.Path)

		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL beats estimates", req.Text)

		fmt.Fprint(w, `{"score":0.82,"label":"positive"}`)
	})
	repo := NewSentimentRepository(cfg, logger.NewNop())

	score, err := repo.Score(context.Background(), "AAPL beats estimates")
	require.NoError(t, err)
	assert.Equal(t, 0.82, score)
}

func TestScore_ClampsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{name: "above one", body: `{"score":3.5,"label":"positive"}`, want: 1},
		{name: "below minus one", body: `{"score":-2.0,"label":"negative"}`, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newSentimentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			repo := NewSentimentRepository(cfg, logger.NewNop())

			score, err := repo.Score(context.Background(), "text")
			require.NoError(t, err)
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestScore_ServiceError(t *testing.T) {
	cfg := newSentimentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	repo := NewSentimentRepository(cfg, logger.NewNop())

	_, err := repo.Score(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestScore_MalformedBody(t *testing.T) {
	cfg := newSentimentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	})
	repo := NewSentimentRepository(cfg, logger.NewNop())

	_, err := repo.Score(context.Background(), "text")
	require.Error(t, err)
}

func TestScore_Timeout(t *testing.T) {
	cfg := newSentimentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"score":0.5,"label":"positive"}`)
	})
	cfg.Sentiment.Timeout = 50 * time.Millisecond
	repo := NewSentimentRepository(cfg, logger.NewNop())

	_, err := repo.Score(context.Background(), "text")
	require.Error(t, err)
}
