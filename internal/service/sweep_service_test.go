package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/entity"
	"github.com/shab2022/Investing-Assistant/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type stubStage struct {
	mu    sync.Mutex
	calls []uint
	errs  map[uint]error
}

func (s *stubStage) record(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, userID)
	return s.errs[userID]
}

func (s *stubStage) called(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.calls {
		if id == userID {
			return true
		}
	}
	return false
}

type stubPriceFetcher struct{ stubStage }

func (s *stubPriceFetcher) FetchPrices(ctx context.Context, userID uint) (*dto.FetchPricesResult, error) {
	if err := s.record(userID); err != nil {
		return nil, err
	}
	return &dto.FetchPricesResult{Success: true}, nil
}

type stubNewsFetcher struct{ stubStage }

func (s *stubNewsFetcher) FetchNews(ctx context.Context, userID uint) (*dto.FetchNewsResult, error) {
	if err := s.record(userID); err != nil {
		return nil, err
	}
	return &dto.FetchNewsResult{Success: true}, nil
}

type stubDigestService struct{ stubStage }

func (s *stubDigestService) GenerateDigest(ctx context.Context, userID uint) (*dto.GenerateDigestResult, error) {
	if err := s.record(userID); err != nil {
		return nil, err
	}
	return &dto.GenerateDigestResult{Success: true}, nil
}

func (s *stubDigestService) ListDigests(ctx context.Context, userID uint) ([]dto.DigestResponse, error) {
	return nil, nil
}

func TestRunOnce_SweepsAllUsers(t *testing.T) {
	users := &fakeUserRepo{users: []entity.User{{ID: 1}, {ID: 2}, {ID: 3}}}
	prices := &stubPriceFetcher{}
	news := &stubNewsFetcher{}
	digest := &stubDigestService{}

	svc := NewSweepService(&config.Config{}, logger.NewNop(), users, prices, news, digest)
	svc.RunOnce(context.Background())

	for _, id := range []uint{1, 2, 3} {
		assert.True(t, prices.called(id))
		assert.True(t, news.called(id))
		assert.True(t, digest.called(id))
	}
}

func TestRunOnce_UserWithoutPositionsIsSkipped(t *testing.T) {
	users := &fakeUserRepo{users: []entity.User{{ID: 1}, {ID: 2}}}
	prices := &stubPriceFetcher{}
	prices.errs = map[uint]error{1: ErrNoPositions}
	news := &stubNewsFetcher{}
	digest := &stubDigestService{}

	svc := NewSweepService(&config.Config{}, logger.NewNop(), users, prices, news, digest)
	svc.RunOnce(context.Background())

	assert.False(t, news.called(1))
	assert.False(t, digest.called(1))
	assert.True(t, digest.called(2))
}

func TestRunOnce_NewsFailureStillGeneratesDigest(t *testing.T) {
	users := &fakeUserRepo{users: []entity.User{{ID: 1}}}
	prices := &stubPriceFetcher{}
	news := &stubNewsFetcher{}
	news.errs = map[uint]error{1: fmt.Errorf("feed down")}
	digest := &stubDigestService{}

	svc := NewSweepService(&config.Config{}, logger.NewNop(), users, prices, news, digest)
	svc.RunOnce(context.Background())

	assert.True(t, digest.called(1))
}

func TestRunOnce_PriceFailureStopsUser(t *testing.T) {
	users := &fakeUserRepo{users: []entity.User{{ID: 1}}}
	prices := &stubPriceFetcher{}
	prices.errs = map[uint]error{1: fmt.Errorf("provider down")}
	news := &stubNewsFetcher{}
	digest := &stubDigestService{}

	svc := NewSweepService(&config.Config{}, logger.NewNop(), users, prices, news, digest)
	svc.RunOnce(context.Background())

	assert.False(t, news.called(1))
	assert.False(t, digest.called(1))
}
