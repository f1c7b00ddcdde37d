package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shab2022/Investing-Assistant/internal/config"
	"github.com/shab2022/Investing-Assistant/internal/repository"
	"github.com/shab2022/Investing-Assistant/pkg/logger"
	"github.com/shab2022/Investing-Assistant/pkg/utils"

	"github.com/robfig/cron/v3"
)

// SweepService runs the full pipeline (prices, news, digest) for every user
// on a cron schedule. Users are independent, so a per-user failure is logged
// and the sweep moves on.
type SweepService interface {
	Start(ctx context.Context) error
	Stop()
	RunOnce(ctx context.Context)
}

type sweepService struct {
	cfg          *config.Config
	log          *logger.Logger
	userRepo     repository.UserRepository
	priceFetcher PriceFetcher
	newsFetcher  NewsFetcher
	digestSvc    DigestService
	cron         *cron.Cron
}

// NewSweepService creates a new SweepService.
func NewSweepService(cfg *config.Config, log *logger.Logger, userRepo repository.UserRepository, priceFetcher PriceFetcher, newsFetcher NewsFetcher, digestSvc DigestService) SweepService {
	return &sweepService{
		cfg:          cfg,
		log:          log,
		userRepo:     userRepo,
		priceFetcher: priceFetcher,
		newsFetcher:  newsFetcher,
		digestSvc:    digestSvc,
		cron:         cron.New(),
	}
}

// Start registers the sweep on the configured cron expression and starts the
// scheduler.
func (s *sweepService) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Sweep.CronExpression, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	s.cron.Start()
	s.log.Info("Digest sweep scheduled",
		logger.StringField("cron", s.cfg.Sweep.CronExpression))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *sweepService) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce sweeps all users immediately.
func (s *sweepService) RunOnce(ctx context.Context) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		s.log.Error("Failed to list users for sweep", logger.ErrorField(err))
		return
	}

	maxConcurrent := s.cfg.Sweep.MaxConcurrentUsers
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrent)

	for _, user := range users {
		if !utils.ShouldContinue(ctx) {
			break
		}
		user := user
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			s.runUser(ctx, user.ID)
		})
	}

	wg.Wait()
	s.log.Info("Digest sweep finished", logger.IntField("users", len(users)))
}

// runUser executes the three stages in order. A user without positions is
// skipped quietly; any other stage failure is logged and ends that user's
// run without affecting the others.
func (s *sweepService) runUser(ctx context.Context, userID uint) {
	if _, err := s.priceFetcher.FetchPrices(ctx, userID); err != nil {
		if errors.Is(err, ErrNoPositions) {
			return
		}
		s.log.Error("Sweep price ingestion failed",
			logger.ErrorField(err), logger.Field("user_id", userID))
		return
	}

	if _, err := s.newsFetcher.FetchNews(ctx, userID); err != nil {
		// Digest aggregation tolerates absent news; keep going.
		s.log.Error("Sweep news ingestion failed",
			logger.ErrorField(err), logger.Field("user_id", userID))
	}

	if _, err := s.digestSvc.GenerateDigest(ctx, userID); err != nil {
		s.log.Error("Sweep digest generation failed",
			logger.ErrorField(err), logger.Field("user_id", userID))
		return
	}
}
