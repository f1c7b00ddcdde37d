package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/shab2022/Investing-Assistant/docs"
	"github.com/shab2022/Investing-Assistant/internal/config"
	delivery "github.com/shab2022/Investing-Assistant/internal/delivery/http"
	"github.com/shab2022/Investing-Assistant/internal/repository"
	"github.com/shab2022/Investing-Assistant/internal/service"
	"github.com/shab2022/Investing-Assistant/pkg/logger"
	"github.com/shab2022/Investing-Assistant/pkg/postgres"
	"github.com/shab2022/Investing-Assistant/pkg/redis"
	"github.com/shab2022/Investing-Assistant/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

// app holds the wired dependency graph shared by the serve and sweep
// commands.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	userRepo     repository.UserRepository
	priceFetcher service.PriceFetcher
	newsFetcher  service.NewsFetcher
	digestSvc    service.DigestService
	sweepSvc     service.SweepService
	close        func()
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	positionRepo := repository.NewPositionRepository(db.DB)
	priceRepo := repository.NewPriceRepository(db.DB)
	newsRepo := repository.NewNewsRepository(db.DB)
	digestRepo := repository.NewDigestRepository(db.DB)
	quoteRepo := repository.NewQuoteRepository(cfg, appLogger)
	sentimentRepo := repository.NewSentimentRepository(cfg, appLogger)

	// Services
	scorer := service.NewSentimentScorer(cfg, appLogger, sentimentRepo)
	priceFetcher := service.NewPriceFetcher(cfg, appLogger, positionRepo, priceRepo, quoteRepo, redisClient)
	newsFetcher := service.NewNewsFetcher(cfg, appLogger, positionRepo, newsRepo, scorer)
	digestSvc := service.NewDigestService(cfg, appLogger, positionRepo, priceRepo, newsRepo, digestRepo, userRepo, notifier)
	sweepSvc := service.NewSweepService(cfg, appLogger, userRepo, priceFetcher, newsFetcher, digestSvc)

	return &app{
		cfg:          cfg,
		log:          appLogger,
		userRepo:     userRepo,
		priceFetcher: priceFetcher,
		newsFetcher:  newsFetcher,
		digestSvc:    digestSvc,
		sweepSvc:     sweepSvc,
		close: func() {
			redisClient.Close()
			if sqlDB, err := db.DB.DB(); err == nil {
				sqlDB.Close()
			}
			_ = appLogger.Sync()
		},
	}, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the digest service",
	Run:   runServe,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Runs the full pipeline once for every user and exits",
	Run:   runSweep,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.close()

	a.log.Info("Starting Digest Service", logger.Field("name", a.cfg.App.Name))

	if a.cfg.Sweep.Enabled {
		if err := a.sweepSvc.Start(ctx); err != nil {
			a.log.Fatal("Failed to start sweep", logger.ErrorField(err))
		}
		defer a.sweepSvc.Stop()
	}

	e := echo.New()
	e.HideBanner = true

	pipelineHandler := delivery.NewPipelineHandler(a.priceFetcher, a.newsFetcher, a.digestSvc, a.log)
	apiV1 := e.Group("/api/v1", delivery.AuthMiddleware(a.userRepo, a.log))
	pipelineHandler.RegisterRoutes(apiV1)

	e.GET("/swagger/*", swagger.WrapHandler)

	go func() {
		addr := fmt.Sprintf(":%d", a.cfg.API.Port)
		a.log.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.log.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	a.log.Info("Server exiting")
}

func runSweep(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.close()

	a.log.Info("Running one-off digest sweep")
	a.sweepSvc.RunOnce(ctx)
}

// @title Investing Assistant API
// @version 1.0
// @description Daily portfolio digest pipeline: price ingestion, news matching and sentiment scoring, digest aggregation.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "digest-service"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, sweepCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing digest-service CLI: %s\n", err)
		os.Exit(1)
	}
}
