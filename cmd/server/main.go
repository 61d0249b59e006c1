package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"updown/internal/client/prices"
	"updown/internal/config"
	cronrunner "updown/internal/cron"
	"updown/internal/db"
	"updown/internal/handler"
	"updown/internal/lock"
	"updown/internal/logger"
	gormrepository "updown/internal/repository/gorm"
	"updown/internal/reward"
	"updown/internal/round"
	"updown/internal/service"
	"updown/internal/streak"
	"updown/internal/txn"
)

func main() {
	cfgPath := os.Getenv("UD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("UD_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	txm := txn.New(dbConn.Gorm)
	store := gormrepository.New(txm)
	schedule := round.NewSchedule(cfg.Game)

	strategy, err := reward.ForName(cfg.Settlement.RewardStrategy, decimal.NewFromFloat(cfg.Settlement.BaseAssetCoins))
	if err != nil {
		logger.Fatal("invalid reward strategy", zap.Error(err))
	}

	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		locker = lock.NewRedis(rdb)
		logger.Info("settlement lock backed by redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		locker = lock.NewLocal()
		logger.Info("settlement lock is in-process only")
	}

	streakSvc := &streak.Service{
		Store:               store,
		MaxInactivityRounds: cfg.Settlement.MaxInactivityRounds,
	}
	userSvc := &service.UserService{Repo: store, Logger: logger}
	submissionSvc := &service.SubmissionService{
		Repo:     store,
		Tx:       txm,
		Schedule: schedule,
		Logger:   logger,
	}
	tournamentSvc := &service.TournamentService{Repo: store, Tx: txm, Logger: logger}
	battleSvc := &service.BattleService{
		Repo:     store,
		Tx:       txm,
		Schedule: schedule,
		Logger:   logger,
	}
	settlementSvc := &service.SettlementService{
		Repo:     store,
		Tx:       txm,
		Schedule: schedule,
		Streaks:  streakSvc,
		Strategy: strategy,
		Battles:  battleSvc,
		Locker:   locker,
		Logger:   logger,
		Config:   cfg.Settlement,
	}
	snapshotSvc := &service.SnapshotSyncService{
		Repo:   store,
		Client: prices.NewClient(cfg.Prices.BaseURL, cfg.Prices.APIKey, cfg.Prices.Timeout),
		Assets: cfg.Game.Assets,
		Logger: logger,
		Config: cfg.Prices,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	(&handler.HealthHandler{DB: dbConn.Gorm}).Register(engine)
	(&handler.UserHandler{Users: userSvc}).Register(engine)
	(&handler.SubmissionHandler{Submissions: submissionSvc}).Register(engine)
	(&handler.TournamentHandler{Tournaments: tournamentSvc}).Register(engine)
	(&handler.BattleHandler{Battles: battleSvc}).Register(engine)
	(&handler.RoundHandler{Schedule: schedule}).Register(engine)
	(&handler.StreakHandler{Streaks: streakSvc}).Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		if _, err := cronRunner.Add(cfg.Cron.PriceSync, "price-sync", snapshotSvc.RunOnce); err != nil {
			logger.Fatal("cron register price sync failed", zap.Error(err))
		}
		if _, err := cronRunner.Add(cfg.Cron.Settlement, "settlement", settlementSvc.RunCycle); err != nil {
			logger.Fatal("cron register settlement failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
