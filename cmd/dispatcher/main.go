// dispatcher 执行一次到期提醒派发后退出，由 cron 等外部调度触发
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"manabi/backend/config"
	"manabi/backend/internal/repository"
	"manabi/backend/internal/service"
	"manabi/backend/pkg/database"
	applogger "manabi/backend/pkg/logger"
	"manabi/backend/pkg/notifier"
	"manabi/backend/pkg/redis"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "dispatcher")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}()
	if cfg.Database.Driver == config.DriverSQLite {
		if err := repository.AutoMigrate(db); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	}

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，派发将在无互斥锁的情况下执行", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, rdb, notifier.NewLogNotifier(logger), nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// 运行时长以锁 TTL 为上限
	ctx, cancel := context.WithTimeout(ctx, cfg.Reminder.DispatchLockTTL)
	defer cancel()

	start := time.Now()
	result, err := svc.Dispatch.DispatchDue(ctx)
	if errors.Is(err, service.ErrDispatchInProgress) {
		logger.Info("已有派发任务执行中，本次跳过")
		return
	}

	fields := []zap.Field{zap.Duration("elapsed", time.Since(start))}
	if result != nil {
		fields = append(fields,
			zap.Int("total", result.Total),
			zap.Int("sent", result.Sent),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
	if err != nil {
		logger.Error("提醒派发失败", append(fields, zap.Error(err))...)
		os.Exit(1)
	}
	logger.Info("提醒派发完成", fields...)
}
