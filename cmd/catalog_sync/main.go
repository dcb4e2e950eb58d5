package main

import (
	"context"
	"flag"
	"time"

	"github.com/vinayak200306/Veluno/internal/cache"
	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/dao/mysql"
	redisinit "github.com/vinayak200306/Veluno/internal/dao/redis"
	"github.com/vinayak200306/Veluno/internal/qikink"
	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/app"
	"github.com/vinayak200306/Veluno/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	cfg := app.BootstrapApp()

	db, err := mysql.InitDB(&cfg.Database.Mysql)
	if err != nil {
		logger.Fatal("Failed to init MySQL", "err", err)
	}

	rdb, err := redisinit.InitRedis(&cfg.Database.Redis)
	if err != nil {
		logger.Fatal("Failed to init Redis", "err", err)
	}

	productDao := dao.NewProductDao(db)
	catalogCache := cache.NewCatalogCache(rdb, 5*time.Minute)
	tokens := qikink.NewTokenProvider(&cfg.Qikink, nil)
	client := qikink.NewClient(&cfg.Qikink, tokens, nil)
	syncService := service.NewSyncService(client, productDao, catalogCache)

	if *once {
		runSync(syncService)
		return
	}

	// 每天在配置的小时执行一次
	logger.Info("Catalog sync scheduler started", "sync_hour", cfg.Qikink.SyncHour)
	for {
		next := nextRunAfter(time.Now(), cfg.Qikink.SyncHour)
		logger.Info("Next catalog sync scheduled", "at", next.Format(time.RFC3339))
		time.Sleep(time.Until(next))
		runSync(syncService)
	}
}

func runSync(s *service.SyncService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.SyncCatalog(ctx); err != nil {
		logger.Error("catalog sync failed", "err", err)
	}
}

// nextRunAfter 计算下一个执行时间点（本地时区的指定小时）
func nextRunAfter(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
