package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-board/internal/bot"
	"todo-board/internal/config"
	"todo-board/internal/repository"
	"todo-board/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	var storage repository.Storage
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rs, err := repository.NewRedisStorage(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, "todoboard")
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rs.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rs.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		storage = rs
	case config.BackendMemory:
		log.Println("[warn] memory storage: tasks are lost on exit")
		storage = repository.NewMemoryStorage()
	default:
		storage = repository.NewSQLStorage(db)
	}
	log.Printf("[info] storage backend=%s key=%s", cfg.StorageBackend, cfg.StorageKey)

	chatRepo := repository.NewChatRepository(db)
	workspace := service.NewWorkspace(storage, cfg.StorageKey)
	categorySvc := service.NewCategoryService(cfg.DefaultCategories...)
	reminderSvc := service.NewReminderService()

	telegramBot, err := bot.New(cfg.TelegramToken, chatRepo, workspace, categorySvc, reminderSvc)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	sendReports := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("report: %v", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.ReportAt != "" {
		_, err = scheduler.ScheduleDaily(cfg.ReportAt, sendReports)
	} else {
		_, err = scheduler.ScheduleInterval(cfg.ReportInterval, sendReports)
	}
	if err != nil {
		log.Fatalf("schedule reports: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("To-do board bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
