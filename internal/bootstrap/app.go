package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"communibot/internal/ai"
	appsvc "communibot/internal/app"
	"communibot/internal/cache"
	"communibot/internal/config"
	"communibot/internal/index"
	"communibot/internal/memory"
	"communibot/internal/model"
	mysqlClient "communibot/internal/platform/mysql"
	rabbitmqClient "communibot/internal/platform/rabbitmq"
	redisClient "communibot/internal/platform/redis"
	"communibot/internal/ratelimit"
	"communibot/internal/repository"
	"communibot/internal/worker"
)

type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Index       *index.Index
	Memory      *memory.Store
	Provider    *ai.Client
	UsageWorker *worker.UsageLogWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.AdminUser{},
		&model.KnowledgeFile{},
		&model.Passage{},
		&model.Posting{},
		&model.GroupAIConfig{},
		&model.AIUsageLog{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	if err := appsvc.NewIngestService(mysqlDB, idx, cfg.Knowledge.PassageChars).RebuildIndex(); err != nil {
		return nil, fmt.Errorf("rebuild index failed: %w", err)
	}

	memoryTTL := time.Duration(cfg.Answer.MemoryTTLMinutes) * time.Minute
	turnCache := cache.NewTurnCache(redisCli, memoryTTL)
	mem := memory.NewStore(cfg.Answer.MemoryTurns, memoryTTL, turnCache)

	limiter := ratelimit.NewSlidingWindow(cfg.Provider.QuotaPerMinute, time.Minute)
	provider := ai.NewClient(ai.Config{
		BaseURL:        cfg.Provider.BaseURL,
		APIKey:         cfg.Provider.APIKey,
		Model:          cfg.Provider.Model,
		MaxTokens:      cfg.Provider.MaxTokens,
		MaxPromptChars: cfg.Provider.MaxPromptChars,
		RequestTimeout: time.Duration(cfg.Provider.RequestTimeoutSeconds) * time.Second,
	}, limiter, cfg.Provider.MaxConcurrent, cfg.Provider.MaxRetries)

	usageRepo := repository.NewUsageLogRepository(mysqlDB)
	usageWorker := worker.NewUsageLogWorker(mqConn, usageRepo, cfg.RabbitMQ.UsageLogQueue)
	if err := usageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start usage log worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		Index:       idx,
		Memory:      mem,
		Provider:    provider,
		UsageWorker: usageWorker,
		StartedAt:   time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.UsageWorker != nil {
		a.UsageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
