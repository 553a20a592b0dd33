package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ragserver/internal/ai"
	appsvc "ragserver/internal/app"
	"ragserver/internal/cache"
	"ragserver/internal/config"
	"ragserver/internal/model"
	mysqlClient "ragserver/internal/platform/mysql"
	rabbitmqClient "ragserver/internal/platform/rabbitmq"
	redisClient "ragserver/internal/platform/redis"
	"ragserver/internal/rag"
	"ragserver/internal/repository"
	"ragserver/internal/store"
	"ragserver/internal/worker"
)

// App holds the wired application. MySQL, Redis and RabbitMQ are optional:
// without MySQL the stores are in-memory, without Redis there is no message
// cache, without RabbitMQ query logs are not recorded. The choice is made
// once here and never revisited per request.
type App struct {
	Config    *config.Config
	MySQL     *gorm.DB
	Redis     *redis.Client
	MQConn    *amqp.Connection
	LogWorker *worker.QueryLogWorker

	Conversations store.ConversationStore
	Chunks        store.ChunkStore

	QueryService        *appsvc.QueryService
	IndexService        *appsvc.IndexService
	ConversationService *appsvc.ConversationService
	EvalService         *appsvc.EvalService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	app := &App{Config: cfg, StartedAt: time.Now()}

	if dsn := cfg.MySQLDSN(); dsn != "" {
		db, err := mysqlClient.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(
			&model.Conversation{},
			&model.Message{},
			&model.Chunk{},
			&model.Document{},
			&model.QueryLog{},
		); err != nil {
			return nil, fmt.Errorf("auto migrate tables failed: %w", err)
		}
		app.MySQL = db
		app.Conversations = store.NewGormConversationStore(db)
		app.Chunks = store.NewGormChunkStore(db, cfg.Embedding.Dimension)
	} else {
		log.Printf("mysql not configured, using in-memory stores")
		app.Conversations = store.NewMemoryConversationStore()
		app.Chunks = store.NewMemoryChunkStore(cfg.Embedding.Dimension)
	}

	var msgCache appsvc.MessageCache
	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		app.Redis = redisCli
		msgCache = cache.NewConversationCache(
			redisCli,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.DirtyTTLSeconds)*time.Second,
		)
	}

	var logSink appsvc.QueryLogSink
	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		app.MQConn = mqConn
		logSink = rabbitmqClient.NewQueryLogPublisher(mqConn, cfg.RabbitMQ.QueryLogQueue)

		// The consumer needs a durable table to write into.
		if app.MySQL != nil {
			logRepo := repository.NewQueryLogRepository(app.MySQL)
			app.LogWorker = worker.NewQueryLogWorker(mqConn, logRepo, cfg.RabbitMQ.QueryLogQueue)
			if err := app.LogWorker.Start(ctx); err != nil {
				return nil, fmt.Errorf("start query log worker failed: %w", err)
			}
		}
	}

	aiClient := ai.NewOpenAICompatibleClient()
	chatCfg := ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}
	embCfg := ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}
	rerankCfg := ai.RerankConfig{
		BaseURL: cfg.Rerank.BaseURL,
		APIKey:  cfg.Rerank.APIKey,
		Model:   cfg.Rerank.Model,
	}

	retriever := rag.NewRetriever(app.Chunks)
	reranker := rag.NewReranker(aiClient, rerankCfg)
	generator := rag.NewGenerator(aiClient, chatCfg, cfg.Retrieval.ContextBudgetTokens)

	pipeline := appsvc.NewPipeline(
		aiClient,
		embCfg,
		retriever,
		reranker,
		generator,
		cfg.Retrieval.TopKRetrieval,
		cfg.Retrieval.TopKRerank,
	)

	app.QueryService = appsvc.NewQueryService(
		pipeline,
		logSink,
		cfg.Retrieval.MaxQueryChars,
		cfg.Retrieval.MaxConcurrent,
	)
	app.IndexService = appsvc.NewIndexService(
		app.Chunks,
		aiClient,
		embCfg,
		cfg.Retrieval.ChunkSize,
		cfg.Retrieval.ChunkOverlap,
		cfg.Embedding.BatchSize,
		cfg.Retrieval.MaxDocumentChars,
	)
	app.ConversationService = appsvc.NewConversationService(
		app.Conversations,
		msgCache,
		pipeline,
		logSink,
		cfg.Retrieval.MaxQueryChars,
	)
	app.EvalService = appsvc.NewEvalService(
		app.IndexService,
		pipeline,
		aiClient,
		chatCfg,
		cfg.Eval.DatasetPath,
		cfg.Eval.QAPairs,
	)

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.LogWorker != nil {
		a.LogWorker.Close()
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
