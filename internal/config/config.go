package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Rerank    RerankConfig    `toml:"rerank"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Eval      EvalConfig      `toml:"eval"`
	MySQL     MySQLConfig     `toml:"mysql"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type LLMConfig struct {
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

type EmbeddingConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension"`
	BatchSize int    `toml:"batch_size"`
}

type RerankConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type RetrievalConfig struct {
	TopKRetrieval       int `toml:"top_k_retrieval"`
	TopKRerank          int `toml:"top_k_rerank"`
	ChunkSize           int `toml:"chunk_size"`
	ChunkOverlap        int `toml:"chunk_overlap"`
	MaxQueryChars       int `toml:"max_query_chars"`
	MaxDocumentChars    int `toml:"max_document_chars"`
	ContextBudgetTokens int `toml:"context_budget_tokens"`
	MaxConcurrent       int `toml:"max_concurrent"`
}

type EvalConfig struct {
	DatasetPath string `toml:"dataset_path"`
	QAPairs     int    `toml:"qa_pairs"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

type RedisConfig struct {
	Addr              string `toml:"addr"`
	Password          string `toml:"password"`
	DB                int    `toml:"db"`
	HistoryTTLSeconds int    `toml:"history_ttl_seconds"`
	DirtyTTLSeconds   int    `toml:"dirty_ttl_seconds"`
}

type RabbitMQConfig struct {
	URL           string `toml:"url"`
	QueryLogQueue string `toml:"query_log_queue"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// MySQLDSN returns an empty string when no durable store is configured;
// the server then falls back to in-memory storage.
func (c *Config) MySQLDSN() string {
	if c.MySQL.Host == "" || c.MySQL.DB == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.DB,
		c.MySQL.Params,
	)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "ragserver",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8000,
			GinMode: "release",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			MaxTokens:   2048,
			Temperature: 0.1,
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			BatchSize: 10, // many providers limit embedding batch size
		},
		Rerank: RerankConfig{
			Model: "bge-reranker-v2-m3",
		},
		Retrieval: RetrievalConfig{
			TopKRetrieval:       10,
			TopKRerank:          5,
			ChunkSize:           1000,
			ChunkOverlap:        150,
			MaxQueryChars:       8192,
			MaxDocumentChars:    2 << 20,
			ContextBudgetTokens: 6000,
			MaxConcurrent:       8,
		},
		Eval: EvalConfig{
			DatasetPath: "eval/eval_dataset.json",
			QAPairs:     5,
		},
		MySQL: MySQLConfig{
			Port:   3306,
			User:   "root",
			Params: "parseTime=true&loc=Local&charset=utf8mb4",
		},
		Redis: RedisConfig{
			HistoryTTLSeconds: 60,
			DirtyTTLSeconds:   5,
		},
		RabbitMQ: RabbitMQConfig{
			QueryLogQueue: "rag.query.log",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", cfg.LLM.MaxTokens)

	cfg.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.Dimension = getEnvAsInt("EMBEDDING_DIMENSION", cfg.Embedding.Dimension)
	cfg.Embedding.BatchSize = getEnvAsInt("EMBEDDING_BATCH_SIZE", cfg.Embedding.BatchSize)

	cfg.Rerank.BaseURL = getEnv("RERANK_BASE_URL", cfg.Rerank.BaseURL)
	cfg.Rerank.APIKey = getEnv("RERANK_API_KEY", cfg.Rerank.APIKey)
	cfg.Rerank.Model = getEnv("RERANK_MODEL", cfg.Rerank.Model)

	cfg.Retrieval.TopKRetrieval = getEnvAsInt("TOP_K_RETRIEVAL", cfg.Retrieval.TopKRetrieval)
	cfg.Retrieval.TopKRerank = getEnvAsInt("TOP_K_RERANK", cfg.Retrieval.TopKRerank)
	cfg.Retrieval.ChunkSize = getEnvAsInt("CHUNK_SIZE", cfg.Retrieval.ChunkSize)
	cfg.Retrieval.ChunkOverlap = getEnvAsInt("CHUNK_OVERLAP", cfg.Retrieval.ChunkOverlap)
	cfg.Retrieval.MaxConcurrent = getEnvAsInt("MAX_CONCURRENT", cfg.Retrieval.MaxConcurrent)

	cfg.Eval.DatasetPath = getEnv("EVAL_DATASET_PATH", cfg.Eval.DatasetPath)
	cfg.Eval.QAPairs = getEnvAsInt("EVAL_QA_PAIRS", cfg.Eval.QAPairs)

	cfg.MySQL.Host = getEnv("MYSQL_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.MySQL.Port)
	cfg.MySQL.User = getEnv("MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.DB = getEnv("MYSQL_DB", cfg.MySQL.DB)
	cfg.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.MySQL.Params)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.HistoryTTLSeconds = getEnvAsInt("REDIS_HISTORY_TTL_SECONDS", cfg.Redis.HistoryTTLSeconds)
	cfg.Redis.DirtyTTLSeconds = getEnvAsInt("REDIS_DIRTY_TTL_SECONDS", cfg.Redis.DirtyTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.QueryLogQueue = getEnv("RABBITMQ_QUERY_LOG_QUEUE", cfg.RabbitMQ.QueryLogQueue)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
