package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Qdrant      QdrantConfig      `mapstructure:"qdrant"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Embeddings  EmbeddingsConfig  `mapstructure:"embeddings"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Data        DataConfig        `mapstructure:"data"`
	Ranking     RankingConfig     `mapstructure:"ranking"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
}

type QdrantConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

type VectorStoreConfig struct {
	Provider    string `mapstructure:"provider"`
	Collection  string `mapstructure:"collection"`
	SearchLimit int    `mapstructure:"search_limit"`
}

type EmbeddingsConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	URL           string        `mapstructure:"url"`
	Model         string        `mapstructure:"model"`
	BatchSize     int           `mapstructure:"batch_size"`
	Concurrency   int           `mapstructure:"concurrency"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type DataConfig struct {
	Input   string `mapstructure:"input"`
	Prompts string `mapstructure:"prompts"`
}

// RankingConfig mirrors services.RankingWeights field for field so it converts directly.
type RankingConfig struct {
	TechnicalMatch             float64 `mapstructure:"technical_match"`
	SeniorityMatch             float64 `mapstructure:"seniority_match"`
	LeadershipSignals          float64 `mapstructure:"leadership_signals"`
	ExperienceMatch            float64 `mapstructure:"experience_match"`
	LeadershipKeywordThreshold int     `mapstructure:"leadership_keyword_threshold"`
	MaxSeniorityDelta          int     `mapstructure:"max_seniority_delta"`
	MaxLeadershipContribution  float64 `mapstructure:"max_leadership_contribution"`
}

type StorageConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

type WorkerConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

var defaults = map[string]any{
	"server.port": "3000",
	"server.env":  "development",

	"database.enabled":  true,
	"database.host":     "localhost",
	"database.port":     "5432",
	"database.user":     "postgres",
	"database.password": "postgres",
	"database.name":     "rag_candidates",

	"qdrant.url":     "http://localhost:6334",
	"qdrant.api_key": "",

	"vector_store.provider":     "memory",
	"vector_store.collection":   "candidates",
	"vector_store.search_limit": 6,

	"embeddings.provider":        "gemini",
	"embeddings.api_key":         "",
	"embeddings.base_url":        "",
	"embeddings.url":             "http://localhost:8000",
	"embeddings.model":           "",
	"embeddings.batch_size":      32,
	"embeddings.concurrency":     2,
	"embeddings.rate_per_second": 5.0,
	"embeddings.timeout":         "30s",

	"llm.provider":    "gemini",
	"llm.api_key":     "",
	"llm.base_url":    "",
	"llm.model":       "",
	"llm.temperature": 0.2,
	"llm.max_retries": 3,
	"llm.retry_delay": "2s",

	"data.input":   "./data/input",
	"data.prompts": "",

	"ranking.technical_match":              0.40,
	"ranking.seniority_match":              0.25,
	"ranking.leadership_signals":           0.20,
	"ranking.experience_match":             0.15,
	"ranking.leadership_keyword_threshold": 2,
	"ranking.max_seniority_delta":          2,
	"ranking.max_leadership_contribution":  0.5,

	"storage.max_file_size": 10485760,

	"worker.concurrency":   2,
	"worker.poll_interval": "10s",

	"log.json":  false,
	"log.debug": false,
}

// envAliases keeps the short variable names used in .env files working.
var envAliases = map[string][]string{
	"server.port":             {"PORT"},
	"server.env":              {"ENV"},
	"database.host":           {"DB_HOST"},
	"database.port":           {"DB_PORT"},
	"database.user":           {"DB_USER"},
	"database.password":       {"DB_PASSWORD"},
	"database.name":           {"DB_NAME"},
	"database.enabled":        {"DB_ENABLED"},
	"qdrant.url":              {"QDRANT_URL"},
	"qdrant.api_key":          {"QDRANT_API_KEY"},
	"vector_store.collection": {"QDRANT_COLLECTION", "VECTOR_STORE_COLLECTION"},
	"llm.api_key":             {"LLM_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"},
	"embeddings.api_key":      {"EMBEDDINGS_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"},
	"data.input":              {"UPLOAD_PATH"},
	"storage.max_file_size":   {"MAX_FILE_SIZE"},
	"worker.concurrency":      {"WORKER_CONCURRENCY"},
}

// Load reads .env, then an optional YAML file named by CONFIG_FILE, then environment
// variables. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}
	return LoadFrom(viper.New())
}

// LoadFrom resolves configuration using the given viper instance. Callers may bind
// flags on v before calling it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		// the canonical name (LLM_API_KEY for llm.api_key) comes first so it wins
		names := append([]string{strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.VectorStore.Provider {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("unknown vector store provider %q", c.VectorStore.Provider)
	}
	switch c.Embeddings.Provider {
	case "gemini", "openai", "http":
	default:
		return fmt.Errorf("unknown embeddings provider %q", c.Embeddings.Provider)
	}
	switch c.LLM.Provider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.VectorStore.SearchLimit <= 0 {
		return errors.New("vector_store.search_limit must be positive")
	}
	if c.Embeddings.BatchSize <= 0 {
		return errors.New("embeddings.batch_size must be positive")
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}
