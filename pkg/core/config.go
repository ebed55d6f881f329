package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/homecare-labs/caremem-go/pkg/embedder"
	embedderopenai "github.com/homecare-labs/caremem-go/pkg/embedder/openai"
	"github.com/homecare-labs/caremem-go/pkg/extractor"
	extractoropenai "github.com/homecare-labs/caremem-go/pkg/extractor/openai"
	"github.com/homecare-labs/caremem-go/pkg/recordstore"
	"github.com/homecare-labs/caremem-go/pkg/recordstore/mysql"
	"github.com/homecare-labs/caremem-go/pkg/recordstore/postgres"
	"github.com/homecare-labs/caremem-go/pkg/recordstore/sqlite"
	"github.com/homecare-labs/caremem-go/pkg/vectorindex"
	"github.com/homecare-labs/caremem-go/pkg/vectorindex/chromem"
)

// Config contains the complete configuration for a memory manager.
//
// Example:
//
//	config := &core.Config{
//	    RecordStore: core.RecordStoreConfig{
//	        Provider: "sqlite",
//	        DBPath:   "./caremem.db",
//	    },
//	    Embedder: core.EmbedderConfig{
//	        APIKey: "sk-...",
//	    },
//	    Extractor: core.ExtractorConfig{
//	        APIKey: "sk-...",
//	    },
//	}
type Config struct {
	// RecordStore contains relational store configuration.
	RecordStore RecordStoreConfig `json:"record_store"`

	// VectorIndex contains vector index configuration.
	VectorIndex VectorIndexConfig `json:"vector_index"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// Extractor contains fact extraction provider configuration.
	Extractor ExtractorConfig `json:"extractor"`

	// Server contains HTTP server configuration (used by the serve
	// command only).
	Server ServerConfig `json:"server"`
}

// RecordStoreConfig configures the relational system of record.
//
// Supported providers: sqlite, postgres, mysql.
type RecordStoreConfig struct {
	// Provider is the record store provider name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// DBPath is the database file path (sqlite only).
	DBPath string `json:"db_path,omitempty"`

	// Host, Port, User, Password, DBName configure server-based
	// providers (postgres, mysql).
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"db_name,omitempty"`

	// TableName is the memories table name. Defaults to "memories".
	TableName string `json:"table_name,omitempty"`

	// SSLMode is the connection SSL mode (postgres only).
	SSLMode string `json:"ssl_mode,omitempty"`

	// MaxOpenConns bounds the connection pool (postgres, mysql).
	MaxOpenConns int `json:"max_open_conns,omitempty"`
}

// VectorIndexConfig configures the embedding index.
type VectorIndexConfig struct {
	// CollectionName is the shared collection name. Defaults to
	// "memories".
	CollectionName string `json:"collection_name,omitempty"`

	// PersistDir is the on-disk index directory. Empty means in-memory.
	PersistDir string `json:"persist_dir,omitempty"`
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string `json:"api_key"`

	// Model is the embedding model. Defaults to text-embedding-3-small.
	Model string `json:"model,omitempty"`

	// BaseURL overrides the API base URL (optional).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the embedding dimension. Defaults to 1536.
	Dimensions int `json:"dimensions,omitempty"`
}

// ExtractorConfig configures the fact extraction provider.
type ExtractorConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string `json:"api_key"`

	// Model is the chat model. Defaults to gpt-4o-mini.
	Model string `json:"model,omitempty"`

	// BaseURL overrides the API base URL (optional).
	BaseURL string `json:"base_url,omitempty"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string `json:"addr,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function searches for a .env or .env.example file (up to 5 directory
// levels up), loads it when found, then reads:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH, POSTGRES_* / MYSQL_* connection variables
//   - MEMORY_TABLE for the table name
//   - VECTOR_COLLECTION, VECTOR_PERSIST_DIR
//   - OPENAI_API_KEY (shared), EMBEDDING_MODEL, EMBEDDING_DIMS,
//     EXTRACTION_MODEL, and the *_BASE_URL overrides
//   - SERVER_ADDR
func LoadConfigFromEnv() (*Config, error) {
	if envPath, found := FindEnvFile(); found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	recordStore := RecordStoreConfig{
		Provider:  provider,
		TableName: getEnvOrDefault("MEMORY_TABLE", "memories"),
	}

	switch provider {
	case "sqlite":
		recordStore.DBPath = getEnvOrDefault("SQLITE_PATH", "./caremem.db")
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		conns, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_MAX_OPEN_CONNS", "0"))
		recordStore.Host = getEnvOrDefault("POSTGRES_HOST", "localhost")
		recordStore.Port = port
		recordStore.User = getEnvOrDefault("POSTGRES_USER", "postgres")
		recordStore.Password = os.Getenv("POSTGRES_PASSWORD")
		recordStore.DBName = getEnvOrDefault("POSTGRES_DATABASE", "caremem")
		recordStore.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")
		recordStore.MaxOpenConns = conns
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		conns, _ := strconv.Atoi(getEnvOrDefault("MYSQL_MAX_OPEN_CONNS", "0"))
		recordStore.Host = getEnvOrDefault("MYSQL_HOST", "localhost")
		recordStore.Port = port
		recordStore.User = getEnvOrDefault("MYSQL_USER", "root")
		recordStore.Password = os.Getenv("MYSQL_PASSWORD")
		recordStore.DBName = getEnvOrDefault("MYSQL_DATABASE", "caremem")
		recordStore.MaxOpenConns = conns
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	dims, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMS", "1536"))

	return &Config{
		RecordStore: recordStore,
		VectorIndex: VectorIndexConfig{
			CollectionName: getEnvOrDefault("VECTOR_COLLECTION", "memories"),
			PersistDir:     os.Getenv("VECTOR_PERSIST_DIR"),
		},
		Embedder: EmbedderConfig{
			APIKey:     getEnvOrDefault("EMBEDDING_API_KEY", apiKey),
			Model:      getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			Dimensions: dims,
		},
		Extractor: ExtractorConfig{
			APIKey:  getEnvOrDefault("EXTRACTION_API_KEY", apiKey),
			Model:   getEnvOrDefault("EXTRACTION_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("EXTRACTION_BASE_URL"),
		},
		Server: ServerConfig{
			Addr: getEnvOrDefault("SERVER_ADDR", ":8080"),
		},
	}, nil
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.RecordStore.Provider {
	case "sqlite", "postgres", "mysql":
	case "":
		return NewMemoryError("Validate", fmt.Errorf("%w: record store provider is required", ErrInvalidConfig))
	default:
		return NewMemoryError("Validate", fmt.Errorf("%w: unknown record store provider %q", ErrInvalidConfig, c.RecordStore.Provider))
	}

	if c.Embedder.APIKey == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: embedder API key is required", ErrInvalidConfig))
	}
	if c.Extractor.APIKey == "" {
		return NewMemoryError("Validate", fmt.Errorf("%w: extractor API key is required", ErrInvalidConfig))
	}

	return nil
}

// NewClient creates a fully wired Manager from configuration.
//
// Components are initialized in dependency order; a failure mid-way closes
// everything already opened.
func NewClient(config *Config) (*Manager, error) {
	if config == nil {
		return nil, NewMemoryError("NewClient", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	records, err := initRecordStore(&config.RecordStore)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	index, err := initVectorIndex(&config.VectorIndex)
	if err != nil {
		_ = records.Close()
		return nil, NewMemoryError("NewClient", err)
	}

	emb, err := initEmbedder(&config.Embedder)
	if err != nil {
		_ = index.Close()
		_ = records.Close()
		return nil, NewMemoryError("NewClient", err)
	}

	ext, err := initExtractor(&config.Extractor)
	if err != nil {
		_ = emb.Close()
		_ = index.Close()
		_ = records.Close()
		return nil, NewMemoryError("NewClient", err)
	}

	return NewManager(records, index, ext, emb)
}

// initRecordStore initializes the record store backend.
func initRecordStore(cfg *RecordStoreConfig) (recordstore.RecordStore, error) {
	tableName := cfg.TableName
	if tableName == "" {
		tableName = "memories"
	}

	switch cfg.Provider {
	case "sqlite":
		return sqlite.NewClient(&sqlite.Config{
			DBPath:    cfg.DBPath,
			TableName: tableName,
		})
	case "postgres":
		return postgres.NewClient(&postgres.Config{
			Host:         cfg.Host,
			Port:         cfg.Port,
			User:         cfg.User,
			Password:     cfg.Password,
			DBName:       cfg.DBName,
			TableName:    tableName,
			SSLMode:      cfg.SSLMode,
			MaxOpenConns: cfg.MaxOpenConns,
		})
	case "mysql":
		return mysql.NewClient(&mysql.Config{
			Host:         cfg.Host,
			Port:         cfg.Port,
			User:         cfg.User,
			Password:     cfg.Password,
			DBName:       cfg.DBName,
			TableName:    tableName,
			MaxOpenConns: cfg.MaxOpenConns,
		})
	default:
		return nil, fmt.Errorf("%w: unknown record store provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// initVectorIndex initializes the vector index.
func initVectorIndex(cfg *VectorIndexConfig) (vectorindex.Index, error) {
	collectionName := cfg.CollectionName
	if collectionName == "" {
		collectionName = "memories"
	}

	return chromem.NewClient(&chromem.Config{
		CollectionName: collectionName,
		PersistDir:     cfg.PersistDir,
	})
}

// initEmbedder initializes the embedding provider.
func initEmbedder(cfg *EmbedderConfig) (embedder.Provider, error) {
	return embedderopenai.NewClient(&embedderopenai.Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Dimensions: cfg.Dimensions,
	})
}

// initExtractor initializes the fact extraction provider.
func initExtractor(cfg *ExtractorConfig) (extractor.Provider, error) {
	return extractoropenai.NewClient(&extractoropenai.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files, starting in the
// current directory and walking up to 5 levels.
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
