package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ServerAddr string

	// Postgres
	PgHost   string
	PgPort   int
	PgUser   string
	PgPass   string
	PgDBName string

	// Cohere
	CohereAPIKey   string
	CohereBaseURL  string
	EmbeddingModel string
	ChatModel      string

	// Retrieval pipeline
	ChunkSize           int
	ChunkOverlap        int
	ChatMessagesLimit   int
	MedicalDocsLimit    int
	SimilarityThreshold float64
	RecentTurns         int

	UploadDir string
}

func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PG_PORT", "5432"))

	cfg := &Config{
		ServerAddr:          getEnv("SERVER_ADDR", ":8080"),
		PgHost:              getEnv("PG_HOST", "localhost"),
		PgPort:              port,
		PgUser:              getEnv("PG_USER", "postgres"),
		PgPass:              getEnv("PG_PASS", "postgres"),
		PgDBName:            getEnv("PG_DB_NAME", "healthmate"),
		CohereAPIKey:        getEnv("COHERE_API_KEY", ""),
		CohereBaseURL:       getEnv("COHERE_BASE_URL", "https://api.cohere.com"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "embed-english-v3.0"),
		ChatModel:           getEnv("CHAT_MODEL", "command-r-08-2024"),
		ChunkSize:           getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 50),
		ChatMessagesLimit:   getEnvInt("CHAT_MESSAGES_LIMIT", 5),
		MedicalDocsLimit:    getEnvInt("MEDICAL_DOCS_LIMIT", 3),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.5),
		RecentTurns:         getEnvInt("RECENT_TURNS", 6),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads/medical"),
	}

	if cfg.CohereAPIKey == "" {
		return nil, fmt.Errorf("COHERE_API_KEY is required")
	}

	return cfg, nil
}

func (c *Config) PostgresConnStr() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.PgHost, c.PgPort, c.PgUser, c.PgPass, c.PgDBName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
