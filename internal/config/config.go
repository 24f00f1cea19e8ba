package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr       string
	CORSOrigin string
	// Storage selects the persistence backend: memory, file, redis, postgres.
	Storage     string
	DataFile    string
	RedisURL    string
	DatabaseURL string
	// Meilisearch - search falls back to a document scan when unset
	MeiliURL       string
	MeiliMasterKey string
	// MinIO - archive endpoint disabled when unset
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool
}

func Load() Config {
	return Config{
		Addr:           getenv("API_ADDR", ":8790"),
		CORSOrigin:     getenv("KUDOS_CORS_ORIGIN", "*"),
		Storage:        getenv("KUDOS_STORAGE", "file"),
		DataFile:       getenv("KUDOS_DATA_FILE", "./data/database.json"),
		RedisURL:       getenv("REDIS_URL", ""),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "kudos-archives"),
		MinioSecure:    getenvBool("MINIO_SECURE", false),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
