package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	defaultSimilarityThreshold = 0.6
	defaultMatchTopK           = 5
	defaultRegistryTimeoutMS   = 3000
	defaultRegistryMaxRetries  = 3
	defaultRegistryBackoffMS   = 250
	defaultEmbeddingQueueSize  = 64
	defaultNumEmbeddingWorkers = 4
	defaultEmbeddingDimension  = 128
)

type Config struct {
	// database path
	DatabasePath string

	// matching settings, injected into every submission
	SimilarityThreshold float64
	MatchTopK           int
	RegistryTimeout     time.Duration
	RegistryMaxRetries  int
	RegistryBackoff     time.Duration

	// embedding worker settings
	EmbeddingQueueSize  int
	NumEmbeddingWorkers int
	EmbeddingDimension  int

	// face detection model paths (DNN)
	FaceDNNNetConfigPath string
	FaceDNNNetModelPath  string

	// face embedding model
	FaceEmbeddingModelPath string
	FaceEmbeddingModelName string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %f. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "attendance.db")
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for database '%s': %w", dbPath, err)
	}

	threshold := getEnvFloatOrDefault("SIMILARITY_THRESHOLD", defaultSimilarityThreshold)
	if threshold < 0 || threshold > 1 {
		return Config{}, fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1], got %f", threshold)
	}

	topK := getEnvIntOrDefault("MATCH_TOP_K", defaultMatchTopK)
	registryTimeoutMS := getEnvIntOrDefault("REGISTRY_QUERY_TIMEOUT_MS", defaultRegistryTimeoutMS)
	registryRetries := getEnvIntOrDefault("REGISTRY_MAX_RETRIES", defaultRegistryMaxRetries)
	registryBackoffMS := getEnvIntOrDefault("REGISTRY_RETRY_BACKOFF_MS", defaultRegistryBackoffMS)

	queueSize := getEnvIntOrDefault("EMBEDDING_QUEUE_SIZE", defaultEmbeddingQueueSize)
	numWorkers := getEnvIntOrDefault("NUM_EMBEDDING_WORKERS", defaultNumEmbeddingWorkers)
	embeddingDim := getEnvIntOrDefault("EMBEDDING_DIMENSION", defaultEmbeddingDimension)

	faceDNNConfig := getEnvOrDefault("FACE_DNN_CONFIG_PATH", "./models/deploy.prototxt.txt")
	faceDNNModel := getEnvOrDefault("FACE_DNN_MODEL_PATH", "./models/res10_300x300_ssd_iter_140000_fp16.caffemodel")
	embeddingModel := getEnvOrDefault("FACE_EMBEDDING_MODEL_PATH", "./models/arcface.onnx")
	embeddingModelName := getEnvOrDefault("FACE_EMBEDDING_MODEL_NAME", "arcface")

	cfg := Config{
		DatabasePath:           absDBPath,
		SimilarityThreshold:    threshold,
		MatchTopK:              topK,
		RegistryTimeout:        time.Duration(registryTimeoutMS) * time.Millisecond,
		RegistryMaxRetries:     registryRetries,
		RegistryBackoff:        time.Duration(registryBackoffMS) * time.Millisecond,
		EmbeddingQueueSize:     queueSize,
		NumEmbeddingWorkers:    numWorkers,
		EmbeddingDimension:     embeddingDim,
		FaceDNNNetConfigPath:   faceDNNConfig,
		FaceDNNNetModelPath:    faceDNNModel,
		FaceEmbeddingModelPath: embeddingModel,
		FaceEmbeddingModelName: embeddingModelName,
	}

	return cfg, nil
}
