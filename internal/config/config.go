package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/lib/pq"
)

type AppConfig struct {
	GraphAPIVersion    string
	CredentialsFile    string
	PageID             string
	OpenAIKey          string
	OpenAIModel        string
	RedisAddr          string
	SyncInterval       time.Duration
	MaxConcurrentPosts int
	MaxRepliesPerPost  int
	RequestTimeout     time.Duration
}

// Load reads the application configuration from the environment. Everything
// has a default except the credentials file path.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		GraphAPIVersion:    envOr("GRAPH_API_VERSION", "v21.0"),
		CredentialsFile:    os.Getenv("FB_CREDENTIALS_FILE"),
		PageID:             os.Getenv("FB_PAGE_ID"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        os.Getenv("OPENAI_MODEL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		SyncInterval:       envDuration("SYNC_INTERVAL", 30*time.Minute),
		MaxConcurrentPosts: envInt("MAX_CONCURRENT_POSTS", 4),
		MaxRepliesPerPost:  envInt("MAX_REPLIES_PER_POST", 0),
		RequestTimeout:     envDuration("REQUEST_TIMEOUT", 30*time.Second),
	}

	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("FB_CREDENTIALS_FILE is not set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// LoadDatabase connects to Postgres and applies the goose migrations from
// ./sql/schema before handing back the connection.
func LoadDatabase() (*sql.DB, error) {
	dbName := os.Getenv("POSTGRES_DB")
	dbUserName := os.Getenv("POSTGRES_USER")
	dbPassword := os.Getenv("POSTGRES_PASSWORD")
	dbHost := envOr("POSTGRES_HOST", "db")
	dbPort := envOr("POSTGRES_PORT", "5432")

	if dbName == "" || dbUserName == "" || dbPassword == "" {
		return nil, fmt.Errorf("failed to load the database environment configuration")
	}

	connectDbUrl := fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=disable", dbUserName, dbPassword, dbHost, dbPort, dbName)

	db, err := sql.Open("postgres", connectDbUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the DB: %v", err)
	}

	migrationsDir := "./sql/schema"
	if err := goose.Up(db, migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	version, err := goose.EnsureDBVersion(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get DB version: %v", err)
	}
	fmt.Printf("Migrations applied successfully. Current DB version: %d\n", version)

	return db, nil
}
