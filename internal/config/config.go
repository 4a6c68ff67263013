package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads a .env file from the working directory into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, raw)
	}
	return v, nil
}

// GetList splits a comma separated variable, dropping empty entries. An unset
// variable yields nil.
func GetList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Products is the configuration of the products service.
type Products struct {
	Port            string
	StorageDriver   string
	StoragePath     string
	PostgresURL     string
	StorageKey      string
	KafkaBrokers    []string
	ProductsTopic   string
	SeedPath        string
	DefaultPageSize int
	ServiceVersion  string
}

var storageDrivers = map[string]bool{
	"none":     true,
	"memory":   true,
	"file":     true,
	"postgres": true,
	"sqlite":   true,
}

func LoadProducts() (Products, error) {
	pageSize, err := GetInt("DEFAULT_PAGE_SIZE", 10)
	if err != nil {
		return Products{}, err
	}

	cfg := Products{
		Port:            Get("PORT", "8081"),
		StorageDriver:   strings.ToLower(Get("STORAGE_DRIVER", "file")),
		StoragePath:     Get("STORAGE_PATH", "data"),
		PostgresURL:     Get("POSTGRES_URL", ""),
		StorageKey:      Get("STORAGE_KEY", "products"),
		KafkaBrokers:    GetList("KAFKA_BROKERS"),
		ProductsTopic:   Get("PRODUCTS_TOPIC", "product.events"),
		SeedPath:        Get("SEED_PATH", ""),
		DefaultPageSize: pageSize,
		ServiceVersion:  Get("SERVICE_VERSION", "1.0.0"),
	}

	if !storageDrivers[cfg.StorageDriver] {
		return Products{}, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == "postgres" && cfg.PostgresURL == "" {
		return Products{}, fmt.Errorf("POSTGRES_URL is required when STORAGE_DRIVER=postgres")
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 100 {
		return Products{}, fmt.Errorf("DEFAULT_PAGE_SIZE: %d is outside 1..100", cfg.DefaultPageSize)
	}

	return cfg, nil
}
