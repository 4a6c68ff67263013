package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGet(t *testing.T) {
	t.Setenv("SHIPTRACK_TEST_VALUE", " set ")
	if got := Get("SHIPTRACK_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("expected set, got %q", got)
	}
	if got := Get("SHIPTRACK_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("SHIPTRACK_TEST_INT", "42")
	if got, err := GetInt("SHIPTRACK_TEST_INT", 1); err != nil || got != 42 {
		t.Errorf("expected 42, got %d (%v)", got, err)
	}

	t.Setenv("SHIPTRACK_TEST_INT", "many")
	if _, err := GetInt("SHIPTRACK_TEST_INT", 1); err == nil {
		t.Error("expected parse error")
	}

	if got, err := GetInt("SHIPTRACK_TEST_INT_UNSET", 7); err != nil || got != 7 {
		t.Errorf("expected fallback 7, got %d (%v)", got, err)
	}
}

func TestGetList(t *testing.T) {
	t.Setenv("SHIPTRACK_TEST_LIST", "a:9092, ,b:9092,")
	if diff := cmp.Diff([]string{"a:9092", "b:9092"}, GetList("SHIPTRACK_TEST_LIST")); diff != "" {
		t.Errorf("list (-want +got):\n%s", diff)
	}
	if got := GetList("SHIPTRACK_TEST_LIST_UNSET"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SHIPTRACK_DOTENV_A=from-file\nSHIPTRACK_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SHIPTRACK_DOTENV_B", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("SHIPTRACK_DOTENV_A") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("SHIPTRACK_DOTENV_A"); got != "from-file" {
		t.Errorf("expected from-file, got %q", got)
	}
	if got := os.Getenv("SHIPTRACK_DOTENV_B"); got != "from-env" {
		t.Errorf("expected existing env to win, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadProducts(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"PORT", "STORAGE_DRIVER", "STORAGE_PATH", "POSTGRES_URL", "STORAGE_KEY", "KAFKA_BROKERS", "PRODUCTS_TOPIC", "SEED_PATH", "DEFAULT_PAGE_SIZE", "SERVICE_VERSION"} {
			t.Setenv(key, "")
		}

		cfg, err := LoadProducts()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		want := Products{
			Port:            "8081",
			StorageDriver:   "file",
			StoragePath:     "data",
			StorageKey:      "products",
			ProductsTopic:   "product.events",
			DefaultPageSize: 10,
			ServiceVersion:  "1.0.0",
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config (-want +got):\n%s", diff)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "SQLite")
		t.Setenv("KAFKA_BROKERS", "kafka:9092")
		t.Setenv("DEFAULT_PAGE_SIZE", "25")

		cfg, err := LoadProducts()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.StorageDriver != "sqlite" || cfg.DefaultPageSize != 25 || len(cfg.KafkaBrokers) != 1 {
			t.Errorf("unexpected config: %+v", cfg)
		}
	})

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "redis"}},
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres", "POSTGRES_URL": ""}},
		{"page size not a number", map[string]string{"DEFAULT_PAGE_SIZE": "ten"}},
		{"page size too large", map[string]string{"DEFAULT_PAGE_SIZE": "500"}},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_DRIVER", "memory")
			t.Setenv("DEFAULT_PAGE_SIZE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadProducts(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
