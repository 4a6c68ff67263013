package products

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joao-fontenele/shiptrack/internal/domain"
)

// SeedFromJSON creates the products listed in the file at path, but only when
// the store is empty. It returns how many products were created.
func SeedFromJSON(ctx context.Context, store *Store, path string) (int, error) {
	if store.Count() > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed products: read %q: %w", path, err)
	}

	var seeds []domain.NewProduct
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("seed products: parse json: %w", err)
	}

	for i, seed := range seeds {
		if problems := validateNewProduct(seed); len(problems) > 0 {
			return 0, fmt.Errorf("seed products: item at index %d: %s", i, problems[0])
		}
	}

	for i, seed := range seeds {
		if _, err := store.Create(ctx, seed); err != nil {
			return i, fmt.Errorf("seed products: create item at index %d: %w", i, err)
		}
	}

	return len(seeds), nil
}
