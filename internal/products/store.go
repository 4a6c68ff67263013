package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/shiptrack/internal/domain"
	"github.com/joao-fontenele/shiptrack/internal/storage"
)

const DefaultStorageKey = "products"

var (
	ErrCorruptState      = errors.New("persisted products are corrupt")
	ErrPersistenceFailed = errors.New("persist products")
)

// Observer is called synchronously after every applied mutation. Events are
// delivered one at a time, in the order the mutations were applied. An
// observer must not mutate the store it observes.
type Observer func(ctx context.Context, event domain.ProductEvent)

// Store holds the ordered product collection and mirrors it into a storage
// slot after every mutation. A nil slot disables persistence.
type Store struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex // taken before mu is released; orders observer calls
	products  []domain.Product
	slot      storage.Slot
	key       string
	hydrated  bool
	observers []Observer
	newID     func() string
	now       func() time.Time
	metrics   *storeMetrics
	meters    metric.MeterProvider
	logger    *slog.Logger
}

type Option func(*Store)

func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Store) {
		s.meters = mp
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, o)
	}
}

func NewStore(slot storage.Slot, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		products: []domain.Product{},
		slot:     slot,
		key:      DefaultStorageKey,
		newID:    func() string { return uuid.New().String() },
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.metrics = newStoreMetrics(s, s.meters)
	return s
}

// Subscribe registers an observer for future mutations.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Hydrate replaces the in-memory collection with the persisted one. Only the
// first call does any work. A missing slot or key leaves the store empty; a
// corrupt value is reported with ErrCorruptState and also leaves it empty.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return nil
	}
	s.hydrated = true

	if s.slot == nil {
		return nil
	}

	data, err := s.slot.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("hydrate products: load %q: %w", s.key, err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("hydrate products: %w: %v", ErrCorruptState, err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	s.products = products
	s.logger.Info("products hydrated", "count", len(products), "key", s.key)
	return nil
}

// FetchPage returns the 1-indexed page of the collection. Pages past the end,
// and non-positive arguments, yield an empty slice.
func (s *Store) FetchPage(page, pageSize int) []domain.Product {
	if page < 1 || pageSize < 1 {
		return []domain.Product{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// (page-1)*pageSize is only computed once it is known to be <= len.
	if page-1 > len(s.products)/pageSize {
		return []domain.Product{}
	}
	start := (page - 1) * pageSize
	if start >= len(s.products) {
		return []domain.Product{}
	}
	end := min(start+pageSize, len(s.products))

	out := make([]domain.Product, 0, end-start)
	for _, p := range s.products[start:end] {
		out = append(out, p.Clone())
	}
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// CountByStatus partitions the collection by status. Products with a status
// outside the known set are counted as pending, the creation default.
func (s *Store) CountByStatus() domain.StatusCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts domain.StatusCounts
	for _, p := range s.products {
		switch p.Status {
		case domain.ProductStatusDelivered:
			counts.Delivered++
		case domain.ProductStatusCancelled:
			counts.Cancelled++
		default:
			counts.Pending++
		}
	}
	return counts
}

func (s *Store) Get(id string) (*domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	p := s.products[i].Clone()
	return &p, true
}

func (s *Store) All() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	return out
}

// Create appends a new product with a fresh id. The returned product is valid
// even when the error wraps ErrPersistenceFailed: the in-memory change stands.
func (s *Store) Create(ctx context.Context, in domain.NewProduct) (domain.Product, error) {
	s.mu.Lock()

	product := in.Build(s.newID())
	s.products = append(s.products, product)
	s.metrics.recordMutation(ctx, "create")
	err := s.persistLocked(ctx, "create")

	s.unlockAndNotify(ctx, &domain.ProductEvent{
		Type:      domain.ProductCreated,
		ProductID: product.ID,
		Product:   product.Clone(),
		Timestamp: s.now(),
	})

	return product.Clone(), err
}

// Update merges patch into the product with the given id. A nil product with
// a nil error means no product matched; the collection is persisted either way.
func (s *Store) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	s.mu.Lock()

	i := s.indexOf(id)
	var (
		updated *domain.Product
		event   *domain.ProductEvent
	)
	if i >= 0 {
		previous := s.products[i].Status
		patch.Apply(&s.products[i])
		p := s.products[i].Clone()
		updated = &p
		event = &domain.ProductEvent{
			Type:           domain.ProductUpdated,
			ProductID:      id,
			Product:        p.Clone(),
			PreviousStatus: previous,
			Timestamp:      s.now(),
		}
		s.metrics.recordMutation(ctx, "update")
	}
	err := s.persistLocked(ctx, "update")

	s.unlockAndNotify(ctx, event)

	return updated, err
}

// Delete removes the product with the given id and reports whether it
// existed. The collection is persisted either way.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()

	i := s.indexOf(id)
	var event *domain.ProductEvent
	if i >= 0 {
		event = &domain.ProductEvent{
			Type:      domain.ProductDeleted,
			ProductID: id,
			Product:   s.products[i],
			Timestamp: s.now(),
		}
		s.products = append(s.products[:i], s.products[i+1:]...)
		s.metrics.recordMutation(ctx, "delete")
	}
	err := s.persistLocked(ctx, "delete")

	s.unlockAndNotify(ctx, event)

	return i >= 0, err
}

func (s *Store) indexOf(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked rewrites the whole collection under the storage key. It must
// be called with s.mu held so writes land in mutation order.
func (s *Store) persistLocked(ctx context.Context, operation string) error {
	if s.slot == nil {
		return nil
	}

	start := time.Now()
	data, err := json.Marshal(s.products)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistenceFailed, err)
	}

	err = s.slot.Save(ctx, s.key, data)
	s.metrics.recordPersist(ctx, operation, time.Since(start), err)
	if err != nil {
		s.logger.Error("failed to persist products", "error", err, "operation", operation, "key", s.key)
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	return nil
}

// unlockAndNotify releases s.mu, which the caller holds for writing, and
// delivers event to the observers registered at that point. A nil event only
// unlocks.
func (s *Store) unlockAndNotify(ctx context.Context, event *domain.ProductEvent) {
	observers := s.observers
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Unlock()

	if event == nil {
		return
	}
	for _, o := range observers {
		o(ctx, *event)
	}
}
