package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
	"github.com/M-Afifff/coingecko-project/internal/storage"
)

// MarketStore is an in-memory implementation of storage.MarketStore,
// used by tests and dry runs. It enforces the same positivity rules
// as the SQL CHECK constraints.
type MarketStore struct {
	mu            sync.RWMutex
	rows          []domain.CleanedRecord
	schemaEnsured bool
}

// NewMarketStore creates a new in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// EnsureSchema is a no-op beyond flipping the provisioned flag.
func (s *MarketStore) EnsureSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaEnsured = true
	return nil
}

// Append stores the batch. All rows are validated before any is
// stored, so a failed call leaves the store untouched.
func (s *MarketStore) Append(_ context.Context, records []domain.CleanedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	for _, r := range records {
		if r.CryptoID == "" {
			return 0, storage.ErrInvalidInput
		}
		if r.CurrentPrice <= 0 || r.MarketCap <= 0 {
			return 0, &storage.PersistenceError{
				Op:  fmt.Sprintf("append %s", r.CryptoID),
				Err: fmt.Errorf("positivity constraint violated: price=%v market_cap=%v", r.CurrentPrice, r.MarketCap),
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, records...)
	return len(records), nil
}

// CountForDate returns the number of rows stored for an extraction date.
func (s *MarketStore) CountForDate(_ context.Context, date time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.rows {
		if r.ExtractedDate.Equal(date) {
			count++
		}
	}
	return count, nil
}

// LatestStats aggregates the most recent extraction date's rows.
func (s *MarketStore) LatestStats(_ context.Context) (*domain.MarketStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.MarketStats{}
	if len(s.rows) == 0 {
		return stats, nil
	}

	var latest time.Time
	for _, r := range s.rows {
		if r.ExtractedDate.After(latest) {
			latest = r.ExtractedDate
		}
	}

	unique := make(map[string]struct{})
	var priceSum float64
	for _, r := range s.rows {
		if !r.ExtractedDate.Equal(latest) {
			continue
		}
		stats.TotalRecords++
		unique[r.CryptoID] = struct{}{}
		priceSum += r.CurrentPrice
		stats.TotalMarketCapBillions += r.MarketCapBillions
	}

	stats.UniqueCryptos = int64(len(unique))
	stats.LatestDate = latest
	if stats.TotalRecords > 0 {
		stats.AvgPrice = priceSum / float64(stats.TotalRecords)
	}
	return stats, nil
}

// Ping always succeeds for the in-memory store.
func (s *MarketStore) Ping(_ context.Context) error {
	return nil
}

// Rows returns a copy of all stored rows, for test assertions.
func (s *MarketStore) Rows() []domain.CleanedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CleanedRecord, len(s.rows))
	copy(out, s.rows)
	return out
}

// SchemaEnsured reports whether EnsureSchema has been called.
func (s *MarketStore) SchemaEnsured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemaEnsured
}
