package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/domain"
)

// stubClient implements MarketsClient with scripted responses.
type stubClient struct {
	records    []domain.RawMarketRecord
	fetchErrs  map[int]error // errors keyed by call number (1-based)
	pingErr    error
	fetchCalls int
}

func (s *stubClient) FetchMarkets(ctx context.Context, limit int) ([]domain.RawMarketRecord, error) {
	s.fetchCalls++
	if err, ok := s.fetchErrs[s.fetchCalls]; ok {
		return nil, err
	}
	if len(s.records) > limit {
		return s.records[:limit], nil
	}
	return s.records, nil
}

func (s *stubClient) Ping(ctx context.Context) error {
	return s.pingErr
}

func testRecords(n int) []domain.RawMarketRecord {
	updated := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	records := make([]domain.RawMarketRecord, n)
	for i := range records {
		price := float64(i + 1)
		cap := price * 1e9
		records[i] = domain.RawMarketRecord{
			CryptoID:     fmt.Sprintf("coin-%d", i),
			Symbol:       fmt.Sprintf("c%d", i),
			Name:         fmt.Sprintf("Coin %d", i),
			CurrentPrice: &price,
			MarketCap:    &cap,
			LastUpdated:  &updated,
		}
	}
	return records
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", log.LstdFlags)
}

func TestFetchSnapshot(t *testing.T) {
	client := &stubClient{records: testRecords(5)}
	e := New(client, testLogger())

	records, err := e.FetchSnapshot(context.Background(), 3)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
	if client.fetchCalls != 1 {
		t.Errorf("expected 1 fetch call, got %d", client.fetchCalls)
	}
}

func TestFetchHistoricalRange(t *testing.T) {
	client := &stubClient{records: testRecords(2)}
	e := New(client, testLogger())

	records, err := e.FetchHistoricalRange(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(records) != 6 {
		t.Errorf("expected 6 records (3 days x 2), got %d", len(records))
	}
	if client.fetchCalls != 3 {
		t.Errorf("expected 3 fetch calls, got %d", client.fetchCalls)
	}
}

func TestFetchHistoricalRange_PartialFailureFailsWhole(t *testing.T) {
	upstream := errors.New("rate limited")
	client := &stubClient{
		records:   testRecords(2),
		fetchErrs: map[int]error{2: upstream},
	}
	e := New(client, testLogger())

	_, err := e.FetchHistoricalRange(context.Background(), 7, 10)
	if !errors.Is(err, upstream) {
		t.Fatalf("expected wrapped upstream error, got: %v", err)
	}
	// Fails on day 2: no further sub-requests, no partial return
	if client.fetchCalls != 2 {
		t.Errorf("expected 2 fetch calls before abort, got %d", client.fetchCalls)
	}
}

func TestFetchHistoricalRange_InvalidDays(t *testing.T) {
	e := New(&stubClient{}, testLogger())

	if _, err := e.FetchHistoricalRange(context.Background(), 0, 10); err == nil {
		t.Fatal("expected error for daysBack=0")
	}
	if _, err := e.FetchHistoricalRange(context.Background(), -1, 10); err == nil {
		t.Fatal("expected error for negative daysBack")
	}
}

func TestHealthy(t *testing.T) {
	e := New(&stubClient{}, testLogger())
	if !e.Healthy(context.Background()) {
		t.Error("expected healthy when ping succeeds")
	}

	e = New(&stubClient{pingErr: errors.New("connection refused")}, testLogger())
	if e.Healthy(context.Background()) {
		t.Error("expected unhealthy when ping fails")
	}
}
