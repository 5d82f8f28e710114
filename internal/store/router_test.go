package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestRouterDialsOncePerLocator(t *testing.T) {
	var dials int64
	router := NewRouter("postgres://u:p@localhost:5432?sslmode=disable")
	router.dial = func(ctx context.Context, url string) (*pgxpool.Pool, error) {
		atomic.AddInt64(&dials, 1)
		return nil, nil
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := router.Store(ctx, "school_sch001"); err != nil {
				t.Errorf("store error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&dials); got != 1 {
		t.Fatalf("expected exactly 1 dial under stampede, got %d", got)
	}

	// A repeat call reuses the cached handle.
	if _, err := router.Store(ctx, "school_sch001"); err != nil {
		t.Fatalf("store error: %v", err)
	}
	if got := atomic.LoadInt64(&dials); got != 1 {
		t.Fatalf("expected cached handle reuse, got %d dials", got)
	}
}

func TestRouterDistinctLocators(t *testing.T) {
	var dials int64
	urls := make(map[string]bool)
	var mu sync.Mutex
	router := NewRouter("postgres://u:p@localhost:5432?sslmode=disable")
	router.dial = func(ctx context.Context, url string) (*pgxpool.Pool, error) {
		atomic.AddInt64(&dials, 1)
		mu.Lock()
		urls[url] = true
		mu.Unlock()
		return nil, nil
	}

	ctx := context.Background()
	if _, err := router.Store(ctx, "school_a"); err != nil {
		t.Fatalf("store error: %v", err)
	}
	if _, err := router.Store(ctx, "school_b"); err != nil {
		t.Fatalf("store error: %v", err)
	}

	if dials != 2 {
		t.Fatalf("expected one dial per locator, got %d", dials)
	}
	if !urls["postgres://u:p@localhost:5432/school_a?sslmode=disable"] {
		t.Fatalf("unexpected dial urls: %v", urls)
	}
}

func TestTenantURLWithoutQuery(t *testing.T) {
	router := NewRouter("postgres://u:p@localhost:5432")
	if got := router.tenantURL("school_x"); got != "postgres://u:p@localhost:5432/school_x" {
		t.Fatalf("unexpected url: %s", got)
	}
}
