package store

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

// Router resolves a school's database locator to a live TenantStore,
// reusing handles for the process lifetime. Opening a pool is expensive,
// so concurrent requests for the same locator collapse into a single
// dial via singleflight.
type Router struct {
	baseURL string
	dial    func(ctx context.Context, url string) (*pgxpool.Pool, error)

	group  singleflight.Group
	mu     sync.RWMutex
	stores map[string]*TenantStore
}

func NewRouter(baseURL string) *Router {
	return &Router{
		baseURL: baseURL,
		dial:    NewPool,
		stores:  make(map[string]*TenantStore),
	}
}

func (r *Router) Store(ctx context.Context, locator string) (*TenantStore, error) {
	r.mu.RLock()
	store, ok := r.stores[locator]
	r.mu.RUnlock()
	if ok {
		return store, nil
	}

	value, err, _ := r.group.Do(locator, func() (interface{}, error) {
		r.mu.RLock()
		store, ok := r.stores[locator]
		r.mu.RUnlock()
		if ok {
			return store, nil
		}
		pool, err := r.dial(ctx, r.tenantURL(locator))
		if err != nil {
			return nil, err
		}
		store = NewTenantStore(pool)
		r.mu.Lock()
		r.stores[locator] = store
		r.mu.Unlock()
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*TenantStore), nil
}

// tenantURL appends the database name to the base URL, keeping any query
// string: postgres://u:p@host:5432?sslmode=disable + school_sch001 →
// postgres://u:p@host:5432/school_sch001?sslmode=disable.
func (r *Router) tenantURL(locator string) string {
	base := r.baseURL
	query := ""
	if i := strings.Index(base, "?"); i >= 0 {
		base, query = base[:i], base[i:]
	}
	return strings.TrimSuffix(base, "/") + "/" + locator + query
}

// Close releases every cached handle. Only called at process shutdown.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for locator, store := range r.stores {
		store.Close()
		delete(r.stores, locator)
	}
}
