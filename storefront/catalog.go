package storefront

import (
	"context"
	"sync"
	"time"
)

// DefaultCatalogRefresh is how often the catalog poll runs.
const DefaultCatalogRefresh = 5 * time.Minute

// CatalogCache holds the last successfully fetched drink and topping lists
// and refreshes them on a timer. Reads never block on the network: a refresh
// failure keeps the previous snapshot (stale data beats no data).
type CatalogCache struct {
	client   *Client
	interval time.Duration

	mu       sync.RWMutex
	drinks   []Drink
	toppings []Topping
	loaded   bool

	watch chan struct{}
}

func NewCatalogCache(client *Client, interval time.Duration) *CatalogCache {
	if interval <= 0 {
		interval = DefaultCatalogRefresh
	}
	return &CatalogCache{
		client:   client,
		interval: interval,
		watch:    make(chan struct{}, 1),
	}
}

// Snapshot returns the current drink and topping lists. The returned slices
// must not be mutated by the caller.
func (cc *CatalogCache) Snapshot() ([]Drink, []Topping) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.drinks, cc.toppings
}

// Loaded reports whether at least one refresh has succeeded.
func (cc *CatalogCache) Loaded() bool {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.loaded
}

// Watch returns a channel that receives a signal after every successful
// refresh. Signals coalesce; a slow consumer sees at most one pending.
func (cc *CatalogCache) Watch() <-chan struct{} {
	return cc.watch
}

// Refresh fetches both catalog lists. On any failure the previous snapshot
// stays in place and no change signal fires.
func (cc *CatalogCache) Refresh(ctx context.Context) error {
	drinks, err := cc.client.ListDrinks(ctx)
	if err != nil {
		return err
	}
	toppings, err := cc.client.ListToppings(ctx)
	if err != nil {
		return err
	}

	cc.mu.Lock()
	cc.drinks = drinks
	cc.toppings = toppings
	cc.loaded = true
	cc.mu.Unlock()

	cc.notify()
	return nil
}

func (cc *CatalogCache) notify() {
	select {
	case cc.watch <- struct{}{}:
	default:
	}
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
func (cc *CatalogCache) Run(ctx context.Context) {
	cc.Refresh(ctx)

	ticker := time.NewTicker(cc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cc.Refresh(ctx)
		}
	}
}
