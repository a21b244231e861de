package storefront

import (
	"context"
	"net/http"
	"testing"
)

func TestCatalogRefreshPopulatesSnapshot(t *testing.T) {
	backend := newFakeBackend(t)
	catalog := NewCatalogCache(backend.client(), DefaultCatalogRefresh)

	if catalog.Loaded() {
		t.Fatal("expected not loaded before the first refresh")
	}
	if err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !catalog.Loaded() {
		t.Error("expected loaded after a successful refresh")
	}

	drinks, toppings := catalog.Snapshot()
	if len(drinks) != 2 || len(toppings) != 2 {
		t.Errorf("expected 2 drinks and 2 toppings, got %d and %d", len(drinks), len(toppings))
	}
}

func TestCatalogRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	backend := newFakeBackend(t)
	catalog := NewCatalogCache(backend.client(), DefaultCatalogRefresh)

	if err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	<-catalog.Watch() // drain the first signal

	backend.failNext("/api/products", http.StatusInternalServerError, "")
	if err := catalog.Refresh(context.Background()); err == nil {
		t.Fatal("expected an error from the failed refresh")
	}

	drinks, toppings := catalog.Snapshot()
	if len(drinks) != 2 || len(toppings) != 2 {
		t.Errorf("expected the previous snapshot kept, got %d drinks %d toppings", len(drinks), len(toppings))
	}
	select {
	case <-catalog.Watch():
		t.Error("expected no change signal from a failed refresh")
	default:
	}
}

func TestCatalogWatchCoalesces(t *testing.T) {
	backend := newFakeBackend(t)
	catalog := NewCatalogCache(backend.client(), DefaultCatalogRefresh)

	for i := 0; i < 3; i++ {
		if err := catalog.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}

	<-catalog.Watch()
	select {
	case <-catalog.Watch():
		t.Error("expected signals to coalesce into one pending")
	default:
	}
}

func TestReconcilerViewJoinsCurrentInputs(t *testing.T) {
	backend := newFakeBackend(t)
	client := backend.client()
	store := NewCartStore(client, nil)
	catalog := NewCatalogCache(client, DefaultCatalogRefresh)
	reconciler := NewReconciler(catalog, store)

	backend.seedItem("drink-1", "M", 2, Topping{ID: "top-1", NameEn: "Pearl", Price: 5000, IsAvailable: true})
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("catalog refresh: %v", err)
	}

	view := reconciler.View()
	if len(view.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Lines))
	}
	if view.Lines[0].UnitPrice != 34000 {
		t.Errorf("expected unit price 34000, got %d", view.Lines[0].UnitPrice)
	}
	if view.TotalPrice != 68000 {
		t.Errorf("expected total 68000, got %d", view.TotalPrice)
	}
}

func TestReconcilerPublishReplacesStaleView(t *testing.T) {
	backend := newFakeBackend(t)
	client := backend.client()
	store := NewCartStore(client, nil)
	catalog := NewCatalogCache(client, DefaultCatalogRefresh)
	reconciler := NewReconciler(catalog, store)

	reconciler.publish(CartView{DroppedLines: 1})
	reconciler.publish(CartView{DroppedLines: 2})

	view := <-reconciler.Watch()
	if view.DroppedLines != 2 {
		t.Errorf("expected the newest view, got DroppedLines=%d", view.DroppedLines)
	}
	select {
	case <-reconciler.Watch():
		t.Error("expected only one pending view")
	default:
	}
}
