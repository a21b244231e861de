package storefront

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeBackend is an in-memory stand-in for the REST API. It speaks the same
// {data, message} envelope and enforces the bearer token on cart routes.
type fakeBackend struct {
	srv *httptest.Server

	mu         sync.Mutex
	drinks     []Drink
	toppings   []Topping
	items      []wireCartItem
	nextID     int
	requests   []string
	validToken string
	refreshed  string // token issued by a successful refresh
	orderID    string
	failures   map[string]failResponse

	lastAddToppings  []string
	lastOrderItemIDs []string
}

type failResponse struct {
	status  int
	message string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		validToken: "access-token",
		orderID:    "order-1",
		failures:   make(map[string]failResponse),
		drinks: []Drink{
			{ID: "drink-1", NameEn: "Classic Milk Tea", PriceM: intPtr(29000), IsAvailable: true},
			{ID: "drink-2", NameEn: "Sold Out Tea", PriceM: intPtr(30000)},
		},
		toppings: []Topping{
			{ID: "top-1", NameEn: "Pearl", Price: 5000, IsAvailable: true},
			{ID: "top-2", NameEn: "Pudding", Price: 7000, IsAvailable: true},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", b.handleProducts)
	mux.HandleFunc("/api/toppings", b.handleToppings)
	mux.HandleFunc("/api/auth/refresh", b.handleRefresh)
	mux.HandleFunc("/api/cart", b.withAuth(b.handleGetCart))
	mux.HandleFunc("/api/cart/add", b.withAuth(b.handleAddCart))
	mux.HandleFunc("/api/cart/update", b.withAuth(b.handleUpdateCart))
	mux.HandleFunc("/api/cart/remove", b.withAuth(b.handleRemoveCart))
	mux.HandleFunc("/api/cart/reset", b.withAuth(b.handleResetCart))
	mux.HandleFunc("/api/orders", b.withAuth(b.handleCreateOrder))

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

// client returns a Client pointed at the backend with a valid session.
func (b *fakeBackend) client() *Client {
	c := NewClient(b.srv.URL)
	c.SetSession(b.validToken, "refresh-token")
	return c
}

// failNext makes the named path answer with the given error envelope.
func (b *fakeBackend) failNext(path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = failResponse{status: status, message: message}
}

// requestCount counts recorded requests whose "METHOD path" has the prefix.
func (b *fakeBackend) requestCount(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) seedItem(drinkID, size string, quantity int, toppings ...Topping) wireCartItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	item := wireCartItem{
		ID:        fmt.Sprintf("item-%d", b.nextID),
		ProductID: drinkID,
		Size:      size,
		Quantity:  quantity,
		Toppings:  toppings,
	}
	b.items = append(b.items, item)
	return item
}

func (b *fakeBackend) itemQuantity(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range b.items {
		if item.ID == id {
			return item.Quantity
		}
	}
	return 0
}

func writeEnvelope(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data, "message": message})
}

// record notes the request and answers with a queued failure if one is set.
// Reports whether the caller should stop.
func (b *fakeBackend) record(w http.ResponseWriter, r *http.Request) bool {
	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	fail, ok := b.failures[r.URL.Path]
	if ok {
		delete(b.failures, r.URL.Path)
	}
	b.mu.Unlock()

	if ok {
		writeEnvelope(w, fail.status, nil, fail.message)
		return true
	}
	return false
}

func (b *fakeBackend) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		token := b.validToken
		refreshed := b.refreshed
		b.mu.Unlock()

		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got != token && (refreshed == "" || got != refreshed) {
			b.mu.Lock()
			b.requests = append(b.requests, r.Method+" "+r.URL.Path)
			b.mu.Unlock()
			writeEnvelope(w, http.StatusUnauthorized, nil, "auth.unauthorized")
			return
		}
		next(w, r)
	}
}

func (b *fakeBackend) handleProducts(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	b.mu.Lock()
	drinks := b.drinks
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, drinks, "product.listed")
}

func (b *fakeBackend) handleToppings(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	b.mu.Lock()
	toppings := b.toppings
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, toppings, "topping.listed")
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	if body.RefreshToken != "refresh-token" {
		writeEnvelope(w, http.StatusUnauthorized, nil, "auth.tokenExpired")
		return
	}

	b.mu.Lock()
	b.refreshed = "refreshed-token"
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, map[string]string{"token": "refreshed-token"}, "auth.refreshed")
}

func (b *fakeBackend) handleGetCart(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	b.mu.Lock()
	items := b.items
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, items, "cart.listed")
}

func (b *fakeBackend) handleAddCart(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	var body struct {
		ProductID  string   `json:"product_id"`
		Size       string   `json:"size"`
		ToppingIDs []string `json:"topping_ids"`
		Quantity   int      `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "error.invalidRequest")
		return
	}

	b.mu.Lock()
	b.lastAddToppings = body.ToppingIDs
	b.nextID++
	b.items = append(b.items, wireCartItem{
		ID:        "item-added",
		ProductID: body.ProductID,
		Size:      body.Size,
		Quantity:  body.Quantity,
	})
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, nil, "cart.added")
}

func (b *fakeBackend) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	var body struct {
		CartItemID string `json:"cart_item_id"`
		Quantity   int    `json:"quantity"`
		Direction  string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "error.invalidRequest")
		return
	}

	b.mu.Lock()
	for i := range b.items {
		if b.items[i].ID == body.CartItemID {
			if body.Direction == "decrease" {
				b.items[i].Quantity -= body.Quantity
			} else {
				b.items[i].Quantity += body.Quantity
			}
		}
	}
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, nil, "cart.updated")
}

func (b *fakeBackend) handleRemoveCart(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	var body struct {
		CartItemID string `json:"cart_item_id"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	kept := b.items[:0]
	for _, item := range b.items {
		if item.ID != body.CartItemID {
			kept = append(kept, item)
		}
	}
	b.items = kept
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, nil, "cart.removed")
}

func (b *fakeBackend) handleResetCart(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	b.mu.Lock()
	b.items = nil
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, nil, "cart.cleared")
}

func (b *fakeBackend) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if b.record(w, r) {
		return
	}
	var body struct {
		CartItemIDs []string `json:"cart_item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "error.invalidRequest")
		return
	}

	b.mu.Lock()
	b.lastOrderItemIDs = body.CartItemIDs
	orderID := b.orderID
	b.mu.Unlock()
	writeEnvelope(w, http.StatusCreated, map[string]string{"order_id": orderID}, "order.created")
}

// recordingNotifier collects every surfaced message key.
type recordingNotifier struct {
	mu   sync.Mutex
	keys []string
}

func (n *recordingNotifier) Notify(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys = append(n.keys, key)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.keys...)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.keys) == 0 {
		return ""
	}
	return n.keys[len(n.keys)-1]
}
