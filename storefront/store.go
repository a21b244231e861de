package storefront

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrLoginRequired is returned when a mutation needs an authenticated
	// session. No network call has been made.
	ErrLoginRequired = errors.New("login required")

	// ErrMutationInFlight is returned when a mutation targets a line that
	// already has one pending.
	ErrMutationInFlight = errors.New("mutation already in flight")
)

// Notifier receives user-facing translation keys from cart operations.
type Notifier interface {
	Notify(messageKey string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(messageKey string)

func (f NotifierFunc) Notify(messageKey string) { f(messageKey) }

// CartStore holds the session's cart lines. The four mutation operations are
// its only writers; each one commits on the server first and only then
// refetches, so local state never reflects an unconfirmed change. A mutation
// failure leaves the lines exactly as they were and surfaces the server's
// message key through the notifier.
type CartStore struct {
	client   *Client
	notifier Notifier

	mu       sync.Mutex
	lines    []CartLine
	inFlight map[string]bool

	watch chan struct{}
}

func NewCartStore(client *Client, notifier Notifier) *CartStore {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &CartStore{
		client:   client,
		notifier: notifier,
		inFlight: make(map[string]bool),
		watch:    make(chan struct{}, 1),
	}
}

// Lines returns the current cart lines. The returned slice must not be
// mutated by the caller.
func (s *CartStore) Lines() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Watch returns a channel that receives a signal after every confirmed
// change. Signals coalesce.
func (s *CartStore) Watch() <-chan struct{} {
	return s.watch
}

// Refresh refetches the cart lines from the server.
func (s *CartStore) Refresh(ctx context.Context) error {
	lines, err := s.client.GetCartLines(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

func (s *CartStore) notifyChange() {
	select {
	case s.watch <- struct{}{}:
	default:
	}
}

// acquire claims the single-flight slot for key. Callers release it with
// release once the mutation settles.
func (s *CartStore) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[key] {
		return false
	}
	s.inFlight[key] = true
	return true
}

func (s *CartStore) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// surface forwards a mutation error's message key to the notifier.
func (s *CartStore) surface(err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		s.notifier.Notify(apiErr.MessageKey)
		return
	}
	s.notifier.Notify("error.generic")
}

// normalizeToppings removes duplicate ids and sorts ascending so that two
// lines with the same topping set always transmit identically.
func normalizeToppings(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Add creates a cart line, merging server-side into an existing line with the
// same drink, size and topping set. An unauthenticated session is rejected
// before any network I/O.
func (s *CartStore) Add(ctx context.Context, drinkID, size string, toppingIDs []string, quantity int) error {
	if !s.client.Authenticated() {
		s.notifier.Notify("auth.loginRequired")
		return ErrLoginRequired
	}

	if !s.acquire("add") {
		return ErrMutationInFlight
	}
	defer s.release("add")

	if err := s.client.AddCartLine(ctx, drinkID, size, normalizeToppings(toppingIDs), quantity); err != nil {
		s.surface(err)
		return err
	}
	return s.Refresh(ctx)
}

// ChangeQuantity applies a signed delta to a line. A zero delta is a no-op
// with no network call. A delta that would land the quantity at or below zero
// dispatches Remove instead; the update path never drives a line to zero.
func (s *CartStore) ChangeQuantity(ctx context.Context, cartItemID string, delta int) error {
	if delta == 0 {
		return nil
	}

	s.mu.Lock()
	current := 0
	for _, line := range s.lines {
		if line.ID == cartItemID {
			current = line.Quantity
			break
		}
	}
	s.mu.Unlock()

	if current+delta <= 0 {
		return s.Remove(ctx, cartItemID)
	}

	if !s.acquire(cartItemID) {
		return ErrMutationInFlight
	}
	defer s.release(cartItemID)

	direction := "increase"
	magnitude := delta
	if delta < 0 {
		direction = "decrease"
		magnitude = -delta
	}

	if err := s.client.UpdateCartLine(ctx, cartItemID, magnitude, direction); err != nil {
		s.surface(err)
		return err
	}
	return s.Refresh(ctx)
}

// Remove deletes a line. Removing an id the server no longer has is not an
// error.
func (s *CartStore) Remove(ctx context.Context, cartItemID string) error {
	if !s.acquire(cartItemID) {
		return ErrMutationInFlight
	}
	defer s.release(cartItemID)

	if err := s.client.RemoveCartLine(ctx, cartItemID); err != nil {
		s.surface(err)
		return err
	}
	return s.Refresh(ctx)
}

// Reset clears every line for the session.
func (s *CartStore) Reset(ctx context.Context) error {
	if !s.acquire("reset") {
		return ErrMutationInFlight
	}
	defer s.release("reset")

	if err := s.client.ResetCart(ctx); err != nil {
		s.surface(err)
		return err
	}
	return s.Refresh(ctx)
}
