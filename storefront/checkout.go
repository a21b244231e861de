package storefront

import (
	"context"
	"errors"
	"sync"
	"time"
)

// GateState is the checkout eligibility state. Order submission is only
// permitted from GateEligible.
type GateState string

const (
	GateEmpty          GateState = "empty"
	GateLoading        GateState = "loading"
	GateAllUnavailable GateState = "all_unavailable"
	GateOutsideHours   GateState = "outside_hours"
	GateEligible       GateState = "eligible"
)

// Default ordering window, matching the server's seeded store hours.
const (
	DefaultOpenTime  = "07:00"
	DefaultCloseTime = "22:00"
)

// ErrNotEligible is returned by Submit when the gate is not in GateEligible.
var ErrNotEligible = errors.New("checkout not eligible")

// Gate decides whether checkout may proceed. It re-evaluates on every
// reconciled view change and once a minute, so a session left open across
// the opening or closing boundary flips state without a reload.
type Gate struct {
	client     *Client
	cart       *CartStore
	reconciler *Reconciler
	notifier   Notifier

	openTime  string
	closeTime string
	now       func() time.Time

	mu    sync.Mutex
	view  CartView
	state GateState

	watch chan GateState
}

func NewGate(client *Client, cart *CartStore, reconciler *Reconciler, notifier Notifier) *Gate {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &Gate{
		client:     client,
		cart:       cart,
		reconciler: reconciler,
		notifier:   notifier,
		openTime:   DefaultOpenTime,
		closeTime:  DefaultCloseTime,
		now:        time.Now,
		state:      GateEmpty,
		watch:      make(chan GateState, 1),
	}
}

// SetWindow overrides the default ordering window. Times are "HH:MM" strings
// compared literally, open inclusive, close exclusive.
func (g *Gate) SetWindow(open, close string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.openTime = open
	g.closeTime = close
}

// SetClock replaces the wall-clock source.
func (g *Gate) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// State returns the last evaluated state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Watch returns a channel that receives the state after each re-evaluation
// that changed it. Stale states are replaced, not queued.
func (g *Gate) Watch() <-chan GateState {
	return g.watch
}

// Reevaluate recomputes the state from the given view and the clock.
func (g *Gate) Reevaluate(view CartView) GateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.view = view
	state := g.evaluateLocked(view)
	if state != g.state {
		g.state = state
		g.publishLocked(state)
	}
	return state
}

// evaluateLocked applies the eligibility rules in order: empty cart, catalog
// still loading, every line unavailable, outside ordering hours.
func (g *Gate) evaluateLocked(view CartView) GateState {
	if len(g.cart.Lines()) == 0 {
		return GateEmpty
	}
	if view.Loading {
		return GateLoading
	}

	anyAvailable := false
	for _, line := range view.Lines {
		if line.Drink.IsAvailable {
			anyAvailable = true
			break
		}
	}
	if !anyAvailable {
		return GateAllUnavailable
	}

	cur := g.now().Format("15:04")
	if cur < g.openTime || cur >= g.closeTime {
		return GateOutsideHours
	}
	return GateEligible
}

func (g *Gate) publishLocked(state GateState) {
	select {
	case g.watch <- state:
	default:
		select {
		case <-g.watch:
		default:
		}
		g.watch <- state
	}
}

// Run re-evaluates on every reconciled view and on a one-minute tick until
// ctx is cancelled.
func (g *Gate) Run(ctx context.Context) {
	viewCh := g.reconciler.Watch()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	g.Reevaluate(g.reconciler.View())

	for {
		select {
		case <-ctx.Done():
			return
		case view := <-viewCh:
			g.Reevaluate(view)
		case <-ticker.C:
			g.mu.Lock()
			view := g.view
			g.mu.Unlock()
			g.Reevaluate(view)
		}
	}
}

// Submit places the order. Only available lines are transmitted; unavailable
// lines are filtered out, never sent with a zero quantity. On success the
// cart is reset.
func (g *Gate) Submit(ctx context.Context, voucherCode, paymentMethod, note string) (string, error) {
	g.mu.Lock()
	state := g.state
	view := g.view
	g.mu.Unlock()

	if state != GateEligible {
		g.notifier.Notify(noticeFor(state))
		return "", ErrNotEligible
	}

	ids := make([]string, 0, len(view.Lines))
	for _, line := range view.Lines {
		if line.Drink.IsAvailable {
			ids = append(ids, line.ID)
		}
	}

	orderID, err := g.client.SubmitOrder(ctx, ids, voucherCode, paymentMethod, note)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			g.notifier.Notify(apiErr.MessageKey)
		} else {
			g.notifier.Notify("error.generic")
		}
		return "", err
	}

	g.cart.Reset(ctx)
	return orderID, nil
}

func noticeFor(state GateState) string {
	switch state {
	case GateEmpty:
		return "checkout.cartEmpty"
	case GateLoading:
		return "checkout.loading"
	case GateAllUnavailable:
		return "checkout.allUnavailable"
	case GateOutsideHours:
		return "checkout.outsideHours"
	default:
		return "error.generic"
	}
}
