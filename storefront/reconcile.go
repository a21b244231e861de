package storefront

import "context"

// Drink mirrors the server's product shape. A nil size price means the size
// is not offered.
type Drink struct {
	ID          string `json:"id"`
	NameVi      string `json:"name_vi"`
	NameEn      string `json:"name_en"`
	PriceS      *int   `json:"price_s"`
	PriceM      *int   `json:"price_m"`
	PriceL      *int   `json:"price_l"`
	IsAvailable bool   `json:"is_available"`
	Image       string `json:"image"`
	CategoryID  string `json:"category_id"`
}

// PriceForSize returns the price for the given size and whether that size is
// offered.
func (d *Drink) PriceForSize(size string) (int, bool) {
	var price *int
	switch size {
	case "S":
		price = d.PriceS
	case "M":
		price = d.PriceM
	case "L":
		price = d.PriceL
	}
	if price == nil {
		return 0, false
	}
	return *price, true
}

type Topping struct {
	ID          string `json:"id"`
	NameVi      string `json:"name_vi"`
	NameEn      string `json:"name_en"`
	Price       int    `json:"price"`
	IsAvailable bool   `json:"is_available"`
	Image       string `json:"image"`
}

// CartLine is a durable cart entry as held by the server: a drink in one
// size with a set of toppings.
type CartLine struct {
	ID         string
	DrinkID    string
	Size       string
	ToppingIDs []string
	Quantity   int
}

// ReconciledLine is the priced, availability-annotated view of a CartLine.
// EffectiveQuantity is zero while the drink is unavailable; the line stays
// visible so the user can see why it does not count.
type ReconciledLine struct {
	CartLine
	Drink             Drink
	Toppings          []Topping
	UnitPrice         int
	EffectiveQuantity int
}

// CartView is the reconciled cart. Loading is true while lines exist but the
// catalog has not arrived yet; an empty cart is never Loading. DroppedLines
// counts lines excluded because they reference a drink or topping the catalog
// no longer knows.
type CartView struct {
	Lines        []ReconciledLine
	TotalPrice   int
	DroppedLines int
	Loading      bool
}

// Reconcile joins cart lines against the catalog. It is a pure function:
// identical inputs produce identical output.
//
// If either catalog slice is empty the result is the zero view, regardless
// of the cart content; this keeps a half-priced cart from ever being shown
// before both catalog fetches have landed. A line whose drink or any topping
// cannot be resolved is dropped whole, never partially priced. A resolved
// line whose drink is unavailable keeps its place with EffectiveQuantity 0.
// Output order follows the input cart order.
func Reconcile(drinks []Drink, toppings []Topping, lines []CartLine) CartView {
	if len(drinks) == 0 || len(toppings) == 0 {
		return CartView{Loading: len(lines) > 0}
	}

	drinkByID := make(map[string]Drink, len(drinks))
	for _, d := range drinks {
		drinkByID[d.ID] = d
	}
	toppingByID := make(map[string]Topping, len(toppings))
	for _, t := range toppings {
		toppingByID[t.ID] = t
	}

	view := CartView{Lines: make([]ReconciledLine, 0, len(lines))}
	for _, line := range lines {
		drink, ok := drinkByID[line.DrinkID]
		if !ok {
			view.DroppedLines++
			continue
		}

		sizePrice, ok := drink.PriceForSize(line.Size)
		if !ok {
			view.DroppedLines++
			continue
		}

		resolved := make([]Topping, 0, len(line.ToppingIDs))
		allResolved := true
		unitPrice := sizePrice
		for _, id := range line.ToppingIDs {
			t, ok := toppingByID[id]
			if !ok {
				allResolved = false
				break
			}
			resolved = append(resolved, t)
			unitPrice += t.Price
		}
		if !allResolved {
			view.DroppedLines++
			continue
		}

		effective := line.Quantity
		if !drink.IsAvailable {
			effective = 0
		}

		view.Lines = append(view.Lines, ReconciledLine{
			CartLine:          line,
			Drink:             drink,
			Toppings:          resolved,
			UnitPrice:         unitPrice,
			EffectiveQuantity: effective,
		})
		view.TotalPrice += unitPrice * effective
	}

	return view
}

// Reconciler subscribes to the catalog cache and the cart store and
// republishes a freshly reconciled CartView whenever either changes.
type Reconciler struct {
	catalog *CatalogCache
	cart    *CartStore
	out     chan CartView
}

func NewReconciler(catalog *CatalogCache, cart *CartStore) *Reconciler {
	return &Reconciler{
		catalog: catalog,
		cart:    cart,
		out:     make(chan CartView, 1),
	}
}

// Watch returns the channel carrying recomputed views. Stale views are
// replaced, not queued: a slow consumer always sees the newest view next.
func (r *Reconciler) Watch() <-chan CartView {
	return r.out
}

// View reconciles the current inputs on demand.
func (r *Reconciler) View() CartView {
	drinks, toppings := r.catalog.Snapshot()
	return Reconcile(drinks, toppings, r.cart.Lines())
}

// Run recomputes on every catalog or cart change until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	catalogCh := r.catalog.Watch()
	cartCh := r.cart.Watch()

	r.publish(r.View())

	for {
		select {
		case <-ctx.Done():
			return
		case <-catalogCh:
		case <-cartCh:
		}
		r.publish(r.View())
	}
}

func (r *Reconciler) publish(view CartView) {
	// Single publisher, so the drain-then-send pair cannot race.
	select {
	case r.out <- view:
	default:
		select {
		case <-r.out:
		default:
		}
		r.out <- view
	}
}
