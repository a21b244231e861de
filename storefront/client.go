package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// APIError is a non-2xx response from the backend. MessageKey is the
// translation key from the error envelope, or a generic fallback when the
// body carried none.
type APIError struct {
	Status     int
	MessageKey string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.MessageKey)
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Total   *int64          `json:"total"`
}

// Client talks to the backend REST API. It attaches the bearer token to every
// request and, on a 401 with a refresh token in hand, silently renews the
// access token and retries the request once.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetSession installs the token pair from a login or register response.
func (c *Client) SetSession(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

func (c *Client) ClearSession() {
	c.SetSession("", "")
}

// Authenticated reports whether a session token is installed. It gates the
// add-to-cart path client-side so an anonymous user never reaches the network.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	env, err := c.doEnvelope(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) doEnvelope(ctx context.Context, method, path string, body any) (*envelope, error) {
	env, status, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && c.refreshSession(ctx) {
		env, status, err = c.roundTrip(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		key := "error.generic"
		if env != nil && env.Message != "" {
			key = env.Message
		}
		return nil, &APIError{Status: status, MessageKey: key}
	}
	return env, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*envelope, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		// Non-envelope body on an error status still maps to an APIError.
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return &env, resp.StatusCode, nil
}

// refreshSession trades the refresh token for a new access token. Reports
// whether the caller should retry the original request.
func (c *Client) refreshSession(ctx context.Context) bool {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		return false
	}

	env, status, err := c.roundTrip(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]string{"refresh_token": refreshToken})
	if err != nil || status != http.StatusOK {
		return false
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return false
	}

	c.mu.Lock()
	c.accessToken = data.Token
	c.mu.Unlock()
	return true
}

// Login authenticates and installs the returned session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var data struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &data)
	if err != nil {
		return err
	}
	c.SetSession(data.Token, data.RefreshToken)
	return nil
}

// ListDrinks fetches the available drinks.
func (c *Client) ListDrinks(ctx context.Context) ([]Drink, error) {
	var drinks []Drink
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &drinks); err != nil {
		return nil, err
	}
	return drinks, nil
}

// ListToppings fetches the available toppings.
func (c *Client) ListToppings(ctx context.Context) ([]Topping, error) {
	var toppings []Topping
	if err := c.do(ctx, http.MethodGet, "/api/toppings", nil, &toppings); err != nil {
		return nil, err
	}
	return toppings, nil
}

// wireCartItem is the server's cart line, which nests the full topping rows.
type wireCartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	Toppings  []Topping `json:"toppings"`
}

// GetCartLines fetches the session's cart lines as reference entries. Only
// ids cross this boundary; pricing and names come from the catalog cache at
// reconcile time.
func (c *Client) GetCartLines(ctx context.Context) ([]CartLine, error) {
	var items []wireCartItem
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &items); err != nil {
		return nil, err
	}

	lines := make([]CartLine, len(items))
	for i, item := range items {
		ids := make([]string, len(item.Toppings))
		for j, t := range item.Toppings {
			ids[j] = t.ID
		}
		lines[i] = CartLine{
			ID:         item.ID,
			DrinkID:    item.ProductID,
			Size:       item.Size,
			ToppingIDs: ids,
			Quantity:   item.Quantity,
		}
	}
	return lines, nil
}

func (c *Client) AddCartLine(ctx context.Context, drinkID, size string, toppingIDs []string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/api/cart/add", map[string]any{
		"product_id":  drinkID,
		"size":        size,
		"topping_ids": toppingIDs,
		"quantity":    quantity,
	}, nil)
}

func (c *Client) UpdateCartLine(ctx context.Context, cartItemID string, delta int, direction string) error {
	return c.do(ctx, http.MethodPost, "/api/cart/update", map[string]any{
		"cart_item_id": cartItemID,
		"quantity":     delta,
		"direction":    direction,
	}, nil)
}

func (c *Client) RemoveCartLine(ctx context.Context, cartItemID string) error {
	return c.do(ctx, http.MethodPost, "/api/cart/remove", map[string]string{
		"cart_item_id": cartItemID,
	}, nil)
}

func (c *Client) ResetCart(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/cart/reset", nil, nil)
}

// SubmitOrder converts the given cart lines into an order and returns the new
// order's id.
func (c *Client) SubmitOrder(ctx context.Context, cartItemIDs []string, voucherCode, paymentMethod, note string) (string, error) {
	var data struct {
		OrderID string `json:"order_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/orders", map[string]any{
		"cart_item_ids":  cartItemIDs,
		"voucher_code":   voucherCode,
		"payment_method": paymentMethod,
		"note":           note,
	}, &data)
	if err != nil {
		return "", err
	}
	return data.OrderID, nil
}
