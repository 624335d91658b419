package storefront

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client talks to the storefront's AJAX API. It implements domain.CatalogAPI
// and domain.CartAPI.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout, cookie jar). The
// storefront keys the cart off a cookie, so a replacement without a jar sees
// a fresh cart on every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid storefront url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid storefront url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second, Jar: jar},
		log:        logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// --- wire formats ---

type productJSON struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Handle   string        `json:"handle"`
	Image    string        `json:"image"`
	Price    int64         `json:"price"`
	Variants []variantJSON `json:"variants"`
}

type variantJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Available bool   `json:"available"`
	Price     int64  `json:"price"`
	SKU       string `json:"sku"`
}

type suggestResponse struct {
	Resources struct {
		Results struct {
			Products []productJSON `json:"products"`
		} `json:"results"`
	} `json:"resources"`
}

type addRequest struct {
	Items []addItem `json:"items"`
}

type addItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type errorBody struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p productJSON) toDomain() domain.Product {
	out := domain.Product{
		ID:     p.ID,
		Title:  p.Title,
		Handle: p.Handle,
		Image:  p.Image,
		Price:  p.Price,
	}
	if len(p.Variants) > 0 {
		out.Variants = make([]domain.Variant, len(p.Variants))
		for i, v := range p.Variants {
			out.Variants[i] = domain.Variant{ID: v.ID, Title: v.Title, Available: v.Available, Price: v.Price, SKU: v.SKU}
		}
	}
	return out
}

// --- domain.CatalogAPI ---

func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("resources[type]", "product")
	q.Set("resources[limit]", strconv.Itoa(limit))

	body, err := c.do(ctx, http.MethodGet, "/search/suggest.json", q, nil)
	if err != nil {
		return nil, err
	}
	var sr suggestResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	out := make([]domain.Product, 0, len(sr.Resources.Results.Products))
	for _, p := range sr.Resources.Results.Products {
		stub := p.toDomain()
		stub.Variants = nil
		out = append(out, stub)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	if handle == "" {
		return nil, fmt.Errorf("empty product handle")
	}
	body, err := c.do(ctx, http.MethodGet, "/products/"+handle+".js", nil, nil)
	if err != nil {
		return nil, err
	}
	var p productJSON
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	product := p.toDomain()
	if product.Variants == nil {
		product.Variants = []domain.Variant{}
	}
	return &product, nil
}

// --- domain.CartAPI ---

func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	body, err := c.do(ctx, http.MethodGet, "/cart.js", nil, nil)
	if err != nil {
		return nil, err
	}
	var cart domain.Cart
	if err := json.Unmarshal(body, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return &cart, nil
}

func (c *Client) AddItem(ctx context.Context, variantID int64, quantity int) (domain.RawJSON, error) {
	payload, err := json.Marshal(addRequest{Items: []addItem{{ID: variantID, Quantity: quantity}}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart add: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/cart/add.js", nil, payload)
	if err != nil {
		return nil, err
	}
	return domain.RawJSON(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// path is unescaped, url.URL escapes it once when building the request
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawPath = ""
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.StorefrontCall(c.log, method, path, 0, time.Since(start), err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("storefront request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	logger.StorefrontCall(c.log, method, path, resp.StatusCode, time.Since(start), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to read storefront response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// parseAPIError tolerates bodies that are not JSON (HTML error pages, empty).
func parseAPIError(status int, body []byte) *domain.APIError {
	apiErr := &domain.APIError{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = strings.TrimSpace(eb.Message)
		apiErr.Description = strings.TrimSpace(eb.Description)
	}
	return apiErr
}
