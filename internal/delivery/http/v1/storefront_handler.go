package v1

import (
	"errors"
	"net/http"
	"predictive-search/internal/domain"
	"predictive-search/internal/repository/memory"
	"predictive-search/pkg/logger"
	"predictive-search/pkg/utils"
	"strings"

	"github.com/goccy/go-json"
)

const (
	cartCookie     = "cart"
	maxSuggestions = 10
)

// StorefrontHandler serves the slice of the storefront AJAX API the search
// widget consumes, backed by an in-memory store.
type StorefrontHandler struct {
	store *memory.Store
}

func NewStorefrontHandler(store *memory.Store) *StorefrontHandler {
	return &StorefrontHandler{store: store}
}

// Register mounts the endpoints on mux.
func (h *StorefrontHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search/suggest.json", h.Suggest)
	mux.HandleFunc("GET /products/{file}", h.Product)
	mux.HandleFunc("GET /cart.js", h.Cart)
	mux.HandleFunc("POST /cart/add.js", h.AddToCart)
}

type suggestResponse struct {
	Resources suggestResources `json:"resources"`
}

type suggestResources struct {
	Results suggestResults `json:"results"`
}

type suggestResults struct {
	Products []domain.Product `json:"products"`
}

// Suggest answers predictive search. Suggestions are product stubs without
// variants, capped at ten like the real endpoint.
func (h *StorefrontHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "Invalid parameter", "Parameter q is required.")
		return
	}

	limit := utils.ParseInt(q.Get("resources[limit]"), maxSuggestions)
	if limit < 1 || limit > maxSuggestions {
		limit = maxSuggestions
	}

	products := []domain.Product{}
	if types := q.Get("resources[type]"); types == "" || strings.Contains(types, "product") {
		products = h.store.Search(query, limit)
		for i := range products {
			products[i].Variants = nil
		}
	}

	utils.WriteJSON(w, http.StatusOK, suggestResponse{Resources: suggestResources{Results: suggestResults{Products: products}}})
}

// Product serves /products/{handle}.js with the full variant list.
func (h *StorefrontHandler) Product(w http.ResponseWriter, r *http.Request) {
	handle, ok := strings.CutSuffix(r.PathValue("file"), ".js")
	if !ok || handle == "" {
		utils.WriteError(w, http.StatusNotFound, "Not Found", "")
		return
	}

	product, err := h.store.ProductByHandle(handle)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "Not Found", "Product not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *StorefrontHandler) Cart(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.store.Cart(h.cartToken(w, r)))
}

type addRequest struct {
	Items []addItem `json:"items"`
	// single-item form: {"id": 123, "quantity": 1}
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type addItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

func (h *StorefrontHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if len(req.Items) == 0 && req.ID != 0 {
		req.Items = []addItem{{ID: req.ID, Quantity: req.Quantity}}
	}
	if len(req.Items) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Bad Request", "Parameter items is required.")
		return
	}

	lines := make([]memory.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = memory.LineRequest{VariantID: item.ID, Quantity: item.Quantity}
	}

	token := h.cartToken(w, r)
	added, err := h.store.AddItems(token, lines)
	switch {
	case errors.Is(err, domain.ErrVariantUnavailable):
		utils.WriteError(w, http.StatusUnprocessableEntity, "Cart Error", "Sold out")
		return
	case errors.Is(err, memory.ErrVariantNotFound):
		utils.WriteError(w, http.StatusNotFound, "Cart Error", "Cannot find variant")
		return
	case err != nil:
		log.Error().Err(err).Msg("Cart add failed")
		utils.WriteError(w, http.StatusInternalServerError, "Cart Error", "")
		return
	}

	log.Info().Str("cart", token).Int("lines", len(added)).Msg("Cart updated")
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": added})
}

// cartToken reads the cart cookie, issuing a new token when absent.
func (h *StorefrontHandler) cartToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
		return c.Value
	}
	token := h.store.NewCartToken()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}
