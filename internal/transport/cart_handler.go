package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"daykart/internal/middleware"
	"daykart/internal/notify"
	"daykart/internal/repository"
	"daykart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest represents the add-to-cart payload
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required"`
}

// UpdateQuantityRequest represents the quantity update payload
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

// CartResponse represents the cart snapshot returned to the client
type CartResponse struct {
	Items interface{} `json:"items"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

// CartHandler handles HTTP requests for the cart
type CartHandler struct {
	cartService service.CartService
	feed        *notify.CartFeed
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, feed *notify.CartFeed, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		feed:        feed,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes; every route requires auth
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Get("/events", h.Events)
		r.Post("/items", h.AddToCart)
		r.Put("/items/{id}", h.UpdateQuantity)
		r.Delete("/items/{id}", h.RemoveFromCart)
		r.Delete("/", h.ClearCart)
	})
}

// GetCart returns the cart items with the derived total and count
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}

	total, err := h.cartService.GetCartTotal(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to compute cart total", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartResponse{
		Items: items,
		Total: total,
		Count: count,
	})
}

// AddToCart adds a product, merging with any existing row for the pair
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.cartService.AddToCart(r.Context(), userID, productID, req.Quantity); err != nil {
		switch err {
		case service.ErrInvalidQuantity:
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be a positive integer")
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		default:
			h.logger.Error("Failed to add to cart", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add to cart")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// UpdateQuantity sets the quantity of an owned cart item
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req UpdateQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.cartService.UpdateQuantity(r.Context(), userID, itemID, req.Quantity); err != nil {
		switch err {
		case service.ErrInvalidQuantity:
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be a positive integer")
		case repository.ErrCartItemNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "cart item not found")
		default:
			h.logger.Error("Failed to update cart item", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update cart item")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RemoveFromCart deletes an owned cart item; unknown ids succeed quietly
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.cartService.RemoveFromCart(r.Context(), userID, itemID); err != nil {
		h.logger.Error("Failed to remove cart item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ClearCart removes every item from the user's cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.cartService.ClearCart(r.Context(), userID); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Events streams cart change events for the authenticated user as
// server-sent events. The stream stays open until the client
// disconnects.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The stream outlives the server's write timeout
	rc := http.NewResponseController(w)
	rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.feed.Subscribe(r.Context(), userID)
	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("Failed to encode cart event", zap.Error(err))
			continue
		}

		fmt.Fprintf(w, "event: cart\ndata: %s\n\n", payload)
		flusher.Flush()
	}
}
