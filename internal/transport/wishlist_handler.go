package transport

import (
	"net/http"

	"daykart/internal/middleware"
	"daykart/internal/repository"
	"daykart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WishlistRequest represents the add-to-wishlist payload
type WishlistRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// WishlistHandler handles HTTP requests for the wishlist
type WishlistHandler struct {
	wishlistService service.WishlistService
	logger          *zap.Logger
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		logger:          logger,
	}
}

// RegisterRoutes registers all wishlist routes; every route requires auth
func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Add)
		r.Delete("/{id}", h.Remove)
		r.Delete("/product/{productID}", h.RemoveByProduct)
	})
}

// List returns the user's wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.wishlistService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list wishlist", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// Add puts a product on the wishlist; duplicates succeed quietly
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req WishlistRequest
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

	if err := h.wishlistService.Add(r.Context(), userID, productID); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to add to wishlist", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add to wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Remove deletes a wishlist item by its id
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
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

	if err := h.wishlistService.Remove(r.Context(), userID, itemID); err != nil {
		h.logger.Error("Failed to remove wishlist item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove wishlist item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RemoveByProduct deletes a wishlist item by product id
func (h *WishlistHandler) RemoveByProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.wishlistService.RemoveByProduct(r.Context(), userID, productID); err != nil {
		h.logger.Error("Failed to remove wishlist item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove wishlist item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
