package transport

import (
	"net/http"

	"daykart/internal/middleware"
	"daykart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RedemptionRequest represents the reward redemption payload
type RedemptionRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// ReferralHandler handles HTTP requests for the referral ledger
type ReferralHandler struct {
	referralService service.ReferralService
	logger          *zap.Logger
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(referralService service.ReferralService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		logger:          logger,
	}
}

// RegisterRoutes registers all referral routes; every route requires auth
func (h *ReferralHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/referrals", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/stats", h.Stats)
		r.Post("/redeem", h.Redeem)
	})
}

// Stats returns the user's referral code, counts and reward balances
func (h *ReferralHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.referralService.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get referral stats", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get referral stats")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// Redeem requests a payout from the pending reward balance
func (h *ReferralHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RedemptionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	redemption, err := h.referralService.RequestRedemption(r.Context(), userID, req.Amount)
	if err != nil {
		switch err {
		case service.ErrBelowMinimumRedemption:
			middleware.RespondWithError(w, http.StatusBadRequest, "amount is below the minimum redemption")
		case service.ErrInsufficientRewards:
			middleware.RespondWithError(w, http.StatusBadRequest, "insufficient reward balance")
		default:
			h.logger.Error("Failed to request redemption", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to request redemption")
		}
		return
	}

	h.logger.Info("Redemption requested",
		zap.String("user_id", userID.String()),
		zap.Float64("amount", req.Amount))

	middleware.RespondWithJSON(w, http.StatusCreated, redemption)
}
