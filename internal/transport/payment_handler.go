package transport

import (
	"net/http"

	"daykart/internal/middleware"
	"daykart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateSessionRequest represents the payment session request payload
type CreateSessionRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// ConfirmPaymentRequest represents the simulated settlement payload
type ConfirmPaymentRequest struct {
	TransactionRef string `json:"transaction_ref" validate:"required"`
	Method         string `json:"method" validate:"required,oneof=upi card netbanking"`
}

// CODCheckoutRequest represents the cash-on-delivery checkout payload.
// UpfrontAmount is the portion paid online before dispatch; zero means
// the full amount is collected on delivery.
type CODCheckoutRequest struct {
	UpfrontAmount float64 `json:"upfront_amount" validate:"gte=0"`
}

// OrderPlacedResponse represents a successful checkout
type OrderPlacedResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

// PaymentHandler handles HTTP requests for checkout and payment
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// RegisterRoutes registers all checkout routes; every route requires auth
func (h *PaymentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/session", h.CreateSession)
		r.Post("/confirm", h.ConfirmPayment)
		r.Post("/cod", h.CheckoutCOD)
	})
}

// CreateSession opens a payment window: it builds the UPI pay string
// and QR image URL for the amount and stores the pending session under
// the generated transaction reference.
func (h *PaymentHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSessionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.paymentService.CreateSession(r.Context(), userID, req.Amount)
	if err != nil {
		switch err {
		case service.ErrInvalidAmount:
			middleware.RespondWithError(w, http.StatusBadRequest, "payment amount must be greater than zero")
		case service.ErrEmptyCart:
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case service.ErrAmountMismatch:
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, "payment amount does not match cart total")
		default:
			h.logger.Error("Failed to create payment session", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create payment session")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, session)
}

// ConfirmPayment settles a pending session without contacting any
// gateway. Available only when payment simulation is enabled.
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if !h.paymentService.SimulationEnabled() {
		middleware.RespondWithError(w, http.StatusNotFound, "not found")
		return
	}

	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ConfirmPaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := h.paymentService.ConfirmPayment(r.Context(), userID, req.TransactionRef, req.Method)
	if err != nil {
		switch err {
		case service.ErrPaymentWindowExpired:
			middleware.RespondWithError(w, http.StatusGone, "payment window has expired")
		case service.ErrSessionUserMismatch:
			middleware.RespondWithError(w, http.StatusForbidden, "payment session belongs to a different user")
		case service.ErrEmptyCart:
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case service.ErrAmountMismatch:
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, "payment amount does not match cart total")
		default:
			h.logger.Error("Failed to confirm payment", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to confirm payment")
		}
		return
	}

	h.logger.Info("Payment confirmed",
		zap.String("user_id", userID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("transaction_ref", req.TransactionRef))

	middleware.RespondWithJSON(w, http.StatusOK, OrderPlacedResponse{
		Success: true,
		OrderID: orderID.String(),
	})
}

// CheckoutCOD places a cash-on-delivery order from the current cart
func (h *PaymentHandler) CheckoutCOD(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CODCheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := h.paymentService.CheckoutCOD(r.Context(), userID, req.UpfrontAmount)
	if err != nil {
		switch err {
		case service.ErrEmptyCart:
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case service.ErrInvalidAmount:
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid upfront amount")
		default:
			h.logger.Error("Failed to place order", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	h.logger.Info("COD order placed",
		zap.String("user_id", userID.String()),
		zap.String("order_id", orderID.String()))

	middleware.RespondWithJSON(w, http.StatusCreated, OrderPlacedResponse{
		Success: true,
		OrderID: orderID.String(),
	})
}
