package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"daykart/internal/domain"
	"daykart/internal/repository"
	"daykart/internal/upi"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount        = errors.New("payment amount must be greater than zero")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrAmountMismatch       = errors.New("payment amount does not match cart total")
	ErrPaymentWindowExpired = errors.New("payment window has expired")
	ErrSessionUserMismatch  = errors.New("payment session belongs to a different user")
)

// amountEpsilon bounds the tolerated divergence between the submitted
// amount and the recomputed cart total.
const amountEpsilon = 0.01

// PaymentConfig carries the UPI payee identity and the payment window
// policy. SimulationEnabled gates the settlement-free confirm endpoint;
// it must be off outside demo deployments.
type PaymentConfig struct {
	PayeeAddress      string
	PayeeName         string
	MerchantCode      string
	Window            time.Duration
	SimulationEnabled bool
}

// PaymentSession is a pending payment request. It lives in Redis under
// its transaction reference with a TTL equal to the payment window, so
// expiry is enforced server-side: a late confirm finds no session.
type PaymentSession struct {
	TxRef      string    `json:"tx_ref"`
	UserID     uuid.UUID `json:"user_id"`
	Amount     float64   `json:"amount"`
	UPIString  string    `json:"upi_string"`
	QRImageURL string    `json:"qr_image_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// PaymentService converts a cart snapshot into a durable Order exactly
// once per checkout, and guards the amount against the cart total.
type PaymentService interface {
	CreateSession(ctx context.Context, userID uuid.UUID, amount float64) (*PaymentSession, error)
	ConfirmPayment(ctx context.Context, userID uuid.UUID, txRef, method string) (uuid.UUID, error)
	CheckoutCOD(ctx context.Context, userID uuid.UUID, upfrontAmount float64) (uuid.UUID, error)
	ProcessPayment(ctx context.Context, userID uuid.UUID, amount float64, items []domain.OrderLineItem, method string, isCOD bool) (uuid.UUID, error)
	SimulationEnabled() bool
}

type paymentService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	referrals ReferralService
	sessions  *redis.Client
	cfg       PaymentConfig
	logger    *zap.Logger
}

// NewPaymentService creates a new instance of PaymentService
func NewPaymentService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	referrals ReferralService,
	sessions *redis.Client,
	cfg PaymentConfig,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		referrals: referrals,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger,
	}
}

func sessionKey(txRef string) string {
	return "payment:session:" + txRef
}

// CreateSession opens a payment window for the given amount: it builds
// the UPI deep link and QR image URL and stores the session in Redis
// with the window as TTL.
func (s *paymentService) CreateSession(ctx context.Context, userID uuid.UUID, amount float64) (*PaymentSession, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	txRef := upi.NewTransactionRef()
	upiString, err := upi.BuildPayString(upi.PaymentData{
		PayeeAddress: s.cfg.PayeeAddress,
		PayeeName:    s.cfg.PayeeName,
		Amount:       amount,
		TxRef:        txRef,
		MerchantCode: s.cfg.MerchantCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build UPI string: %w", err)
	}

	_, qrURL := upi.QRImageURL(upiString, 0)

	session := &PaymentSession{
		TxRef:      txRef,
		UserID:     userID,
		Amount:     amount,
		UPIString:  upiString,
		QRImageURL: qrURL,
		ExpiresAt:  time.Now().Add(s.cfg.Window),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment session: %w", err)
	}

	if err := s.sessions.Set(ctx, sessionKey(txRef), payload, s.cfg.Window).Err(); err != nil {
		return nil, fmt.Errorf("failed to store payment session: %w", err)
	}

	return session, nil
}

// ConfirmPayment consumes the payment session and finalizes the order
// from the user's current cart snapshot. Consuming is a GETDEL: a
// session can settle at most once, and one that has expired (or never
// existed) fails with ErrPaymentWindowExpired.
func (s *paymentService) ConfirmPayment(ctx context.Context, userID uuid.UUID, txRef, method string) (uuid.UUID, error) {
	payload, err := s.sessions.GetDel(ctx, sessionKey(txRef)).Result()
	if err != nil {
		if err == redis.Nil {
			return uuid.Nil, ErrPaymentWindowExpired
		}
		return uuid.Nil, fmt.Errorf("failed to load payment session: %w", err)
	}

	var session PaymentSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return uuid.Nil, fmt.Errorf("failed to unmarshal payment session: %w", err)
	}

	if session.UserID != userID {
		return uuid.Nil, ErrSessionUserMismatch
	}

	items, err := s.snapshotCart(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}

	return s.ProcessPayment(ctx, userID, session.Amount, items, method, false)
}

// CheckoutCOD finalizes a cash-on-delivery order: only the upfront
// amount is collected now, so it is allowed to diverge from the cart
// total.
func (s *paymentService) CheckoutCOD(ctx context.Context, userID uuid.UUID, upfrontAmount float64) (uuid.UUID, error) {
	items, err := s.snapshotCart(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}

	return s.ProcessPayment(ctx, userID, upfrontAmount, items, "cod", true)
}

// ProcessPayment validates the request, recomputes the authoritative
// total from the line items, writes exactly one Order row, evaluates
// the referral reward, and empties the cart. Cart deletion failure
// after the order insert is non-fatal: the checkout already succeeded
// and stale cart rows are a reconciliation concern, not a rollback
// trigger.
func (s *paymentService) ProcessPayment(ctx context.Context, userID uuid.UUID, amount float64, items []domain.OrderLineItem, method string, isCOD bool) (uuid.UUID, error) {
	if amount <= 0 {
		return uuid.Nil, ErrInvalidAmount
	}
	if len(items) == 0 {
		return uuid.Nil, ErrEmptyCart
	}

	var calculatedTotal float64
	for _, item := range items {
		calculatedTotal += item.UnitPrice * float64(item.Quantity)
	}

	if !isCOD && math.Abs(calculatedTotal-amount) > amountEpsilon {
		return uuid.Nil, ErrAmountMismatch
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Items:         items,
		TotalAmount:   calculatedTotal,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPaid,
		OrderStatus:   domain.OrderStatusPending,
		TransactionID: upi.NewTransactionRef(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if isCOD {
		order.IsCOD = true
		order.UpfrontAmount = amount
		order.CODAmount = calculatedTotal - amount
		order.PaymentStatus = domain.PaymentStatusPartial
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Referral evaluation runs on the recomputed total. A failure here
	// never unwinds the order; the ledger can be reconciled later.
	if err := s.referrals.EvaluateReferral(ctx, userID, order.TotalAmount); err != nil {
		s.logger.Error("Referral evaluation failed after checkout",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
		)
	}

	if err := s.cartRepo.DeleteAllForUser(ctx, userID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout, leaving stale rows",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("order_id", order.ID.String()),
		)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalAmount),
		zap.Bool("cod", isCOD),
	)

	return order.ID, nil
}

// SimulationEnabled reports whether the settlement-free confirm flow is on
func (s *paymentService) SimulationEnabled() bool {
	return s.cfg.SimulationEnabled
}

// snapshotCart freezes the user's cart into order line items. Rows
// whose product has disappeared are skipped; their price is unknowable
// and the catalog row is gone.
func (s *paymentService) snapshotCart(ctx context.Context, userID uuid.UUID) ([]domain.OrderLineItem, error) {
	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot cart: %w", err)
	}

	items := make([]domain.OrderLineItem, 0, len(cartItems))
	for _, ci := range cartItems {
		if ci.Product == nil {
			s.logger.Warn("Skipping cart row with missing product at checkout",
				zap.String("product_id", ci.ProductID.String()),
			)
			continue
		}
		items = append(items, domain.OrderLineItem{
			ProductID: ci.ProductID,
			Title:     ci.Product.Title,
			UnitPrice: ci.Product.Price,
			Quantity:  ci.Quantity,
		})
	}

	return items, nil
}
