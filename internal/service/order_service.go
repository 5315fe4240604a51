package service

import (
	"context"
	"errors"
	"fmt"

	"daykart/internal/domain"
	"daykart/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrOrderAccessDenied = errors.New("order belongs to a different user")
)

// OrderService exposes order history and the admin-driven status
// machine: pending -> processing -> shipped -> delivered, with
// cancelled reachable from any non-terminal state. No automatic
// timeouts drive transitions.
type OrderService interface {
	GetOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*domain.Order, error)
	History(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) error
	MarkCODCollected(ctx context.Context, orderID uuid.UUID) error
}

type orderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// GetOrder returns a single order. Shoppers only see their own; admins
// see any.
func (s *orderService) GetOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}

	return order, nil
}

// History returns the user's own orders, newest first
func (s *orderService) History(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return orders, nil
}

// ListAll returns every order for the admin console
func (s *orderService) ListAll(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error) {
	return s.orderRepo.ListAll(ctx, page, pageSize)
}

// UpdateStatus advances an order along the status machine. The edge is
// validated against the current status, and the repository re-checks
// the expected current status in the UPDATE predicate, so a concurrent
// transition loses cleanly instead of double-applying.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.OrderStatus.CanTransitionTo(next) {
		return repository.ErrInvalidOrderTransition
	}

	return s.orderRepo.UpdateStatus(ctx, orderID, order.OrderStatus, next)
}

// MarkCODCollected records that the outstanding cash-on-delivery
// balance was collected, moving the payment status to paid.
func (s *orderService) MarkCODCollected(ctx context.Context, orderID uuid.UUID) error {
	return s.orderRepo.UpdatePaymentStatus(ctx, orderID, domain.PaymentStatusPaid)
}
