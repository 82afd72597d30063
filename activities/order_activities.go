package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"storefront-order-engine/models"
	"storefront-order-engine/orderstore"
)

// OrderRepository is the part of orderstore.Store the lifecycle needs.
type OrderRepository interface {
	Save(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// CartStore drops a session's saved cart.
type CartStore interface {
	Delete(ctx context.Context, sessionID string) error
}

// Notifier delivers a message to the customer. Nil means log only.
type Notifier interface {
	Notify(ctx context.Context, order models.Order, message string) error
}

// Activities contains the side effects of the order lifecycle workflow
type Activities struct {
	orders   OrderRepository
	carts    CartStore
	notifier Notifier
}

// NewActivities wires the order repository, cart store and optional notifier.
func NewActivities(orders OrderRepository, carts CartStore, notifier Notifier) *Activities {
	return &Activities{
		orders:   orders,
		carts:    carts,
		notifier: notifier,
	}
}

// PersistOrder stores a freshly placed order. A retry that finds the order
// already stored succeeds.
func (a *Activities) PersistOrder(ctx context.Context, order models.Order) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Persisting order", "order_id", order.ID, "total", order.Total.String())

	err := a.orders.Save(ctx, &order)
	if errors.Is(err, orderstore.ErrDuplicateOrder) {
		logger.Info("Order already persisted", "order_id", order.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to persist order: %w", err)
	}

	logger.Info("Order persisted successfully", "order_id", order.ID)
	return nil
}

// UpdateOrderStatus records a status transition. Trying to move a terminal
// order is a bug in the caller and is not retried.
func (a *Activities) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Updating order status", "order_id", orderID, "status", status.String())

	err := a.orders.UpdateStatus(ctx, orderID, status)
	switch {
	case errors.Is(err, orderstore.ErrTerminalStatus), errors.Is(err, orderstore.ErrOrderNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidStatusTransition", err)
	case err != nil:
		return fmt.Errorf("failed to update order status: %w", err)
	}

	logger.Info("Order status updated", "order_id", orderID, "status", status.String())
	return nil
}

// ClearCart empties the session's saved cart after a cancellation.
func (a *Activities) ClearCart(ctx context.Context, sessionID string) error {
	logger := activity.GetLogger(ctx)
	if sessionID == "" {
		logger.Warn("No session to clear")
		return nil
	}

	if err := a.carts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	logger.Info("Cart cleared", "session_id", sessionID)
	return nil
}

// NotifyCustomer tells the customer how the order ended. Without a notifier it only logs.
func (a *Activities) NotifyCustomer(ctx context.Context, order models.Order, message string) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Notifying customer", "order_id", order.ID, "email", order.Customer.Email, "message", message)

	if a.notifier != nil {
		activity.RecordHeartbeat(ctx, "sending notification")
		if err := a.notifier.Notify(ctx, order, message); err != nil {
			return fmt.Errorf("failed to notify customer: %w", err)
		}
	}

	logger.Info("Customer notified successfully", "order_id", order.ID)
	return nil
}
