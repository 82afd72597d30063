package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.temporal.io/sdk/log"

	"storefront-order-engine/cart"
	"storefront-order-engine/delivery"
	"storefront-order-engine/lifecycle"
	"storefront-order-engine/models"
)

var ErrOrderPending = errors.New("previous order is still inside its cancellation window")

// sideEffectTimeout bounds the repository and cart calls made from lifecycle hooks.
const sideEffectTimeout = time.Second

// OrderRepository is the persistence collaborator for placed orders.
type OrderRepository interface {
	Save(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	ListByCustomer(ctx context.Context, email string) ([]*models.Order, error)
}

// Quoter prices delivery to an address.
type Quoter interface {
	Quote(ctx context.Context, address, city string) (*models.DeliveryQuote, error)
}

// Request is the checkout form.
type Request struct {
	Customer models.Customer
	Address  models.Address
	Payment  models.PaymentSelection
	Notes    string
}

type Config struct {
	SessionID string
	Window    time.Duration
	Clock     clock.Clock
	Logger    log.Logger
}

// Service runs one shopping session's checkout: cart -> quote -> order -> lifecycle.
type Service struct {
	sessionID string
	cart      *cart.Cart
	quoter    Quoter
	assembler *Assembler
	repo      OrderRepository
	clock     clock.Clock
	window    time.Duration
	logger    log.Logger

	mu     sync.Mutex
	active *lifecycle.Machine
}

// NewService wires a session. quoter may be nil, in which case every order pays the flat fee.
func NewService(c *cart.Cart, quoter Quoter, repo OrderRepository, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewStructuredLogger(slog.Default())
	}
	return &Service{
		sessionID: cfg.SessionID,
		cart:      c,
		quoter:    quoter,
		assembler: NewAssembler(cfg.Clock),
		repo:      repo,
		clock:     cfg.Clock,
		window:    cfg.Window,
		logger:    log.With(cfg.Logger, "session_id", cfg.SessionID),
	}
}

func (s *Service) Cart() *cart.Cart {
	return s.cart
}

// Quote returns a delivery quote, or nil when the address cannot be resolved.
// A nil quote means the flat delivery.DefaultFee applies.
func (s *Service) Quote(ctx context.Context, addr models.Address) *models.DeliveryQuote {
	if s.quoter == nil {
		return nil
	}

	street := strings.TrimSpace(strings.Join([]string{addr.Line1, addr.Line2}, " "))
	quote, err := s.quoter.Quote(ctx, street, addr.City)
	if err != nil {
		if !errors.Is(err, delivery.ErrUnresolvedAddress) {
			s.logger.Warn("Delivery quote failed", "error", err)
		}
		s.logger.Debug("Using flat delivery fee", "fee", delivery.DefaultFee.String())
		return nil
	}
	return quote
}

// PlaceOrder prices and validates the cart, persists the order and opens its
// cancellation window.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && !s.active.Status().IsTerminal() {
		return nil, ErrOrderPending
	}

	snap := s.cart.Snapshot()
	quote := s.Quote(ctx, req.Address)

	order, err := s.assembler.Assemble(snap, quote, req.Payment, req.Customer, req.Address, req.Notes)
	if err != nil {
		s.logger.Info("Checkout rejected", "error", err)
		return nil, err
	}
	order.SessionID = s.sessionID

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	// The row is already saved, so the window opens regardless. The terminal
	// write from the lifecycle hooks settles the row later.
	if err := s.repo.UpdateStatus(ctx, order.ID, models.OrderStatusCancellationWindowOpen); err != nil {
		s.logger.Warn("Failed to persist open cancellation window", "order_id", order.ID, "error", err)
	}

	s.active = lifecycle.Start(*order, lifecycle.Options{
		Window: s.window,
		Clock:  s.clock,
		Logger: s.logger,
		Hooks: lifecycle.Hooks{
			OnCancel:   s.onCancel,
			OnFinalize: s.onFinalize,
		},
	})

	s.logger.Info("Order placed",
		"order_id", order.ID,
		"subtotal", order.Subtotal.String(),
		"delivery_fee", order.DeliveryFee.String(),
		"total", order.Total.String(),
		"payment_method", string(order.Payment.Method))

	placed := s.active.Order()
	return &placed, nil
}

// CancelOrder cancels the session's latest order. lifecycle.ErrCancellationExpired
// and lifecycle.ErrAlreadyCancelled are informational: nothing changed.
func (s *Service) CancelOrder(_ context.Context) error {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if active == nil {
		return ErrNoActive
	}
	return active.Cancel()
}

// ActiveOrder returns the latest order of this session with its current status.
func (s *Service) ActiveOrder() (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return models.Order{}, false
	}
	return s.active.Order(), true
}

// OrderStatus is the status of the latest order, empty when none was placed.
func (s *Service) OrderStatus() models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ""
	}
	return s.active.Status()
}

// History returns a customer's past orders, newest first.
func (s *Service) History(ctx context.Context, email string) ([]*models.Order, error) {
	orders, err := s.repo.ListByCustomer(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return orders, nil
}

// Close stops the pending expiry timer, if any. The order keeps its status.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Stop()
	}
}

func (s *Service) onCancel(order models.Order) {
	s.cart.ClearAll()
	s.persistStatus(order.ID, models.OrderStatusCancelled)
}

func (s *Service) onFinalize(order models.Order) {
	s.persistStatus(order.ID, models.OrderStatusFinalized)
}

func (s *Service) persistStatus(orderID string, status models.OrderStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		s.logger.Error("Failed to persist order status", "order_id", orderID, "status", status.String(), "error", err)
	}
}
