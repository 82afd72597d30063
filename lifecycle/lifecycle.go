package lifecycle

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/facebookgo/clock"
	"go.temporal.io/sdk/log"

	"storefront-order-engine/models"
)

// DefaultWindow is how long a customer may cancel after placing an order.
const DefaultWindow = 60 * time.Second

var (
	ErrCancellationExpired = errors.New("cancellation window has closed")
	ErrAlreadyCancelled    = errors.New("order is already cancelled")
)

// EvaluateCancel decides a cancel request without side effects and returns
// the status the order should move to. On error the status is unchanged.
func EvaluateCancel(status models.OrderStatus, placedAt, now time.Time, window time.Duration) (models.OrderStatus, error) {
	switch status {
	case models.OrderStatusCancelled:
		return status, ErrAlreadyCancelled
	case models.OrderStatusFinalized:
		return status, ErrCancellationExpired
	}
	if !now.Before(placedAt.Add(window)) {
		return status, ErrCancellationExpired
	}
	return models.OrderStatusCancelled, nil
}

// Hooks are collaborator side effects run exactly once per transition.
// They run on the goroutine that wins the transition.
type Hooks struct {
	OnCancel   func(order models.Order)
	OnFinalize func(order models.Order)
}

type Options struct {
	Window time.Duration // DefaultWindow when zero
	Clock  clock.Clock   // wall clock when nil
	Logger log.Logger
	Hooks  Hooks
}

const (
	statePlaced int32 = iota
	stateWindowOpen
	stateCancelled
	stateFinalized
)

var stateNames = map[int32]models.OrderStatus{
	statePlaced:     models.OrderStatusPlaced,
	stateWindowOpen: models.OrderStatusCancellationWindowOpen,
	stateCancelled:  models.OrderStatusCancelled,
	stateFinalized:  models.OrderStatusFinalized,
}

// Machine tracks one order after placement. The expiry timer and Cancel
// race through a single compare-and-set, so exactly one of them wins.
type Machine struct {
	order  models.Order
	window time.Duration
	clock  clock.Clock
	logger log.Logger
	hooks  Hooks

	state atomic.Int32
	timer *clock.Timer
}

// Start opens the cancellation window for order and schedules its expiry.
// Orders already in a terminal status are tracked without a timer, and an
// order whose window elapsed before Start is finalized immediately.
func Start(order models.Order, opts Options) *Machine {
	m := &Machine{
		order:  order,
		window: opts.Window,
		clock:  opts.Clock,
		logger: opts.Logger,
		hooks:  opts.Hooks,
	}
	if m.window <= 0 {
		m.window = DefaultWindow
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.logger == nil {
		m.logger = log.NewStructuredLogger(slog.Default())
	}

	switch order.Status {
	case models.OrderStatusCancelled:
		m.state.Store(stateCancelled)
		return m
	case models.OrderStatusFinalized:
		m.state.Store(stateFinalized)
		return m
	}

	m.state.Store(stateWindowOpen)
	remaining := m.Remaining()
	if remaining <= 0 {
		m.finalize()
		return m
	}

	m.timer = m.clock.AfterFunc(remaining, m.finalize)
	m.logger.Info("Cancellation window opened", "order_id", order.ID, "closes_at", m.WindowClosesAt())
	return m
}

// Cancel cancels the order if the window is still open.
func (m *Machine) Cancel() error {
	now := m.clock.Now()
	_, err := EvaluateCancel(m.Status(), m.order.PlacedAt, now, m.window)
	if errors.Is(err, ErrCancellationExpired) {
		// The timer may not have fired yet; settle the order now.
		m.finalize()
	}
	if err != nil {
		m.logger.Info("Cancel rejected", "order_id", m.order.ID, "reason", err.Error())
		return err
	}

	if !m.state.CompareAndSwap(stateWindowOpen, stateCancelled) {
		// Lost the race with the timer or a concurrent Cancel.
		if m.state.Load() == stateCancelled {
			return ErrAlreadyCancelled
		}
		return ErrCancellationExpired
	}

	if m.timer != nil {
		m.timer.Stop()
	}
	m.logger.Info("Order cancelled", "order_id", m.order.ID, "elapsed", now.Sub(m.order.PlacedAt))
	if m.hooks.OnCancel != nil {
		m.hooks.OnCancel(m.snapshot(models.OrderStatusCancelled))
	}
	return nil
}

func (m *Machine) finalize() {
	if !m.state.CompareAndSwap(stateWindowOpen, stateFinalized) {
		return
	}
	m.logger.Info("Order finalized", "order_id", m.order.ID)
	if m.hooks.OnFinalize != nil {
		m.hooks.OnFinalize(m.snapshot(models.OrderStatusFinalized))
	}
}

// Stop releases the timer without changing the status.
func (m *Machine) Stop() {
	if m.timer != nil {
		m.timer.Stop()
	}
}

func (m *Machine) Status() models.OrderStatus {
	return stateNames[m.state.Load()]
}

// Order returns a copy of the tracked order carrying the current status.
func (m *Machine) Order() models.Order {
	return m.snapshot(m.Status())
}

func (m *Machine) OrderID() string {
	return m.order.ID
}

func (m *Machine) WindowClosesAt() time.Time {
	return m.order.PlacedAt.Add(m.window)
}

// Remaining is the time left to cancel, zero once the window has closed.
func (m *Machine) Remaining() time.Duration {
	if m.Status().IsTerminal() {
		return 0
	}
	left := m.WindowClosesAt().Sub(m.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

func (m *Machine) snapshot(status models.OrderStatus) models.Order {
	o := m.order
	o.Items = append([]models.LineItem(nil), m.order.Items...)
	o.Status = status
	return o
}
