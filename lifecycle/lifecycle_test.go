package lifecycle

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/log"

	"storefront-order-engine/models"
)

type hookCounter struct {
	cancelled atomic.Int32
	finalized atomic.Int32
}

func (h *hookCounter) hooks() Hooks {
	return Hooks{
		OnCancel: func(o models.Order) {
			if o.Status == models.OrderStatusCancelled {
				h.cancelled.Add(1)
			}
		},
		OnFinalize: func(o models.Order) {
			if o.Status == models.OrderStatusFinalized {
				h.finalized.Add(1)
			}
		},
	}
}

func newMachine(t *testing.T, mock *clock.Mock, h *hookCounter) *Machine {
	t.Helper()
	order := models.Order{
		ID:       "ORD-1-TEST",
		PlacedAt: mock.Now(),
		Status:   models.OrderStatusPlaced,
	}
	m := Start(order, Options{
		Clock:  mock,
		Logger: log.NewStructuredLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Hooks:  h.hooks(),
	})
	t.Cleanup(m.Stop)
	return m
}

func TestEvaluateCancel(t *testing.T) {
	placed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		status     models.OrderStatus
		elapsed    time.Duration
		wantStatus models.OrderStatus
		wantErr    error
	}{
		{name: "Inside window", status: models.OrderStatusCancellationWindowOpen, elapsed: 59 * time.Second, wantStatus: models.OrderStatusCancelled},
		{name: "Immediately", status: models.OrderStatusPlaced, elapsed: 0, wantStatus: models.OrderStatusCancelled},
		{name: "Boundary is closed", status: models.OrderStatusCancellationWindowOpen, elapsed: 60 * time.Second, wantStatus: models.OrderStatusCancellationWindowOpen, wantErr: ErrCancellationExpired},
		{name: "After window", status: models.OrderStatusCancellationWindowOpen, elapsed: 61 * time.Second, wantStatus: models.OrderStatusCancellationWindowOpen, wantErr: ErrCancellationExpired},
		{name: "Already cancelled", status: models.OrderStatusCancelled, elapsed: time.Second, wantStatus: models.OrderStatusCancelled, wantErr: ErrAlreadyCancelled},
		{name: "Finalized", status: models.OrderStatusFinalized, elapsed: time.Second, wantStatus: models.OrderStatusFinalized, wantErr: ErrCancellationExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateCancel(tt.status, placed, placed.Add(tt.elapsed), DefaultWindow)

			assert.Equal(t, tt.wantStatus, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCancel_InsideWindow(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	m := newMachine(t, mock, h)

	assert.Equal(t, models.OrderStatusCancellationWindowOpen, m.Status())
	assert.Equal(t, DefaultWindow, m.Remaining())

	mock.Add(59 * time.Second)
	assert.Equal(t, time.Second, m.Remaining())
	require.NoError(t, m.Cancel())
	assert.Equal(t, models.OrderStatusCancelled, m.Status())

	// The stopped timer must not finalize later.
	mock.Add(5 * time.Second)
	assert.Equal(t, models.OrderStatusCancelled, m.Status())
	assert.Equal(t, int32(1), h.cancelled.Load())
	assert.Equal(t, int32(0), h.finalized.Load())
	assert.Zero(t, m.Remaining())
}

func TestCancel_AfterWindowExpires(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	m := newMachine(t, mock, h)

	mock.Add(61 * time.Second)
	require.Eventually(t, func() bool {
		return m.Status() == models.OrderStatusFinalized
	}, time.Second, 5*time.Millisecond)

	err := m.Cancel()
	assert.ErrorIs(t, err, ErrCancellationExpired)
	assert.Equal(t, models.OrderStatusFinalized, m.Status())
	assert.Equal(t, int32(0), h.cancelled.Load())
	assert.Equal(t, int32(1), h.finalized.Load())
}

func TestCancel_Twice(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	m := newMachine(t, mock, h)

	require.NoError(t, m.Cancel())
	assert.ErrorIs(t, m.Cancel(), ErrAlreadyCancelled)

	mock.Add(2 * time.Minute)
	assert.ErrorIs(t, m.Cancel(), ErrAlreadyCancelled)
	assert.Equal(t, int32(1), h.cancelled.Load())
}

func TestCancel_RacesTimer(t *testing.T) {
	for round := 0; round < 50; round++ {
		mock := clock.NewMock()
		h := &hookCounter{}
		m := newMachine(t, mock, h)
		mock.Add(59 * time.Second)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = m.Cancel()
			}()
		}
		mock.Add(time.Second)
		wg.Wait()

		require.Eventually(t, func() bool {
			return m.Status().IsTerminal()
		}, time.Second, time.Millisecond)
		total := h.cancelled.Load() + h.finalized.Load()
		require.Equal(t, int32(1), total, "round %d: exactly one transition must win", round)
	}
}

func TestStart_TerminalOrderHasNoTimer(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}

	m := Start(models.Order{ID: "ORD-OLD", PlacedAt: mock.Now(), Status: models.OrderStatusCancelled}, Options{
		Clock: mock,
		Hooks: h.hooks(),
	})

	mock.Add(time.Hour)
	assert.Equal(t, models.OrderStatusCancelled, m.Status())
	assert.ErrorIs(t, m.Cancel(), ErrAlreadyCancelled)
	assert.Equal(t, int32(0), h.cancelled.Load()+h.finalized.Load())
}

func TestStart_ElapsedWindowFinalizesImmediately(t *testing.T) {
	mock := clock.NewMock()
	mock.Add(10 * time.Minute)
	h := &hookCounter{}

	m := Start(models.Order{
		ID:       "ORD-LATE",
		PlacedAt: mock.Now().Add(-2 * time.Minute),
		Status:   models.OrderStatusPlaced,
	}, Options{Clock: mock, Hooks: h.hooks()})

	assert.Equal(t, models.OrderStatusFinalized, m.Status())
	assert.Equal(t, int32(1), h.finalized.Load())
}

func TestStart_CustomWindow(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}

	m := Start(models.Order{ID: "ORD-W", PlacedAt: mock.Now()}, Options{
		Window: 5 * time.Second,
		Clock:  mock,
		Hooks:  h.hooks(),
	})
	defer m.Stop()

	assert.Equal(t, mock.Now().Add(5*time.Second), m.WindowClosesAt())
	mock.Add(6 * time.Second)
	require.Eventually(t, func() bool {
		return m.Status() == models.OrderStatusFinalized
	}, time.Second, 5*time.Millisecond)
}

func TestOrder_ReturnsCopyWithStatus(t *testing.T) {
	mock := clock.NewMock()
	m := Start(models.Order{
		ID:       "ORD-C",
		PlacedAt: mock.Now(),
		Items:    []models.LineItem{{ProductID: "P1", Quantity: 1}},
	}, Options{Clock: mock})
	defer m.Stop()

	o := m.Order()
	o.Items[0].Quantity = 42

	assert.Equal(t, models.OrderStatusCancellationWindowOpen, o.Status)
	assert.Equal(t, 1, m.Order().Items[0].Quantity)
	assert.Equal(t, "ORD-C", m.OrderID())
}
