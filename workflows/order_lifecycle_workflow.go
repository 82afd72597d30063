package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"storefront-order-engine/activities"
	"storefront-order-engine/lifecycle"
	"storefront-order-engine/models"
)

const (
	TaskQueueName = "order-lifecycle-queue"
	SignalCancel  = "cancel"
	QueryState    = "state"
)

// WorkflowID is the id of the lifecycle workflow of orderID.
func WorkflowID(orderID string) string {
	return fmt.Sprintf("order-lifecycle-%s", orderID)
}

// LifecycleInput starts OrderLifecycleWorkflow. A zero Window means lifecycle.DefaultWindow.
type LifecycleInput struct {
	Order  models.Order  `json:"order"`
	Window time.Duration `json:"window"`
}

// OrderLifecycleWorkflow persists a placed order, keeps its cancellation
// window open until the deadline and then finalizes it, unless a cancel
// signal arrives first. It returns the terminal status.
func OrderLifecycleWorkflow(ctx workflow.Context, input LifecycleInput) (models.OrderStatus, error) {
	logger := workflow.GetLogger(ctx)
	order := input.Order
	window := input.Window
	if window <= 0 {
		window = lifecycle.DefaultWindow
	}
	logger.Info("OrderLifecycleWorkflow started", "order_id", order.ID, "window", window)

	state := models.WorkflowState{
		OrderID:        order.ID,
		Status:         models.OrderStatusPlaced,
		PlacedAt:       order.PlacedAt,
		WindowClosesAt: order.PlacedAt.Add(window),
		LastUpdated:    workflow.Now(ctx),
	}

	err := workflow.SetQueryHandler(ctx, QueryState, func() (models.WorkflowState, error) {
		return state, nil
	})
	if err != nil {
		return state.Status, fmt.Errorf("failed to set query handler: %w", err)
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	})

	var act *activities.Activities

	order.Status = models.OrderStatusPlaced
	if err := workflow.ExecuteActivity(ctx, act.PersistOrder, order).Get(ctx, nil); err != nil {
		logger.Error("Failed to persist order", "order_id", order.ID, "error", err)
		return state.Status, fmt.Errorf("persist order failed: %w", err)
	}

	if err := workflow.ExecuteActivity(ctx, act.UpdateOrderStatus, order.ID, models.OrderStatusCancellationWindowOpen).Get(ctx, nil); err != nil {
		logger.Error("Failed to open cancellation window", "order_id", order.ID, "error", err)
		return state.Status, fmt.Errorf("open cancellation window failed: %w", err)
	}
	setStatus(ctx, &state, models.OrderStatusCancellationWindowOpen)

	cancelChan := workflow.GetSignalChannel(ctx, SignalCancel)
	onCancel := func(c workflow.ReceiveChannel) {
		var signal string
		c.Receive(ctx, &signal)

		next, err := lifecycle.EvaluateCancel(state.Status, order.PlacedAt, workflow.Now(ctx), window)
		if err != nil {
			state.CancelRejection = err.Error()
			state.LastUpdated = workflow.Now(ctx)
			logger.Info("Cancel rejected", "order_id", order.ID, "reason", err.Error())
			return
		}
		setStatus(ctx, &state, next)
		logger.Info("Order cancelled via signal", "order_id", order.ID)
	}

	remaining := state.WindowClosesAt.Sub(workflow.Now(ctx))
	if remaining > 0 {
		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		timer := workflow.NewTimer(timerCtx, remaining)

		selector := workflow.NewSelector(ctx)
		selector.AddFuture(timer, func(f workflow.Future) {
			if err := f.Get(ctx, nil); err != nil {
				return
			}
			if state.Status == models.OrderStatusCancellationWindowOpen {
				setStatus(ctx, &state, models.OrderStatusFinalized)
				logger.Info("Cancellation window closed", "order_id", order.ID)
			}
		})
		selector.AddReceive(cancelChan, func(c workflow.ReceiveChannel, more bool) {
			onCancel(c)
		})

		for !state.Status.IsTerminal() {
			selector.Select(ctx)
		}
		cancelTimer()
	} else {
		setStatus(ctx, &state, models.OrderStatusFinalized)
		logger.Info("Cancellation window already closed", "order_id", order.ID)
	}

	if err := workflow.ExecuteActivity(ctx, act.UpdateOrderStatus, order.ID, state.Status).Get(ctx, nil); err != nil {
		logger.Error("Failed to record final status", "order_id", order.ID, "status", state.Status.String(), "error", err)
		return state.Status, fmt.Errorf("update order status failed: %w", err)
	}

	message := "Your order is confirmed and on its way"
	if state.Status == models.OrderStatusCancelled {
		message = "Your order has been cancelled"
		if err := workflow.ExecuteActivity(ctx, act.ClearCart, order.SessionID).Get(ctx, nil); err != nil {
			logger.Warn("Failed to clear cart", "order_id", order.ID, "error", err)
		}
	}

	order.Status = state.Status
	err = workflow.ExecuteActivity(ctx, act.NotifyCustomer, order, message).Get(ctx, nil)
	if err != nil {
		logger.Warn("Failed to notify customer", "order_id", order.ID, "error", err)
		// A missed notification leaves the order status intact.
	}

	// Cancels that raced the final activities are answered, never applied.
	var late string
	for cancelChan.ReceiveAsync(&late) {
		_, err := lifecycle.EvaluateCancel(state.Status, order.PlacedAt, workflow.Now(ctx), window)
		state.CancelRejection = err.Error()
		state.LastUpdated = workflow.Now(ctx)
		logger.Info("Late cancel rejected", "order_id", order.ID, "reason", err.Error())
	}

	logger.Info("OrderLifecycleWorkflow completed", "order_id", order.ID, "status", state.Status.String())
	return state.Status, nil
}

func setStatus(ctx workflow.Context, state *models.WorkflowState, status models.OrderStatus) {
	state.Status = status
	state.LastUpdated = workflow.Now(ctx)
}
