package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"storefront-order-engine/cart"
	"storefront-order-engine/checkout"
	"storefront-order-engine/codec"
	"storefront-order-engine/config"
	"storefront-order-engine/delivery"
	"storefront-order-engine/lifecycle"
	"storefront-order-engine/logging"
	"storefront-order-engine/models"
	"storefront-order-engine/money"
	"storefront-order-engine/orderstore"
	"storefront-order-engine/workflows"
)

type checkoutFlags struct {
	items     string
	payment   string
	upiID     string
	firstName string
	lastName  string
	email     string
	mobile    string
	line1     string
	line2     string
	city      string
	state     string
	country   string
	zip       string
	notes     string
}

func main() {
	// Checkout details
	var cf checkoutFlags
	flag.StringVar(&cf.items, "items", "PROD-001:Sample Product:50.00:2", "Cart lines as id:name:price:qty, comma separated")
	flag.StringVar(&cf.payment, "payment", string(models.PaymentCashOnDelivery), "Payment method: 'Cash on Delivery', UPI, Paypal, 'Direct Bank Transfer'")
	flag.StringVar(&cf.upiID, "upi-id", "", "UPI id, required with -payment UPI")
	flag.StringVar(&cf.firstName, "first-name", "Asha", "Customer first name")
	flag.StringVar(&cf.lastName, "last-name", "Rao", "Customer last name")
	flag.StringVar(&cf.email, "email", "asha@example.com", "Customer email")
	flag.StringVar(&cf.mobile, "mobile", "9999999999", "Customer mobile")
	flag.StringVar(&cf.line1, "address", "Sector 18", "Address line 1")
	flag.StringVar(&cf.line2, "address2", "", "Address line 2")
	flag.StringVar(&cf.city, "city", "Noida", "City")
	flag.StringVar(&cf.state, "state", "", "State")
	flag.StringVar(&cf.country, "country", "India", "Country")
	flag.StringVar(&cf.zip, "zip", "201301", "Zip code")
	flag.StringVar(&cf.notes, "notes", "", "Delivery notes")

	// Modes
	signal := flag.String("signal", "", "Send signal to an order's workflow (cancel)")
	query := flag.Bool("query", false, "Query an order's workflow state")
	orderID := flag.String("order-id", "", "Order ID for signal/query operations")
	history := flag.Bool("history", false, "List past orders of -email from the order database")
	local := flag.Bool("local", false, "Run the order lifecycle in process instead of on Temporal")
	cancelAfter := flag.Duration("cancel-after", 0, "With -local, cancel this long after placing the order")
	wait := flag.Bool("wait", true, "Wait for the order workflow to complete")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	if *history {
		listHistory(ctx, cfg, cf.email)
		return
	}

	// In-process lifecycle, no Temporal server needed
	if *local {
		runLocal(ctx, cfg, cf, *cancelAfter)
		return
	}

	if cfg.KeyGenerated {
		log.Printf("Warning: Using generated encryption key. Set ENCRYPTION_KEY env var to match worker.")
		log.Printf("Generated key: %s", hex.EncodeToString(cfg.EncryptionKey))
	}

	// Must match the worker's key or payloads cannot be decoded
	dataConverter, err := codec.NewEncryptionDataConverter(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to create encryption data converter: %v", err)
	}

	// Create Temporal client with the encrypting converter
	c, err := client.Dial(client.Options{
		HostPort:      cfg.TemporalAddress,
		DataConverter: dataConverter,
		Logger:        logging.New(cfg.LogLevel, cfg.LogFormat),
	})
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// Handle signal operations
	if *signal != "" {
		if *orderID == "" {
			log.Fatal("Order ID is required for signal operations. Use -order-id flag")
		}
		sendSignal(ctx, c, *orderID, *signal)
		return
	}

	// Handle query operations
	if *query {
		if *orderID == "" {
			log.Fatal("Order ID is required for query operations. Use -order-id flag")
		}
		queryWorkflowState(ctx, c, *orderID)
		return
	}

	// Place a new order
	startWorkflow(ctx, c, cfg, cf, *wait)
}

// placeOrder builds the cart from flags, stores it for the session and
// assembles a priced order.
func placeOrder(ctx context.Context, cfg config.Config, cf checkoutFlags, sessionID string) (*models.Order, error) {
	shoppingCart, err := buildCart(cf.items)
	if err != nil {
		return nil, err
	}

	// The worker clears this cart if the order is cancelled
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := cart.NewSessionStore(rdb, cart.DefaultSessionTTL).Save(ctx, sessionID, shoppingCart); err != nil {
		log.Printf("Warning: cart not saved to Redis, cancellation will not clear it: %v", err)
	}

	calc := delivery.NewCalculator(cfg.Origin, delivery.NewStaticResolver(landmarks...))
	req := cf.request()

	// Unresolved addresses fall back to the flat fee
	var quote *models.DeliveryQuote
	street := strings.TrimSpace(req.Address.Line1 + " " + req.Address.Line2)
	if q, err := calc.Quote(ctx, street, req.Address.City); err == nil {
		quote = q
	} else {
		log.Printf("Address not resolved, using flat delivery fee %s", money.Format(delivery.DefaultFee))
	}

	order, err := checkout.NewAssembler(nil).Assemble(shoppingCart.Snapshot(), quote, req.Payment, req.Customer, req.Address, req.Notes)
	if err != nil {
		return nil, err
	}
	order.SessionID = sessionID
	return order, nil
}

func startWorkflow(ctx context.Context, c client.Client, cfg config.Config, cf checkoutFlags, wait bool) {
	order, err := placeOrder(ctx, cfg, cf, uuid.NewString())
	if err != nil {
		log.Fatalf("Checkout failed: %v", err)
	}

	// One workflow per order, keyed by order id
	workflowOptions := client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(order.ID),
		TaskQueue: workflows.TaskQueueName,
	}

	printOrder(order)
	log.Printf("Workflow ID: %s", workflowOptions.ID)

	we, err := c.ExecuteWorkflow(ctx, workflowOptions, workflows.OrderLifecycleWorkflow, workflows.LifecycleInput{
		Order:  *order,
		Window: cfg.CancelWindow,
	})
	if err != nil {
		log.Fatalf("Unable to execute workflow: %v", err)
	}

	log.Printf("Started workflow successfully")
	log.Printf("WorkflowID: %s", we.GetID())
	log.Printf("RunID: %s", we.GetRunID())
	log.Printf("\nYou have %s to cancel:", cfg.CancelWindow)
	log.Printf("  go run ./starter -signal cancel -order-id %s", order.ID)
	log.Println("To query workflow state, run:")
	log.Printf("  go run ./starter -query -order-id %s", order.ID)

	if !wait {
		return
	}

	// Block for the terminal status
	log.Println("\nWaiting for workflow to complete...")
	var status models.OrderStatus
	if err := we.Get(ctx, &status); err != nil {
		log.Printf("Workflow completed with error: %v", err)
		return
	}
	log.Printf("Workflow completed: order %s is %s", order.ID, status)
}

func sendSignal(ctx context.Context, c client.Client, orderID, signal string) {
	if signal != "cancel" {
		log.Fatalf("Unknown signal: %s. Valid signals: cancel", signal)
	}

	workflowID := workflows.WorkflowID(orderID)
	log.Printf("Sending signal '%s' to workflow: %s", signal, workflowID)

	err := c.SignalWorkflow(ctx, workflowID, "", workflows.SignalCancel, signal)
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		// The workflow ends as soon as the window closes.
		log.Printf("Cancel rejected: %v", lifecycle.ErrCancellationExpired)
		return
	}
	if err != nil {
		log.Fatalf("Failed to send signal: %v", err)
	}

	log.Printf("Signal '%s' sent successfully", signal)
}

func queryWorkflowState(ctx context.Context, c client.Client, orderID string) {
	workflowID := workflows.WorkflowID(orderID)
	log.Printf("Querying workflow state: %s", workflowID)

	resp, err := c.QueryWorkflow(ctx, workflowID, "", workflows.QueryState)
	if err != nil {
		log.Fatalf("Failed to query workflow: %v", err)
	}

	var state models.WorkflowState
	if err := resp.Get(&state); err != nil {
		log.Fatalf("Failed to decode query result: %v", err)
	}

	// Pretty print the state
	stateJSON, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal state: %v", err)
	}

	log.Println("\nWorkflow State:")
	fmt.Println(string(stateJSON))
}

// runLocal drives the same checkout through checkout.Service and the
// in-process lifecycle, persisting to the order database.
func runLocal(ctx context.Context, cfg config.Config, cf checkoutFlags, cancelAfter time.Duration) {
	store, err := orderstore.Open(cfg.OrderDBPath)
	if err != nil {
		log.Fatalf("Unable to open order store: %v", err)
	}
	defer store.Close()

	shoppingCart, err := buildCart(cf.items)
	if err != nil {
		log.Fatalf("Invalid cart: %v", err)
	}

	svc := checkout.NewService(shoppingCart,
		delivery.NewCalculator(cfg.Origin, delivery.NewStaticResolver(landmarks...)),
		store,
		checkout.Config{
			SessionID: uuid.NewString(),
			Window:    cfg.CancelWindow,
			Logger:    logging.New(cfg.LogLevel, cfg.LogFormat),
		})
	defer svc.Close()

	order, err := svc.PlaceOrder(ctx, cf.request())
	if err != nil {
		log.Fatalf("Checkout failed: %v", err)
	}
	printOrder(order)

	if cancelAfter > 0 {
		time.Sleep(cancelAfter)
		if err := svc.CancelOrder(ctx); err != nil {
			log.Printf("Cancel rejected: %v", err)
		} else {
			log.Printf("Order %s cancelled, cart has %d lines", order.ID, svc.Cart().Len())
		}
	}

	// Wait for the window to close or the cancel to land
	for !svc.OrderStatus().IsTerminal() {
		time.Sleep(500 * time.Millisecond)
	}
	log.Printf("Order %s is %s", order.ID, svc.OrderStatus())
}

func listHistory(ctx context.Context, cfg config.Config, email string) {
	store, err := orderstore.Open(cfg.OrderDBPath)
	if err != nil {
		log.Fatalf("Unable to open order store: %v", err)
	}
	defer store.Close()

	orders, err := store.ListByCustomer(ctx, email)
	if err != nil {
		log.Fatalf("Failed to load order history: %v", err)
	}

	log.Printf("%d orders for %s", len(orders), email)
	for _, o := range orders {
		fmt.Printf("%s  %s  %-26s %10s  %s\n",
			o.PlacedAt.Local().Format(time.DateTime), o.ID, o.Status, money.Format(o.Total), o.Payment.Method)
	}
}

func printOrder(order *models.Order) {
	log.Printf("Order %s placed at %s", order.ID, order.PlacedAt.Format(time.RFC3339))
	for _, item := range order.Items {
		log.Printf("  %-24s %3d x %8s = %9s", item.Name, item.Quantity,
			money.Format(item.UnitPrice), money.Format(money.LineTotal(item.UnitPrice, item.Quantity)))
	}
	log.Printf("  Subtotal:     %s", money.Format(order.Subtotal))
	if order.DistanceKm > 0 {
		log.Printf("  Delivery:     %s (%.1f km, about %d h)", money.Format(order.DeliveryFee), order.DistanceKm, order.EstimatedHours)
	} else {
		log.Printf("  Delivery:     %s (flat)", money.Format(order.DeliveryFee))
	}
	log.Printf("  Total:        %s", money.Format(order.Total))
	log.Printf("  Payment:      %s", order.Payment.Method)
	log.Printf("  Deliver to:   %s", order.DeliveryAddressText)
}
