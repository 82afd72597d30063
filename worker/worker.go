package main

import (
	"encoding/hex"
	"log"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"storefront-order-engine/activities"
	"storefront-order-engine/cart"
	"storefront-order-engine/codec"
	"storefront-order-engine/config"
	"storefront-order-engine/logging"
	"storefront-order-engine/orderstore"
	"storefront-order-engine/workflows"
)

// WorkerVersion is logged at startup; bump it with each deploy
const WorkerVersion = "1.0.0"

func main() {
	// Environment settings, with a generated key when ENCRYPTION_KEY is unset
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.KeyGenerated {
		log.Printf("Generated encryption key: %s", hex.EncodeToString(cfg.EncryptionKey))
		log.Println("Set ENCRYPTION_KEY environment variable to use this key in production")
	}

	// Payloads are encrypted before they reach the Temporal server
	dataConverter, err := codec.NewEncryptionDataConverter(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to create encryption data converter: %v", err)
	}

	// Connect with the encrypting converter and the structured logger
	c, err := client.Dial(client.Options{
		HostPort:      cfg.TemporalAddress,
		DataConverter: dataConverter,
		Logger:        logging.New(cfg.LogLevel, cfg.LogFormat),
	})
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// Order history database, migrated on open
	store, err := orderstore.Open(cfg.OrderDBPath)
	if err != nil {
		log.Fatalf("Unable to open order store: %v", err)
	}
	defer store.Close()

	// Session carts, cleared when an order is cancelled
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	carts := cart.NewSessionStore(rdb, cart.DefaultSessionTTL)

	// Worker versioning by Build ID needs the task queue set up on the server
	w := worker.New(c, workflows.TaskQueueName, worker.Options{
		BuildID:                                cfg.BuildID,
		MaxConcurrentActivityExecutionSize:     100,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
	})

	// Register workflows
	w.RegisterWorkflow(workflows.OrderLifecycleWorkflow)

	// Register activities
	orderActivities := activities.NewActivities(store, carts, nil)
	w.RegisterActivity(orderActivities.PersistOrder)
	w.RegisterActivity(orderActivities.UpdateOrderStatus)
	w.RegisterActivity(orderActivities.ClearCart)
	w.RegisterActivity(orderActivities.NotifyCustomer)

	log.Println("Starting Temporal worker...")
	log.Printf("Worker Version: %s", WorkerVersion)
	log.Printf("Build ID: %s", cfg.BuildID)
	log.Printf("Temporal address: %s", cfg.TemporalAddress)
	log.Printf("Task queue: %s", workflows.TaskQueueName)
	log.Printf("Order database: %s", cfg.OrderDBPath)
	log.Printf("Redis: %s", cfg.RedisAddr)
	log.Printf("Cancellation window: %s", cfg.CancelWindow)
	log.Println("Registered workflows: OrderLifecycleWorkflow")
	log.Printf("Encryption: Enabled (key %s)", codec.KeyID(cfg.EncryptionKey))

	// Run until interrupted
	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalf("Unable to start worker: %v", err)
	}
}
