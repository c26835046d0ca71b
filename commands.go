package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"shopfront/internal/handlers"
	"shopfront/internal/services"
	"shopfront/pkg/rabbitmq"
)

// serveCmd runs the HTTP API used by the UI.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog and cart API",
	RunE:  runServe,
}

// productsCmd prints the catalog once.
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Fetch and print the product catalog",
	RunE:  runProducts,
}

// eventsCmd tails catalog events from RabbitMQ.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print catalog events published by other shopfront instances",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().String("queue", "shopfront.events", "queue to consume from")
	eventsCmd.Flags().String("binding", "product.*", "routing key pattern to bind")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	catalog, cart, cleanup, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup.Close(); err != nil {
			logger.Warn("Error during cleanup", zap.Error(err))
		}
	}()

	// A catalog that cannot load yet still serves the cart; refresh can retry.
	if err := catalog.FetchAll(ctx); err != nil {
		logger.Warn("Initial catalog load failed", zap.Error(err))
	}

	app := handlers.NewApp(catalog, cart, handlers.AppOptions{
		JWTSecret:  cfg.JWTSecret,
		RequestLog: true,
		Logger:     logger,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.AppPort))
		errCh <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Warn("Error during Fiber shutdown", zap.Error(err))
	}
	logger.Info("Server gracefully stopped")
	return nil
}

func runProducts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	catalog := services.NewCatalogService(newProductRepository(ctx, cfg, logger), nil, logger)
	if err := catalog.FetchAll(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE")
	for _, p := range catalog.Products() {
		fmt.Fprintf(w, "%d\t%s\t%.2f\n", p.ID, p.Title, p.Price)
	}
	return w.Flush()
}

func runEvents(cmd *cobra.Command, args []string) error {
	if cfg.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is not set")
	}
	queue, _ := cmd.Flags().GetString("queue")
	binding, _ := cmd.Flags().GetString("binding")

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	err = client.Consume(queue, binding, func(msg amqp.Delivery) error {
		var event services.ProductEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			// Requeueing would only redeliver the same bytes.
			logger.Warn("Dropping undecodable event", zap.Uint64("deliveryTag", msg.DeliveryTag), zap.Error(err))
			return nil
		}
		fmt.Fprintf(out, "%s %s product=%d\n", event.OccurredAt.Format("15:04:05"), event.Type, event.ProductID)
		return nil
	})
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}
