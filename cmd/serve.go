package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the storefront HTTP server. On first start an admin account is
created from ADMIN_USERNAME / ADMIN_PASSWORD. When RABBITMQ_URL is set, order
events are published and consumed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, log, err := opts.load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		publisher services.OrderPublisher
		mqClient  *rabbitmq.Client
	)
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Info().Msg("RABBITMQ_URL not set, order events disabled")
	}

	a, err := app.New(ctx, cfg, log, app.Options{Publisher: publisher})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.AppPort).Msg("starting server")
		return a.Fiber.Listen(cfg.AppPort)
	})
	if mqClient != nil {
		g.Go(func() error {
			return mqClient.ConsumeOrderEvents(gctx, logOrderEvent(log))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		return a.Fiber.ShutdownWithContext(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}

// logOrderEvent records every order.placed event; it is the hook for
// fulfilment work such as confirmation mails.
func logOrderEvent(log zerolog.Logger) rabbitmq.Handler {
	return func(msg amqp.Delivery) error {
		var event services.OrderPlacedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode order event: %w", err)
		}
		log.Info().
			Str("routing_key", msg.RoutingKey).
			Str("order_id", event.OrderID).
			Uint("user_id", event.UserID).
			Float64("total", event.Total).
			Int("items", len(event.Items)).
			Msg("order event received")
		return nil
	}
}
