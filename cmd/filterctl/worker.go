package main

import (
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/app"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
)

// newWorkerCmd consumes product events and keeps facets in step with
// catalog writes.
func newWorkerCmd(load configLoader) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Resync product facets from Kafka product events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log := logger.WithComponent("worker")

			reg := prometheus.NewRegistry()
			a, err := app.New(cfg, reg)
			if err != nil {
				return err
			}
			defer a.Close()

			consumer, err := a.NewConsumer()
			if err != nil {
				return err
			}
			defer consumer.Close()

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: a.Metrics.Handler()}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Error().Err(err).Msg("metrics listener stopped")
					}
				}()
				defer srv.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().
				Strs("brokers", cfg.Kafka.Brokers).
				Str("topic", cfg.Kafka.ProductTopic).
				Str("group", cfg.Kafka.ConsumerGroup).
				Msg("facet worker started")
			return consumer.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9102", "serve Prometheus metrics on this address (empty disables)")
	return cmd
}
