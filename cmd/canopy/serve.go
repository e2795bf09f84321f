package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/canopy/internal/adapters/http"
	"github.com/aretw0/canopy/pkg/adapters/file"
	redisAdapter "github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/systems"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session server",
	Long:  `Starts Canopy in server mode. Each session owns its own state tree; the JSON API creates sessions, requests transitions, and advances frames. Prometheus metrics are exposed on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		logger := createLogger(cmd)

		loader := file.NewLoader(dir)
		reg := registry.New()
		systems.Register(reg, logger, nil)

		promReg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(promReg)

		managerOpts := []session.Option{
			session.WithMetrics(metrics),
			session.WithLogger(logger),
		}
		if redisAddr != "" {
			store := redisAdapter.New(redisAddr, "", 0)
			defer store.Close()
			managerOpts = append(managerOpts, session.WithStore(store))
			logger.Info("session snapshots persisted to redis", "addr", redisAddr)
		}
		manager := session.NewManager(loader, reg, managerOpts...)

		mux := chi.NewRouter()
		mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		mux.Mount("/", httpAdapter.NewHandler(manager))

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Canopy Server on %s\n", srv.Addr)
			fmt.Printf("Serving trees from: %s\n", dir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Canopy Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for session snapshot persistence (optional)")
}
