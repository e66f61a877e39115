package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/arbor/internal/adapters/http"
	redisStore "github.com/aretw0/arbor/internal/adapters/redis"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow engine HTTP server",
	Long:  `Starts the engine in server mode, exposing graph management, execution and run inspection over a JSON API, plus Prometheus metrics on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redact, _ := cmd.Flags().GetStringSlice("redact")
		encryptKeyEnv, _ := cmd.Flags().GetString("encrypt-key-env")

		logger := newLogger(cmd)

		var runs ports.RunStore = memory.NewRunStore()
		if redisAddr != "" {
			runs = redisStore.New(redisAddr, "", 0)
			logger.Info("using redis run store", "address", redisAddr)
		}

		var encryptKey []byte
		if encryptKeyEnv != "" {
			encryptKey = []byte(os.Getenv(encryptKeyEnv))
		}
		runs, err := secureRunStore(runs, redact, encryptKey)
		if err != nil {
			fmt.Printf("Error configuring run store: %v\n", err)
			os.Exit(1)
		}
		if len(redact) > 0 {
			logger.Info("masking state keys before run persistence", "patterns", redact)
		}
		if len(encryptKey) > 0 {
			logger.Info("encrypting persisted runs")
		}

		graphs := newGraphStore()
		reg := newRegistry()
		if err := seedGraphs(cmd, graphs, logger); err != nil {
			fmt.Printf("Error seeding graphs: %v\n", err)
			os.Exit(1)
		}

		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector())
		metrics := observability.NewMetrics(promReg)

		api := httpAdapter.NewServer(graphs, runs, reg,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithLifecycleHooks(metrics.Hooks()),
		)

		router := chi.NewRouter()
		router.Mount("/", api.Handler())
		router.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: router,
		}

		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Arbor Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Arbor Server stopped gracefully")
		}
	},
}

// secureRunStore wraps the run store with the configured persistence
// middleware. Redaction runs before encryption, so masked fields stay masked
// even for a reader holding the key.
func secureRunStore(base ports.RunStore, redact []string, encryptKey []byte) (ports.RunStore, error) {
	var mws []middleware.Middleware

	if len(redact) > 0 {
		for _, p := range redact {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
			}
		}
		mws = append(mws, middleware.NewRedactionMiddleware(redact))
	}

	if len(encryptKey) > 0 {
		if len(encryptKey) != 32 {
			return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(encryptKey))
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: encryptKey,
		}))
	}

	return middleware.Chain(base, mws...), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for run storage (default: in-memory)")
	serveCmd.Flags().StringSlice("redact", nil, "State key patterns to mask before runs are persisted")
	serveCmd.Flags().String("encrypt-key-env", "", "Environment variable holding a 32-byte key; persisted runs are encrypted with it")
}
