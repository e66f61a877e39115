package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/workflows/dataquality"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is a lightweight workflow engine",
	Long:  `Arbor executes directed graphs of transform functions against a shared state, with conditional routing, audit logs and pluggable storage.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")

	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return logging.New(level)
}

// newRegistry builds the transform registry with the built-in workflows
// registered.
func newRegistry() *registry.Registry {
	reg := registry.New()
	dataquality.Register(reg)
	return reg
}

// seedGraphs stores the built-in demo pipeline so it is immediately runnable
// from the API and MCP adapters.
func seedGraphs(cmd *cobra.Command, graphs ports.GraphStore, logger *slog.Logger) error {
	dq, err := dataquality.New()
	if err != nil {
		return fmt.Errorf("failed to build data quality pipeline: %w", err)
	}
	if err := graphs.Save(cmd.Context(), dq); err != nil {
		return fmt.Errorf("failed to register data quality pipeline: %w", err)
	}
	logger.Info("registered built-in workflow", "graph_id", dq.ID, "name", dq.Name)
	return nil
}

func newGraphStore() *memory.GraphStore {
	return memory.NewGraphStore()
}
