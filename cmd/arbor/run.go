package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/workflows/dataquality"
)

var runCmd = &cobra.Command{
	Use:   "run [graph-file]",
	Short: "Execute a workflow graph",
	Long: `Executes a workflow graph and prints the run record.

With a graph file argument, the YAML definition is compiled with the built-in
transform registry. Without arguments, the bundled data quality pipeline runs
against sample data.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stateJSON, _ := cmd.Flags().GetString("state")
		maxIter, _ := cmd.Flags().GetInt("max-iterations")
		asJSON, _ := cmd.Flags().GetBool("json")

		logger := newLogger(cmd)

		var graph *domain.Graph
		var err error
		if len(args) > 0 {
			comp := compiler.New(newRegistry(), compiler.WithPassthrough())
			graph, err = comp.CompileFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to compile graph: %w", err)
			}
		} else {
			graph, err = dataquality.New()
			if err != nil {
				return err
			}
		}

		initial := domain.State{}
		if stateJSON != "" {
			if err := json.Unmarshal([]byte(stateJSON), &initial); err != nil {
				return fmt.Errorf("invalid --state: %w", err)
			}
		} else if len(args) == 0 {
			initial = sampleData()
		}

		opts := []arbor.Option{arbor.WithLogger(logger)}
		if maxIter > 0 {
			opts = append(opts, arbor.WithMaxIterations(maxIter))
		}
		engine, err := arbor.New(graph, opts...)
		if err != nil {
			return err
		}

		interactive := term.IsTerminal(int(os.Stdout.Fd())) && !asJSON
		if interactive {
			tui.PrintBanner(arbor.Version)
		}

		run, runErr := engine.Run(cmd.Context(), initial)
		if run == nil {
			return runErr
		}

		if asJSON || !interactive {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(run); err != nil {
				return err
			}
		} else {
			fmt.Print(tui.RenderRunSummary(run))
		}

		if runErr != nil {
			return fmt.Errorf("run %s failed: %w", run.RunID, runErr)
		}
		return nil
	},
}

// sampleData mirrors the dataset the server seeds for the demo pipeline.
func sampleData() domain.State {
	data := make(map[string]any, 100)
	for i := 0; i < 100; i++ {
		data[fmt.Sprintf("record_%d", i)] = map[string]any{
			"value":         i * 10,
			"quality_score": 0.8,
		}
	}
	return domain.State{"data": data}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("state", "", "Initial state as a JSON object")
	runCmd.Flags().Int("max-iterations", 0, "Override the iteration cap (default 1000)")
	runCmd.Flags().Bool("json", false, "Print the full run record as JSON")
}
