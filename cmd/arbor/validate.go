package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/presentation/graph"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph-file>",
	Short: "Check a graph definition for consistency",
	Long:  `Compiles a YAML graph definition and reports structural problems: missing nodes, dangling edges, unknown entry point, malformed conditions.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mermaid, _ := cmd.Flags().GetBool("mermaid")

		comp := compiler.New(newRegistry(), compiler.WithPassthrough())
		g, err := comp.CompileFile(args[0])
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Graph is valid! ✅")
		fmt.Printf("  name: %s\n  nodes: %d\n  edges: %d\n  entry: %s\n",
			g.Name, len(g.Nodes()), len(g.Edges()), g.EntryPoint())

		if mermaid {
			fmt.Println()
			fmt.Println(graph.GenerateMermaid(g, nil))
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart of the graph")
}
