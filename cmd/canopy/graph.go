package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/adapters/file"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the state tree visualization",
	Long:  `Inspects a tree description and outputs a Mermaid diagram (graph TD) of the state hierarchy.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		if !cmd.Flags().Changed("dir") && len(args) > 0 {
			dir = args[0]
		}

		loader := file.NewLoader(dir)
		treeName, err := resolveTreeName(cmd, loader)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		desc, err := loader.Load(treeName)
		if err != nil {
			fmt.Printf("Error loading tree: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(desc, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
