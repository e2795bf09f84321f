package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/adapters/file"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check tree descriptions for consistency",
	Long:  `Loads every description in the directory and reports duplicate states, unknown children, states with two parents, and bad main states.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}

	loader := file.NewLoader(dir)
	names, err := loader.List()
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("tree"); name != "" {
		names = []string{name}
	}
	if len(names) == 0 {
		return fmt.Errorf("no tree descriptions found in %s", dir)
	}

	for _, name := range names {
		desc, err := loader.Load(name)
		if err != nil {
			return err
		}
		if err := validator.ValidateDescription(desc); err != nil {
			return err
		}
		fmt.Printf("Tree %q is valid! ✅\n", name)
	}
	return nil
}
