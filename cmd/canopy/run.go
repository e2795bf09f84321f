package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	canopy "github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/eventbus"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/runner"
	"github.com/aretw0/canopy/pkg/systems"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a state tree with the built-in update loop",
	Long:  `Loads a tree description from the given directory and ticks it at a fixed rate until interrupted. Transitions are logged as they commit.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runLoop(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Duration("tick", runner.DefaultTickRate, "Update interval")
	runCmd.Flags().BoolP("watch", "w", false, "Log when description files change on disk")
}

func runLoop(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	logger := createLogger(cmd)

	// The banner is for humans; skip it when output is piped.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		tui.PrintBanner()
	}

	loader := file.NewLoader(dir)
	treeName, err := resolveTreeName(cmd, loader)
	if err != nil {
		return err
	}

	bus := eventbus.New()
	bus.Subscribe(canopy.EventTransition, func(payload any) {
		if ev, ok := payload.(*domain.TransitionEvent); ok {
			logger.Info("transition committed", "from", ev.From, "to", ev.To, "depth", ev.Depth)
		}
	})

	reg := registry.New()
	systems.Register(reg, logger, bus)

	engine, err := canopy.New(
		canopy.WithFactory(reg),
		canopy.WithLoader(loader, treeName),
		canopy.WithEventBus(bus),
		canopy.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}
	defer engine.Teardown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		changes, err := loader.Watch(ctx)
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		go func() {
			for range changes {
				logger.Warn("description changed on disk; restart to apply", "dir", dir)
			}
		}()
	}

	r := runner.NewRunner()
	r.Logger = logger
	if tick, _ := cmd.Flags().GetDuration("tick"); tick > 0 {
		r.TickRate = tick
	}

	logger.Info("running state tree", "tree", treeName, "tick", r.TickRate)
	start := time.Now()
	err = r.Run(ctx, engine)
	logger.Info("loop stopped", "active", engine.Active(), "uptime", time.Since(start).Round(time.Second))
	return err
}

// resolveTreeName picks the tree to load: the --tree flag if given,
// otherwise the only description in the directory.
func resolveTreeName(cmd *cobra.Command, loader *file.Loader) (string, error) {
	if name, _ := cmd.Flags().GetString("tree"); name != "" {
		return name, nil
	}
	names, err := loader.List()
	if err != nil {
		return "", err
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("no tree descriptions found; use --tree or add one")
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("multiple tree descriptions found (%v); pick one with --tree", names)
	}
}
