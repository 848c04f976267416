// Command mindloop runs a single Mind as a long-lived daemon: it loads
// configuration, wires the selected model provider and state store, and
// drives the dispatcher loop until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindloop-ai/mindloop"
	"github.com/mindloop-ai/mindloop/config"
	"github.com/mindloop-ai/mindloop/core"
	"github.com/mindloop-ai/mindloop/engine"
	"github.com/mindloop-ai/mindloop/logging"
	"github.com/mindloop-ai/mindloop/model"
	"github.com/mindloop-ai/mindloop/model/anthropic"
	"github.com/mindloop-ai/mindloop/model/openai"
	"github.com/mindloop-ai/mindloop/state"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mindloop",
		Short:         "Run long-lived conversational agent processes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newRunCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mindloop version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newRunCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a Mind until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runMind(cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func runMind(cmd *cobra.Command, cfg *config.Config) error {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: cmd.OutOrStdout(),
		MindID: cfg.MindID,
	})

	var mdl model.Model
	switch cfg.Provider {
	case "openai":
		mdl = openai.NewModel()
	case "anthropic":
		mdl = anthropic.NewModel()
	case "mock", "":
		mdl = model.NewMockModel()
	default:
		return fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	var states core.StateStore
	if cfg.StatePath != "" {
		store, err := state.NewSQLiteStore(cfg.StatePath, func(o *state.SQLiteOptions) {
			o.Logger = logger.WithComponent("state")
		})
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer store.Close()
		states = store
	}

	schedule, err := cfg.RoutineBlocks()
	if err != nil {
		return err
	}
	sleepStart, sleepEnd, err := cfg.SleepWindow()
	if err != nil {
		return err
	}

	mind, err := mindloop.New(func(o *mindloop.Options) {
		o.ID = cfg.MindID
		o.EngineConfig = engine.Config{
			DrainPerTick:     cfg.Engine.DrainPerTick,
			LLMTimeout:       cfg.LLMTimeout(),
			SnapshotInterval: cfg.SnapshotInterval(),
		}
		o.Schedule = schedule
		o.CallsLimit = cfg.Budget.CallsLimit
		o.TokensLimit = cfg.Budget.TokensLimit
		o.SleepStart = sleepStart
		o.SleepEnd = sleepEnd
		o.ConcernMaxUnacked = cfg.Concerns.MaxUnackedFollowUps
		o.ConcernMaxAge = time.Duration(cfg.Concerns.MaxAgeDays) * 24 * time.Hour
		o.Model = mdl
		o.StateStore = states
		o.Logger = logger.WithComponent("mind")
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("mind starting", "mind_id", cfg.MindID, "provider", cfg.Provider)
	return mind.Run(ctx)
}
