package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/h0rv/pulp/internal/config"
	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/tui"
)

var (
	// CLI flags
	configFlag string
	apiURLFlag string
	boardFlag  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulp",
		Short: "Terminal UI for pulpe kanban boards",
		Long: `pulp is a terminal user interface for pulpe, a Trello-like kanban board.

Boards, lists and cards are edited optimistically: every change shows up
immediately and is rolled back if the server rejects it.

Authentication:
  1. token in the config file
  2. the PULP_TOKEN environment variable
  3. token_command in the config file, e.g. "pass show pulpe"`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default $PULP_CONFIG or ~/.config/pulp/config.toml)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Base URL of the pulpe server")
	rootCmd.Flags().StringVar(&boardFlag, "board", "", "Board to open, as OWNER/SLUG or ID. Skips the board picker.")

	rootCmd.AddCommand(newBoardsCmd(), newShowCmd(), newAddCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	ref := env.cfg.DefaultBoard()
	if boardFlag != "" {
		ref = domain.ParseBoardRef(boardFlag)
	}

	app := tui.NewAppModel(env.coord, env.cfg, ctx, ref)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// signalContext returns a context canceled on interrupt, for the
// non-interactive commands.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// loadConfig loads the config file and applies the flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if apiURLFlag != "" {
		if cfg.WebURL == cfg.APIURL {
			cfg.WebURL = apiURLFlag
		}
		cfg.APIURL = apiURLFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
