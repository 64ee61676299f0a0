package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fentz26/neona-assist/internal/config"
	"github.com/fentz26/neona-assist/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	apiAddr    string
	projectID  string
	dbPath     string
	verbose    bool
	ephemeral  bool

	cfg    *config.Config
	logger *zap.Logger
	env    *environment
)

var rootCmd = &cobra.Command{
	Use:   "neona-assist",
	Short: "Neona assistant - natural-language project actions",
	Long: `neona-assist turns free-text requests into confirmed project actions.

Requests are interpreted by the Neona orchestrator, matched to stories and
tasks in the active project, and executed only after you confirm them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// A missing .env file is fine.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logFile := cfg.LogFile
		if cmd.Name() == "tui" && logFile == "" {
			logFile = config.DefaultLogFile()
		}
		logger, err = logging.New(verbose, logFile)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "Orchestrator API address (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&projectID, "project", "p", "", "Project to bind (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "State database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep state in memory only; nothing is read or written on disk")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(suggestionsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}

func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = apiAddr
	}
	if flags.Changed("project") {
		cfg.ProjectID = projectID
	}
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
}

// shutdown closes the environment and flushes the logger. It is safe to call
// more than once, since cobra skips post-run hooks when a command fails.
func shutdown() {
	if env != nil {
		env.Close()
		env = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	if err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
