package cli

import (
	"fmt"

	"github.com/existflow/ironboard/internal/config"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "ironboard",
	Short: "IronBoard - Terminal client for the IronBoard project tracker",
	Long: `IronBoard is a terminal client for a team project tracker: projects,
members with roles, and a kanban board of tasks, bugs, features and epics.

Run 'ironboard' without arguments to open the board of the selected project.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		cfg, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			cfg = config.DefaultConfig()
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
			configChanged = true
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		a, err := NewApp(cfg)
		if err != nil {
			logger.Error("Failed to start", logger.F("error", err))
			return err
		}
		app = a

		logger.Info("IronBoard started", logger.F("command", cmd.Name()), logger.F("server", cfg.ServerURL))
		return nil
	},

	RunE: runBoard,
}

// Execute runs the root command
func Execute() error {
	defer shutdown()
	return rootCmd.Execute()
}

// shutdown closes the app and the log file
func shutdown() {
	if app != nil {
		if err := app.Close(); err != nil {
			logger.Warn("Failed to close state", logger.F("error", err))
		}
		app = nil
	}
	logger.Info("IronBoard exiting")
	_ = logger.Close()
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API server URL (saved to config)")

	// Add subcommands
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(teamsCmd)
}
