package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourorg/greenthumb/internal/infrastructure/logger"
	"github.com/yourorg/greenthumb/pkg/config"
)

var (
	// Global flags
	dbURL    string
	logLevel string

	cfg *config.Config
	log *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "greenthumbctl",
	Short: "Operator tooling for the GreenThumb API",
	Long: `greenthumbctl runs maintenance tasks against the same database and
configuration as the API server.

Commands:
  migrate  - Apply pending schema migrations
  seed     - Load the sample gardeners, plants and community content
  sweep    - Run one due-reminder sweep and exit`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if dbURL != "" {
			loaded.Database.URL = dbURL
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		log = logger.NewLogger(cfg.LogLevel)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}
