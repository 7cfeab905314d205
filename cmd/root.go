// ABOUTME: Root command for the blogpanel CLI
// ABOUTME: Handles global flags and configuration

package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
	configDir  string
	logLevel   string
	noPersist  bool
)

// logOutput receives CLI logs; the TUI logs to a file instead
var logOutput io.Writer = os.Stderr

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "blogpanel",
	Short: "Admin dashboard for the blog backend",
	Long: `blogpanel manages client blogs through the blog backend's REST API.

Run without a subcommand to open the interactive dashboard.

Environment Variables:
  BLOGPANEL_API_URL     Backend API URL (default: http://localhost:8000)
  BLOGPANEL_CONFIG_DIR  Where the session is stored (default: ~/.config/blogpanel)
  BLOGPANEL_USERNAME    Pre-fills the login username
  BLOGPANEL_TIMEOUT     Per-request timeout (default: 30s)
  LOG_LEVEL, LOG_FORMAT Logging level (debug|info|warn|error) and format (text|json)`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runDashboard(ctx)
		})
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides BLOGPANEL_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Session directory (overrides BLOGPANEL_CONFIG_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noPersist, "no-persist", false, "Keep the session in memory only; nothing is read from or written to disk")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// execute runs fn with a context canceled on SIGINT/SIGTERM and exits with its code
func execute(fn func(ctx context.Context) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := fn(ctx)
	cancel()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
