// ABOUTME: Dashboard command for the blogpanel CLI
// ABOUTME: Launches the interactive TUI, logging to a file in the config dir

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/blogpanel/internal/logger"
	"github.com/markalston/blogpanel/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runDashboard(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// runDashboard runs the TUI until the user quits and returns exit code
func runDashboard(ctx context.Context) int {
	cfg, dir, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	// Logs would corrupt the alt screen, so they go to debug.log
	f, err := logger.OpenDebugLog(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer f.Close()

	e := newEnv(cfg, dir, f)
	e.logger.Info("dashboard starting", "api_url", cfg.APIURL)
	if err := tui.Run(ctx, e.store, e.api, cfg.Username); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
