// ABOUTME: Logout command for the blogpanel CLI
// ABOUTME: Forgets the saved session; safe to run when already logged out

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runLogout(ctx, os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

// runLogout clears the persisted token and returns exit code.
// The backend keeps no session state, so nothing is sent.
func runLogout(ctx context.Context, w io.Writer) int {
	e, code := setup(w)
	if e == nil {
		return code
	}

	if err := e.tokens.Clear(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		return writeJSON(w, map[string]bool{"logged_out": true})
	}
	fmt.Fprintln(w, "Logged out.")
	return exitOK
}
