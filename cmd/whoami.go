// ABOUTME: Whoami command for the blogpanel CLI
// ABOUTME: Validates the saved session against the backend and shows the user

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/markalston/blogpanel/internal/client"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long:  `Check the saved session with the backend and print the signed-in user.`,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runWhoami(ctx, os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

// runWhoami executes the session check and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	user := e.store.User()
	if IsJSONOutput() {
		return writeJSON(w, user)
	}
	fmt.Fprintln(w, formatUserHuman(e.cfg.APIURL, user))
	return exitOK
}

// formatUserHuman formats the user record for human readability
func formatUserHuman(url string, u *client.User) string {
	since := "-"
	if !u.CreatedAt.IsZero() {
		since = humanize.Time(u.CreatedAt.Time)
	}
	return fmt.Sprintf(`Backend:  %s
Username: %s
Email:    %s
Role:     %s
Active:   %t
Joined:   %s`, url, u.Username, u.Email, u.Role, u.IsActive, since)
}
