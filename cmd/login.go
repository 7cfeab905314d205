// ABOUTME: Login command for the blogpanel CLI
// ABOUTME: Exchanges credentials for a token and persists the session

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tui/styles"
)

var (
	loginUsername      string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	Long: `Sign in to the blog backend. The token is saved so later commands and the
dashboard reuse it. Missing values are prompted for when running in a terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runLogin(ctx, os.Stdout, os.Stdin, loginUsername, loginPasswordStdin)
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (default: BLOGPANEL_USERNAME)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(loginCmd)
}

// isInteractive reports whether prompts can be shown
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptCredentials asks for whichever of username and password is empty
var promptCredentials = func(creds *client.Credentials) error {
	var fields []huh.Field
	if creds.Username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&creds.Username))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&creds.Password))
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(styles.FormTheme()).Run()
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer, in io.Reader, username string, passwordStdin bool) int {
	e, code := setup(w)
	if e == nil {
		return code
	}

	// An unreachable backend here is reported by the login attempt itself
	_ = e.store.Init(ctx)
	if user := e.store.User(); user != nil {
		fmt.Fprintf(w, "Already logged in as %s. Run 'blogpanel logout' to switch users.\n", user.Username)
		return exitOK
	}

	creds := client.Credentials{Username: username}
	if creds.Username == "" {
		creds.Username = e.cfg.Username
	}

	switch {
	case passwordStdin:
		password, err := readPassword(in)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		creds.Password = password
	case isInteractive():
		if err := promptCredentials(&creds); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return exitError
			}
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
	default:
		fmt.Fprintln(w, "Error: no terminal for a password prompt; use --password-stdin")
		return exitError
	}

	user, err := e.store.Login(ctx, creds)
	if err != nil {
		fmt.Fprintf(w, "Error: %s\n", describeError(err))
		return exitCodeFor(err)
	}

	if IsJSONOutput() {
		return writeJSON(w, user)
	}
	fmt.Fprintf(w, "Logged in as %s", user.Username)
	if user.Role != "" {
		fmt.Fprintf(w, " (%s)", user.Role)
	}
	fmt.Fprintln(w)
	return exitOK
}

// readPassword reads the first line of r
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password on stdin")
	}
	return password, nil
}
