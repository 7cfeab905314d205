// ABOUTME: Clients commands for the blogpanel CLI
// ABOUTME: Lists, shows and creates the client domains that own blogs

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/markalston/blogpanel/internal/client"
)

var (
	clientsSkip  int
	clientsLimit int
	clientName   string
	clientDomain string
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage client domains",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runClientsList(ctx, os.Stdout, &client.ListClientsParams{Skip: clientsSkip, Limit: clientsLimit})
		})
	},
}

var clientsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one client",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runClientsGet(ctx, os.Stdout, args[0])
		})
	},
}

var clientsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a client",
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runClientsCreate(ctx, os.Stdout, client.TenantInput{Name: clientName, Domain: clientDomain})
		})
	},
}

func init() {
	clientsListCmd.Flags().IntVar(&clientsSkip, "skip", 0, "Number of clients to skip")
	clientsListCmd.Flags().IntVar(&clientsLimit, "limit", 0, "Maximum number of clients (default: backend default)")

	clientsCreateCmd.Flags().StringVar(&clientName, "name", "", "Client name")
	clientsCreateCmd.Flags().StringVar(&clientDomain, "domain", "", "Client domain")
	_ = clientsCreateCmd.MarkFlagRequired("name")
	_ = clientsCreateCmd.MarkFlagRequired("domain")

	clientsCmd.AddCommand(clientsListCmd, clientsGetCmd, clientsCreateCmd)
	rootCmd.AddCommand(clientsCmd)
}

// runClientsList lists clients and returns exit code
func runClientsList(ctx context.Context, w io.Writer, params *client.ListClientsParams) int {
	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	tenants, err := e.api.ListClients(ctx, params)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, tenants)
	}
	fmt.Fprintln(w, formatClientsHuman(tenants, time.Now()))
	return exitOK
}

// runClientsGet shows one client and returns exit code
func runClientsGet(ctx context.Context, w io.Writer, rawID string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	tenant, err := e.api.GetClient(ctx, id)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, tenant)
	}
	fmt.Fprintln(w, formatClientHuman(tenant))
	return exitOK
}

// runClientsCreate creates a client and returns exit code
func runClientsCreate(ctx context.Context, w io.Writer, input client.TenantInput) int {
	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	tenant, err := e.api.CreateClient(ctx, input)
	if err != nil {
		return fail(w, e, err)
	}

	if IsJSONOutput() {
		return writeJSON(w, tenant)
	}
	fmt.Fprintf(w, "Created client %d: %s (%s)\n", tenant.ID, tenant.Name, tenant.Domain)
	return exitOK
}

// formatClientsHuman renders clients as a table
func formatClientsHuman(tenants []client.Tenant, now time.Time) string {
	if len(tenants) == 0 {
		return "No clients."
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "DOMAIN", "CREATED")
	for _, c := range tenants {
		t.Row(strconv.Itoa(c.ID), c.Name, c.Domain, relTime(c.CreatedAt, now))
	}
	return t.String()
}

// formatClientHuman formats one client for human readability
func formatClientHuman(c *client.Tenant) string {
	return fmt.Sprintf(`ID:      %d
Name:    %s
Domain:  %s
Created: %s`, c.ID, c.Name, c.Domain, formatTimestamp(c.CreatedAt))
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return id, nil
}

func relTime(ts client.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return humanize.RelTime(ts.Time, now, "ago", "from now")
}

func formatTimestamp(ts client.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
