// ABOUTME: Overview tab with client and post counts
// ABOUTME: Counts are fetched concurrently and rendered as metric blocks

package dashboard

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tui/icons"
	"github.com/markalston/blogpanel/internal/tui/styles"
	"github.com/markalston/blogpanel/internal/tui/widgets"
)

// SummaryLimit caps each count query. The backend has no count endpoint,
// so totals above this read as "SummaryLimit+".
const SummaryLimit = 1000

// Summary holds the overview counts
type Summary struct {
	Clients   int
	Published int
	Drafts    int
}

type summaryLoadedMsg struct {
	summary Summary
	err     error
}

// LoadSummary fetches the three overview counts concurrently
func LoadSummary(ctx context.Context, api API) (Summary, error) {
	var s Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tenants, err := api.ListClients(ctx, &client.ListClientsParams{Limit: SummaryLimit})
		if err != nil {
			return err
		}
		s.Clients = len(tenants)
		return nil
	})
	g.Go(func() error {
		posts, err := api.ListPosts(ctx, &client.ListPostsParams{Status: client.StatusPublished, Limit: SummaryLimit})
		if err != nil {
			return err
		}
		s.Published = len(posts)
		return nil
	})
	g.Go(func() error {
		posts, err := api.ListPosts(ctx, &client.ListPostsParams{Status: client.StatusDraft, Limit: SummaryLimit})
		if err != nil {
			return err
		}
		s.Drafts = len(posts)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (d *Dashboard) loadSummary() tea.Cmd {
	d.summaryLoading = true
	api := d.api
	return func() tea.Msg {
		s, err := LoadSummary(context.Background(), api)
		return summaryLoadedMsg{summary: s, err: err}
	}
}

func (d *Dashboard) viewOverview() string {
	var sb strings.Builder

	name := d.username
	if name == "" {
		name = "Admin"
	}
	sb.WriteString(styles.Title.Render(fmt.Sprintf("Welcome back, %s!", name)))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render("Manage your client blogs from this dashboard."))
	sb.WriteString("\n\n")

	switch {
	case d.summaryErr != nil:
		sb.WriteString(errorLine("overview", d.summaryErr))
		return sb.String()
	case d.summary == nil:
		sb.WriteString(styles.Help.Render("Loading counts..."))
		return sb.String()
	}

	cfg := widgets.DefaultMetricBlockConfig()
	blocks := []string{
		widgets.CountBlock(icons.Clients, "Total Clients", d.summary.Clients, SummaryLimit, "client domains", cfg),
		widgets.CountBlock(icons.Published, "Published Posts", d.summary.Published, SummaryLimit, "live", cfg),
		widgets.CountBlock(icons.Draft, "Draft Posts", d.summary.Drafts, SummaryLimit, "awaiting publish", cfg),
	}

	// Stack the blocks when the pane is too narrow to place them side by side
	if d.width > 0 && d.width < (cfg.Width+1)*len(blocks) {
		sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, blocks...))
	} else {
		spaced := make([]string, 0, len(blocks)*2)
		for i, b := range blocks {
			if i > 0 {
				spaced = append(spaced, " ")
			}
			spaced = append(spaced, b)
		}
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, spaced...))
	}
	return sb.String()
}

