// ABOUTME: Posts tab listing blog posts with a status filter
// ABOUTME: Dates are shown relative to now via go-humanize

package dashboard

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tui/icons"
	"github.com/markalston/blogpanel/internal/tui/styles"
	"github.com/markalston/blogpanel/internal/tui/widgets"
)

// PostsPageLimit is how many posts the posts tab requests
const PostsPageLimit = 100

type postsLoadedMsg struct {
	filter string
	posts  []client.BlogPost
	err    error
}

var postFilters = []string{"", client.StatusDraft, client.StatusPublished}

// nextFilter cycles all -> draft -> published -> all
func nextFilter(current string) string {
	for i, f := range postFilters {
		if f == current {
			return postFilters[(i+1)%len(postFilters)]
		}
	}
	return ""
}

func (d *Dashboard) loadPosts() tea.Cmd {
	d.postsLoading = true
	api, filter := d.api, d.postFilter
	return func() tea.Msg {
		posts, err := api.ListPosts(context.Background(), &client.ListPostsParams{
			Status: filter,
			Limit:  PostsPageLimit,
		})
		return postsLoadedMsg{filter: filter, posts: posts, err: err}
	}
}

func postColumns(width int) []table.Column {
	id, status, created := 6, 11, 16
	rest := max(30, width-id-status-created-12)
	title := rest * 3 / 5
	return []table.Column{
		{Title: "ID", Width: id},
		{Title: "Title", Width: title},
		{Title: "Client", Width: rest - title},
		{Title: "Status", Width: status},
		{Title: "Created", Width: created},
	}
}

func (d *Dashboard) refreshPostRows() {
	names := make(map[int]string, len(d.clients))
	for _, c := range d.clients {
		names[c.ID] = c.Name
	}

	now := d.now()
	rows := make([]table.Row, 0, len(d.posts))
	for _, p := range d.posts {
		clientName := names[p.ClientID]
		if p.Client != nil && p.Client.Name != "" {
			clientName = p.Client.Name
		}
		if clientName == "" {
			clientName = "#" + strconv.Itoa(p.ClientID)
		}
		created := "-"
		if !p.CreatedAt.IsZero() {
			created = humanize.RelTime(p.CreatedAt.Time, now, "ago", "from now")
		}
		rows = append(rows, table.Row{
			strconv.Itoa(p.ID),
			p.Title,
			clientName,
			p.Status,
			created,
		})
	}
	d.postsTable.SetRows(rows)
}

func (d *Dashboard) viewPosts() string {
	var sb strings.Builder

	filter := "all"
	if d.postFilter != "" {
		filter = d.postFilter
	}
	sb.WriteString(styles.Help.UnsetMarginTop().Render(icons.Filter.String() + " status: " + filter + "  (f to change)"))
	if d.postFilter != "" {
		sb.WriteString(" " + widgets.PostStatusBadge(d.postFilter))
	}
	if len(d.posts) > 0 {
		sb.WriteString("  " + countLine(len(d.posts), "posts"))
	}
	sb.WriteString("\n")

	switch {
	case d.postsErr != nil:
		sb.WriteString(errorLine("posts", d.postsErr))
	case d.postsLoading && len(d.posts) == 0:
		sb.WriteString(styles.Help.Render("Loading posts..."))
	case len(d.posts) == 0:
		sb.WriteString(styles.Help.Render("No posts match this filter."))
	default:
		sb.WriteString(d.postsTable.View())
	}
	return sb.String()
}
