// ABOUTME: Authenticated dashboard shell with overview, posts and clients tabs
// ABOUTME: Loads data through the API client and reports session expiry to the app

package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tui/icons"
	"github.com/markalston/blogpanel/internal/tui/styles"
	"github.com/markalston/blogpanel/internal/tui/widgets"
)

// API is the part of the client the dashboard reads and writes through
type API interface {
	ListClients(ctx context.Context, params *client.ListClientsParams) ([]client.Tenant, error)
	ListPosts(ctx context.Context, params *client.ListPostsParams) ([]client.BlogPost, error)
	CreateClient(ctx context.Context, input client.TenantInput) (*client.Tenant, error)
}

// Tab is a dashboard section
type Tab int

const (
	TabOverview Tab = iota
	TabPosts
	TabClients
)

var (
	tabNames = []string{"Overview", "Posts", "Clients"}
	tabIcons = []icons.Icon{icons.App, icons.Posts, icons.Clients}
)

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "unknown"
}

// SessionExpiredMsg is sent when the backend rejects the token mid-session
type SessionExpiredMsg struct {
	Err error
}

// Dashboard is the main authenticated screen
type Dashboard struct {
	api      API
	username string
	now      func() time.Time

	tab    Tab
	width  int
	height int

	summary        *Summary
	summaryErr     error
	summaryLoading bool

	posts        []client.BlogPost
	postsErr     error
	postsLoading bool
	postFilter   string
	postsTable   table.Model

	clients        []client.Tenant
	clientsErr     error
	clientsLoading bool
	clientsTable   table.Model

	createForm  *huh.Form
	newName     string
	newDomain   string
	notice      string
	noticeLevel widgets.StatusLevel

	lastUpdate time.Time
}

// New creates a dashboard for username. Call Load to fetch data.
func New(api API, username string, width, height int) *Dashboard {
	d := &Dashboard{
		api:          api,
		username:     username,
		now:          time.Now,
		width:        width,
		height:       height,
		postsTable:   newTable(postColumns(width)),
		clientsTable: newTable(clientColumns(width)),
	}
	d.resizeTables()
	return d
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
	)
	t.SetStyles(styles.TableStyles())
	return t
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.resizeTables()
}

func (d *Dashboard) resizeTables() {
	// Tabs line, blank line and status line sit above and below the table
	h := max(3, d.height-4)
	d.postsTable.SetColumns(postColumns(d.width))
	d.postsTable.SetHeight(h)
	d.clientsTable.SetColumns(clientColumns(d.width))
	d.clientsTable.SetHeight(h)
}

// Tab returns the active tab
func (d *Dashboard) Tab() Tab {
	return d.tab
}

// PostFilter returns the status filter applied to the posts tab ("" for all)
func (d *Dashboard) PostFilter() string {
	return d.postFilter
}

// Capturing reports whether a form has keyboard focus, so global keys must pass through
func (d *Dashboard) Capturing() bool {
	return d.createForm != nil
}

// LastUpdate is when data was last loaded successfully
func (d *Dashboard) LastUpdate() time.Time {
	return d.lastUpdate
}

// Load fetches every tab's data
func (d *Dashboard) Load() tea.Cmd {
	return tea.Batch(d.loadSummary(), d.loadPosts(), d.loadClients())
}

// Init implements tea.Model
func (d *Dashboard) Init() tea.Cmd {
	return d.Load()
}

// Update implements tea.Model
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.SetSize(msg.Width, msg.Height)
		return d, nil

	case summaryLoadedMsg:
		d.summaryLoading = false
		if expired := sessionExpired(msg.err); expired != nil {
			return d, expired
		}
		d.summaryErr = msg.err
		if msg.err == nil {
			d.summary = &msg.summary
			d.lastUpdate = d.now()
		}
		return d, nil

	case postsLoadedMsg:
		if msg.filter != d.postFilter {
			// A newer filter was chosen while this load was in flight
			return d, nil
		}
		d.postsLoading = false
		if expired := sessionExpired(msg.err); expired != nil {
			return d, expired
		}
		d.postsErr = msg.err
		if msg.err == nil {
			d.posts = msg.posts
			d.lastUpdate = d.now()
		}
		d.refreshPostRows()
		return d, nil

	case clientsLoadedMsg:
		d.clientsLoading = false
		if expired := sessionExpired(msg.err); expired != nil {
			return d, expired
		}
		d.clientsErr = msg.err
		if msg.err == nil {
			d.clients = msg.clients
			d.lastUpdate = d.now()
		}
		d.refreshClientRows()
		// Post rows show client names, which may have just arrived
		d.refreshPostRows()
		return d, nil

	case clientCreatedMsg:
		if expired := sessionExpired(msg.err); expired != nil {
			return d, expired
		}
		if msg.err != nil {
			d.notice, d.noticeLevel = "Could not create client: "+msg.err.Error(), widgets.StatusCritical
			return d, nil
		}
		d.notice = fmt.Sprintf("Created client %s (%s)", msg.tenant.Name, msg.tenant.Domain)
		d.noticeLevel = widgets.StatusOK
		return d, tea.Batch(d.loadClients(), d.loadSummary())
	}

	if d.createForm != nil {
		return d.updateCreateForm(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return d.handleKey(key)
	}
	return d, nil
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "1":
		d.tab = TabOverview
		return d, nil
	case "2":
		d.tab = TabPosts
		return d, nil
	case "3":
		d.tab = TabClients
		return d, nil
	case "tab":
		d.tab = (d.tab + 1) % Tab(len(tabNames))
		return d, nil
	case "shift+tab":
		d.tab = (d.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return d, nil
	case "r":
		d.notice = ""
		return d, d.Load()
	case "f":
		if d.tab == TabPosts {
			d.postFilter = nextFilter(d.postFilter)
			return d, d.loadPosts()
		}
	case "n":
		if d.tab == TabClients {
			return d, d.openCreateForm()
		}
	}

	var cmd tea.Cmd
	switch d.tab {
	case TabPosts:
		d.postsTable, cmd = d.postsTable.Update(msg)
	case TabClients:
		d.clientsTable, cmd = d.clientsTable.Update(msg)
	}
	return d, cmd
}

// sessionExpired turns an authentication failure into a SessionExpiredMsg
func sessionExpired(err error) tea.Cmd {
	if !client.IsAuthError(err) {
		return nil
	}
	return func() tea.Msg { return SessionExpiredMsg{Err: err} }
}

// View implements tea.Model
func (d *Dashboard) View() string {
	var sb strings.Builder

	sb.WriteString(d.renderTabs())
	sb.WriteString("\n\n")

	switch d.tab {
	case TabOverview:
		sb.WriteString(d.viewOverview())
	case TabPosts:
		sb.WriteString(d.viewPosts())
	case TabClients:
		sb.WriteString(d.viewClients())
	}

	if d.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(d.notice, d.noticeLevel))
	}

	return lipgloss.NewStyle().
		Width(d.width).
		MaxHeight(max(1, d.height)).
		Render(sb.String())
}

func (d *Dashboard) renderTabs() string {
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s %s", i+1, tabIcons[i].String(), name)
		if Tab(i) == d.tab {
			tabs = append(tabs, styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// errorLine renders a load failure inline; the rest of the tab stays usable
func errorLine(what string, err error) string {
	return widgets.StatusText(fmt.Sprintf("Could not load %s: %v", what, err), widgets.StatusCritical)
}

// countLine renders "<n> <noun>" for a list header
func countLine(n int, noun string) string {
	return styles.ValueStyle.Render(fmt.Sprintf("%d %s", n, noun))
}
