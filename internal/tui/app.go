// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Routes between loading, login and dashboard screens from session state

package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/session"
	"github.com/markalston/blogpanel/internal/tui/dashboard"
	"github.com/markalston/blogpanel/internal/tui/icons"
	"github.com/markalston/blogpanel/internal/tui/login"
	"github.com/markalston/blogpanel/internal/tui/styles"
	"github.com/markalston/blogpanel/internal/tui/widgets"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenDashboard
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

// ExpiredNotice is shown on the login screen after a mid-session token rejection
const ExpiredNotice = "Your session has expired. Please sign in again."

// sessionReadyMsg is sent when startup validation of the stored token finishes
type sessionReadyMsg struct {
	err error
}

// sessionChangedMsg signals that the session store changed state
type sessionChangedMsg struct{}

// loginResultMsg is sent when a login attempt completes
type loginResultMsg struct {
	user *client.User
	err  error
}

// App is the root model for the TUI
type App struct {
	store    *session.Store
	api      dashboard.API
	username string
	width    int
	height   int

	spinner   spinner.Model
	pending   bool
	login     *login.Login
	dashboard *dashboard.Dashboard

	changes     chan struct{}
	unsubscribe func()
}

// New creates a new TUI application. username pre-fills the login form.
func New(store *session.Store, api dashboard.API, username string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	a := &App{
		store:    store,
		api:      api,
		username: username,
		spinner:  sp,
		changes:  make(chan struct{}, 1),
	}
	// Coalesce notifications: one pending signal is enough, the handler reads live state
	a.unsubscribe = store.Subscribe(func(session.Snapshot) {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})
	return a
}

// Screen returns the screen currently shown
func (a *App) Screen() Screen {
	if a.pending {
		return ScreenLoading
	}
	switch session.Route(a.store.State(), session.ViewDashboard) {
	case session.ViewDashboard:
		return ScreenDashboard
	case session.ViewLogin:
		return ScreenLogin
	default:
		return ScreenLoading
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.initSession(), a.waitForSession())
}

// waitForSession blocks until the store reports a change
func (a *App) waitForSession() tea.Cmd {
	changes := a.changes
	return func() tea.Msg {
		<-changes
		return sessionChangedMsg{}
	}
}

func (a *App) initSession() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if store.State() != session.Loading {
			return sessionReadyMsg{}
		}
		return sessionReadyMsg{err: store.Init(context.Background())}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.dashboard != nil {
			a.dashboard.SetSize(a.contentWidth(), a.contentHeight())
		}
		if a.login != nil {
			a.login.Update(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if a.Screen() != ScreenLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.Screen() {
		case ScreenLoading:
			if msg.String() == "q" {
				return a, tea.Quit
			}
			return a, nil
		case ScreenLogin:
			return a.updateLogin(msg)
		case ScreenDashboard:
			return a.updateDashboard(msg)
		}

	case sessionReadyMsg:
		cmd := a.enter()
		if a.login != nil {
			switch {
			case msg.err != nil:
				// The stored token could not be checked; say why instead of showing a bare form
				cmd = a.login.Reset(login.Describe(msg.err))
			case a.store.Snapshot().Err != nil:
				cmd = a.login.Reset(ExpiredNotice)
			}
		}
		return a, cmd

	case login.SubmitMsg:
		if a.pending {
			return a, nil
		}
		a.pending = true
		store := a.store
		creds := msg.Credentials
		return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
			user, err := store.Login(context.Background(), creds)
			return loginResultMsg{user: user, err: err}
		})

	case loginResultMsg:
		if errors.Is(msg.err, session.ErrLoginInProgress) {
			// The attempt already in flight will report its own result
			return a, nil
		}
		a.pending = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrAlreadyAuthenticated) {
				return a, a.enter()
			}
			if a.login == nil {
				a.login = login.New(a.username)
			}
			return a, a.login.Fail(msg.err)
		}
		a.username = msg.user.Username
		return a, a.enter()

	case dashboard.SessionExpiredMsg:
		// The screen switches once the store reports the change. Further
		// rejections of the same token are no-ops in Invalidate.
		a.store.Invalidate(msg.Err)
		return a, nil

	case sessionChangedMsg:
		next := a.waitForSession()
		if a.dashboard != nil && a.store.State() == session.Unauthenticated {
			a.dashboard = nil
			a.login = login.New(a.username)
			notice := ""
			if a.store.Snapshot().Err != nil {
				notice = ExpiredNotice
			}
			return a, tea.Batch(next, a.login.Reset(notice))
		}
		return a, next
	}

	// Remaining messages (form cursor blinks, data loads) go to the active child
	switch a.Screen() {
	case ScreenLogin:
		return a.updateLogin(msg)
	case ScreenDashboard:
		if a.dashboard != nil {
			_, cmd := a.dashboard.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

// enter builds the child model for the screen the session now routes to
func (a *App) enter() tea.Cmd {
	switch a.Screen() {
	case ScreenDashboard:
		a.login = nil
		if a.dashboard == nil {
			name := a.username
			if u := a.store.User(); u != nil {
				name = u.Username
			}
			a.dashboard = dashboard.New(a.api, name, a.contentWidth(), a.contentHeight())
			return a.dashboard.Init()
		}
	case ScreenLogin:
		a.dashboard = nil
		if a.login == nil {
			a.login = login.New(a.username)
			return a.login.Init()
		}
	}
	return nil
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.login == nil {
		a.login = login.New(a.username)
		return a, a.login.Init()
	}
	_, cmd := a.login.Update(msg)
	return a, cmd
}

func (a *App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.dashboard == nil {
		return a, a.enter()
	}
	if !a.dashboard.Capturing() {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "l":
			return a, a.logout()
		}
	}
	_, cmd := a.dashboard.Update(msg)
	return a, cmd
}

func (a *App) logout() tea.Cmd {
	// Logout only fails on storage errors; the in-memory session is gone either way
	_ = a.store.Logout()
	a.dashboard = nil
	a.login = login.New(a.username)
	return a.login.Init()
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.Screen() {
	case ScreenLoading:
		content = a.viewLoading()
	case ScreenLogin:
		content = a.viewLogin()
	case ScreenDashboard:
		content = a.viewDashboard()
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewLoading() string {
	label := "Loading..."
	if a.pending {
		label = "Signing in..."
	}
	return styles.Panel.Render(a.spinner.View() + " " + label)
}

func (a *App) viewLogin() string {
	if a.login == nil {
		return ""
	}
	return styles.ActivePanel.Width(min(60, a.frameWidth()-panelPadding)).Render(a.login.View())
}

func (a *App) viewDashboard() string {
	if a.dashboard == nil {
		return styles.Panel.Render("Loading...")
	}
	return styles.ActivePanel.Width(a.frameWidth() - 2).Render(a.dashboard.View())
}

// frameWidth leaves one column free to avoid wrapping on some terminals,
// but never drops below minTerminalWidth
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// contentWidth is the width available inside the dashboard panel
func (a *App) contentWidth() int {
	return a.frameWidth() - 2 - panelPadding - 2
}

// contentHeight calculates the height available for dashboard content
func (a *App) contentHeight() int {
	// Header and footer take 1 line each, plus a newline after the header and
	// before the footer. The ActivePanel border and padding take 4 more.
	return a.height - 8
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := " " + icons.App.String() + " " + titleStyle.Render("Blog Panel") + " "

	rightText := ""
	if user := a.store.User(); user != nil && a.Screen() == ScreenDashboard {
		rightText = " " + icons.User.String() + " " + contextStyle.Render("Welcome, "+user.Username)
		if badge := widgets.RoleBadge(user.Role); badge != "" {
			rightText += " " + badge
		}
		rightText += " "
	}

	fillWidth := max(0, width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText)) // -4 for ╭─ and ─╮
	fill := borderStyle.Render(strings.Repeat("─", fillWidth))

	return borderStyle.Render("╭─") + leftText + fill + rightText + borderStyle.Render("─╮")
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := styles.KeyStyle
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch a.Screen() {
	case ScreenLoading:
		shortcuts = []string{"q Quit"}
	case ScreenLogin:
		shortcuts = []string{"Tab Next", "Enter Sign-in", "ctrl+c Quit"}
	case ScreenDashboard:
		if a.dashboard != nil && a.dashboard.Capturing() {
			shortcuts = []string{"Enter Save", "Esc Cancel"}
			break
		}
		shortcuts = []string{"1-3 Tabs", "r Refresh"}
		if a.dashboard != nil {
			switch a.dashboard.Tab() {
			case dashboard.TabPosts:
				shortcuts = append(shortcuts, "f Filter")
			case dashboard.TabClients:
				shortcuts = append(shortcuts, "n New")
			}
		}
		shortcuts = append(shortcuts, "l Logout", "q Quit")
	}

	styled := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
	}
	leftText := " " + strings.Join(styled, "  ") + " "

	rightText := ""
	if a.dashboard != nil && a.Screen() == ScreenDashboard {
		if updated := a.dashboard.LastUpdate(); !updated.IsZero() {
			rightText = " " + statusStyle.Render("Updated "+formatTimeSince(updated)) + " "
		}
	}

	fillWidth := max(0, width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText)) // -4 for ╰─ and ─╯
	fill := borderStyle.Render(strings.Repeat("─", fillWidth))

	return borderStyle.Render("╰─") + leftText + fill + rightText + borderStyle.Render("─╯")
}

// formatTimeSince formats the time since t in human-readable form
func formatTimeSince(t time.Time) string {
	if time.Since(t) < 5*time.Second {
		return "just now"
	}
	return humanize.Time(t)
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and blocks until the user quits or ctx is canceled
func Run(ctx context.Context, store *session.Store, api dashboard.API, username string) error {
	app := New(store, api, username)
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	app.unsubscribe()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
