// ABOUTME: Sign-in screen as a bubbletea model wrapping a huh form
// ABOUTME: Emits SubmitMsg with credentials; the app performs the login

package login

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tui/icons"
	"github.com/markalston/blogpanel/internal/tui/styles"
)

// SubmitMsg is sent when the user submits the form
type SubmitMsg struct {
	Credentials client.Credentials
}

// Login is the sign-in screen
type Login struct {
	form      *huh.Form
	username  string
	password  string
	errMsg    string
	width     int
	submitted bool // the completed form has already been handed off
}

// New creates a sign-in form pre-filled with username
func New(username string) *Login {
	l := &Login{username: username}
	l.form = l.createForm()
	return l
}

func (l *Login) createForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&l.username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password).
				Validate(required("password")),
		).Title("Sign In"),
	).WithTheme(styles.FormTheme())
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return l.form.Init()
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		l.width = ws.Width
	}
	// A completed form stays completed; it is only submitted once
	if l.submitted {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		creds := client.Credentials{Username: strings.TrimSpace(l.username), Password: l.password}
		// The password is not kept once it has been handed off
		l.password = ""
		l.submitted = true
		return l, func() tea.Msg { return SubmitMsg{Credentials: creds} }
	}

	return l, cmd
}

// Fail resets the form after a rejected attempt, keeping the username
func (l *Login) Fail(err error) tea.Cmd {
	l.errMsg = Describe(err)
	l.password = ""
	l.submitted = false
	l.form = l.createForm()
	return l.form.Init()
}

// Reset shows a fresh form with an optional notice, such as an expired session
func (l *Login) Reset(notice string) tea.Cmd {
	l.errMsg = notice
	l.password = ""
	l.submitted = false
	l.form = l.createForm()
	return l.form.Init()
}

// Error returns the message currently shown above the form
func (l *Login) Error() string {
	return l.errMsg
}

// View implements tea.Model
func (l *Login) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Login.String() + " Blog Panel"))
	sb.WriteString("\n")
	if l.errMsg != "" {
		box := lipgloss.NewStyle().
			Foreground(styles.Danger).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.Danger).
			Padding(0, 1)
		sb.WriteString(box.Render(l.errMsg))
		sb.WriteString("\n\n")
	}
	sb.WriteString(l.form.View())
	return sb.String()
}

// Describe turns a login failure into the message shown to the user
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *client.RequestError
	var netErr *client.NetworkError
	var valErr *client.ValidationError
	switch {
	case client.IsAuthError(err):
		return client.InvalidCredentialsMessage
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "The server took too long to respond. Try again."
		}
		return "Cannot reach the server. Check your connection and try again."
	case errors.As(err, &reqErr) && reqErr.Message != "":
		return reqErr.Message
	default:
		return "Sign in failed. Try again."
	}
}
