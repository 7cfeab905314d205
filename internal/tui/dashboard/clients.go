// ABOUTME: Clients tab listing tenant domains, with a form to add one
// ABOUTME: The create form is a huh form that captures the keyboard while open

package dashboard

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tui/icons"
	"github.com/markalston/blogpanel/internal/tui/styles"
)

// ClientsPageLimit is how many clients the clients tab requests
const ClientsPageLimit = 100

type clientsLoadedMsg struct {
	clients []client.Tenant
	err     error
}

type clientCreatedMsg struct {
	tenant *client.Tenant
	err    error
}

func (d *Dashboard) loadClients() tea.Cmd {
	d.clientsLoading = true
	api := d.api
	return func() tea.Msg {
		tenants, err := api.ListClients(context.Background(), &client.ListClientsParams{Limit: ClientsPageLimit})
		return clientsLoadedMsg{clients: tenants, err: err}
	}
}

func clientColumns(width int) []table.Column {
	id, created := 6, 16
	rest := max(30, width-id-created-10)
	name := rest / 2
	return []table.Column{
		{Title: "ID", Width: id},
		{Title: "Name", Width: name},
		{Title: "Domain", Width: rest - name},
		{Title: "Created", Width: created},
	}
}

func (d *Dashboard) refreshClientRows() {
	now := d.now()
	rows := make([]table.Row, 0, len(d.clients))
	for _, c := range d.clients {
		created := "-"
		if !c.CreatedAt.IsZero() {
			created = humanize.RelTime(c.CreatedAt.Time, now, "ago", "from now")
		}
		rows = append(rows, table.Row{strconv.Itoa(c.ID), c.Name, c.Domain, created})
	}
	d.clientsTable.SetRows(rows)
}

func (d *Dashboard) openCreateForm() tea.Cmd {
	d.newName, d.newDomain = "", ""
	d.notice = ""
	d.createForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Acme Corp").
				Value(&d.newName).
				Validate(notBlank("name")),
			huh.NewInput().
				Title("Domain").
				Placeholder("acme.com").
				Value(&d.newDomain).
				Validate(notBlank("domain")),
		).Title(icons.New.String() + " New Client").
			Description("Esc to cancel"),
	).WithTheme(styles.FormTheme())
	return d.createForm.Init()
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func (d *Dashboard) updateCreateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		d.createForm = nil
		return d, nil
	}

	form, cmd := d.createForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.createForm = f
	}

	switch d.createForm.State {
	case huh.StateCompleted:
		d.createForm = nil
		input := client.TenantInput{Name: d.newName, Domain: d.newDomain}
		api := d.api
		return d, func() tea.Msg {
			tenant, err := api.CreateClient(context.Background(), input)
			return clientCreatedMsg{tenant: tenant, err: err}
		}
	case huh.StateAborted:
		d.createForm = nil
		return d, nil
	}
	return d, cmd
}

func (d *Dashboard) viewClients() string {
	if d.createForm != nil {
		return d.createForm.View()
	}

	var sb strings.Builder
	sb.WriteString(styles.Help.UnsetMarginTop().Render("n to add a client"))
	if len(d.clients) > 0 {
		sb.WriteString("  " + countLine(len(d.clients), "clients"))
	}
	sb.WriteString("\n")

	switch {
	case d.clientsErr != nil:
		sb.WriteString(errorLine("clients", d.clientsErr))
	case d.clientsLoading && len(d.clients) == 0:
		sb.WriteString(styles.Help.Render("Loading clients..."))
	case len(d.clients) == 0:
		sb.WriteString(styles.Help.Render("No clients yet."))
	default:
		sb.WriteString(d.clientsTable.View())
	}
	return sb.String()
}
