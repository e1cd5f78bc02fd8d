package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/typerefl/refl"
	"github.com/wippyai/typerefl/typegraph"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the descriptor's types interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return usagef("browse needs an interactive terminal; use inspect or describe instead")
			}
			p := tea.NewProgram(newBrowseModel(a), tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			_, err := p.Run()
			return err
		},
	}
}

type browseModel struct {
	err      error
	r        *refl.Reflector
	app      *app
	source   string
	detail   string
	types    []typeInfo
	visible  []typeInfo
	filter   textinput.Model
	selected int
	state    browseState
}

type typeInfo struct {
	name     string
	category string
	id       typegraph.TypeID
}

type browseState int

const (
	stateSelectType browseState = iota
	stateFilter
	stateShowDetails
)

type loadedMsg struct {
	err   error
	r     *refl.Reflector
	types []typeInfo
}

func newBrowseModel(a *app) *browseModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "name or category"
	ti.Width = 40
	return &browseModel{
		app:    a,
		source: a.cfg.GetString(cfgKeyDescriptor),
		filter: ti,
		state:  stateSelectType,
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadTypes
}

func (m *browseModel) loadTypes() tea.Msg {
	r, err := m.app.reflector()
	if err != nil {
		return loadedMsg{err: err}
	}
	ids := r.Types()
	types := make([]typeInfo, 0, len(ids))
	for _, id := range ids {
		types = append(types, typeInfo{id: id, name: r.Name(id), category: r.Kind(id).String()})
	}
	return loadedMsg{r: r, types: types}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateSelectType {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			switch m.state {
			case stateSelectType:
				if len(m.visible) > 0 {
					m.showDetails()
				}
			case stateShowDetails:
				m.state = stateSelectType
				m.detail = ""
				m.err = nil
			}

		case "esc":
			if m.state == stateShowDetails {
				m.state = stateSelectType
				m.detail = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.r = msg.r
		m.types = msg.types
		m.applyFilter()
	}

	return m, nil
}

func (m *browseModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filter.Blur()
		m.state = stateSelectType
		return m, nil
	case "esc":
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		m.state = stateSelectType
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter keeps the types whose name or category contains the filter text.
func (m *browseModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for _, t := range m.types {
		if q == "" || strings.Contains(strings.ToLower(t.name), q) || strings.Contains(t.category, q) {
			m.visible = append(m.visible, t)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browseModel) showDetails() {
	m.detail, m.err = describeType(m.r, m.visible[m.selected].id, m.app.styles)
	m.state = stateShowDetails
}

func (m *browseModel) View() string {
	st := m.app.styles
	if m.err != nil && m.state != stateShowDetails {
		return st.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.r == nil {
		return "Loading descriptor..."
	}

	var b strings.Builder

	b.WriteString(st.title.Render("Type Browser"))
	b.WriteString(" ")
	b.WriteString(m.source)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectType, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString("No matching types.\n")
		}
		for i, t := range m.visible {
			if i == m.selected {
				b.WriteString(st.selected.Render("> " + m.formatType(t, false)))
			} else {
				b.WriteString("  " + m.formatType(t, true))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(st.help.Render("enter apply • esc clear"))
		} else {
			b.WriteString(st.help.Render("↑/↓ select • enter details • / filter • q quit"))
		}

	case stateShowDetails:
		if m.err != nil {
			b.WriteString(st.err.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.detail)
		}
		b.WriteString("\n")
		b.WriteString(st.help.Render("enter back • q quit"))
	}

	return b.String()
}

func (m *browseModel) formatType(t typeInfo, styled bool) string {
	if !styled {
		return fmt.Sprintf("#%-4d %s %s", t.id, t.name, t.category)
	}
	st := m.app.styles
	return fmt.Sprintf("#%-4d %s %s", t.id, st.name.Render(t.name), st.typ.Render(t.category))
}
