package tui

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-desk/core/backend"
)

type agentItem struct {
	agent backend.Agent
}

func (i agentItem) Title() string {
	if i.agent.Name == "" {
		return i.agent.ID
	}
	return i.agent.Name
}

func (i agentItem) Description() string { return i.agent.Description }
func (i agentItem) FilterValue() string { return i.agent.Name + " " + i.agent.ID }

// agentPicker is the modal agent list. It is open while visible is set.
type agentPicker struct {
	list    list.Model
	visible bool
}

func newAgentPicker(agents []backend.Agent) agentPicker {
	sorted := slices.Clone(agents)
	slices.SortFunc(sorted, func(a, b backend.Agent) int { return cmp.Compare(a.ID, b.ID) })

	items := make([]list.Item, 0, len(sorted))
	for _, agent := range sorted {
		items = append(items, agentItem{agent: agent})
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Agents"
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return agentPicker{list: l}
}

func (p *agentPicker) open(current string) {
	p.visible = true
	p.list.ResetFilter()
	for i, item := range p.list.Items() {
		if item.(agentItem).agent.ID == current {
			p.list.Select(i)
			break
		}
	}
}

func (p *agentPicker) close() { p.visible = false }

func (p *agentPicker) setSize(width, height int) { p.list.SetSize(width, height) }

// filtering reports whether keys are going to the filter input.
func (p *agentPicker) filtering() bool {
	return p.list.FilterState() == list.Filtering
}

func (p *agentPicker) selected() (backend.Agent, bool) {
	item, ok := p.list.SelectedItem().(agentItem)
	return item.agent, ok
}

func (p *agentPicker) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return cmd
}

func (p *agentPicker) view() string { return p.list.View() }

func (p *agentPicker) empty() bool { return len(p.list.Items()) == 0 }
