// Package tui renders the climate session in the terminal and maps keys to user intents.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dokzlo13/remoctl/internal/climate"
	"github.com/dokzlo13/remoctl/internal/ledger"
)

const historyLimit = 5

// Commander is the set of user intents the UI can trigger
type Commander interface {
	PowerOff(ctx context.Context) error
	SetMode(ctx context.Context, mode climate.Mode) error
	StepUp(ctx context.Context) error
	StepDown(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// HistoryFunc lists the newest ledger entries
type HistoryFunc func(limit int) ([]*ledger.Entry, error)

// stateChangedMsg is delivered after the session changed.
type stateChangedMsg struct{}

// intentDoneMsg is delivered when a user intent finished.
type intentDoneMsg struct {
	intent string
	err    error
}

// Model is the root bubbletea model.
type Model struct {
	ctx       context.Context
	title     string
	session   *climate.Session
	commander Commander
	history   HistoryFunc
	changes   <-chan struct{}

	state    climate.State
	entries  []*ledger.Entry
	inflight map[string]bool
	lastErr  string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int
}

// New creates a new Model. changes is a subscription to session changes; history may be nil.
func New(ctx context.Context, title string, session *climate.Session, commander Commander, changes <-chan struct{}, history HistoryFunc) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return Model{
		ctx:       ctx,
		title:     title,
		session:   session,
		commander: commander,
		history:   history,
		changes:   changes,
		state:     session.State(),
		inflight:  make(map[string]bool),
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case intentDoneMsg:
		delete(m.inflight, msg.intent)
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = fmt.Sprintf("%s: %v", msg.intent, msg.err)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) refresh() {
	m.state = m.session.State()
	if m.history == nil {
		return
	}
	if entries, err := m.history(historyLimit); err == nil {
		m.entries = entries
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Auto):
		return m.setMode(climate.ModeAuto)
	case key.Matches(msg, m.keys.Cool):
		return m.setMode(climate.ModeCool)
	case key.Matches(msg, m.keys.Warm):
		return m.setMode(climate.ModeWarm)
	case key.Matches(msg, m.keys.Dry):
		return m.setMode(climate.ModeDry)
	case key.Matches(msg, m.keys.Up):
		return m.run("step up", m.commander.StepUp)
	case key.Matches(msg, m.keys.Down):
		return m.run("step down", m.commander.StepDown)
	case key.Matches(msg, m.keys.PowerOff):
		return m.run("power off", m.commander.PowerOff)
	case key.Matches(msg, m.keys.Refresh):
		return m.run("refresh", m.commander.Refresh)
	}
	return m, nil
}

func (m Model) setMode(mode climate.Mode) (tea.Model, tea.Cmd) {
	return m.run("mode "+string(mode), func(ctx context.Context) error {
		return m.commander.SetMode(ctx, mode)
	})
}

// run executes an intent off the update loop. Intents are not serialized;
// only a repeat of the same intent is ignored while it is in flight.
func (m Model) run(intent string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	if m.inflight[intent] {
		return m, nil
	}
	inflight := make(map[string]bool, len(m.inflight)+1)
	for k, v := range m.inflight {
		inflight[k] = v
	}
	inflight[intent] = true
	m.inflight = inflight

	ctx := m.ctx
	return m, func() tea.Msg {
		return intentDoneMsg{intent: intent, err: fn(ctx)}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	st := m.state
	if st.Loading {
		b.WriteString(m.spinner.View() + " Loading data...\n\n")
	}

	b.WriteString(row("Room", fmt.Sprintf("%s℃", climate.FormatTemperature(st.RoomTemperature))))
	b.WriteString(row("Power", renderPower(st.Power)))
	b.WriteString(row("Mode", string(st.Mode)))
	b.WriteString(row("Target", renderTarget(st)))

	if !st.SyncedAt.IsZero() {
		b.WriteString(dimStyle.Render("synced " + st.SyncedAt.Format("15:04:05")))
		b.WriteString("\n")
	}

	if len(m.inflight) > 0 {
		intents := make([]string, 0, len(m.inflight))
		for intent := range m.inflight {
			intents = append(intents, intent)
		}
		b.WriteString(dimStyle.Render("sending: " + strings.Join(intents, ", ")))
		b.WriteString("\n")
	}

	if st.SyncError != "" {
		b.WriteString(errorStyle.Render(st.SyncError))
		b.WriteString("\n")
	}
	if m.lastErr != "" {
		b.WriteString(errorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	if len(m.entries) > 0 {
		b.WriteString("\n")
		for _, e := range m.entries {
			b.WriteString(dimStyle.Render(fmt.Sprintf("%s %s", e.Timestamp.Local().Format("15:04:05"), e.Type)))
			b.WriteString("\n")
		}
	}

	panel := panelStyle.Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, panel, m.help.View(m.keys)) + "\n"
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func renderPower(p climate.Power) string {
	if p == climate.PowerOn {
		return powerOnStyle.Render("ON")
	}
	return powerOffStyle.Render("OFF")
}

func renderTarget(st climate.State) string {
	if st.Mode == climate.ModeAuto && st.TargetTemperature == 0 {
		return "--"
	}
	if st.Mode == climate.ModeAuto {
		return fmt.Sprintf("%+g (auto offset)", st.TargetTemperature)
	}
	return climate.FormatTemperature(st.TargetTemperature) + "℃"
}
