package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/remoctl/internal/climate"
	"github.com/dokzlo13/remoctl/internal/ledger"
)

type fakeCommander struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeCommander) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeCommander) PowerOff(ctx context.Context) error { return f.record("off") }
func (f *fakeCommander) StepUp(ctx context.Context) error   { return f.record("up") }
func (f *fakeCommander) StepDown(ctx context.Context) error { return f.record("down") }
func (f *fakeCommander) Refresh(ctx context.Context) error  { return f.record("refresh") }
func (f *fakeCommander) SetMode(ctx context.Context, mode climate.Mode) error {
	return f.record("mode:" + string(mode))
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(cmd Commander) (Model, *climate.Session) {
	session := climate.NewSession()
	return New(context.Background(), "Bedroom", session, cmd, nil, nil), session
}

func TestKeysTriggerIntents(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runeKey("a"), "mode:auto"},
		{runeKey("c"), "mode:cool"},
		{runeKey("w"), "mode:warm"},
		{runeKey("d"), "mode:dry"},
		{runeKey("+"), "up"},
		{tea.KeyMsg{Type: tea.KeyUp}, "up"},
		{runeKey("-"), "down"},
		{runeKey("o"), "off"},
		{runeKey("r"), "refresh"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			fc := &fakeCommander{}
			m, _ := newTestModel(fc)

			_, cmd := m.Update(tt.key)
			require.NotNil(t, cmd)

			msg := cmd()
			done, ok := msg.(intentDoneMsg)
			require.True(t, ok)
			assert.NoError(t, done.err)
			assert.Equal(t, []string{tt.want}, fc.calls)
		})
	}
}

func TestRepeatedIntentIgnoredWhileInFlight(t *testing.T) {
	fc := &fakeCommander{}
	m, _ := newTestModel(fc)

	next, cmd := m.Update(runeKey("o"))
	require.NotNil(t, cmd)

	_, again := next.Update(runeKey("o"))
	assert.Nil(t, again)

	// A different intent still goes through
	_, other := next.Update(runeKey("r"))
	assert.NotNil(t, other)
}

func TestIntentErrorIsRendered(t *testing.T) {
	fc := &fakeCommander{err: errors.New("status 500")}
	m, _ := newTestModel(fc)

	next, cmd := m.Update(runeKey("o"))
	next, _ = next.Update(cmd())

	view := next.View()
	assert.Contains(t, view, "power off: status 500")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(&fakeCommander{})
	_, cmd := m.Update(runeKey("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestViewRendersSession(t *testing.T) {
	m, session := newTestModel(&fakeCommander{})
	assert.Contains(t, m.View(), "Loading")

	session.ApplySnapshot(climate.Snapshot{
		RoomTemperature:   24.5,
		Power:             climate.PowerOn,
		Mode:              climate.ModeCool,
		TargetTemperature: 26,
	}, time.Now())

	next, _ := m.Update(stateChangedMsg{})
	view := next.View()

	assert.NotContains(t, view, "Loading")
	assert.Contains(t, view, "Bedroom")
	assert.Contains(t, view, "24.5℃")
	assert.Contains(t, view, "ON")
	assert.Contains(t, view, "cool")
	assert.Contains(t, view, "26℃")
}

func TestViewAutoSentinel(t *testing.T) {
	m, session := newTestModel(&fakeCommander{})
	session.ApplySnapshot(climate.Snapshot{Power: climate.PowerOff, Mode: climate.ModeAuto}, time.Now())
	session.FailSync("failed to fetch devices: unauthorized")

	next, _ := m.Update(stateChangedMsg{})
	view := next.View()

	assert.Contains(t, view, "--")
	assert.Contains(t, view, "OFF")
	assert.Contains(t, view, "unauthorized")
}

func TestStateChangesFromSubscription(t *testing.T) {
	session := climate.NewSession()
	changes, unsubscribe := session.Subscribe()
	defer unsubscribe()

	m := New(context.Background(), "Bedroom", session, &fakeCommander{}, changes, func(limit int) ([]*ledger.Entry, error) {
		return []*ledger.Entry{{Record: ledger.Record{Type: ledger.EventCommandCompleted}, Timestamp: time.Now()}}, nil
	})

	session.SetTarget(23.5)

	msg := m.waitForChange()()
	assert.Equal(t, stateChangedMsg{}, msg)

	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	view := next.View()
	assert.Contains(t, view, string(ledger.EventCommandCompleted))
}
