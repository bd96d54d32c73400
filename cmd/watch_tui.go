// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/hottoh-bridge/pkg/api"
	"github.com/Thermoquad/hottoh-bridge/pkg/bridge"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	minPowerLevel = 0
	maxPowerLevel = 10
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type watchKeyMap struct {
	Power key.Binding
	Eco   key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Power, k.Eco, k.Up, k.Down, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var watchKeys = watchKeyMap{
	Power: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "on/off")),
	Eco:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "eco")),
	Up:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "power up")),
	Down:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "power down")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type eventEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type watchModel struct {
	client  *bridgeClient
	url     string
	keys    watchKeyMap
	help    help.Model
	spinner spinner.Model

	connected  bool
	hasState   bool
	lastUpdate time.Time
	state      bridge.State
	status     bridge.Status

	eventLog      []eventEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

// Messages
type stateMsg struct {
	msg api.StreamMessage
}
type streamOpenMsg struct{}
type streamLostMsg struct {
	err error
}
type eventMsg struct {
	text    string
	isError bool
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

func initialWatchModel(client *bridgeClient, url string) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return watchModel{
		client:        client,
		url:           url,
		keys:          watchKeys,
		help:          help.New(),
		spinner:       s,
		eventLog:      make([]eventEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case streamOpenMsg:
		m.connected = true
		m.addLogEntry("Stream connected", false)

	case streamLostMsg:
		if m.connected {
			m.addLogEntry(fmt.Sprintf("Stream lost: %v", msg.err), true)
		} else if len(m.eventLog) == 0 || m.eventLog[len(m.eventLog)-1].message != msg.err.Error() {
			m.addLogEntry(msg.err.Error(), true)
		}
		m.connected = false

	case stateMsg:
		m.hasState = true
		m.lastUpdate = time.Now()
		m.state = msg.msg.State
		m.status = msg.msg.Status

	case eventMsg:
		m.addLogEntry(msg.text, msg.isError)
	}

	return m, nil
}

func (m watchModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Power):
		p0 := m.state.Page0
		if p0 == nil {
			m.addLogEntry("No stove data yet", true)
			return m, nil
		}
		m.addLogEntry(fmt.Sprintf("Turning stove %s", onOffLabel(!p0.StoveOn)), false)
		return m, postCommand(m.client, "/dat/set_on_off", fmt.Sprintf(`{"value":%t}`, !p0.StoveOn))

	case key.Matches(msg, m.keys.Eco):
		p0 := m.state.Page0
		if p0 == nil {
			m.addLogEntry("No stove data yet", true)
			return m, nil
		}
		m.addLogEntry(fmt.Sprintf("Turning eco mode %s", onOffLabel(!p0.EcoMode)), false)
		return m, postCommand(m.client, "/dat/set_eco_mode", fmt.Sprintf(`{"value":%t}`, !p0.EcoMode))

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		p0 := m.state.Page0
		if p0 == nil {
			m.addLogEntry("No stove data yet", true)
			return m, nil
		}
		delta := 1
		if key.Matches(msg, m.keys.Down) {
			delta = -1
		}
		level, ok := nextPowerLevel(p0.PowerSet, delta)
		if !ok {
			m.addLogEntry(fmt.Sprintf("Power level already at %d", p0.PowerSet), false)
			return m, nil
		}
		m.addLogEntry(fmt.Sprintf("Setting power level %d", level), false)
		return m, postCommand(m.client, "/dat/set_power_level", fmt.Sprintf(`{"value":%d}`, level))
	}
	return m, nil
}

// nextPowerLevel steps the power set-point, reporting false at the limits
func nextPowerLevel(current uint16, delta int) (int, bool) {
	level := int(current) + delta
	if level < minPowerLevel || level > maxPowerLevel {
		return int(current), false
	}
	return level, true
}

func onOffLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (m *watchModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("HOTTOH-BRIDGE - WATCH"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Bridge: " + m.url))
	s.WriteString("\n\n")

	if !m.connected {
		s.WriteString(warningStyle.Render(m.spinner.View() + " Connecting to bridge..."))
		s.WriteString("\n\n")
	} else if !m.hasState {
		s.WriteString(warningStyle.Render(m.spinner.View() + " Waiting for state..."))
		s.WriteString("\n\n")
	}

	if m.hasState {
		stove := boxStyle.Render(m.renderStove())
		bridgeBox := boxStyle.Render(m.renderBridge())
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stove, " ", bridgeBox))
		s.WriteString("\n\n")
	}

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(m.renderEventLog()))
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

func (m watchModel) renderStove() string {
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(label), valueStyle.Render(value)))
	}

	if inf := m.state.Info; inf != nil {
		field("Stove:", fmt.Sprintf("%s (fw %s, wifi %s)", inf.Hostname, inf.Version, inf.Signal))
	}

	p0 := m.state.Page0
	if p0 == nil {
		b.WriteString(headerStyle.Render("(no data page yet)"))
		return b.String()
	}

	field("State:", p0.StoveState.String())
	field("Power:", fmt.Sprintf("%s, eco %s", onOffLabel(p0.StoveOn), onOffLabel(p0.EcoMode)))
	field("Level:", fmt.Sprintf("%d (set %d, %d-%d)", p0.PowerLevel, p0.PowerSet, p0.PowerMin, p0.PowerMax))
	field("Room:", fmt.Sprintf("%s (set %s)", p0.AmbientT1, p0.AmbientT1Set))
	field("Smoke:", p0.SmokeT.String())
	if p0.StoveType.TempWaterEnabled {
		field("Water:", fmt.Sprintf("%s (set %s)", p0.Water, p0.WaterSet))
	}
	field("Fans:", fmt.Sprintf("smoke %d, 1: %d, 2: %d, 3: %d", p0.FanSmoke, p0.Fan1, p0.Fan2, p0.Fan3))

	if p1 := m.state.Page1; p1 != nil {
		field("Probes:", fmt.Sprintf("%s / %s / %s", p1.Temperature1, p1.Temperature2, p1.Temperature3))
	}
	if p2 := m.state.Page2; p2 != nil {
		field("Puffer:", fmt.Sprintf("%s, boiler %s, dhw %s", p2.Puffer, p2.Boiler, p2.DHW))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m watchModel) renderBridge() string {
	st := m.status
	stats := st.Statistics

	conn := valueStyle.Render(st.Connection)
	if st.Connection != "connected" {
		conn = errorStyle.Render(st.Connection)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Link:"), conn))
	if st.Session != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Session:"), headerStyle.Render(st.Session)))
	}
	b.WriteString(fmt.Sprintf("%s %d req / %d resp\n", labelStyle.Render("Queued:"), st.PendingRequests, st.PendingResponses))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Frames:"),
		valueStyle.Render(fmt.Sprintf("%d (%.1f/s)", stats.FramesReceived, stats.FrameRate))))

	errText := valueStyle.Render("0")
	if n := stats.Errors(); n > 0 {
		errText = errorStyle.Render(fmt.Sprintf("%d (%.1f/s)", n, stats.ErrorRate))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Errors:"), errText))
	b.WriteString(fmt.Sprintf("%s %d   %s %d\n", labelStyle.Render("Timeouts:"), stats.Timeouts,
		labelStyle.Render("Reconnects:"), stats.Reconnects))
	b.WriteString(headerStyle.Render("Updated " + m.lastUpdate.Format("15:04:05")))
	return b.String()
}

func (m watchModel) renderEventLog() string {
	logHeight := m.height - 20
	if logHeight < 5 {
		logHeight = 5
	}
	if len(m.eventLog) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	start := max(len(m.eventLog)-logHeight, 0)
	var b strings.Builder
	for _, entry := range m.eventLog[start:] {
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05"))
		if entry.isError {
			b.WriteString(fmt.Sprintf("%s %s\n", timestamp, errorStyle.Render("✗ "+entry.message)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", timestamp, warningStyle.Render("ℹ "+entry.message)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var _ tea.Model = watchModel{}
