// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/oistat/pkg/create2"
	"github.com/Thermoquad/oistat/pkg/oi"
	"github.com/Thermoquad/oistat/pkg/telemetry"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	defaultSpeed   = 200  // mm/s
	lightBumperMax = 4095 // full scale of a light bumper signal
)

// Focus states
const (
	focusDrivePad = iota
	focusActionList
	focusSpeedInput
	focusCount
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// errorLogEntry is one line of the event log
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// action is an entry of the action list
type action struct {
	name string
	desc string
	run  func(d *create2.Driver) (string, error)
}

// Implement list.Item interface
func (a action) Title() string       { return a.name }
func (a action) Description() string { return a.desc }
func (a action) FilterValue() string { return a.name }

func startAction(name string, sel oi.ModeSelect) action {
	return action{
		name: name,
		desc: fmt.Sprintf("Enter %s mode", sel.Target()),
		run: func(d *create2.Driver) (string, error) {
			return "", d.Startup(sel)
		},
	}
}

func controlActions() []list.Item {
	return []list.Item{
		startAction("Passive", oi.NoModeSelect),
		startAction("Safe", oi.SelectSafe),
		startAction("Full", oi.SelectFull),
		action{name: "Seek Dock", desc: "Return to the charging dock", run: func(d *create2.Driver) (string, error) {
			return "", d.SeekDock()
		}},
		action{name: "Stop OI", desc: "Stop the Open Interface", run: func(d *create2.Driver) (string, error) {
			return "", d.Stop()
		}},
		action{name: "Power Down", desc: "Power the robot down", run: func(d *create2.Driver) (string, error) {
			return "", d.PowerDown()
		}},
		action{name: "Reset", desc: "Soft reset (takes a few seconds)", run: func(d *create2.Driver) (string, error) {
			return d.Reset()
		}},
	}
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	// Connection manager (for issuing commands and reconnection)
	connMgr  *connectionManager
	connInfo string

	// Widgets
	actions      list.Model
	speedInput   textinput.Model
	batteryGauge progress.Model
	focusedField int

	// Robot state as last reported
	mode        oi.DeviceMode
	sample      telemetry.Sample
	haveSample  bool
	lastPollErr error
	motion      string
	busy        bool

	// Monitoring
	stats         oi.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type sensorMsg struct {
	sample telemetry.Sample
	err    error
	stats  oi.Statistics
	mode   oi.DeviceMode
}

type actionResultMsg struct {
	name   string
	output string
	err    error
	mode   oi.DeviceMode
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(connMgr *connectionManager, connInfo string) controlModel {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(defaultSpeed)
	ti.CharLimit = 3
	ti.Width = 6

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	actions := list.New(controlActions(), delegate, 30, 16)
	actions.Title = "Actions"
	actions.SetShowStatusBar(false)
	actions.SetShowHelp(false)
	actions.SetFilteringEnabled(false)

	return controlModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		actions:       actions,
		speedInput:    ti,
		batteryGauge:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		focusedField:  focusDrivePad,
		mode:          oi.ModeOff,
		motion:        "stopped",
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return nil
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case sensorMsg:
		m.stats = msg.stats
		m.mode = msg.mode
		if msg.err != nil {
			// Log only transitions so a dead link does not flood the log
			if m.lastPollErr == nil {
				m.addLogEntry(fmt.Sprintf("Poll failed: %v", msg.err), true)
			}
			m.lastPollErr = msg.err
		} else {
			if m.lastPollErr != nil {
				m.addLogEntry("Polling recovered", false)
			}
			m.lastPollErr = nil
			m.sample = msg.sample
			m.haveSample = true
		}

	case actionResultMsg:
		m.busy = false
		m.mode = msg.mode
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s: %v", msg.name, msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("%s -> %s", msg.name, msg.mode), false)
		}
		for _, line := range strings.Split(strings.TrimSpace(msg.output), "\n") {
			if line != "" {
				m.addLogEntry(line, false)
			}
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.motion = "stopped"
		m.addLogEntry("Connection lost, reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.mode = oi.ModeOff
		m.addLogEntry("Reconnected: "+msg.connInfo, false)
	}

	return m, nil
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil
	}

	switch m.focusedField {
	case focusDrivePad:
		return m.handleDriveKey(msg.String())

	case focusActionList:
		if msg.String() == "enter" {
			return m.runSelectedAction()
		}
		var cmd tea.Cmd
		m.actions, cmd = m.actions.Update(msg)
		return m, cmd

	case focusSpeedInput:
		var cmd tea.Cmd
		m.speedInput, cmd = m.speedInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *controlModel) cycleFocus(delta int) *controlModel {
	m.focusedField = (m.focusedField + delta + focusCount) % focusCount

	if m.focusedField == focusSpeedInput {
		m.speedInput.Focus()
	} else {
		m.speedInput.Blur()
	}

	return m
}

// speed returns the configured speed in mm/s, clamped to the robot's range
func (m controlModel) speed() int16 {
	v, err := strconv.Atoi(strings.TrimSpace(m.speedInput.Value()))
	if err != nil || v <= 0 {
		return defaultSpeed
	}
	if v > oi.MaxVelocity {
		return oi.MaxVelocity
	}
	return int16(v)
}

func (m *controlModel) handleDriveKey(key string) (tea.Model, tea.Cmd) {
	speed := m.speed()

	var velocity, radius int16
	switch key {
	case "up", "w":
		velocity, radius = speed, oi.RadiusStraight
		m.motion = fmt.Sprintf("forward %d mm/s", speed)
	case "down", "s":
		velocity, radius = -speed, oi.RadiusStraight
		m.motion = fmt.Sprintf("reverse %d mm/s", speed)
	case "left", "a":
		velocity, radius = speed, oi.RadiusSpinCounterClockwise
		m.motion = "spin left"
	case "right", "d":
		velocity, radius = speed, oi.RadiusSpinClockwise
		m.motion = "spin right"
	case " ":
		m.motion = "stopped"
	default:
		return m, nil
	}

	return m, m.issue("Drive", func(d *create2.Driver) (string, error) {
		return "", d.Drive(velocity, radius)
	})
}

func (m *controlModel) runSelectedAction() (tea.Model, tea.Cmd) {
	selected, ok := m.actions.SelectedItem().(action)
	if !ok {
		return m, nil
	}
	if m.busy {
		m.addLogEntry("Busy, wait for the previous action", true)
		return m, nil
	}
	m.busy = true
	m.motion = "stopped"
	return m, m.issue(selected.name, selected.run)
}

// issue runs fn on the driver off the UI goroutine
func (m *controlModel) issue(name string, fn func(d *create2.Driver) (string, error)) tea.Cmd {
	// Don't allow commands while connection is lost
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return nil
	}

	driver := m.connMgr.getDriver()
	return func() tea.Msg {
		output, err := fn(driver)
		return actionResultMsg{name: name, output: output, err: err, mode: driver.Mode()}
	}
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("OISTAT CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch", connStatus)))
	s.WriteString("\n\n")

	// Action list (left) and drive panel (right)
	leftWidth := 32
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 40 {
		rightWidth = 40
	}

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusActionList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	actionPanel := listStyle.Render(m.actions.View())

	driveStyle := boxStyle.Width(rightWidth)
	if m.focusedField != focusActionList {
		driveStyle = focusedBoxStyle.Width(rightWidth)
	}
	drivePanel := driveStyle.Render(m.renderDrivePanel(labelStyle, valueStyle, headerStyle, errorStyle))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, actionPanel, " ", drivePanel))
	s.WriteString("\n")

	s.WriteString(m.renderSensors(labelStyle, valueStyle, errorStyle, headerStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.renderStatisticsBar(labelStyle, valueStyle, errorStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(m.renderEventLog(labelStyle, warningStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderDrivePanel(labelStyle, valueStyle, headerStyle, errorStyle lipgloss.Style) string {
	var s strings.Builder

	modeStyle := valueStyle
	if !m.mode.CanActuate() {
		modeStyle = headerStyle
	}
	s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Mode:"), modeStyle.Render(m.mode.String())))
	s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Motion:"), valueStyle.Render(m.motion)))
	s.WriteString(fmt.Sprintf("%s %s mm/s\n\n", labelStyle.Render("Speed:"), m.speedInput.View()))

	if m.focusedField == focusDrivePad {
		s.WriteString(headerStyle.Render("arrows/wasd=drive space=halt"))
	} else {
		s.WriteString(headerStyle.Render("Tab to the drive pad to drive"))
	}
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("BATTERY"))
	s.WriteString("\n")
	if !m.haveSample {
		s.WriteString(headerStyle.Render("(no data yet)"))
		return s.String()
	}

	bat := m.sample.Battery
	s.WriteString(m.batteryGauge.ViewAs(bat.Percent() / 100))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n",
		labelStyle.Render("Voltage:"), valueStyle.Render(fmt.Sprintf("%.2fV", float64(bat.VoltageMV)/1000)),
		labelStyle.Render("Current:"), valueStyle.Render(fmt.Sprintf("%dmA", bat.CurrentMA)),
		labelStyle.Render("Temp:"), valueStyle.Render(fmt.Sprintf("%d°C", bat.TemperatureC))))
	stateStyle := valueStyle
	if bat.ChargingState == oi.ChargingFault {
		stateStyle = errorStyle
	}
	s.WriteString(fmt.Sprintf("%s %s  %s %s",
		labelStyle.Render("Charge:"), valueStyle.Render(fmt.Sprintf("%d/%d mAh", bat.ChargeMAh, bat.CapacityMAh)),
		labelStyle.Render("State:"), stateStyle.Render(bat.ChargingState.String())))

	return s.String()
}

func (m controlModel) renderSensors(labelStyle, valueStyle, errorStyle, headerStyle, boxStyle lipgloss.Style) string {
	var content strings.Builder
	content.WriteString(labelStyle.Render("SENSORS"))
	content.WriteString("\n")

	if !m.haveSample {
		content.WriteString(headerStyle.Render("Waiting for sensor data..."))
		return boxStyle.Width(m.width - 4).Render(content.String())
	}

	env := m.sample.Sensors
	indicator := func(name string, active bool) string {
		if active {
			return errorStyle.Render(name)
		}
		return headerStyle.Render(name)
	}

	content.WriteString(strings.Join([]string{
		indicator("BUMP-L", env.BumpLeft),
		indicator("BUMP-R", env.BumpRight),
		indicator("DROP-L", env.WheelDropLeft),
		indicator("DROP-R", env.WheelDropRight),
		indicator("CLIFF-L", env.CliffLeft),
		indicator("CLIFF-FL", env.CliffFrontLeft),
		indicator("CLIFF-FR", env.CliffFrontRight),
		indicator("CLIFF-R", env.CliffRight),
		indicator("WALL", env.WallDetected),
		indicator("VWALL", env.VirtualWall),
	}, " "))
	content.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Dirt:"), valueStyle.Render(strconv.Itoa(int(env.DirtLevel)))))

	for i, v := range env.LightBumperSignal {
		width := int(v) * 20 / lightBumperMax
		if width > 20 {
			width = 20
		}
		content.WriteString(fmt.Sprintf("%-13s %s %4d\n",
			oi.LightBumperNames[i],
			valueStyle.Render(strings.Repeat("█", width)+strings.Repeat("░", 20-width)),
			v))
	}

	return boxStyle.Width(m.width - 4).Render(strings.TrimRight(content.String(), "\n"))
}

func (m controlModel) renderStatisticsBar(labelStyle, valueStyle, errorStyle, boxStyle lipgloss.Style) string {
	var validPercent, errorPercent float64
	if m.stats.TotalQueries > 0 {
		validPercent = float64(m.stats.ValidResponses) * 100.0 / float64(m.stats.TotalQueries)
		errorPercent = float64(m.stats.Errors()) * 100.0 / float64(m.stats.TotalQueries)
	}

	errorText := valueStyle.Render("0.0%")
	if errorPercent > 0 {
		errorText = errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Queries:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalQueries)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		labelStyle.Render("Errors:"), errorText,
		labelStyle.Render("Truncated:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Truncated)),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f q/s", m.stats.QueryRate)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderEventLog(labelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 6
	if len(m.errorLog) < logHeight {
		logHeight = len(m.errorLog)
	}
	startIdx := len(m.errorLog) - logHeight

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(strings.TrimRight(s.String(), "\n"))
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m *controlModel) updateListSize() {
	listHeight := m.height / 2
	if listHeight < 8 {
		listHeight = 8
	}
	m.actions.SetSize(28, listHeight)
	m.batteryGauge.Width = m.width/2 - 10
	if m.batteryGauge.Width < 20 {
		m.batteryGauge.Width = 20
	}
}
