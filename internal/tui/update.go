package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qrsentry/qrsentry/internal/scan"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // tea.Model contract
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(x)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(x)
		return m, cmd

	case stateTickMsg:
		m.scanning = m.ctrl.Scanning()
		m.dispatching = m.ctrl.Dispatching()
		return m, m.stateTick()

	case resultMsg:
		m.result = x.Result
		return m, m.listenForResults()

	case readyMsg:
		switch x.Cap {
		case scan.CapDecoder:
			m.scanReady = x.Err == nil
			m.scanGateErr = x.Err
		case scan.CapGenerator:
			m.genReady = x.Err == nil
			m.genGateErr = x.Err
		}
		return m, nil

	case scanToggleMsg:
		m.scanErr = x.Err
		m.scanning = m.ctrl.Scanning()
		return m, nil

	case generateDoneMsg:
		m.generated = x.Path
		m.preview = x.Preview
		m.generateErr = x.Err
		return m, nil
	}

	return m, nil
}

// handleKey processes key bindings and returns updated model and command.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) { //nolint:ireturn // tea.Model contract
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.ctrl.StopScan()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.helpVisible = !m.helpVisible
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		if m.tab == ScanTab {
			m.tab = GenerateTab
		} else {
			m.tab = ScanTab
		}
		return m, nil
	}

	switch m.tab {
	case ScanTab:
		if key.Matches(msg, m.keys.Scan) && m.scanReady {
			m.scanErr = nil
			return m, m.toggleScan()
		}
		return m, nil

	case GenerateTab:
		return m.handleGenerateKey(msg)
	}
	return m, nil
}

// handleGenerateKey routes keys on the generate tab: enter submits, escape
// clears, everything else feeds the text input.
func (m Model) handleGenerateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) { //nolint:ireturn // tea.Model contract
	switch {
	case key.Matches(msg, m.keys.Generate):
		if !m.genReady {
			return m, nil
		}
		text := m.input.Value()
		if text == "" {
			// Validation happens before the encoder is ever invoked.
			m.inputPrompt = true
			return m, nil
		}
		m.inputPrompt = false
		m.generateErr = nil
		return m, m.generate(text)

	case key.Matches(msg, m.keys.Escape):
		m.input.SetValue("")
		m.inputPrompt = false
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != "" {
		m.inputPrompt = false
	}
	return m, cmd
}
