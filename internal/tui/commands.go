package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/qrsentry/qrsentry/internal/generate"
	"github.com/qrsentry/qrsentry/internal/scan"
)

// listenForResults forwards one dispatcher result into the update loop.
func (m Model) listenForResults() tea.Cmd {
	return func() tea.Msg {
		return <-m.resultCh
	}
}

// stateTick schedules the next scanning/dispatch state refresh.
func (m Model) stateTick() tea.Cmd {
	return tea.Tick(stateRefreshInterval, func(time.Time) tea.Msg {
		return stateTickMsg{}
	})
}

// awaitCapability blocks on the readiness gate and reports the outcome.
func (m Model) awaitCapability(c scan.Capability) tea.Cmd {
	return func() tea.Msg {
		err := m.gate.Wait(m.ctx, c)
		return readyMsg{Cap: c, Err: err}
	}
}

// toggleScan starts or stops the scan session.
func (m Model) toggleScan() tea.Cmd {
	if m.scanning {
		return func() tea.Msg {
			m.ctrl.StopScan()
			return scanToggleMsg{}
		}
	}
	return func() tea.Msg {
		return scanToggleMsg{Err: m.ctrl.StartScan(m.ctx)}
	}
}

// generate renders the entered text to the output file and builds an inline
// terminal preview of the same code.
func (m Model) generate(text string) tea.Cmd {
	return func() tea.Msg {
		path, err := m.ctrl.Generate(text)
		if err != nil {
			return generateDoneMsg{Err: err}
		}
		var preview strings.Builder
		if err := generate.Terminal(text, &preview); err != nil {
			return generateDoneMsg{Path: path}
		}
		return generateDoneMsg{Path: path, Preview: preview.String()}
	}
}
