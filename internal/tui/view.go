package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

//nolint:gochecknoglobals // lipgloss styles are conventionally package-level.
var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Underline(true)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Width(contentMaxWidth)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	linkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder
	b.WriteString(renderTabs(m.tab))
	b.WriteString("\n\n")

	switch m.tab {
	case ScanTab:
		b.WriteString(m.renderScanTab())
	case GenerateTab:
		b.WriteString(m.renderGenerateTab())
	}

	b.WriteString("\n")
	if m.helpVisible {
		b.WriteString(m.renderHelp())
		b.WriteString("\n")
	}
	b.WriteString(renderFooter())
	return b.String()
}

func renderTabs(active Tab) string {
	scanTab := tabStyle.Render("Scan")
	genTab := tabStyle.Render("Generate")
	if active == ScanTab {
		scanTab = activeTabStyle.Render("Scan")
	} else {
		genTab = activeTabStyle.Render("Generate")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, scanTab, genTab)
}

func (m Model) renderScanTab() string {
	var b strings.Builder

	switch {
	case !m.scanReady && m.scanGateErr != nil:
		b.WriteString(errStyle.Render("Scanner unavailable: " + m.scanGateErr.Error()))
	case !m.scanReady:
		b.WriteString(m.spinner.View() + dimStyle.Render(" loading scanner..."))
	case m.scanning && m.dispatching:
		b.WriteString(m.spinner.View() + " classifying decoded payload...")
	case m.scanning:
		b.WriteString(m.spinner.View() + " scanning for QR codes  " + dimStyle.Render("(s to stop)"))
	default:
		b.WriteString(dimStyle.Render("idle, press s to start scanning"))
	}
	b.WriteString("\n\n")

	if m.scanErr != nil {
		b.WriteString(errStyle.Render("Camera error: "+m.scanErr.Error()) + "\n\n")
	}

	b.WriteString(m.renderResult())
	return b.String()
}

func (m Model) renderResult() string {
	res := m.result
	if res.Link == "" && res.Message == "" {
		return boxStyle.Render(dimStyle.Render("No result yet."))
	}

	var b strings.Builder
	if res.Err != nil {
		b.WriteString(errStyle.Render(res.Message))
	} else {
		if res.Link != "" {
			b.WriteString(linkStyle.Render(res.Link))
			b.WriteString("\n")
		}
		b.WriteString(okStyle.Render(res.Message))
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderGenerateTab() string {
	var b strings.Builder

	if !m.genReady {
		if m.genGateErr != nil {
			b.WriteString(errStyle.Render("Generator unavailable: " + m.genGateErr.Error()))
		} else {
			b.WriteString(m.spinner.View() + dimStyle.Render(" loading generator..."))
		}
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.inputPrompt:
		b.WriteString(errStyle.Render("Enter some text to encode first."))
	case m.generateErr != nil:
		b.WriteString(errStyle.Render("Generation failed: " + m.generateErr.Error()))
	case m.generated != "":
		if m.preview != "" {
			b.WriteString(m.preview)
			b.WriteString("\n")
		}
		b.WriteString(okStyle.Render("Saved " + m.generated))
	default:
		b.WriteString(dimStyle.Render("enter to generate, esc to clear"))
	}
	return b.String()
}

func (m Model) renderHelp() string {
	rows := []string{
		"tab     switch tab",
		"s       start/stop scan",
		"enter   generate QR code",
		"esc     clear input",
		"ctrl+c  quit",
	}
	return dimStyle.Render(strings.Join(rows, "\n"))
}

func renderFooter() string {
	return dimStyle.Render("tab: switch · ?: help · ctrl+c: quit")
}
