package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/qrsentry/qrsentry/internal/scan"
)

// Run starts the Bubble Tea TUI program, bridging dispatcher results into
// messages. It blocks until the user quits.
func Run(ctx context.Context, ctrl Controller, gate *scan.Gate, dispatcher *scan.Dispatcher) error {
	resultCh := make(chan resultMsg, channelBufferSize)
	dispatcher.OnResult(func(r scan.Result) {
		select {
		case resultCh <- resultMsg{Result: r}:
		default:
			logrus.Debug("result channel backpressure: dropping update")
		}
	})

	model := NewModel(ctx, ctrl, gate, resultCh)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Silence external logs (WARN/ERRO) during TUI to avoid corrupting the view.
	prevOut := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(prevOut)

	_, err := p.Run()
	return err
}
