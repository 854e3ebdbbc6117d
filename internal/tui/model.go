package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qrsentry/qrsentry/internal/scan"
)

// Tab selects the visible pane.
type Tab int

const (
	ScanTab Tab = iota
	GenerateTab
)

// Controller is the surface the TUI drives. The wiring of camera, decoder,
// dispatcher and generator lives with the caller.
type Controller interface {
	// StartScan begins a scan session. It fails when the camera cannot be
	// acquired or a session is already running.
	StartScan(ctx context.Context) error
	// StopScan ends the current session, if any.
	StopScan()
	// Scanning reports whether a session is active.
	Scanning() bool
	// Dispatching reports whether a classification request is in flight.
	Dispatching() bool
	// Generate renders text to the configured output file and returns its path.
	Generate(text string) (string, error)
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx  context.Context
	ctrl Controller
	gate *scan.Gate

	tab      Tab
	width    int
	height   int
	quitting bool

	// scan tab state
	scanning    bool
	dispatching bool
	result      scan.Result
	scanErr     error
	scanReady   bool
	scanGateErr error

	// generate tab state
	input       textinput.Model
	generated   string
	preview     string
	generateErr error
	genReady    bool
	genGateErr  error
	inputPrompt bool

	spinner spinner.Model

	// inbound results from the dispatcher bridge
	resultCh chan resultMsg

	helpVisible bool
	keys        keyMap
}

// NewModel constructs a Model with initial state. Controls stay disabled
// until the readiness gate resolves the matching capability.
func NewModel(ctx context.Context, ctrl Controller, gate *scan.Gate, resultCh chan resultMsg) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "text or URL to encode"
	ti.CharLimit = 512
	ti.Focus()

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		gate:     gate,
		tab:      ScanTab,
		input:    ti,
		spinner:  sp,
		resultCh: resultCh,
		keys:     newKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.stateTick(),
		m.listenForResults(),
		m.awaitCapability(scan.CapDecoder),
		m.awaitCapability(scan.CapGenerator),
	)
}
