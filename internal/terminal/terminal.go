package terminal

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"UCLA-Rocket-Project/MTP40/internal/commander"
)

type UIState int

const (
	VIEW_LIST_PORTS UIState = iota
	VIEW_SELECT_OPERATIONS
	VIEW_OPERATION_RUNNER
	VIEW_LOADING
)

type connectionSuccessMsg struct {
	stream commander.Stream
}

type connectionErrorMsg struct {
	err error
}

type PortLister func() ([]string, error)
type PortConnector func(string) (commander.Stream, error)

// SensorBuilder binds a sensor to an open port. Each run gets a fresh sensor whose
// logger also feeds the run's log pane.
type SensorBuilder func(stream commander.Stream, logger *zap.Logger) *commander.Sensor

// defines the internal state of the TUI
type model struct {
	// global internal state
	uiState UIState
	cursor  int
	err     error
	logger  *zap.Logger

	// connect to port internal state
	potentialPorts []string
	portName       string
	connector      PortConnector
	stream         commander.Stream
	newSensor      SensorBuilder

	// select operations internal state
	selectedOps map[int]struct{}

	// operation runner internal state
	results []OperationResult
	logChan chan any
	running bool
}

func StartApplication(portLister PortLister, connector PortConnector, newSensor SensorBuilder, logger *zap.Logger) error {
	m, err := initialModel(portLister, connector, newSensor, logger)
	if err != nil {
		return err
	}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Error("Error starting TUI program", zap.Error(err))
		return err
	}
	return nil
}

// TUI tries to use functional programming paradigms, so you return a new model everytime, rather
// then modify a pointer
func initialModel(portLister PortLister, connector PortConnector, newSensor SensorBuilder, logger *zap.Logger) (model, error) {
	ports, err := portLister()
	if err != nil {
		return model{}, fmt.Errorf("unable to list serial ports: %w", err)
	}

	return model{
		uiState:        VIEW_LIST_PORTS,
		logger:         logger,
		potentialPorts: ports,
		connector:      connector,
		newSensor:      newSensor,
		selectedOps:    make(map[int]struct{}),
	}, nil
}

func connectToPort(connector PortConnector, port string) tea.Cmd {
	return func() tea.Msg {
		stream, err := connector(port)
		if err != nil {
			return connectionErrorMsg{err: err}
		}
		return connectionSuccessMsg{stream: stream}
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("MTP40 CO2 Sensor"))
	b.WriteString("\n")
	if m.portName != "" {
		b.WriteString(mutedStyle.Render("port " + m.portName))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error %v", m.err)))
		b.WriteString("\n\n")
	}

	switch m.uiState {
	case VIEW_LIST_PORTS:
		m.viewPorts(&b)
	case VIEW_LOADING:
		b.WriteString(runningStyle.Render("Connecting..."))
		b.WriteString("\n")
	case VIEW_SELECT_OPERATIONS:
		m.viewOperations(&b)
	case VIEW_OPERATION_RUNNER:
		m.viewResults(&b)
	}

	return containerStyle.Render(b.String())
}

func (m model) viewPorts(b *strings.Builder) {
	if len(m.potentialPorts) == 0 {
		b.WriteString(mutedStyle.Render("No serial ports found"))
		b.WriteString("\n\n")
		b.WriteString(renderHint("q quit"))
		return
	}

	b.WriteString("Select a port:\n\n")
	for i, port := range m.potentialPorts {
		b.WriteString(fmt.Sprintf("%s %s\n", renderCursor(i == m.cursor), renderItem(port, i == m.cursor)))
	}
	b.WriteString("\n")
	b.WriteString(renderHint("↑/↓ move • enter connect • q quit"))
}

func (m model) viewOperations(b *strings.Builder) {
	b.WriteString("Select operations to run:\n\n")
	for i, op := range availableOperations {
		_, checked := m.selectedOps[i]
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			renderCursor(i == m.cursor),
			renderCheckbox(checked),
			renderItem(op.name, i == m.cursor),
		))
	}
	b.WriteString("\n")
	b.WriteString(renderHint("space toggle • enter run • q quit"))
}

func (m model) viewResults(b *strings.Builder) {
	for _, result := range m.results {
		b.WriteString(fmt.Sprintf("%s %s\n", renderStatusIcon(result.Status), renderOperationName(result.Name, result.Status)))
		for _, line := range result.Logs {
			b.WriteString(logIndent)
			b.WriteString(logContentStyle.Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	if m.running {
		b.WriteString(renderHint("running..."))
	} else {
		b.WriteString(renderHint("enter back • q quit"))
	}
}
