package terminal

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zapcore"

	"UCLA-Rocket-Project/MTP40/internal/logger"
)

type OperationStatus int

const (
	StatusPending OperationStatus = iota
	StatusRunning
	StatusPass
	StatusFail
)

type OperationResult struct {
	Name   string
	Status OperationStatus
	Logs   []string
}

type LogMsg string

type OperationStartMsg struct {
	Index int
}

type OperationResultMsg struct {
	Index   int
	Success bool
}

type runFinishedMsg struct{}

var errNothingSelected = errors.New("select at least one operation")

// chanWriter turns writes into one LogMsg per line
type chanWriter struct {
	ch chan<- any
}

func (w *chanWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimRight(line, "\r ")
		if line != "" {
			w.ch <- LogMsg(line)
		}
	}
	return len(p), nil
}

func waitForLog(ch <-chan any) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return runFinishedMsg{}
		}
		return msg
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case LogMsg:
		// attach to the running operation
		for i := range m.results {
			if m.results[i].Status == StatusRunning {
				m.results[i].Logs = append(m.results[i].Logs, string(msg))
				break
			}
		}
		return m, waitForLog(m.logChan)
	case OperationStartMsg:
		if msg.Index >= 0 && msg.Index < len(m.results) {
			m.results[msg.Index].Status = StatusRunning
		}
		return m, waitForLog(m.logChan)
	case OperationResultMsg:
		if msg.Index >= 0 && msg.Index < len(m.results) {
			if msg.Success {
				m.results[msg.Index].Status = StatusPass
			} else {
				m.results[msg.Index].Status = StatusFail
			}
		}
		return m, waitForLog(m.logChan)
	case runFinishedMsg:
		m.running = false
		return m, nil
	}

	switch m.uiState {
	case VIEW_LIST_PORTS:
		return m.updatePortSelection(msg)
	case VIEW_LOADING:
		return m.updateLoading(msg)
	case VIEW_SELECT_OPERATIONS:
		return m.updateSelectOperations(msg)
	case VIEW_OPERATION_RUNNER:
		return m.updateRunner(msg)
	}

	return m, nil
}

func (m model) updatePortSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down":
			if m.cursor < len(m.potentialPorts)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.potentialPorts) == 0 {
				return m, nil
			}
			m.err = nil
			m.portName = m.potentialPorts[m.cursor]
			m.uiState = VIEW_LOADING
			return m, connectToPort(m.connector, m.portName)
		}
	}

	return m, nil
}

func (m model) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectionSuccessMsg:
		m.stream = msg.stream
		m.cursor = 0
		m.uiState = VIEW_SELECT_OPERATIONS
		return m, nil
	case connectionErrorMsg:
		m.err = msg.err
		m.portName = ""
		m.uiState = VIEW_LIST_PORTS
		return m, nil
	}
	return m, nil
}

func (m model) updateSelectOperations(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down":
			if m.cursor < len(availableOperations)-1 {
				m.cursor++
			}
		case " ":
			m.toggle(m.cursor)
		case "enter":
			if m.selectedCount() == 0 {
				m.err = errNothingSelected
				return m, nil
			}
			m.err = nil
			return m.startRun()
		}
	}

	return m, nil
}

func (m model) updateRunner(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			if m.running {
				return m, nil
			}
			m.uiState = VIEW_SELECT_OPERATIONS
			m.cursor = 0
			return m, nil
		}
	}
	return m, nil
}

// toggle flips one operation, or all of them when the cursor is on Select All
func (m *model) toggle(idx int) {
	if idx == 0 {
		_, all := m.selectedOps[0]
		for i := range availableOperations {
			if all {
				delete(m.selectedOps, i)
			} else {
				m.selectedOps[i] = struct{}{}
			}
		}
		return
	}

	if _, ok := m.selectedOps[idx]; ok {
		delete(m.selectedOps, idx)
		delete(m.selectedOps, 0)
	} else {
		m.selectedOps[idx] = struct{}{}
	}
}

func (m model) selectedCount() int {
	n := 0
	for idx := range m.selectedOps {
		if availableOperations[idx].run != nil {
			n++
		}
	}
	return n
}

func (m model) startRun() (tea.Model, tea.Cmd) {
	m.uiState = VIEW_OPERATION_RUNNER
	m.cursor = 0
	m.running = true
	m.logChan = make(chan any)

	m.results = []OperationResult{}
	for idx, op := range availableOperations {
		if op.run == nil {
			continue
		}
		if _, ok := m.selectedOps[idx]; ok {
			m.results = append(m.results, OperationResult{
				Name:   op.name,
				Status: StatusPending,
				Logs:   []string{},
			})
		}
	}

	// copy what the goroutine needs, the model keeps changing underneath it
	selected := make(map[int]struct{}, len(m.selectedOps))
	for idx := range m.selectedOps {
		selected[idx] = struct{}{}
	}
	ch := m.logChan
	runLogger := logger.Tee(m.logger, &chanWriter{ch: ch}, zapcore.DebugLevel)
	sensor := m.newSensor(m.stream, runLogger)

	go func() {
		defer close(ch)
		runOperations(sensor, selected, ch)
	}()

	return m, waitForLog(m.logChan)
}
