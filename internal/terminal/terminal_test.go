package terminal

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/globals"
)

// addressOnlyDevice answers get address and ignores everything else
type addressOnlyDevice struct {
	mu      sync.Mutex
	pending []byte
}

func (d *addressOnlyDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p[1] == 0x03 {
		d.pending = append(d.pending, 0xFE, 0x03, 0x14, globals.DEFAULT_ADDRESS, 0x01, 0x00, 0x00)
	}
	return len(p), nil
}

func (d *addressOnlyDevice) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func testSensorBuilder(stream commander.Stream, logger *zap.Logger) *commander.Sensor {
	return commander.NewMTP40C(stream, commander.WithLogger(logger), commander.WithTimeout(5*time.Millisecond))
}

func newTestModel(t *testing.T, ports []string, connector PortConnector) model {
	t.Helper()
	m, err := initialModel(func() ([]string, error) { return ports, nil }, connector, testSensorBuilder, zap.NewNop())
	require.NoError(t, err)
	return m
}

func key(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m model, keys ...string) (model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(model)
	}
	return m, cmd
}

func TestInitialModelPortListError(t *testing.T) {
	_, err := initialModel(func() ([]string, error) { return nil, errors.New("no permission") }, nil, testSensorBuilder, zap.NewNop())
	assert.Error(t, err)
}

func TestPortSelection(t *testing.T) {
	var connected string
	connector := func(port string) (commander.Stream, error) {
		connected = port
		return &addressOnlyDevice{}, nil
	}
	m := newTestModel(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, connector)

	m, _ = press(m, "down", "down", "up", "down")
	assert.Equal(t, 1, m.cursor)

	m, cmd := press(m, "enter")
	assert.Equal(t, VIEW_LOADING, m.uiState)
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(model)
	assert.Equal(t, "/dev/ttyUSB1", connected)
	assert.Equal(t, VIEW_SELECT_OPERATIONS, m.uiState)
	assert.Contains(t, m.View(), "Read Gas Concentration")
}

func TestPortConnectionFailure(t *testing.T) {
	connector := func(port string) (commander.Stream, error) {
		return nil, errors.New("device busy")
	}
	m := newTestModel(t, []string{"/dev/ttyUSB0"}, connector)

	m, cmd := press(m, "enter")
	next, _ := m.Update(cmd())
	m = next.(model)

	assert.Equal(t, VIEW_LIST_PORTS, m.uiState)
	assert.EqualError(t, m.err, "device busy")
	assert.Contains(t, m.View(), "device busy")
}

func TestSelectAllToggle(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m.uiState = VIEW_SELECT_OPERATIONS

	m, _ = press(m, " ")
	assert.Len(t, m.selectedOps, len(availableOperations))
	assert.Equal(t, len(availableOperations)-1, m.selectedCount())

	m, _ = press(m, "down", " ")
	assert.NotContains(t, m.selectedOps, 1)
	assert.NotContains(t, m.selectedOps, 0, "select all is cleared when one entry is removed")

	m, _ = press(m, "up", " ")
	assert.Len(t, m.selectedOps, len(availableOperations))

	m, _ = press(m, " ")
	assert.Empty(t, m.selectedOps)
}

func TestEnterWithoutSelection(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m.uiState = VIEW_SELECT_OPERATIONS

	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, VIEW_SELECT_OPERATIONS, m.uiState)
	assert.ErrorIs(t, m.err, errNothingSelected)
}

func TestRunOperations(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m.uiState = VIEW_SELECT_OPERATIONS
	m.stream = &addressOnlyDevice{}

	// read address and read gas concentration
	m, _ = press(m, "down", " ", "down", " ")
	m, cmd := press(m, "enter")
	require.Equal(t, VIEW_OPERATION_RUNNER, m.uiState)
	require.Len(t, m.results, 2)
	assert.True(t, m.running)

	for cmd != nil {
		next, nextCmd := m.Update(cmd())
		m = next.(model)
		cmd = nextCmd
	}

	assert.False(t, m.running)
	assert.Equal(t, StatusPass, m.results[0].Status)
	assert.Equal(t, StatusFail, m.results[1].Status)
	assert.Contains(t, m.results[0].Logs, "[Read Address]: sensor answered with address 100 (0x64)")
	assert.NotEmpty(t, m.results[1].Logs)

	m, _ = press(m, "enter")
	assert.Equal(t, VIEW_SELECT_OPERATIONS, m.uiState)
}

func TestChanWriterSplitsLines(t *testing.T) {
	ch := make(chan any, 4)
	w := &chanWriter{ch: ch}

	payload := []byte("first\r\n\nsecond\n")
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	close(ch)

	var lines []LogMsg
	for msg := range ch {
		lines = append(lines, msg.(LogMsg))
	}
	assert.Equal(t, []LogMsg{"first", "second"}, lines)
}
