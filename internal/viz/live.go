// Package viz renders simulation results in the terminal: a static
// asciigraph plot for saved runs and a bubbletea live view that advances
// a model one timestep per frame.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"stateflow/internal/engine"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Live is the bubbletea model for the live view. Each frame advances the
// stepper one timestep and appends the numeric state variables to rolling
// history buffers.
type Live struct {
	stepper   *engine.Stepper
	modelName string
	variables []string
	selected  int
	history   map[string][]float64
	running   bool
	err       error
}

// NewLive builds a live view over one model.
func NewLive(m *engine.Model, modelName, variable string) Live {
	variables := m.StateKeys()
	selected := 0
	for i, v := range variables {
		if v == variable {
			selected = i
			break
		}
	}
	return Live{
		stepper:   engine.NewStepper(m),
		modelName: modelName,
		variables: variables,
		selected:  selected,
		history:   make(map[string][]float64),
		running:   true,
	}
}

func (l Live) Init() tea.Cmd {
	return tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (l Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return l, tea.Quit
		case " ":
			if l.err == nil {
				l.running = !l.running
			}
		case "tab":
			l.selected = (l.selected + 1) % len(l.variables)
		case "s":
			if !l.running && l.err == nil {
				l.step()
			}
		case "r":
			l.stepper.Reset()
			l.history = make(map[string][]float64)
			l.err = nil
			l.running = true
		}
	case TickMsg:
		if l.running && l.err == nil {
			l.step()
		}
		return l, tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return l, nil
}

func (l *Live) step() {
	state, err := l.stepper.Step()
	if err != nil {
		l.err = err
		l.running = false
		return
	}
	for _, name := range l.variables {
		if f, ok := asFloat(state[name]); ok {
			buf := append(l.history[name], f)
			if len(buf) > historyCapacity {
				buf = buf[1:]
			}
			l.history[name] = buf
		}
	}
}

func (l Live) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(l.modelName)) + "\n")

	status := "RUNNING"
	if l.err != nil {
		status = "FAILED"
	} else if !l.running {
		status = "PAUSED"
	}
	b.WriteString(fmt.Sprintf("%s  timestep %d\n", status, l.stepper.Timestep()))

	if l.err != nil {
		b.WriteString("\n" + errorStyle.Render(l.err.Error()) + "\n")
	}

	series := l.history[l.variables[l.selected]]
	if len(series) > 1 {
		chart := asciigraph.Plot(series,
			asciigraph.Height(10), asciigraph.Width(60),
			asciigraph.Caption(l.variables[l.selected]))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	b.WriteString("\n")
	state := l.stepper.State()
	for i, name := range l.variables {
		line := labelStyle.Render(name) + valueStyle.Render(fmt.Sprintf("%v", state[name]))
		if i == l.selected {
			line = activeStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(helpStyle.Render("space:pause  s:step  tab:variable  r:reset  q:quit"))
	return b.String()
}

// Run starts the live view program and blocks until the user quits.
func Run(m *engine.Model, modelName, variable string) error {
	_, err := tea.NewProgram(NewLive(m, modelName, variable)).Run()
	return err
}

func asFloat(v engine.Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
