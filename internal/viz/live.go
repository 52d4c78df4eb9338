package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mechctl/internal/experiment"
	"github.com/san-kum/mechctl/internal/units"
)

const (
	historyCapacity = 300
	rpmStep         = 100
	gainStep        = 1.1
)

type TickMsg time.Time

// Model drives an experiment one loop period per tick.
type Model struct {
	exp      *experiment.Experiment
	interval time.Duration

	desired, actual []float64
	feedforward     []float64

	distance  float64
	gainKeys  []string
	selected  int
	showHelp  bool
	lastError error
}

// NewModel wraps exp. The loop starts disabled; press E to enable.
func NewModel(exp *experiment.Experiment) Model {
	return Model{
		exp:         exp,
		interval:    time.Duration(exp.Loop.Period() * float64(time.Second)),
		desired:     make([]float64, 0, historyCapacity),
		actual:      make([]float64, 0, historyCapacity),
		feedforward: make([]float64, 0, historyCapacity),
		distance:    units.FeetToMeters(10),
		gainKeys:    []string{"p", "i", "d", "f", "izone"},
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.step()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fly := m.exp.Flywheel
	switch msg.String() {
	case "q", "ctrl+c":
		m.exp.Loop.Disable()
		return m, tea.Quit
	case "e":
		if m.exp.Loop.Enabled() {
			m.apply(experiment.Command{Kind: experiment.CmdDisable})
		} else {
			m.apply(experiment.Command{Kind: experiment.CmdEnable})
		}
	case "up", "k":
		m.apply(experiment.Command{Kind: experiment.CmdVelocity, Value: fly.Desired() + rpmStep})
	case "down", "j":
		m.apply(experiment.Command{Kind: experiment.CmdVelocity, Value: max(0, fly.Desired()-rpmStep)})
	case "[", "]":
		ft := 1.0
		if msg.String() == "[" {
			ft = -1
		}
		m.distance = max(0, m.distance+units.FeetToMeters(ft))
		m.apply(experiment.Command{Kind: experiment.CmdDistance, Value: m.distance})
	case "s":
		m.apply(experiment.Command{Kind: experiment.CmdStop})
	case "h":
		if m.exp.Winch.IsHoisting() {
			m.apply(experiment.Command{Kind: experiment.CmdWinchStop})
		} else {
			m.apply(experiment.Command{Kind: experiment.CmdHoist})
		}
	case "tab":
		m.selected = (m.selected + 1) % len(m.gainKeys)
	case "+", "=":
		m.scaleGain(gainStep)
	case "-", "_":
		m.scaleGain(1 / gainStep)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) apply(c experiment.Command) {
	m.lastError = m.exp.Apply(c)
}

// scaleGain changes the shared tunables. The motor only sees the new gains
// when the loop is next enabled.
func (m *Model) scaleGain(factor float64) {
	key := m.gainKeys[m.selected]
	v := m.exp.Tunables.GetParams()[key]
	if v == 0 && factor > 1 {
		v = 1e-4
	} else {
		v *= factor
	}
	m.lastError = m.exp.Tunables.SetParam(key, v)
}

func (m *Model) step() {
	m.exp.Loop.Step()
	fly := m.exp.Flywheel
	m.desired = push(m.desired, fly.Desired())
	m.actual = push(m.actual, fly.Measured())
	m.feedforward = push(m.feedforward, fly.Feedforward())
}

func push(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m Model) View() string {
	fly := m.exp.Flywheel

	var graph string
	if len(m.actual) > 1 {
		graph = asciigraph.PlotMany([][]float64{m.desired, m.actual},
			asciigraph.Height(12), asciigraph.Width(60), asciigraph.Caption("desired / actual rpm"))
	} else {
		graph = "waiting for samples"
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("FLYWHEEL") + "\n")
	if m.exp.Loop.Enabled() {
		s.WriteString(StatusEnabled.Render("ENABLED"))
	} else {
		s.WriteString(StatusDisabled.Render("DISABLED"))
	}
	if fly.IsReady() {
		s.WriteString("  " + StatusEnabled.Render("READY"))
	}
	s.WriteString("\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.exp.Loop.Time()))
	row("Desired", fmt.Sprintf("%.0f rpm", fly.Desired()))
	row("Actual", fmt.Sprintf("%.0f rpm", fly.Measured()))
	row("Accel", fmt.Sprintf("%.0f", fly.DesiredAcceleration()))
	row("Feedforward", fmt.Sprintf("%.2f V", fly.Feedforward()))
	row("Distance", fmt.Sprintf("%.1f ft", units.MetersToFeet(m.distance)))
	row("Duty", ProgressBar(m.exp.FlywheelMotor.Output(), 16))
	row("Winch", ProgressBar(m.exp.Winch.Output(), 16))
	s.WriteString(SparklineChart(m.feedforward, 32) + "\n")

	s.WriteString("\nGAINS\n")
	params := m.exp.Tunables.GetParams()
	for i, k := range m.gainKeys {
		line := fmt.Sprintf("%-6s %.5f", k, params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	if m.lastError != nil {
		s.WriteString("\n" + StatusDisabled.Render(m.lastError.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("E:Enable ↑↓:RPM []:Dist S:Stop\nH:Winch Tab/+-:Gains ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, graphStyle.Render(graph), statsStyle.Render(s.String()))
	if m.showHelp {
		return `
  E       enable/disable (gains are pushed on enable)
  Up/K    setpoint +100 rpm
  Down/J  setpoint -100 rpm
  [ ]     shot distance -/+ 1 ft
  S       stop flywheel
  H       toggle winch
  Tab     select gain
  + -     scale selected gain
  Q       quit
` + "\n" + mainView
	}
	return mainView
}
