package experiment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type CommandKind string

const (
	CmdVelocity  CommandKind = "rpm"
	CmdDistance  CommandKind = "distance"
	CmdStop      CommandKind = "stop"
	CmdHoist     CommandKind = "hoist"
	CmdStick     CommandKind = "stick"
	CmdWinchStop CommandKind = "winch_stop"
	CmdEnable    CommandKind = "enable"
	CmdDisable   CommandKind = "disable"
)

// Command is an operator action applied at loop time At.
type Command struct {
	At    float64     `yaml:"at"`
	Kind  CommandKind `yaml:"kind"`
	Value float64     `yaml:"value,omitempty"`
}

// ParseCommand reads "t:kind[=value]", e.g. "0:rpm=4200" or "3.5:stop".
func ParseCommand(s string) (Command, error) {
	at, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Command{}, fmt.Errorf("command %q: missing time", s)
	}
	t, err := strconv.ParseFloat(at, 64)
	if err != nil {
		return Command{}, fmt.Errorf("command %q: %w", s, err)
	}

	kind, val, hasVal := strings.Cut(rest, "=")
	c := Command{At: t, Kind: CommandKind(kind)}
	if hasVal {
		c.Value, err = strconv.ParseFloat(val, 64)
		if err != nil {
			return Command{}, fmt.Errorf("command %q: %w", s, err)
		}
	}
	if err := c.validate(hasVal); err != nil {
		return Command{}, fmt.Errorf("command %q: %w", s, err)
	}
	return c, nil
}

// Validate checks the kind is known. Value is not range checked.
func (c Command) Validate() error {
	return c.validate(true)
}

func (c Command) validate(hasValue bool) error {
	switch c.Kind {
	case CmdVelocity, CmdDistance, CmdStick:
		if !hasValue {
			return fmt.Errorf("%s needs a value", c.Kind)
		}
	case CmdStop, CmdHoist, CmdWinchStop, CmdEnable, CmdDisable:
	default:
		return fmt.Errorf("unknown kind %q", c.Kind)
	}
	return nil
}

// script applies queued commands when the loop reaches their time. It
// ticks before the mechanisms so a command takes effect in the same period.
type script struct {
	e    *Experiment
	cmds []Command
	next int
}

func (s *script) load(cmds []Command) error {
	sorted := make([]Command, len(cmds))
	copy(sorted, cmds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	for _, c := range sorted {
		if c.Kind == CmdEnable || c.Kind == CmdDisable {
			// Toggling the loop from inside its own tick would re-enter the
			// component list; only the live view does that, between ticks.
			return fmt.Errorf("%s cannot be scheduled", c.Kind)
		}
	}
	s.cmds = sorted
	s.next = 0
	return nil
}

func (s *script) OnEnable()  {}
func (s *script) OnDisable() {}

func (s *script) Tick() {
	now := s.e.Loop.Time()
	for s.next < len(s.cmds) && s.cmds[s.next].At <= now+1e-9 {
		c := s.cmds[s.next]
		s.next++
		if err := s.e.Apply(c); err != nil {
			s.e.log.Warn("command failed", "cmd", c.Kind, "err", err)
		}
	}
}
