package process

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/drills/pkg/domain"
)

// Script accumulates tool commands into a single `-c` argument.
type Script struct {
	commands []string
}

// NewScript creates an empty script.
func NewScript() *Script {
	return &Script{}
}

// Add appends commands. Blank commands are skipped.
func (s *Script) Add(commands ...string) *Script {
	for _, c := range commands {
		c = strings.TrimSpace(c)
		if c != "" {
			s.commands = append(s.commands, c)
		}
	}
	return s
}

// String renders the script as `cmd1; cmd2; ...;`.
func (s *Script) String() string {
	if len(s.commands) == 0 {
		return ""
	}
	return strings.Join(s.commands, "; ") + ";"
}

// Pipeline describes the fixed load/map/report frame around a transform sequence.
type Pipeline struct {
	Target      domain.Target
	DesignFile  string
	LibraryFile string
	ClockPeriod float64
	LUTInputs   int
}

// Artifacts names the files a run writes.
type Artifacts struct {
	Design string // after the transform sequence
	Mapped string // after technology mapping
}

// Build assembles the run script: load, replay the whole sequence, write the
// intermediate design, map under the configured constraint, write the mapped
// design and print the statistics report.
func (p Pipeline) Build(sequence []string, out Artifacts) (string, error) {
	if len(sequence) == 0 {
		return "", fmt.Errorf("empty transform sequence")
	}

	s := NewScript()
	switch p.Target {
	case domain.TargetSCL:
		s.Add("read "+p.LibraryFile, "read "+p.DesignFile)
		s.Add(sequence...)
		s.Add("write "+out.Design, "map -D "+formatNumber(p.ClockPeriod), "write "+out.Mapped, "topo", "stime")
	case domain.TargetFPGA:
		s.Add("read " + p.DesignFile)
		s.Add(sequence...)
		s.Add("write "+out.Design, "if -K "+strconv.Itoa(p.LUTInputs), "write "+out.Mapped, "print_stats")
	default:
		return "", &domain.ConfigError{Field: "target", Reason: fmt.Sprintf("unknown target %q", p.Target)}
	}
	return s.String(), nil
}

// Candidate assembles the single-transformation script used by the greedy
// baseline: it starts from an already optimized design instead of replaying.
func (p Pipeline) Candidate(design, transformation string, out Artifacts) (string, error) {
	s := NewScript()
	switch p.Target {
	case domain.TargetSCL:
		s.Add("read "+p.LibraryFile, "read "+design, domain.InitialTransformation, transformation)
		s.Add("write "+out.Design, "map -D "+formatNumber(p.ClockPeriod), "topo", "stime")
	case domain.TargetFPGA:
		s.Add("read "+design, domain.InitialTransformation, transformation)
		s.Add("write "+out.Design, "if -K "+strconv.Itoa(p.LUTInputs), "print_stats")
	default:
		return "", &domain.ConfigError{Field: "target", Reason: fmt.Sprintf("unknown target %q", p.Target)}
	}
	return s.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
