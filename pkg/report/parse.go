package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/drills/pkg/domain"
)

// Flavor selects the label set expected in a report.
type Flavor string

const (
	// FlavorMapped is the standard-cell timing report (`stime`): delay and area.
	FlavorMapped Flavor = "mapped"
	// FlavorStructural is the network statistics report (`print_stats`):
	// node, edge, level, latch and pin counts.
	FlavorStructural Flavor = "structural"
)

// Report field names.
const (
	FieldDelay   = "delay"
	FieldArea    = "area"
	FieldNodes   = "nd"
	FieldEdges   = "edge"
	FieldLevels  = "lev"
	FieldLatches = "lat"
	FieldInputs  = "inputs"
	FieldOutputs = "outputs"
)

const pinsLabel = "i/o"

// Labels returns the `label = number` fields a flavor requires.
func (f Flavor) Labels() []string {
	switch f {
	case FlavorMapped:
		return []string{FieldDelay, FieldArea}
	case FlavorStructural:
		return []string{FieldNodes, FieldEdges, FieldLevels, FieldLatches}
	default:
		return nil
	}
}

// Fields returns every field name a flavor produces.
func (f Flavor) Fields() []string {
	fields := f.Labels()
	if f == FlavorStructural {
		fields = append(fields, FieldInputs, FieldOutputs)
	}
	return fields
}

// FlavorFor returns the report flavor printed at the end of a target's run script.
func FlavorFor(target domain.Target) Flavor {
	if target == domain.TargetFPGA {
		return FlavorStructural
	}
	return FlavorMapped
}

var labelPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, f := range []Flavor{FlavorMapped, FlavorStructural} {
		for _, label := range f.Labels() {
			labelPatterns[label] = labelPattern(label)
		}
	}
	labelPatterns[pinsLabel] = regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9_])i/o\s*=\s*([^/\s]+)\s*/\s*(\S+)`)
}

// labelPattern matches `label = value` where label is not the tail of a longer word.
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9_/])` + regexp.QuoteMeta(label) + `\s*=\s*(\S+)`)
}

// SummaryLine returns the positional anchor of a report: the last non-empty line.
func SummaryLine(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Parse extracts every field of the flavor from the report summary line.
func Parse(flavor Flavor, raw string) (map[string]float64, error) {
	labels := flavor.Labels()
	if labels == nil {
		return nil, fmt.Errorf("unknown report flavor %q", flavor)
	}

	line := SummaryLine(raw)
	if line == "" {
		return nil, &domain.ParseError{Label: labels[0], Reason: "empty report"}
	}

	fields := make(map[string]float64, len(labels)+2)
	for _, label := range labels {
		v, err := extract(line, label)
		if err != nil {
			return nil, err
		}
		fields[label] = v
	}

	if flavor == FlavorStructural {
		in, out, err := ParsePins(line)
		if err != nil {
			return nil, err
		}
		fields[FieldInputs] = in
		fields[FieldOutputs] = out
	}
	return fields, nil
}

func extract(line, label string) (float64, error) {
	m := labelPatterns[label].FindStringSubmatch(line)
	if m == nil {
		return 0, &domain.ParseError{Label: label, Reason: "label not found"}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &domain.ParseError{Label: label, Reason: fmt.Sprintf("non-numeric value %q", m[1])}
	}
	return v, nil
}

// ParsePins extracts the `i/o = inputs/ outputs` pair of a statistics line.
func ParsePins(line string) (inputs, outputs float64, err error) {
	m := labelPatterns[pinsLabel].FindStringSubmatch(line)
	if m == nil {
		return 0, 0, &domain.ParseError{Label: pinsLabel, Reason: "label not found"}
	}
	if inputs, err = strconv.ParseFloat(m[1], 64); err != nil {
		return 0, 0, &domain.ParseError{Label: pinsLabel, Reason: fmt.Sprintf("non-numeric value %q", m[1])}
	}
	if outputs, err = strconv.ParseFloat(m[2], 64); err != nil {
		return 0, 0, &domain.ParseError{Label: pinsLabel, Reason: fmt.Sprintf("non-numeric value %q", m[2])}
	}
	return inputs, outputs, nil
}

// Snapshot selects the optimized and constrained fields into a metrics snapshot.
func Snapshot(fields map[string]float64, primary, constraint string) (domain.Metrics, error) {
	p, ok := fields[primary]
	if !ok {
		return domain.Metrics{}, &domain.ParseError{Label: primary, Reason: "field not in report"}
	}
	c, ok := fields[constraint]
	if !ok {
		return domain.Metrics{}, &domain.ParseError{Label: constraint, Reason: "field not in report"}
	}
	copied := make(map[string]float64, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return domain.Metrics{Primary: p, Constraint: c, Fields: copied}, nil
}
