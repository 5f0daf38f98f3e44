package report

import (
	"strconv"
	"strings"

	"github.com/aretw0/drills/pkg/domain"
)

// ParseYosysStat reads the structural counts of a Yosys `stat` report.
// A report on a hierarchy holds one section per module followed by a
// "design hierarchy" total; every count is taken from the last section, so
// all fields describe the same scope. Wire and cell totals are required;
// primitive gate counts default to zero because Yosys omits cell types that
// do not occur in the design.
func ParseYosysStat(raw string) (map[string]float64, error) {
	var last []string
	var section []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "===") {
			if hasTotals(section) {
				last = section
			}
			section = nil
			continue
		}
		if line != "" {
			section = append(section, line)
		}
	}
	if hasTotals(section) {
		last = section
	}
	if last == nil {
		last = section
	}
	return parseStatSection(last)
}

func hasTotals(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, "Number of wires:") {
			return true
		}
	}
	return false
}

func parseStatSection(lines []string) (map[string]float64, error) {
	features := map[string]float64{
		domain.FeatureAnds: 0,
		domain.FeatureOrs:  0,
		domain.FeatureNots: 0,
	}

	for _, line := range lines {
		switch {
		case strings.Contains(line, "Number of wires:"):
			if err := setLastField(features, domain.FeatureWires, line); err != nil {
				return nil, err
			}
		case strings.Contains(line, "Number of public wires:"):
			if err := setLastField(features, domain.FeaturePublicWires, line); err != nil {
				return nil, err
			}
		case strings.Contains(line, "Number of cells:"), strings.Contains(line, "Number of public cells:"):
			if _, seen := features[domain.FeatureCells]; seen {
				continue
			}
			if err := setLastField(features, domain.FeatureCells, line); err != nil {
				return nil, err
			}
		default:
			if key, ok := gateFeature(strings.Fields(line)[0]); ok {
				if err := setLastField(features, key, line); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, required := range []string{domain.FeatureWires, domain.FeaturePublicWires, domain.FeatureCells} {
		if _, ok := features[required]; !ok {
			return nil, &domain.ParseError{Label: required, Reason: "label not found in stat report"}
		}
	}
	return features, nil
}

func gateFeature(cellType string) (string, bool) {
	switch strings.ToLower(cellType) {
	case "$and", "$_and_":
		return domain.FeatureAnds, true
	case "$or", "$_or_":
		return domain.FeatureOrs, true
	case "$not", "$_not_":
		return domain.FeatureNots, true
	}
	return "", false
}

func setLastField(features map[string]float64, key, line string) error {
	parts := strings.Fields(line)
	last := parts[len(parts)-1]
	v, err := strconv.ParseFloat(last, 64)
	if err != nil {
		return &domain.ParseError{Label: key, Reason: "non-numeric value " + strconv.Quote(last)}
	}
	features[key] = v
	return nil
}
