package features

import (
	"context"

	"github.com/aretw0/drills/pkg/adapters/process"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/ports"
	"github.com/aretw0/drills/pkg/report"
)

// YosysAnalyzer reports wire, cell and primitive gate counts via `yosys stat`.
type YosysAnalyzer struct {
	Runner ports.ToolRunner
	Binary string
}

func (a YosysAnalyzer) Name() string { return "yosys" }

func (a YosysAnalyzer) Analyze(ctx context.Context, artifact string) (map[string]float64, error) {
	out, err := a.Runner.Run(ctx, a.Binary, "-QT", "-p", "read_verilog "+artifact+"; stat")
	if err != nil {
		return nil, err
	}
	return report.ParseYosysStat(out)
}

// ABCAnalyzer reports pin, edge, level and latch counts via `print_stats`.
type ABCAnalyzer struct {
	Runner ports.ToolRunner
	Binary string
}

func (a ABCAnalyzer) Name() string { return "abc" }

func (a ABCAnalyzer) Analyze(ctx context.Context, artifact string) (map[string]float64, error) {
	script := process.NewScript().Add("read "+artifact, "print_stats").String()
	out, err := a.Runner.Run(ctx, a.Binary, "-c", script)
	if err != nil {
		return nil, err
	}
	fields, err := report.Parse(report.FlavorStructural, out)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		domain.FeatureInputs:  fields[report.FieldInputs],
		domain.FeatureOutputs: fields[report.FieldOutputs],
		domain.FeatureEdges:   fields[report.FieldEdges],
		domain.FeatureLevels:  fields[report.FieldLevels],
		domain.FeatureLatches: fields[report.FieldLatches],
	}, nil
}

// Default returns the Yosys and ABC analyzers sharing one runner.
func Default(runner ports.ToolRunner, yosysBinary, abcBinary string) []ports.Analyzer {
	return []ports.Analyzer{
		YosysAnalyzer{Runner: runner, Binary: yosysBinary},
		ABCAnalyzer{Runner: runner, Binary: abcBinary},
	}
}
