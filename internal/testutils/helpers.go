package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Binaries used by the fakes.
const (
	ABCBinary   = "abc"
	YosysBinary = "yosys"
)

// MappedReport renders a standard-cell timing summary line.
func MappedReport(delay, area float64) string {
	return fmt.Sprintf("top : WireLoad = \"none\"  Gates = 10 ( 1.0 %%)   Area = %g ( 90.0 %%)   Delay = %g ps  ( 11.7 %%)", area, delay)
}

// StructuralReport renders a `print_stats` summary line.
func StructuralReport(nodes, levels float64) string {
	return fmt.Sprintf("top : i/o = 5/ 3  lat = 0  nd = %g  edge = %g  cube = 56  lev = %g", nodes, nodes*2, levels)
}

// YosysStat renders a minimal `stat` report.
func YosysStat(wires, cells int) string {
	return fmt.Sprintf("   Number of wires: %d\n   Number of public wires: %d\n   Number of cells: %d\n     $_AND_ %d\n     $_NOT_ 1\n",
		wires, wires/2, cells, cells-1)
}

// FakeSynthesis is a scripted ports.ToolRunner standing in for ABC and Yosys.
//
// Run scripts (those that map the design) consume Reports in order; the
// index of each attempt, failed or not, selects an entry of Errors.
// An empty Reports entry stands for a run whose error is scripted.
// Feature analyzer invocations always succeed with fixed reports.
type FakeSynthesis struct {
	Reports []string
	Errors  map[int]error
	// Fallback answers runs beyond Reports when set.
	Fallback string

	mu      sync.Mutex
	runs    int
	scripts []string
}

// Run implements ports.ToolRunner.
func (f *FakeSynthesis) Run(ctx context.Context, binary string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if binary == YosysBinary {
		return YosysStat(20, 12), nil
	}
	if len(args) < 2 || args[0] != "-c" {
		return "", fmt.Errorf("unexpected invocation %s %v", binary, args)
	}

	script := args[1]
	if !IsRunScript(script) {
		return StructuralReport(14, 4), nil
	}

	idx := f.runs
	f.runs++
	f.scripts = append(f.scripts, script)
	if err, ok := f.Errors[idx]; ok {
		return "", err
	}
	if idx >= len(f.Reports) {
		if f.Fallback != "" {
			return f.Fallback, nil
		}
		return "", fmt.Errorf("no scripted report for run %d", idx)
	}
	return f.Reports[idx], nil
}

// Runs returns how many run scripts were attempted.
func (f *FakeSynthesis) Runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

// Scripts returns the run scripts received so far.
func (f *FakeSynthesis) Scripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.scripts))
	copy(out, f.scripts)
	return out
}

// IsRunScript reports whether a script performs technology mapping.
func IsRunScript(script string) bool {
	return strings.Contains(script, "map -D") || strings.Contains(script, "if -K")
}
