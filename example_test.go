package drills_test

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/drills"
	"github.com/aretw0/drills/internal/testutils"
	"github.com/aretw0/drills/pkg/config"
)

func ExampleNew() {
	playground, _ := os.MkdirTemp("", "drills-example")
	defer os.RemoveAll(playground)

	cfg := config.Default()
	cfg.DesignFile = "adder.v"
	cfg.PlaygroundDir = playground
	cfg.ABCBinary = testutils.ABCBinary
	cfg.YosysBinary = testutils.YosysBinary
	cfg.Iterations = 2
	cfg.Optimizations = []string{"rewrite", "balance"}
	cfg.Mapping = config.Mapping{LibraryFile: "lib.lib", ClockPeriod: 100}
	cfg.Objective = config.Objective{Optimize: "area", Constrain: "delay"}

	// A scripted tool runner stands in for ABC and Yosys.
	synth := &testutils.FakeSynthesis{Reports: []string{
		testutils.MappedReport(120, 40),
		testutils.MappedReport(90, 42),
		testutils.MappedReport(80, 35),
	}}

	ctx := context.Background()
	env, err := drills.New(ctx, cfg, drills.WithToolRunner(synth))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer env.Close()

	if _, err := env.Reset(ctx); err != nil {
		fmt.Println(err)
		return
	}
	for !env.Done() {
		res, err := env.Step(ctx, 0)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("step %d: reward %g\n", env.Iteration(), res.Reward)
	}
	fmt.Println(env.Sequence())
	// Output:
	// step 1: reward -1
	// step 2: reward 3
	// [strash rewrite rewrite]
}
