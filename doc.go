/*
Package drills is a reinforcement-learning environment for logic-synthesis
design space exploration.

An agent optimizes a circuit by choosing, one step at a time, which
transformation the ABC synthesis tool applies next. Every step replays the
whole transformation sequence on the original design, maps the result to a
technology, and turns the tool's timing and area report into a shaped reward.
Structural features of the intermediate design, measured with Yosys and ABC,
form the observation.

# Concept

A session runs episodes of a fixed number of steps. Reset starts a new
episode from the original design; Step applies one transformation from the
catalog. The session keeps three best-known results for its whole lifetime:
the lowest optimization metric, the lowest constraint metric, and the lowest
optimization metric that satisfies the constraint.

Two reward shapes are available. The dual shape weighs constraint recovery
against optimization progress while the constraint is violated; the single
shape keys only on whether the constraint is met and penalizes stalling late
in the episode.

# Usage

	cfg, err := config.Load("params.yml")
	if err != nil {
		log.Fatal(err)
	}

	env, err := drills.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer env.Close()

	obs, err := env.Reset(ctx)
	for !env.Done() {
		res, err := env.Step(ctx, policy(obs))
		if err != nil {
			break // the session is unchanged; retry or Reset
		}
		obs = res.Observation
	}

The drills command wraps the same API with a random or scripted policy, the
greedy baseline, and HTTP and MCP servers for remote trainers.
*/
package drills
