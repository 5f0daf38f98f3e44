/*
Package runner drives optimization sessions with a policy.

A Runner resets the environment once per episode and asks its Policy for an
action until the episode reaches its horizon or the policy runs out of
actions. It is the training-loop skeleton used by the CLI: a RandomPolicy
explores the catalog, a SequencePolicy replays a fixed optimization script.

# Usage

	r := runner.New(sess, runner.NewRandomPolicy(seed),
		runner.WithEpisodes(10),
		runner.WithLogger(logger),
	)

	summaries, err := r.Run(ctx)
*/
package runner
