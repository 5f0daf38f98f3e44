package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/drills/pkg/domain"
)

// ErrPolicyExhausted ends an episode early when a policy has no further action.
var ErrPolicyExhausted = errors.New("policy has no further actions")

// Policy chooses the next action from the current observation.
type Policy interface {
	// Begin is called after every successful reset.
	Begin(episode int)
	// Act returns an action index in [0, actionSpace).
	Act(ctx context.Context, obs domain.Observation, actionSpace int) (int, error)
}

// RandomPolicy picks actions uniformly at random.
type RandomPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPolicy creates a reproducible random policy.
func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPolicy) Begin(int) {}

func (p *RandomPolicy) Act(_ context.Context, _ domain.Observation, actionSpace int) (int, error) {
	if actionSpace <= 0 {
		return 0, fmt.Errorf("empty action space")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(actionSpace), nil
}

// SequencePolicy replays a fixed list of actions, restarting every episode.
type SequencePolicy struct {
	actions []int
	next    int
}

// NewSequencePolicy resolves transformation names against the catalog.
func NewSequencePolicy(catalog domain.Catalog, names []string) (*SequencePolicy, error) {
	actions := make([]int, 0, len(names))
	for _, name := range names {
		idx, ok := catalog.IndexOf(name)
		if !ok {
			return nil, &domain.ConfigError{Field: "script", Reason: fmt.Sprintf("transformation %q is not in the catalog", name)}
		}
		actions = append(actions, idx)
	}
	if len(actions) == 0 {
		return nil, &domain.ConfigError{Field: "script", Reason: "script is empty"}
	}
	return &SequencePolicy{actions: actions}, nil
}

func (p *SequencePolicy) Begin(int) { p.next = 0 }

func (p *SequencePolicy) Act(context.Context, domain.Observation, int) (int, error) {
	if p.next >= len(p.actions) {
		return 0, ErrPolicyExhausted
	}
	a := p.actions[p.next]
	p.next++
	return a, nil
}

// ReadScript reads transformation names from a file, one per line or
// separated by semicolons. Blank lines and lines starting with # are skipped.
func ReadScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, part := range strings.Split(line, ";") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return names, nil
}
