package suite

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

// Env is everything a step may touch. Steps get their dependencies handed to
// them; nothing is smuggled through package state or closures.
type Env struct {
	Prober *probe.Prober
	Runner *verdict.Runner
	CI     bool
	Logger *zap.Logger
}

// StepContext carries identifiers captured by earlier steps in the same
// check (a list call's id feeding a detail call). It never crosses checks.
type StepContext struct {
	values map[string]string
}

func NewStepContext() *StepContext {
	return &StepContext{values: make(map[string]string)}
}

func (c *StepContext) Set(key, val string) { c.values[key] = val }

func (c *StepContext) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Step is one probe-and-classify unit. It returns the runner's result; a
// non-pass verdict terminates the remaining steps of the check.
type Step struct {
	Name string
	Run  func(ctx context.Context, env *Env, sc *StepContext) verdict.Result
}

// Check is a named, ordered sequence of steps sharing one StepContext.
type Check struct {
	Name  string
	Group string
	Steps []Step
}

// Registry collects the catalog. Checks register at construction; there is
// no global registry.
type Registry struct {
	checks []Check
}

func NewRegistry(checks ...Check) *Registry {
	return &Registry{checks: checks}
}

func (r *Registry) Add(c Check) { r.checks = append(r.checks, c) }

func (r *Registry) All() []Check { return r.checks }

// Filter returns the checks in the given group; empty group means all.
func (r *Registry) Filter(group string) []Check {
	if group == "" {
		return r.checks
	}
	var out []Check
	for _, c := range r.checks {
		if c.Group == group {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.checks {
		if !seen[c.Group] {
			seen[c.Group] = true
			out = append(out, c.Group)
		}
	}
	return out
}
