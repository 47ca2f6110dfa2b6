// Package registry maps names to problems, stepping schemes and rootfinders.
// A Registry is constructed once in main and threaded through explicitly.
package registry

import (
	"fmt"
	"sort"

	"github.com/san-kum/daekit/internal/integrator"
	"github.com/san-kum/daekit/internal/oracle"
	"github.com/san-kum/daekit/internal/problems"
	"github.com/san-kum/daekit/internal/rootfinder"
)

type Registry struct {
	problems    map[string]func() *problems.Problem
	schemes     map[string]func() *integrator.FixedStep
	rootfinders map[string]func(rootfinder.Options) rootfinder.Rootfinder
}

func New() *Registry {
	r := &Registry{
		problems:    make(map[string]func() *problems.Problem),
		schemes:     make(map[string]func() *integrator.FixedStep),
		rootfinders: make(map[string]func(rootfinder.Options) rootfinder.Rootfinder),
	}

	r.problems["decay"] = problems.Decay
	r.problems["oscillator"] = problems.Oscillator
	r.problems["pendulum"] = problems.Pendulum
	r.problems["logistic"] = problems.Logistic

	r.schemes[integrator.KindEuler] = integrator.NewEuler
	r.schemes[integrator.KindRK4] = integrator.NewRK4
	r.schemes[integrator.KindImplicitEuler] = integrator.NewImplicitEuler

	r.rootfinders["newton"] = func(o rootfinder.Options) rootfinder.Rootfinder {
		return rootfinder.NewNewton(o)
	}
	r.rootfinders["fixed_point"] = func(o rootfinder.Options) rootfinder.Rootfinder {
		return rootfinder.NewFixedPoint(o)
	}

	return r
}

func (r *Registry) Problem(name string) (*problems.Problem, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

// NewIntegrator assembles a scheme by name and builds an integrator over the
// system, resolving any rootfinder the scheme needs through this registry.
func (r *Registry) NewIntegrator(scheme string, sys *oracle.Problem, opts integrator.Options) (*integrator.Integrator, error) {
	fn, ok := r.schemes[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown scheme: %s", scheme)
	}
	s := fn()
	s.SetRootfinderFactory(r.newRootfinder)
	return integrator.New(sys, s, opts)
}

func (r *Registry) newRootfinder(name string, opts rootfinder.Options) (rootfinder.Rootfinder, error) {
	if name == "" {
		name = "newton"
	}
	fn, ok := r.rootfinders[name]
	if !ok {
		return nil, fmt.Errorf("unknown rootfinder: %s", name)
	}
	return fn(opts), nil
}

func (r *Registry) ListProblems() []string    { return sortedKeys(r.problems) }
func (r *Registry) ListSchemes() []string     { return sortedKeys(r.schemes) }
func (r *Registry) ListRootfinders() []string { return sortedKeys(r.rootfinders) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
