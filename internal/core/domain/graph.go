// Package domain contains the core domain models and business logic for the
// build job graph: jobs, dependency ordering, naming, timestamps and
// depfiles.
package domain

import (
	"iter"

	"go.trai.ch/zerr"
)

// Graph is the deduplicated, dependency-ordered job graph produced by the
// planner and consumed by the scheduler.
type Graph struct {
	jobs           map[InternedString]Job
	executionOrder []InternedString
	dependents     map[InternedString][]InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		jobs: make(map[InternedString]Job),
	}
}

// AddJob adds a job to the graph.
// It returns an error if a job with the same canonical name already exists
// — two jobs with the same name are forbidden.
func (g *Graph) AddJob(j Job) error {
	if _, exists := g.jobs[j.Name]; exists {
		return zerr.With(ErrJobAlreadyExists, "job_name", j.Name.String())
	}
	g.jobs[j.Name] = j
	return nil
}

// JobCount returns the number of jobs currently in the graph.
func (g *Graph) JobCount() int {
	return len(g.jobs)
}

// Job looks up a job by its canonical name.
func (g *Graph) Job(name InternedString) (Job, bool) {
	j, ok := g.jobs[name]
	return j, ok
}

// Dependents returns the names of jobs that directly depend on name. Valid
// only after Validate has returned nil.
func (g *Graph) Dependents(name InternedString) []InternedString {
	return g.dependents[name]
}

// Validate checks for cycles in the graph using a topological sort. It
// populates the executionOrder slice and the reverse (dependents) adjacency
// used by Walk/Dependents if successful.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.jobs))
	g.dependents = make(map[InternedString][]InternedString, len(g.jobs))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		job, exists := g.jobs[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range job.Dependencies {
			g.dependents[dep] = append(g.dependents[dep], u)

			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	// The planner builds jobs in dependency order already;
	// any topological order is valid, map iteration is fine here.
	for name := range g.jobs {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields jobs in a valid execution order.
// It assumes Validate has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Job] {
	return func(yield func(Job) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.jobs[name]) {
				return
			}
		}
	}
}
