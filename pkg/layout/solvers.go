package layout

import (
	"strings"

	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/layout/graphviz"
	"github.com/matzehuels/familymap/pkg/layout/layered"
	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// DefaultSolver is the solver used when none is named.
const DefaultSolver = graphviz.Name

// SolverNames lists the names NewSolver accepts.
var SolverNames = []string{graphviz.Name, layered.Name}

// NewSolver returns the solver called name. The empty string yields
// DefaultSolver.
func NewSolver(name string) (rank.Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", graphviz.Name:
		return graphviz.New(), nil
	case layered.Name:
		return layered.New(), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"unknown solver %q (want %s)", name, strings.Join(SolverNames, " or "))
}
