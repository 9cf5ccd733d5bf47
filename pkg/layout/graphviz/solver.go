// Package graphviz implements [rank.Solver] with the dot engine from
// go-graphviz, which runs Graphviz compiled to WebAssembly in-process.
//
// The solver writes the rank graph as DOT (see [ToDOT]), lets dot lay it
// out, and reads node centers back from dot's "plain" output format.
package graphviz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	gographviz "github.com/goccy/go-graphviz"

	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// Name is the solver identifier used in logs and cache keys.
const Name = "graphviz"

var formatPlain = gographviz.Format("plain")

// Solver lays out rank graphs with dot. The Graphviz instance is created on
// first use and reused; calls are serialized because the instance is not
// safe for concurrent use. The zero value is ready to use.
type Solver struct {
	mu sync.Mutex
	gv *gographviz.Graphviz
}

// New returns a Solver.
func New() *Solver {
	return &Solver{}
}

// Name implements rank.Solver.
func (s *Solver) Name() string { return Name }

// Solve implements rank.Solver. Failing to start Graphviz, or to produce
// plain output at all, is reported as rank.ErrUnavailable.
func (s *Solver) Solve(ctx context.Context, g rank.Graph) (map[string]rank.Point, error) {
	if len(g.Nodes) == 0 {
		return map[string]rank.Point{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dot, names := ToDOT(g)

	s.mu.Lock()
	defer s.mu.Unlock()

	gv, err := s.instance(ctx)
	if err != nil {
		return nil, err
	}

	graph, err := gographviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, formatPlain, &buf); err != nil {
		return nil, fmt.Errorf("%w: dot plain render: %v", rank.ErrUnavailable, err)
	}
	return parsePlain(buf.Bytes(), names)
}

func (s *Solver) instance(ctx context.Context) (*gographviz.Graphviz, error) {
	if s.gv != nil {
		return s.gv, nil
	}
	gv, err := gographviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: init graphviz: %v", rank.ErrUnavailable, err)
	}
	s.gv = gv
	return gv, nil
}

// Close releases the Graphviz instance. The Solver can be used again after
// Close; it starts a new instance on demand.
func (s *Solver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gv == nil {
		return nil
	}
	err := s.gv.Close()
	s.gv = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close graphviz: %w", err)
	}
	return nil
}

var _ rank.Solver = (*Solver)(nil)
