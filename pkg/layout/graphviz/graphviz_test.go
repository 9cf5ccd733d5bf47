package graphviz

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/familymap/pkg/layout/rank"
)

func sampleGraph() rank.Graph {
	return rank.Graph{
		Nodes: []rank.Node{
			{ID: "A", Width: 180, Height: 72},
			{ID: "B", Width: 180, Height: 72},
			{ID: "U", Width: 36, Height: 36},
			{ID: "C1", Width: 180, Height: 72},
			{ID: "C2", Width: 180, Height: 72},
		},
		Edges: []rank.Edge{
			{From: "A", To: "U", Weight: 2},
			{From: "B", To: "U", Weight: 2},
			{From: "U", To: "C1", Weight: 2},
			{From: "U", To: "C2", Weight: 2},
			{From: "C1", To: "C2", Weight: 0.5, Aux: true},
		},
		SameRank: [][]string{{"C1", "C2"}},
		Options:  rank.DefaultOptions(),
	}
}

func TestToDOT(t *testing.T) {
	dot, names := ToDOT(sampleGraph())

	wants := []string{
		"rankdir=TB;",
		"nodesep=0.6944;",
		"ranksep=1.2500;",
		"n0 [width=2.5000, height=1.0000];",
		"n2 [width=0.5000, height=0.5000];",
		"n0 -> n2 [weight=4];",
		"n3 -> n4 [weight=1, constraint=false, style=invis];",
		"{ rank=same; n3; n4; }",
	}
	for _, want := range wants {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if names["n3"] != "C1" || names["n4"] != "C2" || len(names) != 5 {
		t.Errorf("names = %v", names)
	}
}

func TestToDOTSkipsDanglingEdges(t *testing.T) {
	g := rank.Graph{
		Nodes: []rank.Node{{ID: "A", Width: 10, Height: 10}},
		Edges: []rank.Edge{{From: "A", To: "missing", Weight: 1}},
	}
	dot, _ := ToDOT(g)
	if strings.Contains(dot, "->") {
		t.Errorf("dangling edge emitted:\n%s", dot)
	}
}

func TestWeight(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.5, 1},
		{1, 2},
		{2, 4},
		{0.1, 1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := weight(tt.in); got != tt.want {
			t.Errorf("weight(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParsePlain(t *testing.T) {
	out := []byte(`graph 1 4.5 3.25
node n0 1.25 2.75 2.5 1 "" solid box black lightgrey
node n1 3.5 0.5 2.5 1 "" solid box black lightgrey
edge n0 n1 4 1.25 2.25 1.25 1.5 3.5 1.5 3.5 1 solid black
stop
`)
	centers, err := parsePlain(out, map[string]string{"n0": "A", "n1": "B"})
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}
	if got, want := centers["A"], (rank.Point{X: 90, Y: 36}); got != want {
		t.Errorf("A = %+v, want %+v", got, want)
	}
	if got, want := centers["B"], (rank.Point{X: 252, Y: 198}); got != want {
		t.Errorf("B = %+v, want %+v", got, want)
	}
}

func TestParsePlainErrors(t *testing.T) {
	names := map[string]string{"n0": "A"}
	tests := []struct {
		name string
		out  string
	}{
		{"missing node", "graph 1 1 1\nstop\n"},
		{"node before graph", "node n0 1 1 1 1 \"\" solid box black lightgrey\n"},
		{"bad height", "graph 1 1 x\n"},
		{"bad coordinate", "graph 1 1 1\nnode n0 a 1 1 1\nstop\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePlain([]byte(tt.out), names); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize(`node "a b" 1 "say \"hi\""  ""`)
	want := []string{"node", "a b", "1", `say "hi"`, ""}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func solve(t *testing.T, g rank.Graph) map[string]rank.Point {
	t.Helper()
	s := New()
	t.Cleanup(func() { _ = s.Close() })
	centers, err := s.Solve(context.Background(), g)
	if errors.Is(err, rank.ErrUnavailable) {
		t.Skipf("graphviz unavailable: %v", err)
	}
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return centers
}

func TestSolveRanksAndSiblings(t *testing.T) {
	centers := solve(t, sampleGraph())

	if len(centers) != 5 {
		t.Fatalf("got %d centers, want 5", len(centers))
	}
	if math.Abs(centers["A"].Y-centers["B"].Y) > 0.01 {
		t.Errorf("partners on different ranks: %v vs %v", centers["A"].Y, centers["B"].Y)
	}
	if math.Abs(centers["C1"].Y-centers["C2"].Y) > 0.01 {
		t.Errorf("siblings on different ranks: %v vs %v", centers["C1"].Y, centers["C2"].Y)
	}
	if !(centers["A"].Y < centers["U"].Y && centers["U"].Y < centers["C1"].Y) {
		t.Errorf("ranks not top to bottom: A=%v U=%v C1=%v", centers["A"].Y, centers["U"].Y, centers["C1"].Y)
	}
	if gap := math.Abs(centers["C1"].X - centers["C2"].X); gap < 180+50-1 {
		t.Errorf("siblings overlap: gap %v", gap)
	}
}

func TestSolveSingleNode(t *testing.T) {
	centers := solve(t, rank.Graph{
		Nodes:   []rank.Node{{ID: "solo", Width: 180, Height: 72}},
		Options: rank.DefaultOptions(),
	})
	p, ok := centers["solo"]
	if !ok {
		t.Fatal("solo not positioned")
	}
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		t.Errorf("non-finite center %+v", p)
	}
	if math.Abs(p.X-90) > 0.5 || math.Abs(p.Y-36) > 0.5 {
		t.Errorf("center = %+v, want about (90, 36)", p)
	}
}

func TestSolveDeterministic(t *testing.T) {
	s := New()
	defer s.Close()
	first, err := s.Solve(context.Background(), sampleGraph())
	if errors.Is(err, rank.ErrUnavailable) {
		t.Skipf("graphviz unavailable: %v", err)
	}
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	second, err := s.Solve(context.Background(), sampleGraph())
	if err != nil {
		t.Fatalf("second Solve: %v", err)
	}
	for id, p := range first {
		if second[id] != p {
			t.Errorf("%s moved between solves: %+v -> %+v", id, p, second[id])
		}
	}
}

func TestSolveEmpty(t *testing.T) {
	centers, err := New().Solve(context.Background(), rank.Graph{})
	if err != nil || len(centers) != 0 {
		t.Errorf("Solve(empty) = %v, %v", centers, err)
	}
}

func TestSolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Solve(ctx, sampleGraph()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
