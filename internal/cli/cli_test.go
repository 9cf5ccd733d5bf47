package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familymap/pkg/cache"
	"github.com/matzehuels/familymap/pkg/config"
	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
)

// testCLI returns a CLI with an isolated config, no cache, the layered
// solver and sequential IDs.
func testCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envCache, "none")
	t.Setenv(envSolver, "layered")
	t.Setenv(envPolicy, "")

	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.ids = &family.SequentialIDs{}
	return c
}

const (
	envCache  = "FAMILYMAP_CACHE"
	envSolver = "FAMILYMAP_SOLVER"
	envPolicy = "FAMILYMAP_POLICY"
)

func run(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.Out = &out
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, c *CLI, args ...string) string {
	t.Helper()
	out, err := run(t, c, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func load(t *testing.T, path string) family.Graph {
	t.Helper()
	g, _, err := document.Load(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return g
}

// buildFamily creates Ada and Bo with a child Cy in path:
// P_1 + P_2 -> U_1 -> P_3.
func buildFamily(t *testing.T, c *CLI, path string) {
	t.Helper()
	mustRun(t, c, "new", path)
	mustRun(t, c, "person", "add", path, "--name", "Ada", "--gender", "female", "--birth", "1815")
	mustRun(t, c, "person", "add", path, "--name", "Bo", "--gender", "male")
	mustRun(t, c, "person", "add", path, "--name", "Cy")
	mustRun(t, c, "connect", path, "P_1", "P_2")
	mustRun(t, c, "connect", path, "U_1", "P_3")
}

func TestNewRefusesOverwrite(t *testing.T) {
	c := testCLI(t)
	path := filepath.Join(t.TempDir(), "tree.yaml")

	mustRun(t, c, "new", path)
	if _, err := run(t, c, "new", path); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second new: err = %v, want INVALID_INPUT", err)
	}
	mustRun(t, c, "new", path, "--force")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "layoutDirection: TB") {
		t.Errorf("yaml document = %q", data)
	}
}

func TestPersonCommands(t *testing.T) {
	c := testCLI(t)
	path := filepath.Join(t.TempDir(), "tree.json")
	mustRun(t, c, "new", path)

	out := mustRun(t, c, "person", "add", path, "--name", "Ada", "--birth", "1815")
	if !strings.Contains(out, "Ada") || !strings.Contains(out, "P_1") {
		t.Errorf("add output = %q", out)
	}
	n, ok := load(t, path).Node("P_1")
	if !ok || n.Person.Name != "Ada" || n.Position != (family.Point{X: 40, Y: 40}) {
		t.Fatalf("added node = %+v", n)
	}

	mustRun(t, c, "person", "edit", path, "P_1", "--death", "1852")
	n, _ = load(t, path).Node("P_1")
	if n.Person.Name != "Ada" || n.Person.Birth != "1815" || n.Person.Death != "1852" {
		t.Errorf("edited person = %+v", *n.Person)
	}

	if _, err := run(t, c, "person", "edit", path, "P_9", "--name", "x"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("edit unknown: err = %v, want NOT_FOUND", err)
	}
	if _, err := run(t, c, "person", "add", path, "--gender", "robot"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad gender: err = %v, want INVALID_INPUT", err)
	}
}

func TestConnectAndDelete(t *testing.T) {
	c := testCLI(t)
	path := filepath.Join(t.TempDir(), "tree.json")
	buildFamily(t, c, path)

	g := load(t, path)
	u, ok := g.UnionFor("P_1", "P_2")
	if !ok || u.ID != "U_1" {
		t.Fatalf("union = %+v, %v", u, ok)
	}
	if !family.HasEdge(g.Edges, "U_1", "P_3", family.EdgeChild) {
		t.Error("child edge missing")
	}
	p1, _ := g.Node("P_1")
	p3, _ := g.Node("P_3")
	if p1.Position.Y >= p3.Position.Y {
		t.Errorf("parent y = %v, child y = %v; parents belong above", p1.Position.Y, p3.Position.Y)
	}

	out := mustRun(t, c, "connect", path, "P_2", "P_1")
	if !strings.Contains(out, "already exists") {
		t.Errorf("reconnect output = %q", out)
	}
	if _, err := run(t, c, "connect", path, "U_1", "P_1"); !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("cyclic connect: err = %v, want CYCLE_DETECTED", err)
	}
	if _, err := run(t, c, "connect", path, "P_3", "U_1"); !errors.Is(err, errors.ErrCodeInvalidConnection) {
		t.Errorf("person to union: err = %v, want INVALID_CONNECTION", err)
	}

	mustRun(t, c, "person", "delete", path, "P_1")
	g = load(t, path)
	if _, ok := g.Node("U_1"); ok {
		t.Error("union survived deleting a partner")
	}
	if len(g.Edges) != 0 {
		t.Errorf("edges after delete = %+v", g.Edges)
	}
}

func TestCycleCommand(t *testing.T) {
	c := testCLI(t)
	path := filepath.Join(t.TempDir(), "tree.json")
	buildFamily(t, c, path)

	if out := mustRun(t, c, "cycle", path, "P_3", "U_1"); !strings.Contains(out, "would create a cycle") {
		t.Errorf("cycle output = %q", out)
	}
	if out := mustRun(t, c, "cycle", path, "P_1", "P_3"); !strings.Contains(out, "is safe") {
		t.Errorf("safe output = %q", out)
	}
	if _, err := run(t, c, "cycle", path, "P_1", "nobody"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown node: err = %v, want NOT_FOUND", err)
	}
}

func TestCheck(t *testing.T) {
	c := testCLI(t)
	dir := t.TempDir()
	buildFamily(t, c, filepath.Join(dir, "a.json"))
	mustRun(t, c, "new", filepath.Join(dir, "nested", "b.toml"))

	out := mustRun(t, c, "check", filepath.Join(dir, "**", "*.{json,toml}"))
	if !strings.Contains(out, "a.json") || !strings.Contains(out, "b.toml") {
		t.Errorf("check output = %q", out)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"nodes":[{"id":"P_1","kind":"pet"}],"edges":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, c, "check", filepath.Join(dir, "*.json"))
	if err == nil {
		t.Fatal("check passed with an invalid document")
	}
	if !strings.Contains(out, string(errors.ErrCodeInvalidDocument)) {
		t.Errorf("check output = %q", out)
	}

	if _, err := run(t, c, "check", filepath.Join(dir, "*.yaml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("no matches: err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLayoutAndRender(t *testing.T) {
	c := testCLI(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "Lovelace Family.json")
	buildFamily(t, c, path)

	laid := filepath.Join(dir, "laid.json")
	out := mustRun(t, c, "layout", path, "-o", laid, "--policy", "friendly")
	if !strings.Contains(out, "Layout complete") {
		t.Errorf("layout output = %q", out)
	}
	if len(load(t, laid).Nodes) != 4 {
		t.Error("layout output lost nodes")
	}

	mustRun(t, c, "render", path, "--title", "Lovelace")
	svg, err := os.ReadFile(filepath.Join(dir, "lovelace_family.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("Ada")) {
		t.Errorf("svg = %.80q", svg)
	}

	if _, err := run(t, c, "render", path, "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("gif: err = %v, want INVALID_FORMAT", err)
	}
	if _, err := run(t, c, "layout", path, "--solver", "magic"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad solver: err = %v, want INVALID_INPUT", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, format string
		multi                 bool
		want                  string
	}{
		{"trees/My Tree.json", "", "svg", false, filepath.Join("trees", "my_tree.svg")},
		{"tree.yaml", "", "png", true, "tree.png"},
		{"tree.json", "out/diagram.svg", "svg", false, "out/diagram.svg"},
		{"tree.json", "out/diagram.svg", "pdf", true, "out/diagram.pdf"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.format, tt.multi); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q", tt.input, tt.output, tt.format, tt.multi, got, tt.want)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	c := testCLI(t)
	path := filepath.Join(t.TempDir(), "familymap.toml")

	mustRun(t, c, "--config", path, "config", "init")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}
	if _, err := run(t, c, "--config", path, "config", "init"); err == nil {
		t.Error("config init overwrote an existing file")
	}

	if out := mustRun(t, c, "--config", path, "config", "path"); strings.TrimSpace(out) != path {
		t.Errorf("config path = %q", out)
	}
	out := mustRun(t, c, "--config", path, "config", "show")
	for _, want := range []string{"[layout]", `solver = "layered"`, `backend = "none"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	if err := os.WriteFile(path, []byte("[layout]\npolicy = \"loose\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envPolicy, "")
	if _, err := run(t, c, "--config", path, "config", "show"); !errors.Is(err, errors.ErrCodeInvalidPolicy) {
		t.Errorf("bad config: err = %v, want INVALID_POLICY", err)
	}
}

func TestRunnerScopesKeys(t *testing.T) {
	c := testCLI(t)
	c.cfg = config.Default()
	c.cfg.Cache.Namespace = "ada"

	r, err := c.newRunner(context.Background(), "layered", true)
	if err != nil {
		t.Fatal(err)
	}
	key := r.Keyer.LayoutKey("doc", cache.LayoutKeyOpts{Policy: "strict"})
	if !strings.HasPrefix(key, "ada:") {
		t.Errorf("layout key = %q, want ada: prefix", key)
	}

	c.cfg.Cache.Namespace = ""
	if r, err = c.newRunner(context.Background(), "layered", true); err != nil {
		t.Fatal(err)
	}
	if key := r.Keyer.LayoutKey("doc", cache.LayoutKeyOpts{Policy: "strict"}); strings.HasPrefix(key, "ada:") {
		t.Errorf("unscoped key = %q", key)
	}
}

func TestCacheCommands(t *testing.T) {
	c := testCLI(t)

	if out := mustRun(t, c, "cache", "path"); strings.TrimSpace(out) != "disabled" {
		t.Errorf("cache path = %q", out)
	}
	if out := mustRun(t, c, "cache", "clear"); !strings.Contains(out, "Cleared 0") {
		t.Errorf("cache clear = %q", out)
	}

	dir := t.TempDir()
	t.Setenv(envCache, "file")
	cfg := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if out := mustRun(t, c, "--config", cfg, "cache", "path"); strings.TrimSpace(out) != filepath.ToSlash(dir) {
		t.Errorf("cache path = %q, want %q", out, dir)
	}
}

func TestCompletion(t *testing.T) {
	c := testCLI(t)
	out := mustRun(t, c, "completion", "bash")
	if !strings.Contains(out, "familymap") {
		t.Error("bash completion does not mention the program")
	}
	if _, err := run(t, c, "completion", "tcsh"); err == nil {
		t.Error("completion accepted an unknown shell")
	}
}
