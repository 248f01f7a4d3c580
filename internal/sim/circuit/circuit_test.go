package circuit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"airace/internal/sim/geom"
)

func triangle(t *testing.T) *Circuit {
	t.Helper()
	c, err := New("tri", []Anchor{
		{Position: geom.V(0, 0, 0), Right: geom.V(1, 0, 0)},
		{Position: geom.V(10, 0, 0), Right: geom.V(0, 0, 2)},
		{Position: geom.V(10, 10, 0), Right: geom.V(-1, 0, 0)},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestAnchorAt_Bounds(t *testing.T) {
	c := triangle(t)
	if c.Count() != 3 {
		t.Fatalf("count: %d", c.Count())
	}
	for _, i := range []int{-1, 3, 100} {
		if _, err := c.AnchorAt(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("AnchorAt(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
	a, err := c.AnchorAt(1)
	if err != nil {
		t.Fatalf("AnchorAt(1): %v", err)
	}
	if a.Position != geom.V(10, 0, 0) {
		t.Fatalf("position: %+v", a.Position)
	}
	if a.Right != geom.V(0, 0, 1) {
		t.Fatalf("right should be normalized, got %+v", a.Right)
	}
}

func TestNew_RejectsZeroRight(t *testing.T) {
	_, err := New("bad", []Anchor{{Position: geom.V(1, 2, 3)}})
	if !errors.Is(err, ErrBadAnchor) {
		t.Fatalf("expected ErrBadAnchor, got %v", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	in := []Anchor{{Position: geom.V(1, 0, 0), Right: geom.V(1, 0, 0)}}
	c, err := New("copy", in)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in[0].Position = geom.V(99, 99, 99)
	a, _ := c.AnchorAt(0)
	if a.Position != geom.V(1, 0, 0) {
		t.Fatalf("circuit aliased caller slice: %+v", a.Position)
	}
	out := c.Anchors()
	out[0].Position = geom.V(5, 5, 5)
	a, _ = c.AnchorAt(0)
	if a.Position != geom.V(1, 0, 0) {
		t.Fatalf("Anchors() aliased internal slice: %+v", a.Position)
	}
}

func TestEmptyCircuit(t *testing.T) {
	c, err := New("empty", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Count() != 0 {
		t.Fatalf("count: %d", c.Count())
	}
	if _, err := c.AnchorAt(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	var nilc *Circuit
	if nilc.Count() != 0 {
		t.Fatalf("nil circuit count")
	}
}

func TestLength(t *testing.T) {
	c := triangle(t)
	// 10 + 10 + sqrt(200)
	want := 20 + 14.142135623730951
	if got := c.Length(); got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("length: got %v want %v", got, want)
	}
}

func TestDecode_YAMLAndJSON(t *testing.T) {
	y := []byte(`
name: square
anchors:
  - {pos: [0, 0, 0], right: [1, 0, 0]}
  - {pos: [0, 0, 50], right: [1, 0, 0]}
`)
	c, err := Decode(y)
	if err != nil {
		t.Fatalf("Decode yaml: %v", err)
	}
	if c.Name() != "square" || c.Count() != 2 {
		t.Fatalf("decoded %q count=%d", c.Name(), c.Count())
	}

	j := []byte(`{"name":"line","anchors":[{"pos":[1,2,3],"right":[0,0,1]}]}`)
	c, err = Decode(j)
	if err != nil {
		t.Fatalf("Decode json: %v", err)
	}
	a, _ := c.AnchorAt(0)
	if a.Position != geom.V(1, 2, 3) {
		t.Fatalf("position: %+v", a.Position)
	}
}

func TestDecode_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"missing anchors": `name: x`,
		"empty anchors":   `{name: x, anchors: []}`,
		"short vector":    `{name: x, anchors: [{pos: [0, 0], right: [1, 0, 0]}]}`,
		"unknown field":   `{name: x, anchors: [{pos: [0, 0, 0], right: [1, 0, 0], speed: 3}]}`,
		"string coord":    `{name: x, anchors: [{pos: [a, 0, 0], right: [1, 0, 0]}]}`,
	}
	for name, doc := range cases {
		if _, err := Decode([]byte(doc)); err == nil {
			t.Fatalf("%s: expected schema error", name)
		}
	}
}

func TestLoadFile_ShippedCircuits(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "..", "configs", "circuits", "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("no shipped circuits found")
	}
	for _, p := range paths {
		c, err := LoadFile(p)
		if err != nil {
			t.Fatalf("LoadFile(%s): %v", p, err)
		}
		if c.Count() == 0 {
			t.Fatalf("%s: empty circuit", p)
		}
	}
}

func TestLoadFile_WrapsPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(p, []byte("name: broken\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadFile(p)
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Fatalf("expected error naming the file, got %v", err)
	}
}

func TestEncodeYAML_Decodes(t *testing.T) {
	c := triangle(t)
	b, err := EncodeYAML(c)
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	back, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, b)
	}
	if back.Count() != c.Count() || back.Name() != c.Name() {
		t.Fatalf("mismatch: %q/%d", back.Name(), back.Count())
	}
}
