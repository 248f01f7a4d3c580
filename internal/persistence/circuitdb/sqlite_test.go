package circuitdb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"airace/internal/sim/circuit"
	"airace/internal/sim/geom"
)

func testCircuit(t *testing.T, name string, n int) *circuit.Circuit {
	t.Helper()
	var anchors []circuit.Anchor
	for i := 0; i < n; i++ {
		anchors = append(anchors, circuit.Anchor{
			Position: geom.V(float64(i*10), 0, float64(i%2)),
			Right:    geom.V(0, 0, 2),
		})
	}
	c, err := circuit.New(name, anchors)
	if err != nil {
		t.Fatalf("circuit.New: %v", err)
	}
	return c
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "circuits.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_PutGet(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	want := testCircuit(t, "zigzag", 5)
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "zigzag")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "zigzag" || got.Count() != 5 {
		t.Fatalf("got name=%q count=%d", got.Name(), got.Count())
	}
	for i := 0; i < 5; i++ {
		a, _ := got.AnchorAt(i)
		b, _ := want.AnchorAt(i)
		if a != b {
			t.Fatalf("anchor %d: got %+v want %+v", i, a, b)
		}
	}
}

func TestStore_PutReplaces(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	if err := s.Put(ctx, testCircuit(t, "loop", 6)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, testCircuit(t, "loop", 3)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "loop")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Count() != 3 {
		t.Fatalf("count=%d want 3", got.Count())
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	for _, n := range []string{"b", "a"} {
		if err := s.Put(ctx, testCircuit(t, n, 2)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Fatalf("list=%+v", list)
	}
	if list[0].Anchors != 2 || list[0].Digest == "" || list[0].UpdatedAt.IsZero() {
		t.Fatalf("summary=%+v", list[0])
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_DeleteRemovesAnchors(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	if err := s.Put(ctx, testCircuit(t, "x", 4)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM anchors`).Scan(&n); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 0 {
		t.Fatalf("anchors left=%d", n)
	}
}

func TestDigest_StableAndSensitive(t *testing.T) {
	a1, err := Digest(testCircuit(t, "d", 3))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	a2, _ := Digest(testCircuit(t, "d", 3))
	b, _ := Digest(testCircuit(t, "d", 4))
	if a1 != a2 || a1 == b {
		t.Fatalf("digests a1=%s a2=%s b=%s", a1, a2, b)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error")
	}
}
