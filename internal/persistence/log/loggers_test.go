package log

import (
	"path/filepath"
	"testing"
	"time"

	"airace/internal/observerproto"
	"airace/internal/sim/world"
)

func TestTickLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for i := 0; i < 5; i++ {
		e := world.TickLogEntry{Tick: uint64(i), DT: 0.05}
		if i == 4 {
			e.Events = []observerproto.Event{{Type: observerproto.EventFinish, AgentID: "A1", Text: "Car_Red won!"}}
			e.Finished = true
			e.Winner = "Car_Red"
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := TickFiles(dir)
	if err != nil {
		t.Fatalf("TickFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}

	var got []world.TickLogEntry
	if err := ReadTicks(files[0], func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadTicks: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("entries=%d", len(got))
	}
	last := got[4]
	if !last.Finished || last.Winner != "Car_Red" || len(last.Events) != 1 || last.Events[0].Text != "Car_Red won!" {
		t.Fatalf("last=%+v", last)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(filepath.Join(dir, "events"), "events")
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(world.TickLogEntry{Tick: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := TickFiles(dir)
	if err != nil {
		t.Fatalf("TickFiles: %v", err)
	}
	if len(files) != 2 ||
		filepath.Base(files[0]) != "events-2026-03-01-10.jsonl.zst" ||
		filepath.Base(files[1]) != "events-2026-03-01-11.jsonl.zst" {
		t.Fatalf("files=%v", files)
	}
	for i, p := range files {
		var ticks []uint64
		if err := ReadTicks(p, func(e world.TickLogEntry) error { ticks = append(ticks, e.Tick); return nil }); err != nil {
			t.Fatalf("ReadTicks %s: %v", p, err)
		}
		if len(ticks) != 1 || ticks[0] != uint64(i+1) {
			t.Fatalf("%s ticks=%v", p, ticks)
		}
	}
}

func TestReadTicks_MissingFile(t *testing.T) {
	if err := ReadTicks(t.TempDir()+"/nope.jsonl.zst", func(world.TickLogEntry) error { return nil }); err == nil {
		t.Fatalf("expected error")
	}
}
