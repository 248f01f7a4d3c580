package main

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"

	persistlog "airace/internal/persistence/log"
	"airace/internal/sim/circuit"
	"airace/internal/sim/geom"
	"airace/internal/sim/vehicle"
	"airace/internal/sim/world"
)

func TestReplay_RecordedRace(t *testing.T) {
	dir := t.TempDir()
	c, err := circuit.New("box", []circuit.Anchor{
		{Position: geom.V(0, 0, 0), Right: geom.V(-1, 0, -1)},
		{Position: geom.V(60, 0, 0), Right: geom.V(1, 0, -1)},
		{Position: geom.V(60, 0, 60), Right: geom.V(1, 0, 1)},
		{Position: geom.V(0, 0, 60), Right: geom.V(-1, 0, 1)},
	})
	if err != nil {
		t.Fatalf("circuit: %v", err)
	}
	w, err := world.New(world.WorldConfig{TickRateHz: 20, WaypointRadius: 2, LaneSpacing: 5, SpawnSpacing: 4, Seed: 9}, c, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	spec := vehicle.DefaultSpec()
	spec.TurnRate = 10
	for _, n := range []string{"Car_Red", "Car_Blue"} {
		if _, err := w.Spawn(n, spec); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}
	tl := persistlog.NewTickLogger(dir)
	w.SetTickLogger(tl)
	for i := 0; i < 100000; i++ {
		w.StepOnce(0.05)
		if w.Session().Finished() {
			break
		}
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want, ok := w.Session().Winner()
	if !ok {
		t.Fatalf("race did not finish")
	}

	var out bytes.Buffer
	sum, err := replay(dir, &out, false)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if sum.Winner != want {
		t.Fatalf("winner=%q want %q", sum.Winner, want)
	}
	if sum.Laps < 3 || sum.Ticks != int(w.CurrentTick()) {
		t.Fatalf("summary=%+v tick=%d", sum, w.CurrentTick())
	}
	if !strings.Contains(out.String(), want+" won!") || !strings.Contains(out.String(), "Laps: 1/3") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestReplay_NoLogs(t *testing.T) {
	if _, err := replay(t.TempDir(), io.Discard, false); err == nil {
		t.Fatalf("expected error")
	}
}
