package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"airace/internal/persistence/circuitdb"
	"airace/internal/sim/circuit"
	"airace/internal/sim/tuning"
	"airace/internal/sim/world"
)

type circuitSource struct {
	Path string
	DB   string
	Name string
}

// loadCircuit reads from the sqlite store when DB is set, otherwise from the circuit file.
func loadCircuit(ctx context.Context, src circuitSource) (*circuit.Circuit, error) {
	if db := strings.TrimSpace(src.DB); db != "" {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			return nil, fmt.Errorf("-circuit_name is required with -circuit_db")
		}
		store, err := circuitdb.Open(db)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Get(ctx, name)
	}
	if strings.TrimSpace(src.Path) == "" {
		return nil, fmt.Errorf("no circuit configured")
	}
	return circuit.LoadFile(src.Path)
}

// buildRace creates the world and spawns every configured agent. Agents whose controller
// fails to bind stay disabled; the race runs with the rest.
func buildRace(id string, tune tuning.Tuning, c *circuit.Circuit, logger *log.Logger) (*world.World, error) {
	w, err := world.New(world.WorldConfig{
		ID:             id,
		TickRateHz:     tune.TickRateHz,
		WaypointRadius: tune.WaypointRadius,
		LaneSpacing:    tune.LaneSpacing,
		SpawnSpacing:   tune.SpawnSpacing,
		Parallel:       tune.ParallelAgents,
		Seed:           tune.Seed,
	}, c, logger)
	if err != nil {
		return nil, err
	}
	disabled := 0
	for i, a := range tune.Agents {
		if _, err := w.Spawn(a.Name, tune.VehicleFor(i)); err != nil {
			disabled++
		}
	}
	if disabled == len(tune.Agents) && disabled > 0 {
		logger.Printf("all %d agents disabled; race cannot finish", disabled)
	}
	return w, nil
}
