package tuning

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"airace/internal/sim/race"
	"airace/internal/sim/vehicle"
)

type Tuning struct {
	TickRateHz     int     `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	WaypointRadius float64 `yaml:"waypoint_radius" json:"waypoint_radius"`
	LaneSpacing    float64 `yaml:"lane_spacing" json:"lane_spacing"`
	SpawnSpacing   float64 `yaml:"spawn_spacing" json:"spawn_spacing"`

	// ParallelAgents ticks each agent on its own goroutine within a step.
	ParallelAgents bool `yaml:"parallel_agents" json:"parallel_agents"`

	// Seed drives lane draws. 0 means seed from the clock.
	Seed int64 `yaml:"seed" json:"seed"`

	Vehicle vehicle.Spec `yaml:"vehicle" json:"vehicle"`
	Agents  []AgentSpec  `yaml:"agents" json:"agents"`
}

type AgentSpec struct {
	Name string `yaml:"name" json:"name"`
	// Vehicle overrides the shared vehicle spec for this agent when set.
	Vehicle *vehicle.Spec `yaml:"vehicle,omitempty" json:"vehicle,omitempty"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:     30,
		WaypointRadius: race.DefaultWaypointRadius,
		LaneSpacing:    race.DefaultLaneSpacing,
		SpawnSpacing:   6,
		ParallelAgents: true,
		Vehicle:        vehicle.DefaultSpec(),
		Agents: []AgentSpec{
			{Name: "Car_Red"},
			{Name: "Car_Blue"},
			{Name: "Car_Green"},
		},
	}
}

// Load overlays the YAML file at path onto Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz must be in 1..1000 (got %d)", t.TickRateHz)
	}
	if !positive(t.WaypointRadius) {
		return fmt.Errorf("waypoint_radius must be > 0 (got %v)", t.WaypointRadius)
	}
	if !positive(t.LaneSpacing) {
		return fmt.Errorf("lane_spacing must be > 0 (got %v)", t.LaneSpacing)
	}
	if t.SpawnSpacing < 0 || math.IsNaN(t.SpawnSpacing) {
		return fmt.Errorf("spawn_spacing must be >= 0 (got %v)", t.SpawnSpacing)
	}
	if err := t.Vehicle.Validate(); err != nil {
		return err
	}
	if len(t.Agents) == 0 {
		return errors.New("agents: at least one agent required")
	}
	seen := map[string]bool{}
	for i, a := range t.Agents {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return fmt.Errorf("agents[%d]: empty name", i)
		}
		if seen[name] {
			return fmt.Errorf("agents[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if a.Vehicle != nil {
			if err := a.Vehicle.Validate(); err != nil {
				return fmt.Errorf("agents[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// VehicleFor returns the effective vehicle spec for agent i.
func (t Tuning) VehicleFor(i int) vehicle.Spec {
	if i >= 0 && i < len(t.Agents) && t.Agents[i].Vehicle != nil {
		return *t.Agents[i].Vehicle
	}
	return t.Vehicle
}

func positive(v float64) bool { return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) }
