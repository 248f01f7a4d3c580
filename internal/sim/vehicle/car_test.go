package vehicle

import (
	"math"
	"testing"

	"airace/internal/sim/circuit"
	"airace/internal/sim/geom"
	"airace/internal/sim/race"
)

func TestCar_SpeedLimits(t *testing.T) {
	spec := Spec{MaxSpeed: 10, MinSpeed: 2, Acceleration: 4, Deceleration: 8, TurnRate: 1}
	c := NewCar(spec, geom.Zero, geom.Identity())

	c.ApplyAcceleration(1)
	if c.Speed() != 4 {
		t.Fatalf("speed after 1s accel: %v", c.Speed())
	}
	for i := 0; i < 10; i++ {
		c.ApplyAcceleration(1)
	}
	if c.Speed() != 10 {
		t.Fatalf("speed should cap at max, got %v", c.Speed())
	}
	c.ApplyDeceleration(0.5)
	if c.Speed() != 6 {
		t.Fatalf("speed after 0.5s decel: %v", c.Speed())
	}
	for i := 0; i < 10; i++ {
		c.ApplyDeceleration(1)
	}
	if c.Speed() != 2 {
		t.Fatalf("speed should floor at min, got %v", c.Speed())
	}
}

func TestCar_TranslationFollowsForward(t *testing.T) {
	rot, _ := geom.LookRotation(geom.V(1, 0, 0), geom.Up)
	c := NewCar(Spec{MaxSpeed: 10, Acceleration: 100}, geom.V(0, 0, 5), rot)
	c.ApplyAcceleration(1)
	c.ApplyTranslation(0.5)
	if got := c.Position(); got.Dist(geom.V(5, 0, 5)) > 1e-9 {
		t.Fatalf("position: %+v", got)
	}
	if math.Abs(c.Odometer()-5) > 1e-9 {
		t.Fatalf("odometer: %v", c.Odometer())
	}
	c.ApplyTranslation(-1)
	if got := c.Position(); got.Dist(geom.V(5, 0, 5)) > 1e-9 {
		t.Fatalf("negative dt moved the car: %+v", got)
	}
}

func TestCar_SetRotationRejectsNaN(t *testing.T) {
	c := NewCar(DefaultSpec(), geom.Zero, geom.Identity())
	c.SetRotation(geom.Quat{W: math.NaN()})
	if c.Rotation() != geom.Identity() {
		t.Fatalf("rotation: %+v", c.Rotation())
	}
}

func TestSpec_Validate(t *testing.T) {
	if err := DefaultSpec().Validate(); err != nil {
		t.Fatalf("default spec: %v", err)
	}
	bad := []Spec{
		{MaxSpeed: 0},
		{MaxSpeed: 5, MinSpeed: 6},
		{MaxSpeed: 5, Acceleration: -1},
		{MaxSpeed: math.Inf(1)},
		{MaxSpeed: 5, TurnRate: math.NaN()},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("expected error for %+v", s)
		}
	}
}

func TestCar_DrivesControllerAroundCircuit(t *testing.T) {
	c, err := circuit.New("square", []circuit.Anchor{
		{Position: geom.V(0, 0, 100), Right: geom.V(1, 0, 0)},
		{Position: geom.V(100, 0, 100), Right: geom.V(1, 0, 0)},
		{Position: geom.V(100, 0, 0), Right: geom.V(1, 0, 0)},
		{Position: geom.V(0, 0, 0), Right: geom.V(1, 0, 0)},
	})
	if err != nil {
		t.Fatalf("circuit: %v", err)
	}
	car := NewCar(Spec{MaxSpeed: 20, MinSpeed: 2, Acceleration: 20, Deceleration: 40, TurnRate: 10}, geom.Zero, geom.Identity())
	s := race.NewSession()
	zero := 0
	ctrl, err := race.NewController(race.Config{
		Name: "solo", Circuit: c, Transform: car, Actuator: car, Session: s, Lane: &zero,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	const dt = 0.05
	for i := 0; i < 200000 && !s.Finished(); i++ {
		ctrl.Tick(dt)
		if !car.Position().IsFinite() || !car.Rotation().IsFinite() {
			t.Fatalf("tick %d: non-finite state pos=%+v rot=%+v", i, car.Position(), car.Rotation())
		}
	}
	if !s.Finished() {
		t.Fatalf("race did not finish: lap=%d idx=%d pos=%+v", ctrl.Lap(), ctrl.WaypointIndex(), car.Position())
	}
	if ctrl.Lap() != race.LapTarget || !ctrl.IsWinner() {
		t.Fatalf("lap=%d winner=%v", ctrl.Lap(), ctrl.IsWinner())
	}
}
