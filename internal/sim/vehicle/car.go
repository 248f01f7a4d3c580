package vehicle

import (
	"fmt"
	"math"

	"airace/internal/sim/geom"
)

// Spec holds kinematic limits. Speeds are units/s, rates are units/s^2, TurnRate is the
// per-second slerp fraction handed to the steering controller.
type Spec struct {
	MaxSpeed     float64 `yaml:"max_speed" json:"max_speed"`
	MinSpeed     float64 `yaml:"min_speed" json:"min_speed"`
	Acceleration float64 `yaml:"acceleration" json:"acceleration"`
	Deceleration float64 `yaml:"deceleration" json:"deceleration"`
	TurnRate     float64 `yaml:"turn_rate" json:"turn_rate"`
}

func DefaultSpec() Spec {
	return Spec{
		MaxSpeed:     30,
		MinSpeed:     3,
		Acceleration: 12,
		Deceleration: 24,
		TurnRate:     4,
	}
}

func (s Spec) Validate() error {
	for name, v := range map[string]float64{
		"max_speed":    s.MaxSpeed,
		"min_speed":    s.MinSpeed,
		"acceleration": s.Acceleration,
		"deceleration": s.Deceleration,
		"turn_rate":    s.TurnRate,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("vehicle %s must be finite and >= 0 (got %v)", name, v)
		}
	}
	if s.MaxSpeed <= 0 {
		return fmt.Errorf("vehicle max_speed must be > 0")
	}
	if s.MinSpeed > s.MaxSpeed {
		return fmt.Errorf("vehicle min_speed %v exceeds max_speed %v", s.MinSpeed, s.MaxSpeed)
	}
	return nil
}

// Car is a point-mass vehicle that always drives along its forward axis.
// It is owned by a single controller and is not safe for concurrent use.
type Car struct {
	spec  Spec
	pos   geom.Vec3
	rot   geom.Quat
	speed float64

	odometer float64
}

func NewCar(spec Spec, pos geom.Vec3, rot geom.Quat) *Car {
	return &Car{spec: spec, pos: pos, rot: rot.Normalize()}
}

func (c *Car) Position() geom.Vec3 { return c.pos }
func (c *Car) Rotation() geom.Quat { return c.rot }

func (c *Car) SetRotation(q geom.Quat) {
	if !q.IsFinite() {
		return
	}
	c.rot = q.Normalize()
}

func (c *Car) Speed() float64    { return c.speed }
func (c *Car) Odometer() float64 { return c.odometer }
func (c *Car) TurnRate() float64 { return c.spec.TurnRate }
func (c *Car) Spec() Spec        { return c.spec }

func (c *Car) ApplyAcceleration(dt float64) {
	c.speed = approach(c.speed, c.spec.MaxSpeed, c.spec.Acceleration*dt)
}

// ApplyDeceleration slows toward MinSpeed, never to a standstill, so a car that starts
// braking short of a waypoint still arrives.
func (c *Car) ApplyDeceleration(dt float64) {
	c.speed = approach(c.speed, c.spec.MinSpeed, c.spec.Deceleration*dt)
}

func (c *Car) ApplyTranslation(dt float64) {
	if dt <= 0 || c.speed == 0 {
		return
	}
	step := c.speed * dt
	c.pos = c.pos.Add(c.rot.Forward().Scale(step))
	c.odometer += step
}

func approach(cur, target, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return cur
	}
	if cur < target {
		cur += maxDelta
		if cur > target {
			cur = target
		}
		return cur
	}
	if cur > target {
		cur -= maxDelta
		if cur < target {
			cur = target
		}
	}
	return cur
}
