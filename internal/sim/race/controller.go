package race

import (
	"errors"
	"math"
	"math/rand"

	"airace/internal/sim/circuit"
	"airace/internal/sim/geom"
)

const (
	DefaultWaypointRadius = 2.0
	DefaultLaneSpacing    = 40.0
)

var ErrBadLane = errors.New("lane index must be -1, 0 or 1")

// Transform is the agent's world transform, owned by the motion collaborator.
type Transform interface {
	Position() geom.Vec3
	Rotation() geom.Quat
	SetRotation(q geom.Quat)
}

// Actuator is the opaque vehicle motion model. dt is the elapsed tick duration in seconds.
type Actuator interface {
	ApplyAcceleration(dt float64)
	ApplyDeceleration(dt float64)
	ApplyTranslation(dt float64)
	TurnRate() float64
}

type State int

const (
	Racing State = iota
	Finished
)

func (s State) String() string {
	switch s {
	case Racing:
		return "RACING"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	Name      string
	Circuit   *circuit.Circuit
	Transform Transform
	Actuator  Actuator
	Session   *Session
	Notifier  Notifier // optional

	WaypointRadius float64 // <= 0 means DefaultWaypointRadius
	LaneSpacing    float64 // <= 0 means DefaultLaneSpacing

	// Lane pins the lane index. When nil it is drawn uniformly from {-1, 0, 1} using Rand
	// (or the global source when Rand is nil).
	Lane *int
	Rand *rand.Rand
}

// Controller steers one agent around a circuit. It is not safe for concurrent use; distinct
// controllers sharing a Session may tick concurrently.
type Controller struct {
	name      string
	circuit   *circuit.Circuit
	transform Transform
	actuator  Actuator
	session   *Session
	notifier  Notifier

	radius  float64
	spacing float64
	lane    int

	index    int
	lap      int
	advances int
	target   geom.Vec3
	winner   bool
}

// NewController binds a controller. Any error is a *ConfigError and the agent must not be ticked.
func NewController(cfg Config) (*Controller, error) {
	fail := func(err error) (*Controller, error) {
		return nil, &ConfigError{Agent: cfg.Name, Err: err}
	}
	switch {
	case cfg.Actuator == nil:
		return fail(ErrNoActuator)
	case cfg.Transform == nil:
		return fail(ErrNoTransform)
	case cfg.Circuit == nil:
		return fail(ErrNoCircuit)
	case cfg.Circuit.Count() == 0:
		return fail(ErrEmptyCircuit)
	case cfg.Session == nil:
		return fail(ErrNoSession)
	}

	c := &Controller{
		name:      cfg.Name,
		circuit:   cfg.Circuit,
		transform: cfg.Transform,
		actuator:  cfg.Actuator,
		session:   cfg.Session,
		notifier:  cfg.Notifier,
		radius:    cfg.WaypointRadius,
		spacing:   cfg.LaneSpacing,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.radius <= 0 || math.IsNaN(c.radius) {
		c.radius = DefaultWaypointRadius
	}
	if c.spacing <= 0 || math.IsNaN(c.spacing) {
		c.spacing = DefaultLaneSpacing
	}

	switch {
	case cfg.Lane != nil:
		if *cfg.Lane < -1 || *cfg.Lane > 1 {
			return fail(ErrBadLane)
		}
		c.lane = *cfg.Lane
	case cfg.Rand != nil:
		c.lane = cfg.Rand.Intn(3) - 1
	default:
		c.lane = rand.Intn(3) - 1
	}

	c.retarget()
	return c, nil
}

// Tick runs one simulation step. It does nothing once the session has finished.
func (c *Controller) Tick(dt float64) {
	if c.session.Finished() {
		return
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		dt = 0
	}

	pos := c.transform.Position()
	direction := c.target.Sub(pos)

	// Target on top of the agent has no heading; keep the current rotation this tick.
	if want, ok := geom.LookRotation(direction, geom.Up); ok {
		c.transform.SetRotation(geom.Slerp(c.transform.Rotation(), want, c.actuator.TurnRate()*dt))
	}

	if pos.Dist(c.target) > c.radius*2 {
		c.actuator.ApplyAcceleration(dt)
	} else {
		c.actuator.ApplyDeceleration(dt)
	}

	c.actuator.ApplyTranslation(dt)

	if c.transform.Position().Dist(c.target) <= c.radius {
		c.advance()
	}
}

func (c *Controller) advance() {
	c.index = (c.index + 1) % c.circuit.Count()
	c.advances++

	if c.index == 0 {
		c.lap++
		c.notifier.LapCompleted(LapUpdate{AgentID: c.name, Lap: c.lap, LapTarget: LapTarget})

		if c.lap >= LapTarget && c.session.TryFinish(c.name) {
			c.winner = true
			c.notifier.RaceFinished(Result{SessionID: c.session.ID(), Winner: c.name, Laps: c.lap})
		}
	}

	c.retarget()
}

func (c *Controller) retarget() {
	a, err := c.circuit.AnchorAt(c.index)
	if err != nil {
		return
	}
	c.target = c.offset(a)
}

func (c *Controller) offset(a circuit.Anchor) geom.Vec3 {
	return a.Position.Add(a.Right.Scale(float64(c.lane) * c.spacing))
}

func (c *Controller) Name() string { return c.name }

func (c *Controller) LaneIndex() int { return c.lane }

func (c *Controller) WaypointIndex() int { return c.index }

func (c *Controller) Lap() int { return c.lap }

// Advances is the total number of waypoints reached.
func (c *Controller) Advances() int { return c.advances }

func (c *Controller) Target() geom.Vec3 { return c.target }

func (c *Controller) WaypointRadius() float64 { return c.radius }

func (c *Controller) LaneSpacing() float64 { return c.spacing }

// IsWinner is true only for the agent that set the session latch.
func (c *Controller) IsWinner() bool { return c.winner }

func (c *Controller) State() State {
	if c.session.Finished() {
		return Finished
	}
	return Racing
}

// OffsetWaypoints returns every anchor position shifted into this agent's lane.
func (c *Controller) OffsetWaypoints() []geom.Vec3 {
	anchors := c.circuit.Anchors()
	out := make([]geom.Vec3, len(anchors))
	for i, a := range anchors {
		out[i] = c.offset(a)
	}
	return out
}
