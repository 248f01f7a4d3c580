package world

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"airace/internal/observerproto"
	"airace/internal/sim/circuit"
	"airace/internal/sim/geom"
	"airace/internal/sim/race"
	"airace/internal/sim/vehicle"
)

type WorldConfig struct {
	ID             string
	TickRateHz     int
	WaypointRadius float64
	LaneSpacing    float64
	// SpawnSpacing is the grid spacing of the starting slots behind the last anchor.
	SpawnSpacing float64
	// Parallel ticks every agent on its own goroutine within a step.
	Parallel bool
	// Seed drives lane draws; 0 seeds from the clock.
	Seed int64
}

var (
	ErrStarted       = errors.New("world already running")
	ErrDuplicateName = errors.New("duplicate agent name")
)

// Agent is one spawned vehicle. Ctrl is nil when the controller failed to bind; such an
// agent is never ticked.
type Agent struct {
	ID      string
	Name    string
	Car     *vehicle.Car
	Ctrl    *race.Controller
	BindErr error
}

func (a *Agent) Enabled() bool { return a != nil && a.Ctrl != nil }

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick     uint64                     `json:"tick"`
	DT       float64                    `json:"dt"`
	Agents   []observerproto.AgentState `json:"agents"`
	Events   []observerproto.Event      `json:"events,omitempty"`
	Finished bool                       `json:"finished"`
	Winner   string                     `json:"winner,omitempty"`
}

// World drives one race. Agents are spawned before Run; after that all mutable state is
// owned by the loop goroutine, except events (mutex) and metrics/bootstrap reads (atomics).
type World struct {
	cfg     WorldConfig
	circuit *circuit.Circuit
	session *race.Session
	log     *log.Logger
	rng     *rand.Rand

	tick      atomic.Uint64
	started   atomic.Bool
	running   atomic.Bool
	lapsTotal atomic.Uint64

	agents []*Agent
	byName map[string]*Agent

	tickLogger TickLogger

	eventsMu sync.Mutex
	pending  []observerproto.Event

	observers     map[string]*observerClient
	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	stop          chan struct{}
	stopOnce      sync.Once

	done     chan struct{}
	doneOnce sync.Once

	metrics atomic.Value // WorldMetrics
}

func New(cfg WorldConfig, c *circuit.Circuit, logger *log.Logger) (*World, error) {
	if cfg.TickRateHz <= 0 {
		return nil, fmt.Errorf("tick rate must be > 0 (got %d)", cfg.TickRateHz)
	}
	if cfg.ID == "" {
		cfg.ID = "race_1"
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &World{
		cfg:           cfg,
		circuit:       c,
		session:       race.NewSession(),
		log:           logger,
		rng:           rand.New(rand.NewSource(seed)),
		byName:        map[string]*Agent{},
		observers:     map[string]*observerClient{},
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 64),
		observerLeave: make(chan string, 16),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

// SetTickLogger must be called before Run.
func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) Config() WorldConfig       { return w.cfg }
func (w *World) Circuit() *circuit.Circuit { return w.circuit }
func (w *World) Session() *race.Session    { return w.session }
func (w *World) CurrentTick() uint64       { return w.tick.Load() }

// Agents returns the spawned agents in spawn order.
func (w *World) Agents() []*Agent { return append([]*Agent(nil), w.agents...) }

// Done is closed once the race has a winner.
func (w *World) Done() <-chan struct{} { return w.done }

// Spawn places a car on the starting grid and binds its controller. A bind failure is
// logged, the agent is kept as disabled, and the error is returned.
func (w *World) Spawn(name string, spec vehicle.Spec) (*Agent, error) {
	if w.started.Load() {
		return nil, ErrStarted
	}
	if _, ok := w.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	pos, rot := w.startSlot(len(w.agents))
	a := &Agent{
		ID:   fmt.Sprintf("A%d", len(w.agents)+1),
		Name: name,
		Car:  vehicle.NewCar(spec, pos, rot),
	}
	w.agents = append(w.agents, a)
	w.byName[name] = a

	ctrl, err := race.NewController(race.Config{
		Name:           name,
		Circuit:        w.circuit,
		Transform:      a.Car,
		Actuator:       a.Car,
		Session:        w.session,
		Notifier:       notifier{w: w},
		WaypointRadius: w.cfg.WaypointRadius,
		LaneSpacing:    w.cfg.LaneSpacing,
		Rand:           w.rng,
	})
	if err != nil {
		a.BindErr = err
		w.log.Printf("agent %s disabled: %v", name, err)
		w.addEvent(observerproto.Event{Type: observerproto.EventConfigError, AgentID: a.ID, Text: err.Error()})
		return a, err
	}
	a.Ctrl = ctrl
	w.log.Printf("agent %s spawned id=%s lane=%d pos=%v", name, a.ID, ctrl.LaneIndex(), pos.Array())
	return a, nil
}

// startSlot lays cars out in rows of three behind the last anchor, facing anchor 0.
func (w *World) startSlot(k int) (geom.Vec3, geom.Quat) {
	n := w.circuit.Count()
	if n == 0 {
		return geom.Zero, geom.Identity()
	}
	last, _ := w.circuit.AnchorAt(n - 1)
	first, _ := w.circuit.AnchorAt(0)

	heading, ok := first.Position.Sub(last.Position).Normalize()
	if !ok {
		heading = geom.Forward
	}
	rot, ok := geom.LookRotation(heading, geom.Up)
	if !ok {
		rot = geom.Identity()
	}

	row := k / 3
	col := k%3 - 1
	pos := last.Position.
		Add(last.Right.Scale(float64(col) * w.cfg.SpawnSpacing)).
		Sub(heading.Scale(float64(row) * w.cfg.SpawnSpacing))
	return pos, rot
}

func (w *World) activeAgents() []*Agent {
	out := make([]*Agent, 0, len(w.agents))
	for _, a := range w.agents {
		if a.Enabled() {
			out = append(out, a)
		}
	}
	return out
}
