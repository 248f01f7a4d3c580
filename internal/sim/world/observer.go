package world

import (
	"strings"

	"airace/internal/observerproto"
	"airace/internal/sim/race"
)

// ObserverJoinRequest registers a read-only stream of TICK messages. Out is owned by the
// world once sent and is closed on leave or when Run returns.
type ObserverJoinRequest struct {
	SessionID  string
	Out        chan []byte
	EveryTicks int
}

// ObserverSubscribeRequest updates an existing observer session subscription settings.
type ObserverSubscribeRequest struct {
	SessionID  string
	EveryTicks int
}

type observerClient struct {
	id         string
	out        chan []byte
	everyTicks int
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	id := strings.TrimSpace(req.SessionID)
	if id == "" || req.Out == nil {
		return
	}
	if old := w.observers[id]; old != nil {
		close(old.out)
	}
	w.observers[id] = &observerClient{
		id:         id,
		out:        req.Out,
		everyTicks: ClampEveryTicks(req.EveryTicks),
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.everyTicks = ClampEveryTicks(req.EveryTicks)
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.out)
}

func (w *World) closeObservers() {
	for id, c := range w.observers {
		delete(w.observers, id)
		close(c.out)
	}
}

// ClampEveryTicks bounds a stream downsample factor to 1..100; values <= 0 mean every tick.
func ClampEveryTicks(n int) int {
	switch {
	case n <= 0:
		return 1
	case n > 100:
		return 100
	default:
		return n
	}
}

// Bootstrap is safe to call from any goroutine: everything it reads is fixed once Run starts.
func (w *World) Bootstrap() observerproto.BootstrapResponse {
	resp := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		WorldID:         w.cfg.ID,
		SessionID:       w.session.ID(),
		Tick:            w.tick.Load(),
		TickRateHz:      w.cfg.TickRateHz,
		LapTarget:       race.LapTarget,
		WaypointRadius:  w.cfg.WaypointRadius,
		Circuit:         observerproto.CircuitInfo{Name: w.circuit.Name()},
	}
	for _, an := range w.circuit.Anchors() {
		resp.Circuit.Anchors = append(resp.Circuit.Anchors, observerproto.AnchorInfo{
			Pos:   an.Position.Array(),
			Right: an.Right.Array(),
		})
	}
	for _, a := range w.agents {
		info := observerproto.AgentInfo{ID: a.ID, Name: a.Name}
		if !a.Enabled() {
			info.Disabled = true
			if a.BindErr != nil {
				info.Error = a.BindErr.Error()
			}
		} else {
			info.Lane = a.Ctrl.LaneIndex()
			for _, p := range a.Ctrl.OffsetWaypoints() {
				info.Waypoints = append(info.Waypoints, p.Array())
			}
		}
		resp.Agents = append(resp.Agents, info)
	}
	return resp
}
