package world

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"airace/internal/observerproto"
)

func (w *World) Run(ctx context.Context) error {
	if w.running.Swap(true) {
		return ErrStarted
	}
	defer w.running.Store(false)
	w.started.Store(true)
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.closeObservers()

	dt := interval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case <-ticker.C:
			w.step(dt)
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// StepOnce advances the race by a single tick of dt seconds, the same way Run does.
// It must not be called concurrently with Run.
func (w *World) StepOnce(dt float64) uint64 {
	w.started.Store(true)
	tick := w.tick.Load()
	w.step(dt)
	return tick
}

func (w *World) step(dt float64) {
	start := time.Now()
	nowTick := w.tick.Load()
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		dt = 0
	}

	active := w.activeAgents()
	if !w.session.Finished() {
		if w.cfg.Parallel && len(active) > 1 {
			var wg sync.WaitGroup
			wg.Add(len(active))
			for _, a := range active {
				go func(a *Agent) {
					defer wg.Done()
					a.Ctrl.Tick(dt)
				}(a)
			}
			wg.Wait()
		} else {
			for _, a := range active {
				a.Ctrl.Tick(dt)
			}
		}
	}

	events := w.drainEvents()
	states := w.agentStates()
	winner, finished := w.session.Winner()

	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			DT:       dt,
			Agents:   states,
			Events:   events,
			Finished: finished,
			Winner:   winner,
		}); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}

	if len(w.observers) > 0 {
		msg := observerproto.TickMsg{
			Type:            observerproto.TypeTick,
			ProtocolVersion: observerproto.Version,
			Tick:            nowTick,
			SessionID:       w.session.ID(),
			Agents:          states,
			Events:          events,
			Finished:        finished,
			Winner:          winner,
		}
		if b, err := json.Marshal(msg); err == nil {
			for _, c := range w.observers {
				if len(events) == 0 && nowTick%uint64(c.everyTicks) != 0 {
					continue
				}
				sendLatest(c.out, b)
			}
		}
	}

	w.tick.Add(1)
	w.metrics.Store(WorldMetrics{
		Tick:         nowTick + 1,
		Agents:       len(w.agents),
		ActiveAgents: len(active),
		Observers:    len(w.observers),
		LapsTotal:    w.lapsTotal.Load(),
		Finished:     finished,
		Winner:       winner,
		StepMS:       float64(time.Since(start).Microseconds()) / 1000.0,
	})

	if finished {
		w.doneOnce.Do(func() { close(w.done) })
	}
}

func (w *World) agentStates() []observerproto.AgentState {
	out := make([]observerproto.AgentState, 0, len(w.agents))
	for _, a := range w.agents {
		if !a.Enabled() {
			continue
		}
		out = append(out, observerproto.AgentState{
			ID:       a.ID,
			Name:     a.Name,
			Pos:      a.Car.Position().Array(),
			Forward:  a.Car.Rotation().Forward().Array(),
			Target:   a.Ctrl.Target().Array(),
			Speed:    a.Car.Speed(),
			Waypoint: a.Ctrl.WaypointIndex(),
			Lap:      a.Ctrl.Lap(),
			Lane:     a.Ctrl.LaneIndex(),
			Winner:   a.Ctrl.IsWinner(),
		})
	}
	return out
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
