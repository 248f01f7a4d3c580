package world

import (
	"sort"

	"airace/internal/observerproto"
	"airace/internal/sim/race"
)

// notifier turns controller callbacks into log lines and pending tick events. Controllers
// may call it from parallel tick goroutines.
type notifier struct{ w *World }

func (n notifier) LapCompleted(u race.LapUpdate) {
	w := n.w
	w.lapsTotal.Add(1)
	w.log.Printf("%s %s", u.AgentID, u)
	w.addEvent(observerproto.Event{
		Type:      observerproto.EventLap,
		AgentID:   w.agentID(u.AgentID),
		Lap:       u.Lap,
		LapTarget: u.LapTarget,
		Text:      u.String(),
	})
}

func (n notifier) RaceFinished(r race.Result) {
	w := n.w
	w.log.Printf("session=%s %s", r.SessionID, r)
	w.addEvent(observerproto.Event{
		Type:      observerproto.EventFinish,
		AgentID:   w.agentID(r.Winner),
		Lap:       r.Laps,
		LapTarget: race.LapTarget,
		Text:      r.String(),
	})
}

// agentID maps a controller name to its agent id. byName is read-only once ticking starts.
func (w *World) agentID(name string) string {
	if a := w.byName[name]; a != nil {
		return a.ID
	}
	return name
}

func (w *World) addEvent(e observerproto.Event) {
	w.eventsMu.Lock()
	w.pending = append(w.pending, e)
	w.eventsMu.Unlock()
}

// drainEvents returns pending events ordered by agent spawn order so parallel ticks
// produce the same stream as sequential ones.
func (w *World) drainEvents() []observerproto.Event {
	w.eventsMu.Lock()
	out := w.pending
	w.pending = nil
	w.eventsMu.Unlock()
	if len(out) < 2 {
		return out
	}
	order := func(id string) int {
		for i, a := range w.agents {
			if a.ID == id {
				return i
			}
		}
		return len(w.agents)
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := order(out[i].AgentID), order(out[j].AgentID)
		if oi != oj {
			return oi < oj
		}
		return eventRank(out[i].Type) < eventRank(out[j].Type)
	})
	return out
}

func eventRank(t string) int {
	switch t {
	case observerproto.EventConfigError:
		return 0
	case observerproto.EventLap:
		return 1
	default:
		return 2
	}
}
