package main

import (
	"fmt"
	"net/http"

	"airace/internal/sim/world"
	"airace/internal/transport/observer"
)

func metricsHandler(w *world.World, obs *observer.Server) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		id := w.Config().ID
		m := w.Metrics()
		tick := w.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}
		finished := 0
		if m.Finished {
			finished = 1
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP airace_world_tick Current race tick.\n")
		fmt.Fprintf(rw, "# TYPE airace_world_tick gauge\n")
		fmt.Fprintf(rw, "airace_world_tick{race=%q} %d\n", id, tick)

		fmt.Fprintf(rw, "# HELP airace_world_agents Spawned agents, including disabled ones.\n")
		fmt.Fprintf(rw, "# TYPE airace_world_agents gauge\n")
		fmt.Fprintf(rw, "airace_world_agents{race=%q} %d\n", id, m.Agents)

		fmt.Fprintf(rw, "# HELP airace_world_active_agents Agents with a bound controller.\n")
		fmt.Fprintf(rw, "# TYPE airace_world_active_agents gauge\n")
		fmt.Fprintf(rw, "airace_world_active_agents{race=%q} %d\n", id, m.ActiveAgents)

		fmt.Fprintf(rw, "# HELP airace_world_observers Connected observer streams.\n")
		fmt.Fprintf(rw, "# TYPE airace_world_observers gauge\n")
		if obs != nil {
			fmt.Fprintf(rw, "airace_world_observers{race=%q} %d\n", id, obs.Active())
		} else {
			fmt.Fprintf(rw, "airace_world_observers{race=%q} %d\n", id, m.Observers)
		}

		fmt.Fprintf(rw, "# HELP airace_laps_total Laps completed by all agents.\n")
		fmt.Fprintf(rw, "# TYPE airace_laps_total counter\n")
		fmt.Fprintf(rw, "airace_laps_total{race=%q} %d\n", id, m.LapsTotal)

		fmt.Fprintf(rw, "# HELP airace_race_finished 1 once a winner is latched.\n")
		fmt.Fprintf(rw, "# TYPE airace_race_finished gauge\n")
		fmt.Fprintf(rw, "airace_race_finished{race=%q,winner=%q} %d\n", id, m.Winner, finished)

		fmt.Fprintf(rw, "# HELP airace_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE airace_world_step_ms gauge\n")
		fmt.Fprintf(rw, "airace_world_step_ms{race=%q} %.3f\n", id, m.StepMS)
	}
}
