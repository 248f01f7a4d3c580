package race

import "fmt"

// LapUpdate is emitted every time an agent crosses the lap boundary (waypoint index wraps to 0).
type LapUpdate struct {
	AgentID   string `json:"agent_id"`
	Lap       int    `json:"lap"`
	LapTarget int    `json:"lap_target"`
}

// String is the lap counter display text.
func (u LapUpdate) String() string { return fmt.Sprintf("Laps: %d/%d", u.Lap, u.LapTarget) }

// Result is emitted once per session, by the winning agent.
type Result struct {
	SessionID string `json:"session_id"`
	Winner    string `json:"winner"`
	Laps      int    `json:"laps"`
}

// String is the race status panel text.
func (r Result) String() string { return fmt.Sprintf("%s won!", r.Winner) }

// Notifier receives one-shot lap and result notifications. Implementations must be safe for
// concurrent use when agents tick in parallel.
type Notifier interface {
	LapCompleted(u LapUpdate)
	RaceFinished(r Result)
}

type nopNotifier struct{}

func (nopNotifier) LapCompleted(LapUpdate) {}
func (nopNotifier) RaceFinished(Result)    {}
