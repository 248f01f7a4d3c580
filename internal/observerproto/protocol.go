package observerproto

// Version is the observer protocol version.
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
)

// Event types carried in TickMsg.Events and the tick log.
const (
	EventLap         = "LAP"
	EventFinish      = "FINISH"
	EventConfigError = "CONFIG_ERROR"
)

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// EveryTicks downsamples the stream; ticks carrying events are always sent.
	EveryTicks int `json:"every_ticks,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string  `json:"protocol_version"`
	WorldID         string  `json:"world_id"`
	SessionID       string  `json:"session_id"`
	Tick            uint64  `json:"tick"`
	TickRateHz      int     `json:"tick_rate_hz"`
	LapTarget       int     `json:"lap_target"`
	WaypointRadius  float64 `json:"waypoint_radius"`

	Circuit CircuitInfo `json:"circuit"`
	Agents  []AgentInfo `json:"agents"`
}

type CircuitInfo struct {
	Name    string       `json:"name"`
	Anchors []AnchorInfo `json:"anchors"`
}

type AnchorInfo struct {
	Pos   [3]float64 `json:"pos"`
	Right [3]float64 `json:"right"`
}

// AgentInfo carries the static, per-agent view a visualizer needs: lane and the
// lane-offset waypoint positions.
type AgentInfo struct {
	ID        string       `json:"agent_id"`
	Name      string       `json:"name"`
	Lane      int          `json:"lane"`
	Waypoints [][3]float64 `json:"waypoints,omitempty"`
	Disabled  bool         `json:"disabled,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Server -> Client. Sent every tick (subject to EveryTicks).
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	SessionID       string `json:"session_id"`

	Agents   []AgentState `json:"agents"`
	Events   []Event      `json:"events,omitempty"`
	Finished bool         `json:"finished"`
	Winner   string       `json:"winner,omitempty"`
}

type AgentState struct {
	ID       string     `json:"agent_id"`
	Name     string     `json:"name"`
	Pos      [3]float64 `json:"pos"`
	Forward  [3]float64 `json:"forward"`
	Target   [3]float64 `json:"target"`
	Speed    float64    `json:"speed"`
	Waypoint int        `json:"waypoint"`
	Lap      int        `json:"lap"`
	Lane     int        `json:"lane"`
	Winner   bool       `json:"winner,omitempty"`
}

type Event struct {
	Type      string `json:"type"`
	AgentID   string `json:"agent_id"`
	Lap       int    `json:"lap,omitempty"`
	LapTarget int    `json:"lap_target,omitempty"`
	Text      string `json:"text,omitempty"`
}
