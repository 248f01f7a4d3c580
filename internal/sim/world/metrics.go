package world

type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Agents       int `json:"agents"`
	ActiveAgents int `json:"active_agents"`
	Observers    int `json:"observers"`

	LapsTotal uint64 `json:"laps_total"`
	Finished  bool   `json:"finished"`
	Winner    string `json:"winner,omitempty"`

	StepMS float64 `json:"step_ms"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
