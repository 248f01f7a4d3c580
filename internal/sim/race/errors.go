package race

import (
	"errors"
	"fmt"
)

var (
	ErrNoActuator   = errors.New("no actuator bound")
	ErrNoTransform  = errors.New("no transform bound")
	ErrNoCircuit    = errors.New("no waypoint circuit assigned")
	ErrEmptyCircuit = errors.New("waypoint circuit has no anchors")
	ErrNoSession    = errors.New("no race session")
)

// ConfigError is returned when a controller cannot be bound. It is permanent for that agent.
type ConfigError struct {
	Agent string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("controller config: %v", e.Err)
	}
	return fmt.Sprintf("controller config %s: %v", e.Agent, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
