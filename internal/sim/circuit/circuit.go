package circuit

import (
	"errors"
	"fmt"

	"airace/internal/sim/geom"
)

var (
	ErrIndexOutOfRange = errors.New("anchor index out of range")
	ErrBadAnchor       = errors.New("bad anchor")
)

// Anchor is one waypoint of a circuit. Right is the unit lateral direction used for lane offsets.
type Anchor struct {
	Position geom.Vec3 `json:"pos"`
	Right    geom.Vec3 `json:"right"`
}

// Circuit is an ordered, closed loop of anchors. It is immutable after New and safe for
// concurrent readers.
type Circuit struct {
	name    string
	anchors []Anchor
}

// New copies anchors into a circuit. Right vectors are normalized; a zero or non-finite
// right vector or position is rejected. An empty anchor list is accepted here and rejected
// when a controller binds to the circuit.
func New(name string, anchors []Anchor) (*Circuit, error) {
	out := make([]Anchor, len(anchors))
	for i, a := range anchors {
		if !a.Position.IsFinite() {
			return nil, fmt.Errorf("%w: anchor %d: position not finite", ErrBadAnchor, i)
		}
		r, ok := a.Right.Normalize()
		if !ok {
			return nil, fmt.Errorf("%w: anchor %d: right vector has no direction", ErrBadAnchor, i)
		}
		out[i] = Anchor{Position: a.Position, Right: r}
	}
	return &Circuit{name: name, anchors: out}, nil
}

func (c *Circuit) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Count is the number of anchors (waypoints).
func (c *Circuit) Count() int {
	if c == nil {
		return 0
	}
	return len(c.anchors)
}

func (c *Circuit) AnchorAt(i int) (Anchor, error) {
	if c == nil || i < 0 || i >= len(c.anchors) {
		return Anchor{}, fmt.Errorf("%w: %d (count=%d)", ErrIndexOutOfRange, i, c.Count())
	}
	return c.anchors[i], nil
}

// Anchors returns a copy of all anchors in circuit order.
func (c *Circuit) Anchors() []Anchor {
	if c == nil {
		return nil
	}
	return append([]Anchor(nil), c.anchors...)
}

// Length is the closed-loop path length through the anchor positions.
func (c *Circuit) Length() float64 {
	n := c.Count()
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += c.anchors[i].Position.Dist(c.anchors[(i+1)%n].Position)
	}
	return sum
}
