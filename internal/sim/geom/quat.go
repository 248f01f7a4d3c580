package geom

import "math"

// Quat is a rotation quaternion. The zero value is not a valid rotation; use Identity.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func Identity() Quat { return Quat{W: 1} }

func (q Quat) Dot(o Quat) float64 { return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z }

func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.Dot(q))
	if l < eps || !isFinite(l) {
		return Identity()
	}
	return Quat{W: q.W / l, X: q.X / l, Y: q.Y / l, Z: q.Z / l}
}

func (q Quat) IsFinite() bool {
	return isFinite(q.W) && isFinite(q.X) && isFinite(q.Y) && isFinite(q.Z)
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Forward is the local +Z axis in world space.
func (q Quat) Forward() Vec3 { return q.Rotate(Forward) }

// LookRotation returns the rotation whose forward axis points along forward, keeping the
// local up axis as close to up as possible. ok is false when forward has no direction.
// When forward is parallel to up another reference axis is used instead.
func LookRotation(forward, up Vec3) (Quat, bool) {
	f, ok := forward.Normalize()
	if !ok {
		return Identity(), false
	}
	r, ok := up.Cross(f).Normalize()
	if !ok {
		alt := Forward
		if math.Abs(f.Z) > 0.9 {
			alt = Right
		}
		r, ok = alt.Cross(f).Normalize()
		if !ok {
			return Identity(), false
		}
	}
	u := f.Cross(r)

	// Rotation matrix columns are (r, u, f).
	m00, m01, m02 := r.X, u.X, f.X
	m10, m11, m12 := r.Y, u.Y, f.Y
	m20, m21, m22 := r.Z, u.Z, f.Z

	var q Quat
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quat{W: 0.25 * s, X: (m21 - m12) / s, Y: (m02 - m20) / s, Z: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quat{W: (m21 - m12) / s, X: 0.25 * s, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quat{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: 0.25 * s, Z: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quat{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: 0.25 * s}
	}
	return q.Normalize(), true
}

// Slerp interpolates from a to b along the shortest arc. t is clamped to [0,1].
func Slerp(a, b Quat, t float64) Quat {
	t = clampF(t, 0, 1)
	if math.IsNaN(t) {
		t = 0
	}
	a = a.Normalize()
	b = b.Normalize()

	cos := a.Dot(b)
	if cos < 0 {
		b = Quat{W: -b.W, X: -b.X, Y: -b.Y, Z: -b.Z}
		cos = -cos
	}
	if cos > 0.9995 {
		// Nearly identical: linear blend avoids dividing by sin(~0).
		return Quat{
			W: a.W + (b.W-a.W)*t,
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
			Z: a.Z + (b.Z-a.Z)*t,
		}.Normalize()
	}
	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return Quat{
		W: a.W*wa + b.W*wb,
		X: a.X*wa + b.X*wb,
		Y: a.Y*wa + b.Y*wb,
		Z: a.Z*wa + b.Z*wb,
	}.Normalize()
}
