// Package geometry implements periodic-box vector arithmetic and the rigid-body
// transforms (translation, rotation-about-a-pivot) that VMMC trial moves apply
// to a cluster of particles.
//
// MATHEMATICIAN: minimum-image convention under a rectangular periodic box,
// dimension-agnostic for D ∈ {2,3}.
// PHYSICIST: translations are invariant of pivot; rotations are about a
// caller-supplied pivot (usually the cluster seed) so that a rotated cluster
// stays rigid.
package geometry

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/num/quat"
)

// Box is an ordered D-tuple of periodic side lengths.
type Box struct {
	L []float64
}

// NewBox copies sides into a new Box. All sides must be positive; callers
// validate this (see vmmc.NewSimulation) since Box itself has no error return.
func NewBox(sides []float64) Box {
	return Box{L: append([]float64(nil), sides...)}
}

// Dim returns the box dimensionality (2 or 3 for valid configurations).
func (b Box) Dim() int { return len(b.L) }

// MinImage returns the representative of delta closest to the origin,
// componentwise: delta - L*round(delta/L).
func (b Box) MinImage(delta []float64) []float64 {
	out := make([]float64, len(delta))
	for d := range delta {
		out[d] = delta[d] - b.L[d]*math.Round(delta[d]/b.L[d])
	}
	return out
}

// Displacement returns the minimum-image displacement from a to c (c - a).
func (b Box) Displacement(a, c []float64) []float64 {
	delta := make([]float64, len(a))
	floats.SubTo(delta, c, a)
	return b.MinImage(delta)
}

// Distance returns the minimum-image Euclidean distance between a and c.
func (b Box) Distance(a, c []float64) float64 {
	return floats.Norm(b.Displacement(a, c), 2)
}

// Wrap canonicalizes p into the primary image, each component in [0, L_d).
func (b Box) Wrap(p []float64) []float64 {
	out := make([]float64, len(p))
	for d := range p {
		x := math.Mod(p[d], b.L[d])
		if x < 0 {
			x += b.L[d]
			if x >= b.L[d] {
				// A tiny negative x rounds up to exactly L_d.
				x = 0
			}
		}
		out[d] = x
	}
	return out
}

// Contains reports whether p already lies in the primary image.
func (b Box) Contains(p []float64) bool {
	for d, x := range p {
		if x < 0 || x >= b.L[d] {
			return false
		}
	}
	return true
}

// Translation is a rigid-body displacement applied identically to every
// cluster member.
type Translation struct {
	Delta []float64
}

// Rotation is a rigid-body rotation about a pivot. In 2D it is a signed
// angle; in 3D it is parameterized by a unit Axis and a signed Angle.
type Rotation struct {
	Dim   int
	Angle float64
	Axis  []float64 // unit length, 3D only
}

// ApplyTranslation returns p translated by t, wrapped into the primary image.
func (b Box) ApplyTranslation(p []float64, t Translation) []float64 {
	out := make([]float64, len(p))
	floats.AddTo(out, p, t.Delta)
	return b.Wrap(out)
}

// ApplyRotation returns pivot + R(minImage(p - pivot)), wrapped into the
// primary image. Using the minimum image of (p - pivot) rather than the raw
// difference is what lets a rotation's pivot sit anywhere in the box,
// including near a boundary, without the arm vector spuriously wrapping.
func (b Box) ApplyRotation(p, pivot []float64, rot Rotation) []float64 {
	arm := b.MinImage(sub(p, pivot))
	rotated := rotateVector(arm, rot)
	out := make([]float64, len(pivot))
	floats.AddTo(out, pivot, rotated)
	return b.Wrap(out)
}

// RotateOrientation rotates a unit orientation vector by rot with no
// translation and no periodic wrap, re-normalizing to absorb floating-point
// drift (orientation must stay unit length to the engine's tolerance).
func RotateOrientation(o []float64, rot Rotation) []float64 {
	return Normalize(rotateVector(o, rot))
}

func rotateVector(v []float64, rot Rotation) []float64 {
	if rot.Dim == 2 {
		return rotate2D(v, rot.Angle)
	}
	return rotate3D(v, rot.Axis, rot.Angle)
}

func rotate2D(v []float64, angle float64) []float64 {
	c, s := math.Cos(angle), math.Sin(angle)
	return []float64{c*v[0] - s*v[1], s*v[0] + c*v[1]}
}

// rotate3D rotates v about axis by angle using the quaternion sandwich
// product q·v·q⁻¹. For a unit quaternion q, conjugate and inverse coincide,
// so Conj(q) suffices.
func rotate3D(v, axis []float64, angle float64) []float64 {
	half := angle / 2
	s := math.Sin(half)
	q := quat.Number{Real: math.Cos(half), Imag: axis[0] * s, Jmag: axis[1] * s, Kmag: axis[2] * s}
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return []float64{r.Imag, r.Jmag, r.Kmag}
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.SubTo(out, a, b)
	return out
}

// Normalize returns v scaled to unit length. A zero vector is returned
// unchanged (there is no meaningful direction to normalize to).
func Normalize(v []float64) []float64 {
	n := floats.Norm(v, 2)
	out := make([]float64, len(v))
	copy(out, v)
	if n == 0 {
		return out
	}
	floats.Scale(1/n, out)
	return out
}

// IsUnit reports whether v has unit length to within tol.
func IsUnit(v []float64, tol float64) bool {
	return math.Abs(floats.Norm(v, 2)-1) <= tol
}

// SampleTranslation draws a trial translation with each component uniform
// in [-tMax, tMax]*diameter.
func SampleTranslation(rng *rand.Rand, dim int, tMax, diameter float64) Translation {
	delta := make([]float64, dim)
	for d := range delta {
		delta[d] = (rng.Float64()*2 - 1) * tMax * diameter
	}
	return Translation{Delta: delta}
}

// SampleRotation draws a trial rotation with angle magnitude uniform in
// [-thetaMax, thetaMax]. In 3D the axis is sampled uniformly on the unit
// sphere by normalizing three independent Gaussian draws.
func SampleRotation(rng *rand.Rand, dim int, thetaMax float64) Rotation {
	angle := (rng.Float64()*2 - 1) * thetaMax
	if dim == 2 {
		return Rotation{Dim: 2, Angle: angle}
	}
	return Rotation{Dim: 3, Angle: angle, Axis: sampleUnitSphere(rng, dim)}
}

func sampleUnitSphere(rng *rand.Rand, dim int) []float64 {
	v := make([]float64, dim)
	for {
		var normSq float64
		for d := range v {
			v[d] = rng.NormFloat64()
			normSq += v[d] * v[d]
		}
		if n := math.Sqrt(normSq); n > 1e-12 {
			floats.Scale(1/n, v)
			return v
		}
	}
}
