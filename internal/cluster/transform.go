package cluster

import (
	"github.com/foldvedic/vmmc-core/internal/geometry"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

// Kind distinguishes the two trial rigid-body move types a cluster can be
// grown under.
type Kind int

const (
	Translate Kind = iota
	Rotate
)

// Transform is the trial rigid-body move a cluster is grown and, on
// acceptance, moved under. It is identical for every cluster member: the
// same translation vector, or the same rotation about the same pivot.
type Transform struct {
	Box   geometry.Box
	Kind  Kind
	T     geometry.Translation
	R     geometry.Rotation
	Pivot []float64
}

// Apply returns the hypothetical state of a particle currently at cur under
// this transform.
func (tf Transform) Apply(cur potential.State) potential.State {
	switch tf.Kind {
	case Translate:
		return potential.State{
			Pos:    tf.Box.ApplyTranslation(cur.Pos, tf.T),
			Orient: cur.Orient,
		}
	case Rotate:
		return potential.State{
			Pos:    tf.Box.ApplyRotation(cur.Pos, tf.Pivot, tf.R),
			Orient: geometry.RotateOrientation(cur.Orient, tf.R),
		}
	default:
		panic("cluster: unknown transform kind")
	}
}
