package glpt

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Ray is a half line starting at Pos with direction Dir.
type Ray struct {
	Pos ms3.Vec
	Dir ms3.Vec
}

// At returns the point at distance t along the ray, in units of Dir's length.
func (r Ray) At(t float32) ms3.Vec {
	return ms3.Add(r.Pos, ms3.Scale(t, r.Dir))
}

// Hitter is implemented by traceables that can be hit tested on the CPU.
type Hitter interface {
	// HitTest returns the distance along ray to the nearest hit or +Inf.
	HitTest(ray Ray) float32
}

// Pick returns the index of the object ray hits first and the hit distance.
// Objects are tested in order and a later object must be strictly closer to
// replace an earlier one, matching the selection done by the scene kernel.
// Objects that do not implement [Hitter] are skipped. Pick returns -1 and +Inf
// when nothing is hit.
func Pick[T any](objs []T, ray Ray) (index int, t float32) {
	index = -1
	t = math32.Inf(1)
	for i, obj := range objs {
		h, ok := any(obj).(Hitter)
		if !ok {
			continue
		}
		d := h.HitTest(ray)
		if d < t {
			index, t = i, d
		}
	}
	return index, t
}
