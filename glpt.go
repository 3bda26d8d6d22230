// Package glpt assembles GLSL path tracing kernels from composable scene parts.
//
// A scene is a list of traceable objects, each with a material, a camera
// projection and an environment. [Programmer] stitches their code into a
// single fragment shader function
//
//	vec4 sampleXY(vec2 p, float seed)
//
// that traces one light path per call. Shared GLSL library code is pulled in
// through the [glbuild.Snippet] dependency graph so every helper function is
// emitted once, before its first use.
package glpt

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/soypat/glpt/glbuild"
)

// Builder constructs materials and traceables. It owns the id allocator that
// gives every material its instance id and every material kind its process id,
// so all parts of a scene must be built with the same Builder.
// Provides error handling strategies with panics or error accumulation during construction.
type Builder struct {
	// NoConfigPanic makes configuration errors accumulate in Err instead of panicking.
	NoConfigPanic bool
	ids           *glbuild.IDAllocator
	accumErrs     []error
	// floors counts textured floors to give each its own texture units.
	floors int
}

// NewBuilder returns a Builder with a fresh id allocator.
func NewBuilder() *Builder {
	return &Builder{ids: glbuild.NewIDAllocator()}
}

// NewBuilderWithIDs returns a Builder that allocates ids from ids.
func NewBuilderWithIDs(ids *glbuild.IDAllocator) *Builder {
	if ids == nil {
		panic("nil IDAllocator")
	}
	return &Builder{ids: ids}
}

// IDs returns the Builder's id allocator.
func (bld *Builder) IDs() *glbuild.IDAllocator {
	if bld.ids == nil {
		bld.ids = glbuild.NewIDAllocator()
	}
	return bld.ids
}

// Err returns accumulated configuration errors when NoConfigPanic is set.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) configErrorf(msg string, args ...any) {
	if !bld.NoConfigPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

// SetLogger sets the logger used by glpt and its sub-packages. See [glbuild.SetLogger].
func SetLogger(l *slog.Logger) { glbuild.SetLogger(l) }

func logger() *slog.Logger { return glbuild.Logger() }

func absf(a float32) float32 { return math32.Abs(a) }

func minf(a, b float32) float32 { return math32.Min(a, b) }

func maxf(a, b float32) float32 { return math32.Max(a, b) }
