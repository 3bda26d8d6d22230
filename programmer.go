package glpt

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

// KernelFunction is the name of the GLSL function generated by [Programmer]:
//
//	vec4 sampleXY(vec2 p, float seed)
//
// p is the pixel position in [0,1]x[0,1] screen coordinates and seed a per
// sample random seed. The function reads the vec2 uniform size, the render
// target size in pixels, which the caller must declare.
const KernelFunction = "sampleXY"

// Uniforms declared by every scene kernel.
const (
	UniformRotationMatrix = "rotationMatrix"
	UniformCameraPosition = "cameraPosition"
)

// infty is the distance of a ray that hit nothing.
const infty = "60000.0"

// Scene is a set of objects lit by an environment, seen through a projection.
type Scene struct {
	// Traceables are tested in order; on equal hit distance the first one wins.
	Traceables  []glbuild.Traceable
	Projection  glbuild.Projection
	Environment glbuild.Environment
	// Bounces is the maximum number of path segments traced per sample.
	Bounces int
	// Camera is optional. When set [Programmer.Update] uploads it.
	Camera *Camera
}

// SceneProgram is an assembled scene kernel.
type SceneProgram struct {
	// Source is the flattened GLSL defining [KernelFunction] and everything it needs.
	Source []byte
	// Uniforms are the names of all uniforms declared in Source, without duplicates.
	Uniforms []string
	// Snippets are the distinct library snippets the kernel depends on directly.
	Snippets []*glbuild.Snippet
	// Materials are the distinct material instances of the scene, each before its sub-materials.
	Materials []glbuild.Material
	// Entries holds the first material of each process id found, in dispatch order.
	Entries []glbuild.Material
}

// Programmer assembles scene kernels. The zero value is ready to use.
type Programmer struct {
	// Exposure scales the radiance returned by the kernel. Zero selects the
	// default exposure of 1, so an exposure of exactly 0 cannot be requested.
	Exposure float32
	scratch  []byte
}

// NewProgrammer returns a Programmer with unit exposure.
func NewProgrammer() *Programmer {
	return &Programmer{Exposure: 1}
}

// WriteScene assembles the scene kernel and writes its source to w.
func (p *Programmer) WriteScene(w io.Writer, s Scene) (int, SceneProgram, error) {
	prog, err := p.Assemble(s)
	if err != nil {
		return 0, prog, err
	}
	n, err := w.Write(prog.Source)
	return n, prog, err
}

// Assemble generates the path tracing kernel of a scene.
func (p *Programmer) Assemble(s Scene) (SceneProgram, error) {
	var prog SceneProgram
	err := validateScene(s)
	if err != nil {
		return prog, err
	}
	prog.Materials, err = collectMaterials(prog.Materials, s.Traceables)
	if err != nil {
		return prog, err
	}
	prog.Entries = dispatchEntries(prog.Entries, prog.Materials)

	// Snippets required directly by the kernel body.
	snippets := []*glbuild.Snippet{glsllib.RayT, glsllib.Pseudorandom}
	snippets = s.Environment.AppendSnippets(snippets)
	snippets = s.Projection.AppendSnippets(snippets)
	for _, obj := range s.Traceables {
		snippets = obj.AppendSnippets(snippets)
	}
	for _, m := range prog.Materials {
		snippets = m.AppendSnippets(snippets)
	}
	prog.Snippets = glbuild.AppendUniqueSnippets(nil, snippets...)

	prog.Uniforms = []string{UniformRotationMatrix, UniformCameraPosition}
	prog.Uniforms = appendUniqueUniforms(prog.Uniforms, s.Environment.AppendUniforms)
	prog.Uniforms = appendUniqueUniforms(prog.Uniforms, s.Projection.AppendUniforms)
	for _, obj := range s.Traceables {
		prog.Uniforms = appendUniqueUniforms(prog.Uniforms, obj.AppendUniforms)
	}
	for _, m := range prog.Materials {
		prog.Uniforms = appendUniqueUniforms(prog.Uniforms, m.AppendUniforms)
	}

	p.scratch = p.appendKernel(p.scratch[:0], s, &prog)
	root := glbuild.NewSnippet(string(p.scratch), prog.Snippets...)
	prog.Source, err = glbuild.Flatten(nil, root)
	if err != nil {
		return prog, fmt.Errorf("flattening scene kernel: %w", err)
	}
	logger().Debug("assembled scene kernel",
		slog.Int("objects", len(s.Traceables)),
		slog.Int("materials", len(prog.Materials)),
		slog.Int("entries", len(prog.Entries)),
		slog.Int("snippets", len(prog.Snippets)),
		slog.Int("uniforms", len(prog.Uniforms)),
		slog.Int("bytes", len(prog.Source)),
	)
	return prog, nil
}

func validateScene(s Scene) error {
	if s.Bounces <= 0 {
		return fmt.Errorf("scene needs at least one bounce, got %d", s.Bounces)
	} else if s.Environment == nil {
		return errors.New("nil scene environment")
	} else if s.Projection == nil {
		return errors.New("nil scene projection")
	}
	prefixes := make(map[string]struct{}, len(s.Traceables))
	for i, obj := range s.Traceables {
		if obj == nil {
			return fmt.Errorf("nil traceable at index %d", i)
		}
		prefix := obj.Prefix()
		if _, dup := prefixes[prefix]; dup {
			return fmt.Errorf("traceable %q at index %d appears more than once", prefix, i)
		}
		prefixes[prefix] = struct{}{}
		if obj.Material() == nil {
			return fmt.Errorf("traceable %q has nil material", prefix)
		}
	}
	return nil
}

// collectMaterials appends the distinct materials reachable from objs in
// pre-order: every material before the sub-materials it requires.
func collectMaterials(dst []glbuild.Material, objs []glbuild.Traceable) ([]glbuild.Material, error) {
	seen := make(map[int]struct{})
	var visit func(m glbuild.Material) error
	visit = func(m glbuild.Material) error {
		if m == nil {
			return errors.New("nil sub-material")
		}
		id := m.InstanceID()
		if _, ok := seen[id]; ok {
			return nil
		}
		seen[id] = struct{}{}
		dst = append(dst, m)
		return m.ForEachMaterial(visit)
	}
	for _, obj := range objs {
		err := visit(obj.Material())
		if err != nil {
			return dst, fmt.Errorf("traceable %q: %w", obj.Prefix(), err)
		}
	}
	return dst, nil
}

// dispatchEntries appends the first material of each non-zero process id.
func dispatchEntries(dst []glbuild.Material, materials []glbuild.Material) []glbuild.Material {
	seen := make(map[int]struct{})
	for _, m := range materials {
		pid := m.ProcessID()
		if pid == 0 {
			continue
		}
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		dst = append(dst, m)
	}
	return dst
}

func appendUniqueUniforms(dst []string, appendUniforms func([]string) []string) []string {
	return glbuild.AppendUniqueStrings(dst, appendUniforms(nil)...)
}

func (p *Programmer) exposure() float32 {
	if p.Exposure == 0 {
		return 1
	}
	return p.Exposure
}

func (p *Programmer) appendKernel(b []byte, s Scene, prog *SceneProgram) []byte {
	sym := glbuild.DefaultHitSymbols()
	b = glbuild.AppendUniformDecl(b, "mat3", UniformRotationMatrix)
	b = glbuild.AppendUniformDecl(b, "vec3", UniformCameraPosition)
	b = append(b, "const float infty = "+infty+";\n"...)
	b = s.Environment.AppendPreamble(b)
	for _, obj := range s.Traceables {
		b = obj.AppendPreamble(b)
	}
	for _, m := range prog.Materials {
		b = m.AppendPreamble(b)
	}
	b = s.Projection.AppendPreamble(b)

	b = append(b, "\nvec4 "+KernelFunction+"(vec2 p, float seed) {\n"...)
	b = append(b, "  vec3 rayPos = cameraPosition;\n"...)
	b = append(b, "  vec2 pJittered = (p + (vec2(pseudorandom(seed * 34.16 + 2.6), pseudorandom(seed * 117.13 + 0.26)) - 0.5) / size) - 0.5;\n"...)
	b = s.Projection.AppendRayDir(b)
	b = append(b, `  vec3 attenuation = vec3(1.0);
  vec3 accumulation = vec3(0.0);
  float ior = `+glbuild.AirIOR+`;
  float iorNext;
  vec3 normal;
  vec3 hitPos;
  bool inside = false;
  int bounceType;
`...)
	for _, m := range prog.Entries {
		b = m.AppendLocals(b)
	}

	b = append(b, "  for (int bounce = 0; bounce < "...)
	b = strconv.AppendInt(b, int64(s.Bounces), 10)
	b = append(b, "; bounce++) {\n    int hitObject = 0;\n    float t = infty;\n    inside = false;\n"...)
	for _, obj := range s.Traceables {
		b = append(b, "    "...)
		b = append(b, obj.IntersectionType()...)
		b = append(b, ' ')
		b = append(b, obj.Prefix()...)
		b = append(b, "hit = "...)
		b = obj.AppendIntersection(b, sym.RayPos, sym.RayDir)
		b = append(b, ";\n"...)
	}
	for i, obj := range s.Traceables {
		hit := obj.Prefix() + "hit"
		b = append(b, "    if ("...)
		b = obj.AppendValidCheck(b, hit)
		b = append(b, " && "...)
		b = obj.AppendT(b, hit)
		b = append(b, " < t) {\n      t = "...)
		b = obj.AppendT(b, hit)
		b = append(b, ";\n      hitObject = "...)
		b = strconv.AppendInt(b, int64(i+1), 10)
		b = append(b, ";\n    }\n"...)
	}
	b = append(b, "    hitPos = rayT(rayPos, rayDir, t);\n"...)
	b = append(b, "    if (t == infty) {\n      bounceType = 0;\n"...)
	for i, obj := range s.Traceables {
		hit := obj.Prefix() + "hit"
		b = append(b, "    } else if (hitObject == "...)
		b = strconv.AppendInt(b, int64(i+1), 10)
		b = append(b, ") {\n"...)
		if inside := obj.AppendInside(nil, hit); len(inside) > 0 {
			b = append(b, "      inside = "...)
			b = append(b, inside...)
			b = append(b, ";\n"...)
		}
		b = append(b, "      normal = "...)
		b = obj.AppendNormal(b, hit, sym.HitPos, sym.RayPos, sym.RayDir)
		b = append(b, ";\n"...)
		b = obj.Material().AppendHitStatements(b, sym)
	}
	b = append(b, "    }\n    if (bounceType == 0) {\n"...)
	b = s.Environment.AppendEnvironment(b)
	b = append(b, "      break;\n"...)
	for _, m := range prog.Entries {
		b = append(b, "    } else if (bounceType == "...)
		b = strconv.AppendInt(b, int64(m.ProcessID()), 10)
		b = append(b, ") {\n"...)
		b = m.AppendProcessStatements(b, s.Traceables)
	}
	b = append(b, "    }\n  }\n  return vec4(accumulation * "...)
	b = glbuild.AppendFloat(b, p.exposure())
	b = append(b, ", 1.0);\n}\n"...)
	return b
}

// Update uploads the uniform values of every part of the scene. Each
// distinct material instance is updated once.
func (p *Programmer) Update(setter glbuild.UniformSetter, s Scene) error {
	if s.Camera != nil {
		err := s.Camera.Update(setter)
		if err != nil {
			return fmt.Errorf("camera: %w", err)
		}
	}
	if s.Environment != nil {
		err := s.Environment.Update(setter)
		if err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	if s.Projection != nil {
		err := s.Projection.Update(setter)
		if err != nil {
			return fmt.Errorf("projection: %w", err)
		}
	}
	for _, obj := range s.Traceables {
		err := obj.Update(setter)
		if err != nil {
			return fmt.Errorf("traceable %q: %w", obj.Prefix(), err)
		}
	}
	materials, err := collectMaterials(nil, s.Traceables)
	if err != nil {
		return err
	}
	for _, m := range materials {
		err = m.Update(setter)
		if err != nil {
			return fmt.Errorf("material %d: %w", m.InstanceID(), err)
		}
	}
	return nil
}
