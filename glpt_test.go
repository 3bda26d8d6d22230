package glpt_test

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt"
	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

// recordSetter records uniform uploads.
type recordSetter struct {
	calls map[string]int
	f     map[string]float32
	v3    map[string]ms3.Vec
	units map[string]int
	fail  string
}

func newRecordSetter() *recordSetter {
	return &recordSetter{
		calls: make(map[string]int),
		f:     make(map[string]float32),
		v3:    make(map[string]ms3.Vec),
		units: make(map[string]int),
	}
}

func (r *recordSetter) record(name string) error {
	if name == r.fail {
		return errors.New("forced failure")
	}
	r.calls[name]++
	return nil
}

func (r *recordSetter) Uniform1f(name string, v float32) error {
	r.f[name] = v
	return r.record(name)
}
func (r *recordSetter) Uniform2f(name string, v ms2.Vec) error { return r.record(name) }
func (r *recordSetter) Uniform3f(name string, v ms3.Vec) error {
	r.v3[name] = v
	return r.record(name)
}
func (r *recordSetter) UniformMat3(name string, m [9]float32) error { return r.record(name) }
func (r *recordSetter) Uniform1i(name string, v int32) error { return r.record(name) }
func (r *recordSetter) Texture2D(name string, unit int, tex uint32) error {
	r.units[name] = unit
	return r.record(name)
}
func (r *recordSetter) TextureCube(name string, unit int, tex uint32) error {
	r.units[name] = unit
	return r.record(name)
}

func basicScene(objs ...glbuild.Traceable) glpt.Scene {
	return glpt.Scene{
		Traceables:  objs,
		Projection:  &glpt.Perspective{},
		Environment: glpt.NewConstantEnvironment(glpt.ConstVec3{X: 1, Y: 1, Z: 1}),
		Bounces:     4,
	}
}

func assemble(t *testing.T, s glpt.Scene) glpt.SceneProgram {
	t.Helper()
	prog, err := glpt.NewProgrammer().Assemble(s)
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

func TestProcessIDs(t *testing.T) {
	bld := glpt.NewBuilder()
	d1 := bld.NewDiffuse()
	d2 := bld.NewDiffuse()
	absorb := bld.NewAbsorb()
	mirror := bld.NewReflect()
	glass := bld.NewSmoothDielectric(glpt.ConstFloat(1.5))
	black := bld.NewShinyBlack(glpt.ConstFloat(1.5))
	composite := bld.Attenuate(d1, glpt.ConstVec3{X: 0.5, Y: 0.5, Z: 0.5})
	if d1.ProcessID() != d2.ProcessID() {
		t.Error("materials of the same kind must share a process id")
	}
	if d1.InstanceID() == d2.InstanceID() {
		t.Error("distinct instances share an instance id")
	}
	pids := map[int]bool{}
	for _, m := range []glbuild.Material{d1, absorb, mirror, glass, black} {
		if m.ProcessID() == 0 {
			t.Errorf("terminal material %T has structural process id 0", m)
		}
		if pids[m.ProcessID()] {
			t.Errorf("process id %d reused across kinds", m.ProcessID())
		}
		pids[m.ProcessID()] = true
	}
	if composite.ProcessID() != 0 {
		t.Error("composite materials have no dispatch branch")
	}
	if kind := bld.IDs().Kind(glass.ProcessID()); kind != glpt.KindSmoothDielectric {
		t.Errorf("want kind %q, got %q", glpt.KindSmoothDielectric, kind)
	}
}

func TestDispatchBranchCount(t *testing.T) {
	bld := glpt.NewBuilder()
	diffuse := bld.NewDiffuse()
	s := basicScene(
		bld.NewSphere(ms3.Vec{Z: 5}, 1, diffuse, 0),
		bld.NewBox(ms3.Vec{X: -1, Y: -1, Z: 8}, ms3.Vec{X: 1, Y: 1, Z: 9}, bld.NewDiffuse(), 0),
		bld.NewPlane(ms3.Vec{Y: 1}, -1, bld.Attenuate(bld.NewReflect(), glpt.ConstVec3{X: 0.5, Y: 0.5, Z: 0.5}), 0),
		bld.NewSphere(ms3.Vec{X: 3, Z: 5}, 1, diffuse, 0),
	)
	prog := assemble(t, s)
	src := string(prog.Source)
	if len(prog.Entries) != 2 {
		t.Fatalf("want 2 dispatch entries (diffuse, reflect), got %d", len(prog.Entries))
	}
	if got := strings.Count(src, "} else if (bounceType == "); got != 2 {
		t.Errorf("want 2 dispatch branches, got %d", got)
	}
	if got := strings.Count(src, "if (bounceType == 0) {"); got != 1 {
		t.Errorf("want one environment branch, got %d", got)
	}
	// Shared diffuse instance, second diffuse instance, attenuate and reflect.
	if len(prog.Materials) != 4 {
		t.Errorf("want 4 distinct materials, got %d", len(prog.Materials))
	}
	for i := 1; i <= 4; i++ {
		if !strings.Contains(src, "} else if (hitObject == "+string(rune('0'+i))+") {") {
			t.Errorf("missing hit branch for object %d", i)
		}
	}
}

func TestDispatchOmitsUnusedKinds(t *testing.T) {
	bld := glpt.NewBuilder()
	diffuse := bld.NewDiffuse()
	unusedMetal := bld.NewMetal(glpt.ConstVec2{X: 0.2, Y: 3})
	unusedAbsorb := bld.NewAbsorb()
	prog := assemble(t, basicScene(
		bld.NewSphere(ms3.Vec{Z: 5}, 1, diffuse, 0),
		bld.NewPlane(ms3.Vec{Y: 1}, -1, bld.NewReflect(), 0),
	))
	src := string(prog.Source)
	if len(prog.Entries) != 2 {
		t.Fatalf("want 2 dispatch entries (diffuse, reflect), got %d", len(prog.Entries))
	}
	for _, unused := range []glbuild.Material{unusedMetal, unusedAbsorb} {
		pid := unused.ProcessID()
		for _, m := range prog.Entries {
			if m.ProcessID() == pid {
				t.Errorf("unused %s kind has a dispatch entry", bld.IDs().Kind(pid))
			}
		}
		if strings.Contains(src, "(bounceType == "+strconv.Itoa(pid)+")") {
			t.Errorf("unused %s kind has a dispatch branch", bld.IDs().Kind(pid))
		}
	}
	if strings.Contains(src, "iorComplex") {
		t.Error("locals of unused metal kind emitted")
	}
}

func TestCompositeCompleteness(t *testing.T) {
	bld := glpt.NewBuilder()
	metal := bld.NewMetal(glpt.ConstVec2{X: 0.2, Y: 3})
	inner := bld.FresnelComposite(bld.NewReflect(), bld.NewTransmit(glpt.ConstFloat(1), glpt.ConstFloat(1.5)), 1, 1.5)
	outer := bld.Switch(inner, bld.Emit(metal, glpt.ConstVec3{X: 2, Y: 2, Z: 2}), func(glbuild.HitSymbols) string {
		return "      ratio = 0.25;\n"
	})
	sphere := bld.NewSphere(ms3.Vec{Z: 4}, 1, outer, glpt.FlagTwoSided)
	prog := assemble(t, basicScene(sphere))
	src := string(prog.Source)
	for _, kind := range []string{glpt.KindReflect, glpt.KindTransmit, glpt.KindMetal} {
		found := false
		for _, m := range prog.Entries {
			if bld.IDs().Kind(m.ProcessID()) == kind {
				found = true
			}
		}
		if !found {
			t.Errorf("missing dispatch entry for nested %s material", kind)
		}
	}
	if prog.Materials[0] != outer {
		t.Error("top level material should be recorded before its sub-materials")
	}
	for _, want := range []string{
		"ratio = 0.25;",
		"fresnelDielectric(",
		"vec2 iorComplex;",
		"vec2 transmitIORs;",
		"const vec3 emission",
		"inside = (" + sphere.Prefix() + "hit.x < 0.0);",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in kernel", want)
		}
	}
}

func TestScenarioAbsorbingSphere(t *testing.T) {
	bld := glpt.NewBuilder()
	absorb := bld.NewAbsorb()
	sphere := bld.NewSphere(ms3.Vec{Z: 10}, 2, absorb, 0)
	scene := glpt.Scene{
		Traceables:  []glbuild.Traceable{sphere},
		Projection:  &glpt.Perspective{},
		Environment: glpt.NewConstantEnvironment(glpt.ConstVec3{X: 0.25, Y: 0.5, Z: 1}),
		Bounces:     3,
	}
	prog := assemble(t, scene)
	src := string(prog.Source)
	for _, want := range []string{
		"const vec3 environmentRadiance = vec3(0.25,0.5,1.0);\n",
		"vec3 attenuation = vec3(1.0);\n",
		"vec3 accumulation = vec3(0.0);\n",
		"for (int bounce = 0; bounce < 3; bounce++) {\n",
		// A missed ray adds E with unit attenuation and stops.
		"    if (bounceType == 0) {\n      accumulation = accumulation + attenuation * environmentRadiance;\n      break;\n",
		// Absorb stops without accumulating.
		"    } else if (bounceType == 1) {\n      break;\n    }\n",
		"return vec4(accumulation * 1.0, 1.0);\n",
		"vec4 sampleXY(vec2 p, float seed) {\n",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in kernel:\n%s", want, src)
		}
	}
	// Library code precedes the kernel function.
	kernel := strings.Index(src, "vec4 sampleXY(")
	for _, fn := range []string{"vec3 rayT(", "float pseudorandom(", "vec2 rayIntersectSphere("} {
		idx := strings.Index(src, fn)
		if idx < 0 || idx > kernel {
			t.Errorf("%q should be defined before the kernel", fn)
		}
	}
	wantUniforms := []string{glpt.UniformRotationMatrix, glpt.UniformCameraPosition}
	if strings.Join(prog.Uniforms, ",") != strings.Join(wantUniforms, ",") {
		t.Errorf("want uniforms %v, got %v", wantUniforms, prog.Uniforms)
	}

	// The CPU view of the same scene: the center ray hits the sphere front.
	cam := glpt.NewCamera(ms3.Vec{})
	ray := cam.Ray(&glpt.Perspective{}, ms2.Vec{})
	idx, dist := glpt.Pick(scene.Traceables, ray)
	if idx != 0 || math32.Abs(dist-8) > 1e-4 {
		t.Errorf("want hit on sphere at 8, got index %d at %v", idx, dist)
	}
	ray.Dir = ms3.Vec{Z: -1}
	idx, dist = glpt.Pick(scene.Traceables, ray)
	if idx != -1 || !math32.IsInf(dist, 1) {
		t.Errorf("want miss, got index %d at %v", idx, dist)
	}
}

type fixedHit float32

func (f fixedHit) HitTest(glpt.Ray) float32 { return float32(f) }

func TestNearestHit(t *testing.T) {
	objs := []fixedHit{5, 2, 8}
	idx, dist := glpt.Pick(objs, glpt.Ray{})
	if idx != 1 || dist != 2 {
		t.Errorf("want second object at 2, got %d at %v", idx, dist)
	}
	// Ties go to the first object in declaration order.
	idx, _ = glpt.Pick([]fixedHit{3, 3, 4}, glpt.Ray{})
	if idx != 0 {
		t.Errorf("tie should select first object, got %d", idx)
	}

	bld := glpt.NewBuilder()
	m := bld.NewDiffuse()
	a := bld.NewSphere(ms3.Vec{Z: 5}, 1, m, 0)
	b := bld.NewSphere(ms3.Vec{Z: 2}, 1, m, 0)
	c := bld.NewPlane(ms3.Vec{Z: -1}, -8, m, 0)
	src := string(assemble(t, basicScene(a, b, c)).Source)
	// The generated scan uses strict comparisons in declaration order.
	prev := 0
	for i, check := range []string{
		a.Prefix() + "hit.x < t) {\n      t = " + a.Prefix() + "hit.x;\n      hitObject = 1;",
		b.Prefix() + "hit.x < t) {\n      t = " + b.Prefix() + "hit.x;\n      hitObject = 2;",
		c.Prefix() + "hit < t) {\n      t = " + c.Prefix() + "hit;\n      hitObject = 3;",
	} {
		idx := strings.Index(src, check)
		if idx < 0 {
			t.Fatalf("missing strict nearest-hit check for object %d", i+1)
		}
		if idx < prev {
			t.Errorf("object %d tested out of declaration order", i+1)
		}
		prev = idx
	}
	idx, dist = glpt.Pick([]glbuild.Traceable{a, b, c}, glpt.Ray{Dir: ms3.Vec{Z: 1}})
	if idx != 1 || math32.Abs(dist-1) > 1e-4 {
		t.Errorf("want nearest sphere at 1, got %d at %v", idx, dist)
	}
}

func TestUniformDedup(t *testing.T) {
	bld := glpt.NewBuilder()
	shared := bld.NewPhongSpecular(&glpt.DynamicFloat{V: 20})
	other := bld.NewPhongSpecular(&glpt.DynamicFloat{V: 40})
	s := basicScene(
		bld.NewSphere(ms3.Vec{Z: 5}, 1, shared, glpt.FlagDynamic),
		bld.NewSphere(ms3.Vec{X: 2, Z: 5}, 1, shared, 0),
		bld.NewSphere(ms3.Vec{X: -2, Z: 5}, 1, other, 0),
	)
	s.Projection = glpt.NewPerspectiveDepth()
	prog := assemble(t, s)
	seen := map[string]bool{}
	for _, u := range prog.Uniforms {
		if seen[u] {
			t.Errorf("uniform %q listed twice", u)
		}
		seen[u] = true
	}
	sharedName := glbuild.InstanceName("phongN", shared.InstanceID())
	otherName := glbuild.InstanceName("phongN", other.InstanceID())
	for _, want := range []string{sharedName, otherName, "focalLength", "dofSpread", s.Traceables[0].Prefix() + "center"} {
		if !seen[want] {
			t.Errorf("missing uniform %q in %v", want, prog.Uniforms)
		}
	}
	src := string(prog.Source)
	if n := strings.Count(src, "uniform float "+sharedName+";"); n != 1 {
		t.Errorf("shared material preamble emitted %d times", n)
	}
	// Locals are declared once per kind.
	if n := strings.Count(src, "float phongSpecularN;"); n != 1 {
		t.Errorf("kind locals emitted %d times", n)
	}
	for _, snip := range []*glbuild.Snippet{glsllib.RayIntersectSphere, glsllib.UniformInsideDisk} {
		if n := strings.Count(src, snip.Source()); n != 1 {
			t.Errorf("snippet emitted %d times", n)
		}
	}
}

func TestProgrammerUpdate(t *testing.T) {
	bld := glpt.NewBuilder()
	color := &glpt.DynamicVec3{V: ms3.Vec{X: 1}}
	shared := bld.Attenuate(bld.NewDiffuse(), color)
	plane := bld.NewPlane(ms3.Vec{Y: 1}, 0, shared, glpt.FlagDynamic)
	sphere := bld.NewSphere(ms3.Vec{Y: 1}, 1, shared, glpt.FlagDynamic|glpt.FlagMotionBlur)
	sphere.Velocity = ms3.Vec{X: 1}
	sphere.Shutter = ms2.Vec{Y: 0.5}
	env := &glpt.TextureEnvironment{Texture: 7, Multiplier: 2, Rotation: 0.25}
	s := glpt.Scene{
		Traceables:  []glbuild.Traceable{plane, sphere},
		Projection:  glpt.NewPerspectiveDepth(),
		Environment: env,
		Bounces:     2,
		Camera:      glpt.NewCamera(ms3.Vec{Z: -5}),
	}
	var p glpt.Programmer
	prog := assemble(t, s)
	setter := newRecordSetter()
	err := p.Update(setter, s)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range prog.Uniforms {
		if setter.calls[name] != 1 {
			t.Errorf("uniform %q set %d times, want once", name, setter.calls[name])
		}
	}
	attName := glbuild.InstanceName("attenuation", shared.InstanceID())
	if setter.v3[attName] != color.V {
		t.Errorf("attenuation uploaded as %v", setter.v3[attName])
	}
	if setter.units["envTexture"] != 1 || setter.f["envRotation"] != 0.25 {
		t.Error("environment texture not bound")
	}
	if setter.f["focalLength"] != 33 || setter.f["dofSpread"] != 0.3 {
		t.Error("bad depth of field defaults")
	}
	setter = newRecordSetter()
	setter.fail = attName
	err = p.Update(setter, s)
	if err == nil || !strings.Contains(err.Error(), "forced failure") {
		t.Errorf("want wrapped setter error, got %v", err)
	}
}

func TestAssembleErrors(t *testing.T) {
	bld := glpt.NewBuilder()
	good := bld.NewSphere(ms3.Vec{Z: 5}, 1, bld.NewDiffuse(), 0)
	for _, test := range []struct {
		name  string
		scene glpt.Scene
	}{
		{name: "zero bounces", scene: glpt.Scene{Traceables: []glbuild.Traceable{good}, Projection: &glpt.Perspective{}, Environment: glpt.NewConstantEnvironment(glpt.ConstVec3{})}},
		{name: "nil environment", scene: glpt.Scene{Projection: &glpt.Perspective{}, Bounces: 1}},
		{name: "nil projection", scene: glpt.Scene{Environment: glpt.NewConstantEnvironment(glpt.ConstVec3{}), Bounces: 1}},
		{name: "nil traceable", scene: basicScene(good, nil)},
		{name: "duplicate traceable", scene: basicScene(good, good)},
	} {
		_, err := glpt.NewProgrammer().Assemble(test.scene)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}

	bld.NoConfigPanic = true
	wrap := bld.Attenuate(nil, glpt.ConstVec3{})
	if bld.Err() == nil {
		t.Fatal("expected accumulated configuration error")
	}
	_, err := glpt.NewProgrammer().Assemble(basicScene(bld.NewSphere(ms3.Vec{}, 1, wrap, 0)))
	if err == nil {
		t.Error("expected error for nil sub-material")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on misconfiguration")
			}
		}()
		glpt.NewBuilder().NewSphere(ms3.Vec{}, -1, nil, 0)
	}()
}

func TestAssembleDeterministic(t *testing.T) {
	bld := glpt.NewBuilder()
	s := basicScene(
		bld.NewSphere(ms3.Vec{Z: 5}, 1, bld.NewSmoothDielectric(glpt.ConstFloat(1.5)), glpt.FlagTwoSided),
		bld.NewBox(ms3.Vec{X: -10, Y: -2, Z: -10}, ms3.Vec{X: 10, Y: -1, Z: 10}, bld.NewDiffuse(), glpt.FlagDynamic),
		bld.NewPlane(ms3.Vec{Y: 1}, -3, bld.NewTexturedFloor(1, 2, 3), 0),
	)
	var buf bytes.Buffer
	p := glpt.NewProgrammer()
	n, prog, err := p.WriteScene(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	if n != buf.Len() || !bytes.Equal(buf.Bytes(), prog.Source) {
		t.Fatal("written source differs from program source")
	}
	for i := 0; i < 5; i++ {
		again := assemble(t, s)
		if !bytes.Equal(again.Source, prog.Source) {
			t.Fatal("assembly is not deterministic")
		}
	}
}

func TestDistanceField(t *testing.T) {
	bld := glpt.NewBuilder()
	field := glbuild.NewSnippet("float field(vec3 p) { return sdSphere(p, 1.0); }\n", glsllib.SdSphere)
	df := bld.NewDistanceField("field", field, glsllib.DefaultMarcherConfig(), bld.NewDiffuse())
	src := string(assemble(t, basicScene(df)).Source)
	for _, want := range []string{
		"vec2 " + df.Prefix() + "hit = " + df.Prefix() + "March(rayPos, rayDir);",
		"inside = (" + df.Prefix() + "hit.y < 0.0);",
		"normal = " + df.Prefix() + "Normal(rayPos, rayDir, hitPos);",
		"float field(vec3 p)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Index(src, "float field(vec3 p)") > strings.Index(src, "vec2 "+df.Prefix()+"March(") {
		t.Error("field must be defined before its marcher")
	}
}

func TestHitTests(t *testing.T) {
	bld := glpt.NewBuilder()
	m := bld.NewAbsorb()
	box := bld.NewBox(ms3.Vec{X: -1, Y: -1, Z: -1}, ms3.Vec{X: 1, Y: 1, Z: 1}, m, 0)
	plane := bld.NewPlane(ms3.Vec{Y: 2}, 1, m, 0)
	sphere := bld.NewSphere(ms3.Vec{}, 1, m, 0)
	inf := math32.Inf(1)
	for _, test := range []struct {
		name string
		obj  glpt.Hitter
		ray  glpt.Ray
		want float32
	}{
		{name: "box front", obj: box, ray: glpt.Ray{Pos: ms3.Vec{Z: -5}, Dir: ms3.Vec{Z: 1}}, want: 4},
		{name: "box inside", obj: box, ray: glpt.Ray{Dir: ms3.Vec{Z: 1}}, want: inf},
		{name: "box miss", obj: box, ray: glpt.Ray{Pos: ms3.Vec{X: 3, Z: -5}, Dir: ms3.Vec{Z: 1}}, want: inf},
		{name: "plane above", obj: plane, ray: glpt.Ray{Pos: ms3.Vec{Y: 4}, Dir: ms3.Vec{Y: -1}}, want: 3},
		{name: "plane behind", obj: plane, ray: glpt.Ray{Pos: ms3.Vec{Y: 4}, Dir: ms3.Vec{Y: 1}}, want: inf},
		{name: "sphere front", obj: sphere, ray: glpt.Ray{Pos: ms3.Vec{X: -3}, Dir: ms3.Vec{X: 1}}, want: 2},
		{name: "sphere inside", obj: sphere, ray: glpt.Ray{Dir: ms3.Vec{X: 1}}, want: 1},
		{name: "sphere behind", obj: sphere, ray: glpt.Ray{Pos: ms3.Vec{X: 3}, Dir: ms3.Vec{X: 1}}, want: inf},
	} {
		got := test.obj.HitTest(test.ray)
		if math32.IsInf(test.want, 1) {
			if !math32.IsInf(got, 1) {
				t.Errorf("%s: want miss, got %v", test.name, got)
			}
		} else if math32.Abs(got-test.want) > 1e-4 {
			t.Errorf("%s: want %v, got %v", test.name, test.want, got)
		}
	}
}

func TestCameraRotation(t *testing.T) {
	cam := glpt.NewCamera(ms3.Vec{})
	cam.RotateY(math32.Pi / 2)
	got := cam.ToWorld(ms3.Vec{Z: 1})
	if math32.Abs(got.X-1) > 1e-5 || math32.Abs(got.Z) > 1e-5 {
		t.Errorf("yaw by 90 degrees should look down +X, got %v", got)
	}
	cam.Move(ms3.Vec{Z: 2})
	if math32.Abs(cam.Position.X-2) > 1e-5 {
		t.Errorf("moving forward should follow view direction, got %v", cam.Position)
	}
	cam.RotateY(-math32.Pi / 2)
	cam.RotateX(math32.Pi / 2)
	got = cam.ToWorld(ms3.Vec{Z: 1})
	if math32.Abs(ms3.Norm(got)-1) > 1e-5 || math32.Abs(got.Z) > 1e-5 {
		t.Errorf("pitch should keep unit length and leave the XZ plane, got %v", got)
	}
}

func TestTexturedFloorInstances(t *testing.T) {
	bld := glpt.NewBuilder()
	floorA := bld.NewTexturedFloor(1, 2, 3)
	floorB := bld.NewTexturedFloor(4, 5, 6)
	s := basicScene(
		bld.NewPlane(ms3.Vec{Y: 1}, 0, floorA, 0),
		bld.NewPlane(ms3.Vec{Y: 1}, -10, floorB, 0),
	)
	prog := assemble(t, s)
	src := string(prog.Source)
	if len(prog.Entries) != 1 {
		t.Fatalf("floors share one dispatch branch, got %d entries", len(prog.Entries))
	}
	if got := strings.Count(src, "vec3 floorDiffuseTex;"); got != 1 {
		t.Errorf("floor locals declared %d times", got)
	}
	for _, m := range []glbuild.Material{floorA, floorB} {
		for _, base := range []string{"floorDiffuse", "floorDirt", "floorNormal"} {
			name := glbuild.InstanceName(base, m.InstanceID())
			if got := strings.Count(src, "uniform sampler2D "+name+";"); got != 1 {
				t.Errorf("%s declared %d times", name, got)
			}
			if !strings.Contains(src, "texture2D("+name+", ") {
				t.Errorf("%s never sampled", name)
			}
		}
	}
	if got := len(prog.Uniforms); got != len(glbuild.AppendUniqueStrings(nil, prog.Uniforms...)) {
		t.Errorf("duplicate uniform names in %v", prog.Uniforms)
	}

	setter := newRecordSetter()
	err := glpt.NewProgrammer().Update(setter, s)
	if err != nil {
		t.Fatal(err)
	}
	units := make(map[int]string)
	for name, unit := range setter.units {
		if unit <= 1 {
			t.Errorf("%s bound to reserved unit %d", name, unit)
		}
		if other, ok := units[unit]; ok {
			t.Errorf("%s and %s share texture unit %d", name, other, unit)
		}
		units[unit] = name
		if setter.calls[name] != 1 {
			t.Errorf("%s bound %d times", name, setter.calls[name])
		}
	}
	if len(units) != 6 {
		t.Errorf("want 6 floor texture units, got %d", len(units))
	}
}

func TestProgrammerExposure(t *testing.T) {
	bld := glpt.NewBuilder()
	s := basicScene(bld.NewSphere(ms3.Vec{Z: 5}, 1, bld.NewDiffuse(), 0))
	for _, test := range []struct {
		exposure float32
		want     string
	}{
		{0, "return vec4(accumulation * 1.0, 1.0);"},
		{1, "return vec4(accumulation * 1.0, 1.0);"},
		{2.5, "return vec4(accumulation * 2.5, 1.0);"},
	} {
		p := &glpt.Programmer{Exposure: test.exposure}
		prog, err := p.Assemble(s)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(prog.Source), test.want) {
			t.Errorf("exposure %v: kernel missing %q", test.exposure, test.want)
		}
	}
}
