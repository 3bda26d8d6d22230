package gleval

import (
	"strings"
	"testing"
)

const testKernel = "vec4 sampleXY(vec2 texCoord, float seed) { return vec4(texCoord, seed, 1.0); }\n"

func TestWeight(t *testing.T) {
	for _, test := range []struct {
		samples int
		want    float32
	}{
		{-1, 0},
		{0, 0},
		{1, 0.5},
		{3, 0.75},
		{9, 0.9},
	} {
		got := Weight(test.samples)
		if got != test.want {
			t.Errorf("Weight(%d)=%v, want %v", test.samples, got, test.want)
		}
	}
}

func TestIntegratorSource(t *testing.T) {
	src, err := AppendIntegratorSource(nil, []byte(testKernel), IntegratorConfig{SamplesPerStep: 5})
	if err != nil {
		t.Fatal(err)
	}
	s := string(src)
	if !strings.HasPrefix(s, "#version 330 core\n") {
		t.Error("missing core version directive:\n", s)
	}
	for _, want := range []string{
		"#define texture2D texture\n",
		"out vec4 fragColor;\n",
		"in vec2 texCoord;\n",
		"uniform float time;\n",
		"uniform float weight;\n",
		"uniform vec2 size;\n",
		"uniform sampler2D previousTexture;\n",
		testKernel,
		"texture2D(previousTexture, gl_FragCoord.xy / size).rgb",
		"for (int i = 0; i < 5; i++) {\n",
		"sampled = sampled + sampleXY(texCoord, time + float(i));\n",
		"fragColor = mix(sampled / 5.0, previous, weight);\n",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("integrator source missing %q", want)
		}
	}
	kernelAt := strings.Index(s, testKernel)
	mainAt := strings.Index(s, "void main()")
	if kernelAt < 0 || mainAt < kernelAt {
		t.Error("kernel must precede main")
	}
}

func TestIntegratorSourceES100(t *testing.T) {
	src, err := AppendIntegratorSource(nil, []byte(strings.TrimSuffix(testKernel, "\n")), IntegratorConfig{
		Profile:    ProfileES100,
		KernelName: "sampleXY",
	})
	if err != nil {
		t.Fatal(err)
	}
	s := string(src)
	for _, want := range []string{
		"#version 100\nprecision highp float;\n",
		"varying vec2 texCoord;\n",
		"gl_FragColor = mix(sampled / 1.0, previous, weight);\n",
		"1.0); }\nvoid main()",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("ES source missing %q:\n%s", want, s)
		}
	}
	for _, reject := range []string{"#define texture2D", "fragColor =", "in vec2 texCoord"} {
		if strings.Contains(s, reject) {
			t.Errorf("ES source must not contain %q", reject)
		}
	}
}

func TestIntegratorSourceEmpty(t *testing.T) {
	_, err := AppendIntegratorSource(nil, []byte(" \n"), IntegratorConfig{})
	if err != errEmptyKernel {
		t.Errorf("want empty kernel error, got %v", err)
	}
}

func TestQuadVertexSource(t *testing.T) {
	core := string(AppendQuadVertexSource(nil, ProfileCore330))
	es := string(AppendQuadVertexSource(nil, ProfileES100))
	if !strings.Contains(core, "in vec2 vertex;\nout vec2 texCoord;\n") {
		t.Error("core vertex source lacks attribute and output:\n", core)
	}
	if !strings.Contains(es, "attribute vec2 vertex;\nvarying vec2 texCoord;\n") {
		t.Error("ES vertex source lacks attribute and varying:\n", es)
	}
	for _, s := range []string{core, es} {
		if !strings.Contains(s, "texCoord = vertex.xy * 0.5 + 0.5;") {
			t.Error("vertex source does not map quad to texture coordinates")
		}
	}
}

func TestTonemapSources(t *testing.T) {
	for _, test := range []struct {
		tm   Tonemap
		want string
	}{
		{TonemapGamma, "brightness * pow(abs(color), vec3(1.0 / 2.2))"},
		{TonemapReinhard, "color = color / (vec3(1.0) + color);"},
		{TonemapFilmic, "(x * (6.2 * x + 0.5)) / (x * (6.2 * x + 1.7) + 0.06)"},
	} {
		s := string(AppendTonemapSource(nil, test.tm, ProfileCore330))
		if !strings.Contains(s, test.want) {
			t.Errorf("%s tonemap missing %q", test.tm, test.want)
		}
		if !strings.Contains(s, "uniform sampler2D inputTexture;\nuniform float brightness;\n") {
			t.Errorf("%s tonemap missing uniforms", test.tm)
		}
		parsed, err := ParseTonemap(test.tm.String())
		if err != nil || parsed != test.tm {
			t.Errorf("ParseTonemap(%q)=%v,%v", test.tm.String(), parsed, err)
		}
	}
	_, err := ParseTonemap("aces")
	if err == nil {
		t.Error("expected error parsing unknown tonemap")
	}
}

func TestConfigValidate(t *testing.T) {
	for _, cfg := range []IntegratorConfig{
		{Width: 0, Height: 10},
		{Width: 10, Height: -1},
		{Width: 10, Height: 10, Tonemap: TonemapFilmic + 1},
		{Width: 10, Height: 10, Profile: ProfileES100 + 1},
	} {
		if cfg.validate() == nil {
			t.Errorf("config %+v should be invalid", cfg)
		}
	}
	cfg := IntegratorConfig{Width: 4, Height: 4}.withDefaults()
	if err := cfg.validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.SamplesPerStep != 1 || cfg.KernelName != "sampleXY" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
