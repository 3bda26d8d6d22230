package glptaux

import (
	"context"

	"github.com/soypat/glpt"
	"github.com/soypat/glpt/gleval"
)

type UIConfig struct {
	Width, Height  int
	SamplesPerStep int
	// MaxSamples stops accumulating after this many steps. Zero accumulates forever.
	MaxSamples int
	Exposure   float32
	Tonemap    gleval.Tonemap
	Brightness float32
	// MoveStep is the camera translation per key press. Defaults to 1.
	MoveStep float32
	// RotateStep is the camera rotation per key press in radians. Defaults to 0.05.
	RotateStep float32
	// MouseSensitivity is radians of rotation per pixel of mouse drag. Defaults to 0.005.
	MouseSensitivity float32
	Context          context.Context
}

// UI opens a window that progressively path traces scene. W, A, S, D, Q and E
// move the camera, arrow keys and left mouse drag rotate it and P logs the
// object under the view center.
func UI(scene glpt.Scene, cfg UIConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Brightness == 0 {
		cfg.Brightness = 1
	}
	if cfg.MoveStep == 0 {
		cfg.MoveStep = 1
	}
	if cfg.RotateStep == 0 {
		cfg.RotateStep = 0.05
	}
	if cfg.MouseSensitivity == 0 {
		cfg.MouseSensitivity = 0.005
	}
	return ui(scene, cfg)
}
