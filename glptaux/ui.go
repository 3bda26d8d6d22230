//go:build !tinygo && cgo

package glptaux

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt"
	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/gleval"
)

func ui(scene glpt.Scene, cfg UIConfig) error {
	if scene.Camera == nil {
		scene.Camera = glpt.NewCamera(ms3.Vec{})
	}
	prog := glpt.NewProgrammer()
	if cfg.Exposure != 0 {
		prog.Exposure = cfg.Exposure
	}
	sp, err := prog.Assemble(scene)
	if err != nil {
		return err
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()

	it, err := gleval.NewIntegrator(sp.Source, sp.Uniforms, gleval.IntegratorConfig{
		Width:          cfg.Width,
		Height:         cfg.Height,
		SamplesPerStep: cfg.SamplesPerStep,
		Tonemap:        cfg.Tonemap,
	})
	if err != nil {
		return err
	}
	defer it.Delete()
	it.Brightness = cfg.Brightness

	logger := glbuild.Logger()
	cam := scene.Camera
	var (
		lastMouseX, lastMouseY float64
		firstMouseMove         = true
		isMousePressed         = false
		dirty                  = false
	)
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		step, rot := cfg.MoveStep, cfg.RotateStep
		dirty = true
		switch key {
		case glfw.KeyW:
			cam.Move(ms3.Vec{Z: step})
		case glfw.KeyS:
			cam.Move(ms3.Vec{Z: -step})
		case glfw.KeyD:
			cam.Move(ms3.Vec{X: step})
		case glfw.KeyA:
			cam.Move(ms3.Vec{X: -step})
		case glfw.KeyE:
			cam.Move(ms3.Vec{Y: step})
		case glfw.KeyQ:
			cam.Move(ms3.Vec{Y: -step})
		case glfw.KeyRight:
			cam.RotateY(rot)
		case glfw.KeyLeft:
			cam.RotateY(-rot)
		case glfw.KeyUp:
			cam.RotateX(-rot)
		case glfw.KeyDown:
			cam.RotateX(rot)
		case glfw.KeyP:
			dirty = false
			logPick(scene, cam)
		case glfw.KeyEscape:
			dirty = false
			w.SetShouldClose(true)
		default:
			dirty = false
		}
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		deltaX := xpos - lastMouseX
		deltaY := ypos - lastMouseY
		if deltaX != 0 || deltaY != 0 {
			cam.RotateY(float32(deltaX) * cfg.MouseSensitivity)
			cam.RotateX(float32(deltaY) * cfg.MouseSensitivity)
			dirty = true
		}
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		if action == glfw.Press {
			isMousePressed = true
			firstMouseMove = true
			window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else if action == glfw.Release {
			isMousePressed = false
			window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})

	update := func(s glbuild.UniformSetter) error { return prog.Update(s, scene) }
	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if dirty {
			it.Clear()
			dirty = false
		}
		if cfg.MaxSamples <= 0 || it.Samples() < cfg.MaxSamples {
			err = it.Step(update)
			if err != nil {
				return err
			}
		}
		fbw, fbh := window.GetFramebufferSize()
		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		err = it.Display(fbw, fbh)
		if err != nil {
			return err
		}
		window.SwapBuffers()
		glfw.PollEvents()
		if it.Samples()%64 == 0 {
			logger.Debug("preview", "samples", it.Samples())
		}
	}
	return nil
}

// logPick logs the object under the center of the view.
func logPick(scene glpt.Scene, cam *glpt.Camera) {
	proj, ok := scene.Projection.(glpt.CameraRays)
	if !ok {
		return
	}
	ray := cam.Ray(proj, ms2.Vec{})
	idx, t := glpt.Pick(scene.Traceables, ray)
	if idx < 0 {
		glbuild.Logger().Info("pick: no object at view center")
		return
	}
	glbuild.Logger().Info("pick", "object", scene.Traceables[idx].Prefix(), "distance", t, "position", ray.At(t))
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "glpt preview", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
