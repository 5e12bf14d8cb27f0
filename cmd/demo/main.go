// Interactive viewer: a software-rasterized scene lit by the probe GI
// pipeline, tone-mapped and presented through OpenGL.
//
// Controls:
//
//	drag / arrows  orbit the camera
//	WASD           move the orbit target on the ground plane
//	scroll         zoom
//	1..6           final, indirect, probe atlas, depth, normals, velocity
//	space          pause the automatic orbit
//	R              reset accumulated history
//	escape         quit
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/chewxy/math32"

	"lumon/core"
	"lumon/gbuffer"
	"lumon/internal/opengl"
	"lumon/internal/raster"
	lmath "lumon/math"
	"lumon/pipeline"
	"lumon/scene"
)

// Render resolution for the software rasterizer and the pipeline. The
// presenter scales it up to the window.
const (
	renderWidth  = 480
	renderHeight = 270
)

type viewMode int

const (
	viewFinal viewMode = iota
	viewIndirect
	viewAtlas
	viewDepth
	viewNormals
	viewVelocity
)

var viewNames = [...]string{"final", "indirect", "atlas", "depth", "normals", "velocity"}

func main() {
	var (
		scenePath = flag.String("scene", "", "optional glTF scene to view instead of the built-in room")
		cfgPath   = flag.String("config", "", "optional pipeline config JSON")
	)
	flag.Parse()

	if err := run(*scenePath, *cfgPath); err != nil {
		log.Fatal(err)
	}
}

func run(scenePath, cfgPath string) error {
	window, err := core.NewWindow(core.WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "LumOn demo",
		Resizable: true,
		VSync:     true,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	presenter, err := opengl.NewPresenter()
	if err != nil {
		return err
	}
	defer presenter.Destroy()

	cfg := pipeline.DefaultConfig()
	if cfgPath != "" {
		if cfg, err = pipeline.LoadConfig(cfgPath); err != nil {
			return err
		}
	}
	pipe, err := pipeline.New(renderWidth, renderHeight, cfg)
	if err != nil {
		return err
	}

	sc := scene.DemoRoom()
	if scenePath != "" {
		if sc, err = scene.LoadGLTF(scenePath); err != nil {
			return err
		}
	}
	light := raster.Light{
		SunDir:   cfg.SunDir,
		SunColor: cfg.SunColor,
		Ambient:  cfg.AmbientColor.Mul(0.4),
	}

	cam := scene.NewOrbitCamera(lmath.NewVec3(0, 1.5, 0), 14,
		math32.Pi/3, float32(renderWidth)/float32(renderHeight))

	rast := raster.New(renderWidth, renderHeight)
	g := gbuffer.NewGBuffer(renderWidth, renderHeight)
	frame := gbuffer.NewRGBA32(renderWidth, renderHeight)

	mode := viewFinal
	autoOrbit := true
	window.SetKeyCallback(func(key int) {
		switch key {
		case core.Key1, core.Key2, core.Key3, core.Key4, core.Key5, core.Key6:
			mode = viewMode(key - core.Key1)
		case core.KeySpace:
			autoOrbit = !autoOrbit
		case core.KeyR:
			pipe.Reset()
		case core.KeyEscape:
			window.Close()
		}
	})
	window.SetScrollCallback(func(_, yoff float64) {
		cam.Zoom(float32(-yoff))
	})

	var lastX, lastY float64
	dragging := false
	frames := 0

	for !window.ShouldClose() {
		window.PollEvents()

		// Mouse drag orbits; arrow keys nudge.
		if window.IsMouseButtonPressed(0) {
			x, y := window.GetCursorPos()
			if dragging {
				cam.Orbit(float32(x-lastX)*0.01, float32(y-lastY)*0.01)
			}
			lastX, lastY = x, y
			dragging = true
		} else {
			dragging = false
		}
		if window.IsKeyPressed(core.KeyLeft) {
			cam.Orbit(-0.02, 0)
		}
		if window.IsKeyPressed(core.KeyRight) {
			cam.Orbit(0.02, 0)
		}
		if window.IsKeyPressed(core.KeyUp) {
			cam.Orbit(0, 0.02)
		}
		if window.IsKeyPressed(core.KeyDown) {
			cam.Orbit(0, -0.02)
		}
		// WASD pans the orbit target; moving the camera exercises
		// temporal reprojection.
		move := lmath.Vec3Zero
		if window.IsKeyPressed(core.KeyW) {
			move.Z -= 1
		}
		if window.IsKeyPressed(core.KeyS) {
			move.Z += 1
		}
		if window.IsKeyPressed(core.KeyA) {
			move.X -= 1
		}
		if window.IsKeyPressed(core.KeyD) {
			move.X += 1
		}
		if move != lmath.Vec3Zero {
			// Rotate the move vector into the camera's yaw frame.
			sin, cos := math32.Sin(cam.Yaw), math32.Cos(cam.Yaw)
			cam.Target = cam.Target.Add(lmath.NewVec3(
				move.X*cos+move.Z*sin, 0, -move.X*sin+move.Z*cos).Mul(0.1))
			cam.UpdatePosition()
		}
		if autoOrbit && !dragging {
			cam.Orbit(0.003, 0)
		}

		view := cam.ViewMatrix()
		proj := cam.ProjectionMatrix()

		rast.Render(g, sc, view, proj)
		if err := pipe.Render(g, view, proj, cam.NearPlane, cam.FarPlane); err != nil {
			return err
		}

		switch mode {
		case viewFinal:
			raster.Compose(frame, g, pipe, light)
		case viewIndirect:
			copyScaled(frame, pipe.Gathered())
		case viewAtlas:
			copyScaled(frame, pipe.Atlas().Radiance)
		case viewDepth:
			depthView(frame, g)
		case viewNormals:
			normalView(frame, g)
		case viewVelocity:
			velocityView(frame, pipe)
		}

		if err := presenter.Upload(renderWidth, renderHeight, frame.Pix); err != nil {
			return err
		}
		fbW, fbH := window.GetFramebufferSize()
		presenter.Present(fbW, fbH)
		window.SwapBuffers()

		frames++
		if frames%60 == 0 {
			s := pipe.Stats()
			window.SetTitle(fmt.Sprintf("LumOn demo | %s | frame %d | %d probes | %d world captures",
				viewNames[mode], s.Frame, s.Probes, s.WorldCaptures))
		}
	}
	return nil
}

// ── Debug views ────────────────────────────────────────────────────────

// copyScaled nearest-samples src into dst, stretching to fit.
func copyScaled(dst, src *gbuffer.RGBA32) {
	for y := 0; y < dst.Height; y++ {
		sy := y * src.Height / dst.Height
		for x := 0; x < dst.Width; x++ {
			sx := x * src.Width / dst.Width
			dst.Set(x, y, src.At(sx, sy))
		}
	}
}

func depthView(dst *gbuffer.RGBA32, g *gbuffer.GBuffer) {
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			d := g.Depth.At(x, y)
			// Remap the useful range so nearby geometry is visible.
			v := lmath.Saturate((d - 0.9) * 10)
			dst.Set(x, y, lmath.NewVec4(v, v, v, 1))
		}
	}
}

func normalView(dst *gbuffer.RGBA32, g *gbuffer.GBuffer) {
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			if g.IsSky(x, y) {
				dst.Set(x, y, lmath.NewVec4(0, 0, 0, 1))
				continue
			}
			n := g.WorldNormal(x, y).Mul(0.5).Add(lmath.NewVec3(0.5, 0.5, 0.5))
			dst.Set(x, y, n.ToVec4(1))
		}
	}
}

func velocityView(dst *gbuffer.RGBA32, pipe *pipeline.Pipeline) {
	vel := pipe.Velocity()
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			s := vel.Sample(x, y)
			dst.Set(x, y, lmath.NewVec4(
				lmath.Saturate(s.UV.X*10+0.5),
				lmath.Saturate(s.UV.Y*10+0.5),
				0, 1))
		}
	}
}
