// Headless renderer: runs the GI pipeline for a fixed number of frames
// over the built-in demo scene (or a glTF file) and writes the final
// frame plus debug buffers as PNGs. Useful for inspecting convergence
// without a display.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"

	"lumon/gbuffer"
	"lumon/internal/raster"
	lmath "lumon/math"
	"lumon/pipeline"
	"lumon/scene"
)

func main() {
	var (
		frames    = flag.Int("frames", 32, "frames to accumulate before writing output")
		width     = flag.Int("width", 640, "render width in pixels")
		height    = flag.Int("height", 360, "render height in pixels")
		outDir    = flag.String("out", "out", "output directory for PNGs")
		scenePath = flag.String("scene", "", "optional glTF scene to render instead of the built-in room")
		cfgPath   = flag.String("config", "", "optional pipeline config JSON")
		orbit     = flag.Bool("orbit", false, "rotate the camera during accumulation")
		exposure  = flag.Float64("exposure", 1.0, "tone-map exposure")
	)
	flag.Parse()

	if err := run(*frames, *width, *height, *outDir, *scenePath, *cfgPath, *orbit, float32(*exposure)); err != nil {
		log.Fatal(err)
	}
}

func run(frames, width, height int, outDir, scenePath, cfgPath string, orbit bool, exposure float32) error {
	sc, err := loadScene(scenePath)
	if err != nil {
		return err
	}

	cfg := pipeline.DefaultConfig()
	if cfgPath != "" {
		if cfg, err = pipeline.LoadConfig(cfgPath); err != nil {
			return err
		}
	}
	pipe, err := pipeline.New(width, height, cfg)
	if err != nil {
		return err
	}
	light := raster.Light{
		SunDir:   cfg.SunDir,
		SunColor: cfg.SunColor,
		Ambient:  cfg.AmbientColor.Mul(0.4),
	}

	cam := scene.NewOrbitCamera(lmath.NewVec3(0, 1.5, 0), 14,
		math32.Pi/3, float32(width)/float32(height))

	rast := raster.New(width, height)
	g := gbuffer.NewGBuffer(width, height)

	for i := 0; i < frames; i++ {
		if orbit {
			cam.Orbit(0.003, 0)
		}
		view := cam.ViewMatrix()
		proj := cam.ProjectionMatrix()
		rast.Render(g, sc, view, proj)
		if err := pipe.Render(g, view, proj, cam.NearPlane, cam.FarPlane); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}

	frame := gbuffer.NewRGBA32(width, height)
	raster.Compose(frame, g, pipe, light)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	outputs := map[string]*gbuffer.RGBA32{
		"final.png":    frame,
		"indirect.png": pipe.Gathered(),
		"atlas.png":    pipe.Atlas().Radiance,
	}
	for name, buf := range outputs {
		path := filepath.Join(outDir, name)
		if err := writePNG(path, buf, exposure); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	s := pipe.Stats()
	fmt.Printf("rendered %d frames at %dx%d: %d probes, %d texels/frame, output in %s\n",
		frames, width, height, s.Probes, s.TracedTexels, outDir)
	return nil
}

func loadScene(path string) (*scene.Scene, error) {
	if path != "" {
		return scene.LoadGLTF(path)
	}
	return scene.DemoRoom(), nil
}

// writePNG tone-maps an HDR buffer (exposure + gamma 2.2) into an
// 8-bit PNG. Rows are flipped so +Y up in screen UV space becomes the
// usual top-down image layout.
func writePNG(path string, buf *gbuffer.RGBA32, exposure float32) error {
	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			v := buf.At(x, buf.Height-1-y)
			img.SetRGBA(x, y, color.RGBA{
				R: toneMap(v.X, exposure),
				G: toneMap(v.Y, exposure),
				B: toneMap(v.Z, exposure),
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func toneMap(v, exposure float32) uint8 {
	if !lmath.IsFinite(v) || v < 0 {
		v = 0
	}
	mapped := 1 - math32.Exp(-v*exposure)
	mapped = math32.Pow(mapped, 1/2.2)
	return uint8(lmath.Saturate(mapped)*255 + 0.5)
}
