// Package pipeline wires the stages together: anchors, trace, temporal
// accumulation, spatial filter, world probes, and gather run as
// data-parallel full-buffer passes with a barrier between stages.
package pipeline

import (
	"fmt"

	"lumon/composite"
	"lumon/filter"
	"lumon/gbuffer"
	lmath "lumon/math"
	"lumon/probe"
	"lumon/temporal"
	"lumon/trace"
	"lumon/worldprobe"
)

// Stats reports what the last Render did.
type Stats struct {
	Frame         int
	Probes        int
	TracedTexels  int
	WorldCaptures int
}

// Pipeline owns every intermediate buffer and stage object. One
// instance serves one output surface; it is not safe for concurrent
// Render calls.
type Pipeline struct {
	cfg    Config
	width  int
	height int

	grid     probe.Grid
	selector probe.BatchSelector
	anchors  *probe.Anchors

	traced   *probe.Atlas
	history  *probe.Atlas
	accum    *probe.Atlas
	filtered *probe.Atlas

	velocity *temporal.VelocityBuffer
	gathered *gbuffer.RGBA32

	tracer      *trace.Tracer
	accumulator *temporal.Accumulator
	blur        filter.Blur
	gatherer    *filter.Gatherer
	clipmap     *worldprobe.Clipmap

	frameIndex   int
	prevViewProj lmath.Mat4
	stats        Stats
}

// New builds a pipeline for the given screen size. The config is
// captured by value; later mutation of the caller's copy has no effect.
func New(width, height int, cfg Config) (*Pipeline, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("pipeline: invalid screen size %dx%d", width, height)
	}
	cfg = cfg.withDefaults()

	p := &Pipeline{
		cfg:          cfg,
		prevViewProj: lmath.Mat4Identity(),
	}
	p.selector = probe.NewBatchSelector(cfg.TileSize, cfg.TexelsPerFrame)
	p.tracer = trace.NewTracer(trace.Params{
		RaySteps:        cfg.RaySteps,
		RayMaxDistance:  cfg.RayMaxDistance,
		RayThickness:    cfg.RayThickness,
		DistanceFalloff: cfg.DistanceFalloff,
		SkyMissWeight:   cfg.SkyMissWeight,
		AmbientColor:    cfg.AmbientColor,
		SunColor:        cfg.SunColor,
		SunDir:          cfg.SunDir,
		IndirectTint:    cfg.IndirectTint,
		UseDepthPyramid: cfg.UseDepthPyramid,
		PyramidFactor:   cfg.PyramidFactor,
	}, p.selector)
	p.accumulator = temporal.NewAccumulator(temporal.Params{
		BaseAlpha:               cfg.TemporalAlpha,
		VelocityRejectThreshold: cfg.VelocityRejectThreshold,
		DistanceRejectTolerance: cfg.DistanceRejectTolerance,
		MinHistoryConfidence:    cfg.MinHistoryConfidence,
		ResetConfidence:         0.25,
		ConvergenceGain:         0.02,
		UseVelocity:             cfg.UseVelocity,
	}, p.selector)

	scale := 1
	if cfg.HalfResGather {
		scale = 2
	}
	p.gatherer = filter.NewGatherer(filter.GatherParams{
		Scale:     scale,
		Intensity: cfg.IndirectIntensity,
	})

	if cfg.EnableWorldProbes {
		p.clipmap = newClipmap(cfg)
	}

	p.allocate(width, height)
	return p, nil
}

func newClipmap(cfg Config) *worldprobe.Clipmap {
	return worldprobe.NewClipmap(worldprobe.Params{
		Levels:             cfg.WorldLevels,
		Resolution:         cfg.WorldResolution,
		BaseSpacing:        cfg.WorldBaseSpacing,
		BoundaryBlend:      1.5,
		HoleConfidence:     0.1,
		BentNormalStrength: 0.5,
		UpdateBudget:       cfg.WorldUpdateBudget,
		StaleFrames:        240,
	})
}

// allocate (re)builds every size-dependent buffer.
func (p *Pipeline) allocate(width, height int) {
	p.width = width
	p.height = height
	p.grid = probe.NewGrid(width, height, p.cfg.ProbeSpacing, p.cfg.TileSize)
	p.anchors = probe.NewAnchors(p.grid)
	p.traced = probe.NewAtlas(p.grid)
	p.history = probe.NewAtlas(p.grid)
	p.accum = probe.NewAtlas(p.grid)
	p.filtered = probe.NewAtlas(p.grid)
	p.velocity = temporal.NewVelocityBuffer(width, height)
	gw, gh := p.gatherer.OutputSize(width, height)
	p.gathered = gbuffer.NewRGBA32(gw, gh)
}

// Resize drops all history and rebuilds buffers for a new screen size.
func (p *Pipeline) Resize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("pipeline: invalid screen size %dx%d", width, height)
	}
	p.allocate(width, height)
	p.frameIndex = 0
	p.prevViewProj = lmath.Mat4Identity()
	return nil
}

// Reset clears accumulated history and the world probes without
// reallocating.
func (p *Pipeline) Reset() {
	p.history.Radiance.Fill(lmath.Vec4{})
	for i := range p.history.Meta.Pix {
		p.history.Meta.Pix[i] = 0
	}
	p.frameIndex = 0
	p.prevViewProj = lmath.Mat4Identity()
	if p.cfg.EnableWorldProbes {
		p.clipmap = newClipmap(p.cfg)
	}
}

// Render runs one full frame over the host G-buffer. The previous
// frame's view-projection is tracked internally for reprojection.
func (p *Pipeline) Render(g *gbuffer.GBuffer, view, proj lmath.Mat4, near, far float32) error {
	if g == nil {
		return fmt.Errorf("pipeline: nil G-buffer")
	}
	if g.Width() != p.width || g.Height() != p.height {
		return fmt.Errorf("pipeline: G-buffer is %dx%d, pipeline is %dx%d",
			g.Width(), g.Height(), p.width, p.height)
	}

	fc := gbuffer.NewFrameContext(view, proj, p.prevViewProj, near, far, p.frameIndex, p.selector.Batches())
	workers := p.cfg.Workers

	// Anchors.
	parallelFor(p.grid.Height, workers, func(py int) {
		p.anchors.GenerateRow(py, g, &fc)
	})

	// Trace. The traced atlas starts as the history so unselected texels
	// already hold their pass-through values.
	p.traced.CopyFrom(p.history)
	p.tracer.Prepare(g, &fc)
	parallelFor(p.grid.Height, workers, func(py int) {
		p.tracer.TraceProbeRow(py, p.anchors, p.traced, g, &fc)
	})

	// Temporal accumulation into the back buffer, then swap.
	if p.cfg.EnableTemporal {
		if p.cfg.UseVelocity {
			parallelFor(p.height, workers, func(y int) {
				p.velocity.BuildRow(y, g, &fc)
			})
		}
		parallelFor(p.grid.Height, workers, func(py int) {
			p.accumulator.AccumulateRow(py, p.anchors, p.traced, p.history, p.accum, p.velocity, g, &fc)
		})
	} else {
		p.accum.CopyFrom(p.traced)
	}
	p.history, p.accum = p.accum, p.history

	// Spatial filter.
	if p.cfg.EnableSpatialFilter {
		parallelFor(p.grid.Height, workers, func(py int) {
			p.blur.FilterRow(py, p.history, p.filtered)
		})
	} else {
		p.filtered.CopyFrom(p.history)
	}

	// World probes: follow the camera, then relight a budgeted batch.
	captures := 0
	if p.clipmap != nil {
		p.clipmap.Recenter(fc.CameraPos)
		captures = p.clipmap.Update(p.frameIndex, func(pos lmath.Vec3, spacing float32) worldprobe.Capture {
			c := p.tracer.CaptureSphere(pos, p.cfg.WorldCaptureSize, g, &fc)
			return worldprobe.Capture{
				SH:         c.SH,
				AODir:      c.AODir,
				AOStrength: c.AOStrength,
				SkyVis:     c.SkyVis,
				Confidence: c.Confidence,
			}
		})
	}

	// Gather.
	var world filter.WorldSampler
	if p.clipmap != nil {
		world = p.clipmap
	}
	parallelFor(p.gathered.Height, workers, func(y int) {
		p.gatherer.GatherRow(y, p.gathered, p.filtered, p.anchors, g, &fc, world)
	})

	p.stats = Stats{
		Frame:         p.frameIndex,
		Probes:        p.grid.Probes(),
		TracedTexels:  p.grid.Probes() * p.selector.TexelsPerFrame,
		WorldCaptures: captures,
	}
	p.prevViewProj = fc.ViewProj
	p.frameIndex++
	return nil
}

// SplitIndirect exposes the composite split with the pipeline's AO
// strength knobs applied.
func (p *Pipeline) SplitIndirect(indirect, albedo lmath.Vec3, metallic, roughness, ao float32) (lmath.Vec3, lmath.Vec3) {
	return composite.SplitIndirect(indirect, albedo, metallic, roughness, ao, composite.Params{
		DiffuseAOStrength:  p.cfg.DiffuseAOStrength,
		SpecularAOStrength: p.cfg.SpecularAOStrength,
		SpecularIntensity:  1,
	})
}

// ── Buffer accessors (each stage's output stays inspectable) ───────────

func (p *Pipeline) Config() Config                     { return p.cfg }
func (p *Pipeline) Stats() Stats                       { return p.stats }
func (p *Pipeline) Grid() probe.Grid                   { return p.grid }
func (p *Pipeline) Anchors() *probe.Anchors            { return p.anchors }
func (p *Pipeline) TraceAtlas() *probe.Atlas           { return p.traced }
func (p *Pipeline) Atlas() *probe.Atlas                { return p.history }
func (p *Pipeline) FilteredAtlas() *probe.Atlas        { return p.filtered }
func (p *Pipeline) Velocity() *temporal.VelocityBuffer { return p.velocity }
func (p *Pipeline) Gathered() *gbuffer.RGBA32          { return p.gathered }
func (p *Pipeline) WorldProbes() *worldprobe.Clipmap   { return p.clipmap }
