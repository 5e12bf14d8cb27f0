// Package worldprobe implements the camera-following clipmap of
// world-anchored irradiance probes: nested toroidal levels of SH9
// records with ambient-occlusion and sky-visibility channels, sampled
// trilinearly with cross-level blending for geometry the screen probes
// cannot see.
package worldprobe

import (
	"github.com/chewxy/math32"

	lmath "lumon/math"
)

// Record is one world probe's payload.
type Record struct {
	// SH holds the projected radiance field around the probe.
	SH lmath.SH9
	// AODir is the average unoccluded ("bent") direction; AOStrength
	// is how strongly it should bend shading normals.
	AODir      lmath.Vec3
	AOStrength float32
	// SkyVis is the fraction of the sphere open to the sky.
	SkyVis     float32
	Confidence float32

	// Cell is the world grid cell this arena slot currently represents.
	// A slot whose Cell disagrees with the query is a hole, not stale
	// data to reuse.
	Cell  [3]int
	Frame int // frame of last capture
	Valid bool
}

// Level is one clipmap ring: a Resolution^3 toroidal arena of probes at
// Spacing world units, re-centered on the camera by moving its origin
// cell and ring offset. Probe data never moves; slots that scroll out of
// range are invalidated lazily when addressed.
type Level struct {
	Index      int
	Resolution int
	Spacing    float32

	originCell [3]int // minimum-corner world cell
	ringOffset [3]int
	probes     []Record
}

func NewLevel(index, resolution int, spacing float32) *Level {
	if resolution < 2 {
		resolution = 2
	}
	return &Level{
		Index:      index,
		Resolution: resolution,
		Spacing:    spacing,
		probes:     make([]Record, resolution*resolution*resolution),
	}
}

// wrapIndex maps any integer onto [0, n) with correct behavior for
// negative values.
func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

func floorDiv(v, spacing float32) int {
	return int(math32.Floor(v / spacing))
}

// Recenter moves the level's window so the camera sits in its middle.
// Only the origin cell and ring offset change.
func (l *Level) Recenter(camera lmath.Vec3) {
	half := l.Resolution / 2
	l.originCell = [3]int{
		floorDiv(camera.X, l.Spacing) - half,
		floorDiv(camera.Y, l.Spacing) - half,
		floorDiv(camera.Z, l.Spacing) - half,
	}
	for i := 0; i < 3; i++ {
		l.ringOffset[i] = wrapIndex(l.originCell[i], l.Resolution)
	}
}

// CellForWorld returns the world grid cell containing pos.
func (l *Level) CellForWorld(pos lmath.Vec3) [3]int {
	return [3]int{
		floorDiv(pos.X, l.Spacing),
		floorDiv(pos.Y, l.Spacing),
		floorDiv(pos.Z, l.Spacing),
	}
}

// InWindow reports whether the cell lies inside the level's current
// Resolution^3 window.
func (l *Level) InWindow(cell [3]int) bool {
	for i := 0; i < 3; i++ {
		d := cell[i] - l.originCell[i]
		if d < 0 || d >= l.Resolution {
			return false
		}
	}
	return true
}

// Contains reports whether pos lies inside the level's world volume.
func (l *Level) Contains(pos lmath.Vec3) bool {
	return l.InWindow(l.CellForWorld(pos))
}

// MinCorner returns the world position of the window's minimum corner.
func (l *Level) MinCorner() lmath.Vec3 {
	return lmath.Vec3{
		X: float32(l.originCell[0]) * l.Spacing,
		Y: float32(l.originCell[1]) * l.Spacing,
		Z: float32(l.originCell[2]) * l.Spacing,
	}
}

// slotIndex maps a world cell to its arena slot. The ring offset makes
// the mapping stable across recentering: a cell keeps its slot for as
// long as it stays inside the window.
func (l *Level) slotIndex(cell [3]int) int {
	n := l.Resolution
	x := wrapIndex(l.ringOffset[0]+(cell[0]-l.originCell[0]), n)
	y := wrapIndex(l.ringOffset[1]+(cell[1]-l.originCell[1]), n)
	z := wrapIndex(l.ringOffset[2]+(cell[2]-l.originCell[2]), n)
	return (z*n+y)*n + x
}

// ProbePosition returns the world position of a cell's probe (cell
// center).
func (l *Level) ProbePosition(cell [3]int) lmath.Vec3 {
	return lmath.Vec3{
		X: (float32(cell[0]) + 0.5) * l.Spacing,
		Y: (float32(cell[1]) + 0.5) * l.Spacing,
		Z: (float32(cell[2]) + 0.5) * l.Spacing,
	}
}

// Probe returns the record for a world cell, or nil when the cell is
// outside the window or its slot holds data for a different cell (a
// hole awaiting re-capture).
func (l *Level) Probe(cell [3]int) *Record {
	if !l.InWindow(cell) {
		return nil
	}
	r := &l.probes[l.slotIndex(cell)]
	if !r.Valid || r.Cell != cell {
		return nil
	}
	return r
}

// Store writes a freshly captured record into the cell's slot.
func (l *Level) Store(cell [3]int, r Record) {
	if !l.InWindow(cell) {
		return
	}
	r.Cell = cell
	r.Valid = true
	l.probes[l.slotIndex(cell)] = r
}
