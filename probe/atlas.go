package probe

import (
	lmath "lumon/math"

	"lumon/gbuffer"
)

// Atlas packs every probe's octahedral tile side by side: RGB radiance
// plus log-encoded hit distance in alpha, with a parallel meta plane.
// The pipeline keeps one Atlas per stage (trace, temporal, filtered) so
// intermediates stay independently inspectable.
type Atlas struct {
	Grid     Grid
	Radiance *gbuffer.RGBA32
	Meta     MetaBuffer
}

func NewAtlas(grid Grid) *Atlas {
	return &Atlas{
		Grid:     grid,
		Radiance: gbuffer.NewRGBA32(grid.AtlasWidth(), grid.AtlasHeight()),
		Meta:     NewMetaBuffer(grid.AtlasWidth(), grid.AtlasHeight()),
	}
}

// CopyFrom copies both planes from src; grids must match.
func (a *Atlas) CopyFrom(src *Atlas) {
	a.Radiance.CopyFrom(src.Radiance)
	copy(a.Meta.Pix, src.Meta.Pix)
}

// ClearTile zeroes one probe's tile in both planes: zero radiance, zero
// encoded distance, zero confidence, no flags. This is the defined value
// for invalid probes, not an error state.
func (a *Atlas) ClearTile(px, py int) {
	ox, oy := a.Grid.TileOrigin(px, py)
	for ty := 0; ty < a.Grid.TileSize; ty++ {
		for tx := 0; tx < a.Grid.TileSize; tx++ {
			a.Radiance.Set(ox+tx, oy+ty, lmath.Vec4{})
			a.Meta.SetMeta(ox+tx, oy+ty, Meta{})
		}
	}
}

// TexelDirection returns the world direction sampled by tile texel
// (tx,ty) of any probe.
func (a *Atlas) TexelDirection(tx, ty int) lmath.Vec3 {
	return lmath.OctTexelDirection(tx, ty, a.Grid.TileSize)
}
