// Package probe defines the screen-space probe grid, its world-space
// anchors, and the octahedral atlas buffers that store per-direction
// radiance for every probe.
package probe

// Grid describes the screen-space probe layout: one probe per Spacing x
// Spacing pixel cell, each owning a TileSize x TileSize octahedral tile
// in the atlas.
type Grid struct {
	ScreenWidth  int
	ScreenHeight int
	Spacing      int // pixels per probe cell
	TileSize     int // octahedral tile side length

	Width  int // probes per row
	Height int // probes per column
}

func NewGrid(screenWidth, screenHeight, spacing, tileSize int) Grid {
	if spacing < 1 {
		spacing = 1
	}
	if tileSize < 2 {
		tileSize = 2
	}
	return Grid{
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		Spacing:      spacing,
		TileSize:     tileSize,
		Width:        (screenWidth + spacing - 1) / spacing,
		Height:       (screenHeight + spacing - 1) / spacing,
	}
}

func (g Grid) AtlasWidth() int  { return g.Width * g.TileSize }
func (g Grid) AtlasHeight() int { return g.Height * g.TileSize }

// Probes returns the total probe count.
func (g Grid) Probes() int { return g.Width * g.Height }

// TexelsPerProbe returns the octahedral tile area.
func (g Grid) TexelsPerProbe() int { return g.TileSize * g.TileSize }

// CenterPixel returns the screen pixel at the center of probe (px,py),
// clamped to the screen.
func (g Grid) CenterPixel(px, py int) (int, int) {
	x := px*g.Spacing + g.Spacing/2
	y := py*g.Spacing + g.Spacing/2
	if x >= g.ScreenWidth {
		x = g.ScreenWidth - 1
	}
	if y >= g.ScreenHeight {
		y = g.ScreenHeight - 1
	}
	return x, y
}

// ProbeForPixel returns the probe cell containing screen pixel (x,y).
func (g Grid) ProbeForPixel(x, y int) (int, int) {
	px := x / g.Spacing
	py := y / g.Spacing
	if px >= g.Width {
		px = g.Width - 1
	}
	if py >= g.Height {
		py = g.Height - 1
	}
	return px, py
}

// AtlasTexel splits an atlas coordinate into probe cell + tile texel.
func (g Grid) AtlasTexel(ax, ay int) (px, py, tx, ty int) {
	return ax / g.TileSize, ay / g.TileSize, ax % g.TileSize, ay % g.TileSize
}

// TileOrigin returns the atlas coordinate of probe (px,py)'s tile corner.
func (g Grid) TileOrigin(px, py int) (int, int) {
	return px * g.TileSize, py * g.TileSize
}
