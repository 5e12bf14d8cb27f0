package probe

// BatchSelector implements the deterministic temporal texel rotation:
// each frame traces one batch of every probe's tile, selected by index
// arithmetic rather than a random sequence so a frame index fully
// determines which texels refresh.
type BatchSelector struct {
	TileSize       int
	TexelsPerFrame int
	// Jitter advances the rotation by this many batches per frame.
	// It should not share a factor with Batches() or some batches
	// would never be visited.
	Jitter int
}

func NewBatchSelector(tileSize, texelsPerFrame int) BatchSelector {
	if texelsPerFrame < 1 {
		texelsPerFrame = 1
	}
	if texelsPerFrame > tileSize*tileSize {
		texelsPerFrame = tileSize * tileSize
	}
	return BatchSelector{TileSize: tileSize, TexelsPerFrame: texelsPerFrame, Jitter: 1}
}

// Batches returns the rotation period in frames.
func (s BatchSelector) Batches() int {
	b := (s.TileSize * s.TileSize) / s.TexelsPerFrame
	if b < 1 {
		b = 1
	}
	return b
}

// Selected reports whether tile texel (tx,ty) is freshly traced in the
// given frame. Exactly TexelsPerFrame texels per probe are selected each
// frame when TexelsPerFrame divides the tile area.
func (s BatchSelector) Selected(tx, ty, frameIndex int) bool {
	batches := s.Batches()
	if batches == 1 {
		return true
	}
	texel := ty*s.TileSize + tx
	jitter := s.Jitter
	if jitter < 1 {
		jitter = 1
	}
	return (texel+frameIndex*jitter)%batches == 0
}
