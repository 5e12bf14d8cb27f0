package probe

import (
	lmath "lumon/math"

	"lumon/gbuffer"
)

// Flags is the per-texel diagnostic bitset stored alongside confidence.
// Bit positions are a stable storage format; flags are additive and
// multiple bits may be set on one texel.
type Flags uint32

const (
	FlagHit Flags = 1 << iota
	FlagSkyMiss
	FlagScreenExit
	FlagEarlyTerm
	FlagThicknessUncertain
	FlagWorldFallback
	FlagRejectOutOfBounds
	FlagRejectVelocity
	FlagRejectClass
	FlagRejectDistance
	FlagRejectConfidence
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

func (f Flags) Hit() bool        { return f.Has(FlagHit) }
func (f Flags) SkyMiss() bool    { return f.Has(FlagSkyMiss) }
func (f Flags) ScreenExit() bool { return f.Has(FlagScreenExit) }

// Rejected reports whether any temporal-rejection reason is recorded.
func (f Flags) Rejected() bool {
	return f.Has(FlagRejectOutOfBounds | FlagRejectVelocity | FlagRejectClass |
		FlagRejectDistance | FlagRejectConfidence)
}

// Meta is one confidence + flags record. It packs into two float32
// scalars: flags fit well inside float32's exact-integer range.
type Meta struct {
	Confidence float32
	Flags      Flags
}

func (m Meta) Pack() lmath.Vec2 {
	return lmath.Vec2{X: lmath.Saturate(m.Confidence), Y: float32(m.Flags)}
}

func UnpackMeta(v lmath.Vec2) Meta {
	flags := Flags(0)
	if v.Y > 0 && lmath.IsFinite(v.Y) {
		flags = Flags(uint32(v.Y))
	}
	return Meta{Confidence: lmath.Saturate(lmath.Finite(v.X, 0)), Flags: flags}
}

// MetaBuffer is the per-atlas-texel meta plane.
type MetaBuffer struct {
	*gbuffer.RG32
}

func NewMetaBuffer(width, height int) MetaBuffer {
	return MetaBuffer{RG32: gbuffer.NewRG32(width, height)}
}

func (b MetaBuffer) Meta(x, y int) Meta {
	return UnpackMeta(b.At(x, y))
}

func (b MetaBuffer) SetMeta(x, y int, m Meta) {
	b.Set(x, y, m.Pack())
}
