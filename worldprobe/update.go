package worldprobe

import (
	lmath "lumon/math"
)

// Capture is the payload produced when a probe is (re)captured.
type Capture struct {
	SH         lmath.SH9
	AODir      lmath.Vec3
	AOStrength float32
	SkyVis     float32
	Confidence float32
}

// CaptureFunc relights one probe at a world position. spacing is the
// probe's level spacing, for callers that scale their trace reach.
type CaptureFunc func(pos lmath.Vec3, spacing float32) Capture

// cellForSlot inverts slotIndex under the current window.
func (l *Level) cellForSlot(slot int) [3]int {
	n := l.Resolution
	sx := slot % n
	sy := (slot / n) % n
	sz := slot / (n * n)
	return [3]int{
		l.originCell[0] + wrapIndex(sx-l.ringOffset[0], n),
		l.originCell[1] + wrapIndex(sy-l.ringOffset[1], n),
		l.originCell[2] + wrapIndex(sz-l.ringOffset[2], n),
	}
}

// needsCapture reports whether a slot is a hole or too old.
func (l *Level) needsCapture(slot int, cell [3]int, frameIndex, staleFrames int) bool {
	r := &l.probes[slot]
	if !r.Valid || r.Cell != cell {
		return true
	}
	return staleFrames > 0 && frameIndex-r.Frame > staleFrames
}

type pendingStore struct {
	cell [3]int
	rec  Record
}

// Update amortizes probe re-capture: each level scans forward from its
// cursor and relights up to UpdateBudget holes or stale probes. Captures
// are applied only after the scan so samplers within the same frame read
// a consistent pre-update snapshot; the clipmap is allowed to lag the
// screen probes by several frames.
func (c *Clipmap) Update(frameIndex int, capture CaptureFunc) int {
	if capture == nil {
		return 0
	}
	captured := 0
	for li, l := range c.Levels {
		pending := make([]pendingStore, 0, c.Params.UpdateBudget)
		total := len(l.probes)
		budget := c.Params.UpdateBudget
		if budget <= 0 || budget > total {
			budget = total
		}

		scanned := 0
		for scanned < total && len(pending) < budget {
			slot := c.cursor[li]
			c.cursor[li] = (c.cursor[li] + 1) % total
			scanned++

			cell := l.cellForSlot(slot)
			if !l.needsCapture(slot, cell, frameIndex, c.Params.StaleFrames) {
				continue
			}
			got := capture(l.ProbePosition(cell), l.Spacing)
			pending = append(pending, pendingStore{
				cell: cell,
				rec: Record{
					SH:         got.SH,
					AODir:      got.AODir,
					AOStrength: lmath.Saturate(got.AOStrength),
					SkyVis:     lmath.Saturate(got.SkyVis),
					Confidence: lmath.Saturate(got.Confidence),
					Frame:      frameIndex,
				},
			})
		}

		for _, p := range pending {
			l.Store(p.cell, p.rec)
		}
		captured += len(pending)
	}
	return captured
}

// Converged reports whether every slot of every level holds a valid
// capture for its current cell.
func (c *Clipmap) Converged() bool {
	for _, l := range c.Levels {
		for slot := range l.probes {
			cell := l.cellForSlot(slot)
			r := &l.probes[slot]
			if !r.Valid || r.Cell != cell {
				return false
			}
		}
	}
	return true
}
