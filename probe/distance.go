package probe

import "github.com/chewxy/math32"

// Hit distances are stored log-encoded so the atlas alpha channel keeps
// precision near the probe while still representing the ray's maximum
// reach.

// EncodeDistance maps a distance d >= 0 to log(d+1).
func EncodeDistance(d float32) float32 {
	if d < 0 {
		d = 0
	}
	return math32.Log(d + 1)
}

// DecodeDistance inverts EncodeDistance: exp(e) - 1.
func DecodeDistance(e float32) float32 {
	if e < 0 {
		return 0
	}
	return math32.Exp(e) - 1
}
