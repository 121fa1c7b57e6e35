package valueobjects

import "time"

// ViewportSample is a transient observation of the camera state, reported
// by the UI as the user pans and zooms. It is never persisted; the cache
// store only compares consecutive samples to decide whether a new segment
// of the weave should be requested.
type ViewportSample struct {
	Center    Position  `json:"center"`
	Radius    float64   `json:"radius"`
	Distance  float64   `json:"distance"`
	SampledAt time.Time `json:"sampled_at"`
}

// FocusTarget is a one-shot camera-movement instruction. The rendering
// layer polls the current target and acknowledges it by nonce, which
// guarantees at-most-once consumption: a stale acknowledgment from a
// previous render cycle cannot clobber a newer target.
type FocusTarget struct {
	Center   Position  `json:"center"`
	Radius   float64   `json:"radius"`
	Nonce    uint64    `json:"nonce"`
	IssuedAt time.Time `json:"issued_at"`
}
