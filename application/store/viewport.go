package store

import (
	"context"
	"math"

	"go.uber.org/zap"

	"weaveclient/application/ports"
	"weaveclient/domain/core/valueobjects"
)

const (
	// viewportMoveFraction is how far the camera center must travel,
	// relative to the previous sample's radius, before a new segment is
	// worth requesting.
	viewportMoveFraction = 0.5

	// viewportZoomFraction is the relative radius change that counts as
	// a zoom worth a new segment.
	viewportZoomFraction = 0.25
)

// ReportViewport records a sampled camera state and, when the camera has
// moved far enough since the last sample, requests the segment covering
// the new window. In read-only aggregate mode the whole view is already
// loaded, so samples are recorded without triggering any load. Returns
// whether a segment load was issued.
func (s *CacheStore) ReportViewport(ctx context.Context, sample valueobjects.ViewportSample) (bool, error) {
	s.mu.Lock()
	previous := s.lastViewport
	s.lastViewport = &sample
	readOnly := s.readOnly
	weaveID := s.activeWeaveID
	s.mu.Unlock()

	if readOnly || weaveID == "" {
		return false, nil
	}
	if !viewportMoved(previous, sample) {
		return false, nil
	}

	s.logger.Debug("viewport moved, requesting segment",
		zap.Float64("radius", sample.Radius),
	)

	err := s.LoadSegment(ctx, ports.SegmentOptions{
		Bounds: &ports.SegmentBounds{
			Center: sample.Center,
			Radius: sample.Radius,
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// LastViewport returns the most recent sample, or nil
func (s *CacheStore) LastViewport() *valueobjects.ViewportSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastViewport == nil {
		return nil
	}
	sample := *s.lastViewport
	return &sample
}

// viewportMoved decides whether the camera changed enough between two
// samples to justify a segment request
func viewportMoved(previous *valueobjects.ViewportSample, sample valueobjects.ViewportSample) bool {
	if previous == nil {
		return true
	}
	if sample.Radius <= 0 {
		return false
	}

	moved := previous.Center.DistanceTo(sample.Center)
	if moved > previous.Radius*viewportMoveFraction {
		return true
	}

	zoomed := math.Abs(sample.Radius - previous.Radius)
	return zoomed > previous.Radius*viewportZoomFraction
}
