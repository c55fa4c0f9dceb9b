// Package facedetect defines the face-detection collaborator used to enrich
// video records, and an HTTP client for an external detection service.
package facedetect

import "context"

// Region is one detected face region within an image.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	// Confidence is the detector's confidence for this region.
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of classifying one image.
type Result struct {
	// HasFace reports whether at least one face was detected.
	HasFace bool `json:"has_face"`
	// Detections lists the detected regions, most confident first.
	Detections []Region `json:"detections,omitempty"`
}

// Confidence returns the first detection's confidence. The second return is
// false when there are no detections.
func (r Result) Confidence() (float64, bool) {
	if !r.HasFace || len(r.Detections) == 0 {
		return 0, false
	}
	return r.Detections[0].Confidence, true
}

// Detector classifies whether an image contains a face.
// Implementations must honor context cancellation and apply their own
// timeout; detection is not guaranteed to return promptly.
type Detector interface {
	Detect(ctx context.Context, imageURL string) (Result, error)
}
