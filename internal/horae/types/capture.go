package types

import "time"

// CaptureEventKind enumerates the normalized device events delivered by
// the capture shim. Everything except SampleCaptured is observational.
type CaptureEventKind string

const (
	SampleCaptured     CaptureEventKind = "sample_captured"
	FingerTouch        CaptureEventKind = "finger_touch"
	FingerGone         CaptureEventKind = "finger_gone"
	ReaderConnected    CaptureEventKind = "reader_connected"
	ReaderDisconnected CaptureEventKind = "reader_disconnected"
	QualityReport      CaptureEventKind = "quality_report"
)

// SampleQuality is the capture layer's judgement of a live sample.
// Anything other than QualityGood keeps the sample away from the matcher.
type SampleQuality string

const (
	QualityGood SampleQuality = "good"
	QualityPoor SampleQuality = "poor"
)

// CaptureEvent is a normalized event from a capture device.
type CaptureEvent struct {
	Kind     CaptureEventKind `json:"kind"`
	ReaderID string           `json:"reader_id,omitempty"`
	Sample   []byte           `json:"sample,omitempty"`  // sample_captured only
	Quality  SampleQuality    `json:"quality,omitempty"` // sample_captured, quality_report
	At       time.Time        `json:"at,omitempty"`      // optional device timestamp
}

// Known reports whether the event kind is one the dispatcher understands.
func (k CaptureEventKind) Known() bool {
	switch k {
	case SampleCaptured, FingerTouch, FingerGone, ReaderConnected, ReaderDisconnected, QualityReport:
		return true
	}
	return false
}
