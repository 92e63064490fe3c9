package sink

import "image"

// Artifact is the finalized output of an encoder sink.
type Artifact struct {
	Data      []byte
	MediaType string
}

// Sink consumes composited frames and produces an encoded artifact.
//
// Lifecycle: Start once, Capture once per tick with the current
// surface content, Stop to finalize. Stop must be idempotent: stopping
// an already-stopped sink returns the same artifact and no error.
type Sink interface {
	Start(width, height, fps int) error
	Capture(frame *image.RGBA) error
	Stop() (Artifact, error)
}
