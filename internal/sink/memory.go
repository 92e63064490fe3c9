package sink

import (
	"errors"
	"image"
)

// MemorySink records captured frames in memory. It stands in for the
// ffmpeg pipeline in tests and lets error paths be exercised
// deterministically via FailAfter.
type MemorySink struct {
	// FailAfter > 0 makes Capture fail once that many frames were
	// accepted, simulating a mid-generation encoder failure.
	FailAfter int

	Width, Height, FPS int
	StartCalls         int
	StopCalls          int

	frames   [][]byte
	started  bool
	stopped  bool
	artifact Artifact
}

func NewMemory() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Start(width, height, fps int) error {
	s.StartCalls++
	s.Width, s.Height, s.FPS = width, height, fps
	s.started = true
	s.stopped = false
	s.frames = nil
	return nil
}

func (s *MemorySink) Capture(frame *image.RGBA) error {
	if !s.started || s.stopped {
		return errors.New("sink not running")
	}
	if s.FailAfter > 0 && len(s.frames) >= s.FailAfter {
		return errors.New("simulated encoder failure")
	}
	buf := make([]byte, len(frame.Pix))
	copy(buf, frame.Pix)
	s.frames = append(s.frames, buf)
	return nil
}

func (s *MemorySink) Stop() (Artifact, error) {
	s.StopCalls++
	if s.stopped {
		return s.artifact, nil
	}
	s.stopped = true
	if !s.started {
		return Artifact{}, nil
	}

	var data []byte
	for _, f := range s.frames {
		data = append(data, f...)
	}
	s.artifact = Artifact{Data: data, MediaType: "video/x-raw-rgba"}
	return s.artifact, nil
}

// FrameCount reports how many frames were captured.
func (s *MemorySink) FrameCount() int { return len(s.frames) }

// Frame returns the raw RGBA bytes of frame i.
func (s *MemorySink) Frame(i int) []byte { return s.frames[i] }
