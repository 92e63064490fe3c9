package scheduler

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/img2video/internal/compositor"
	"github.com/ivlev/img2video/internal/sink"
	"github.com/ivlev/img2video/internal/source"
	"github.com/ivlev/img2video/internal/timeline"
)

// ErrSinkFailure wraps encoder sink errors reported mid-generation so
// the session can tell them apart from internal defects.
var ErrSinkFailure = errors.New("encoder sink failure")

type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Progress is reported once per tick. Percentage never decreases
// within a run.
type Progress struct {
	Percentage float64
	Task       string
}

// Scheduler drives the frame loop on a virtual clock: every tick
// advances video time by exactly 1/fps regardless of how fast the host
// executes, so the output length is deterministic.
type Scheduler struct {
	tl      *timeline.Timeline
	comp    *compositor.Compositor
	slides  []source.Slide
	surface *image.RGBA
	sk      sink.Sink
	fps     int

	frame      int
	state      State
	onProgress func(Progress)
}

func New(tl *timeline.Timeline, comp *compositor.Compositor, slides []source.Slide,
	surface *image.RGBA, sk sink.Sink, fps int, onProgress func(Progress)) *Scheduler {
	return &Scheduler{
		tl:         tl,
		comp:       comp,
		slides:     slides,
		surface:    surface,
		sk:         sk,
		fps:        fps,
		state:      StateIdle,
		onProgress: onProgress,
	}
}

func (s *Scheduler) State() State { return s.state }

// VirtualTime returns the video time the next tick will render. It is
// derived from the frame counter rather than accumulated, so the step
// never drifts no matter how many ticks have run.
func (s *Scheduler) VirtualTime() float64 { return float64(s.frame) / float64(s.fps) }

// Run executes ticks until the timeline ends, the sink fails or the
// context is cancelled. Cancellation is cooperative: it takes effect
// at the next tick boundary, never mid-frame.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.state != StateIdle {
		return fmt.Errorf("scheduler already ran (state %s)", s.state)
	}
	if len(s.slides) == 0 {
		s.state = StateFailed
		return errors.New("no slides to schedule")
	}

	s.state = StateRunning
	for {
		select {
		case <-ctx.Done():
			s.state = StateCancelled
			return ctx.Err()
		default:
		}

		done, err := s.Tick()
		if err != nil {
			s.state = StateFailed
			return err
		}
		if done {
			s.state = StateCompleted
			return nil
		}
	}
}

// Tick renders and captures exactly one frame, then advances the
// virtual clock. Reports done=true once the total duration elapsed.
// Exported so tests can step the loop by hand.
func (s *Scheduler) Tick() (done bool, err error) {
	virtual := s.VirtualTime()
	st, err := s.tl.Resolve(virtual)
	if errors.Is(err, timeline.ErrEndOfTimeline) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.comp.Render(s.surface, st, s.slides); err != nil {
		return false, err
	}
	if err := s.sk.Capture(s.surface); err != nil {
		return false, fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}

	if s.onProgress != nil {
		pct := 100 * virtual / s.tl.TotalDuration()
		if pct > 100 {
			pct = 100
		}
		s.onProgress(Progress{
			Percentage: pct,
			Task:       fmt.Sprintf("Rendering image %d of %d", st.ActiveIndex+1, len(s.slides)),
		})
	}

	s.frame++
	return false, nil
}
