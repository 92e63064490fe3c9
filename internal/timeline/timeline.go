package timeline

import (
	"errors"
	"fmt"
)

// ErrEndOfTimeline is returned by Resolve once the elapsed time reaches
// the total duration.
var ErrEndOfTimeline = errors.New("end of timeline")

// ErrInconsistent marks a resolution failure inside the declared
// bounds. Segments are contiguous by construction, so hitting this is
// a defect, never a recoverable condition.
var ErrInconsistent = errors.New("timeline inconsistency")

// Segment is the half-open display window [Start, End) of one image in
// video seconds. Consecutive segments overlap by exactly the
// transition duration.
type Segment struct {
	Index int
	Start float64
	End   float64
}

// FrameState describes what the compositor must draw for one tick.
type FrameState struct {
	ActiveIndex   int
	LocalElapsed  float64
	Progress      float64 // Ken Burns progress of the active image, [0,1]
	Alpha         float64 // crossfade alpha of the active image, [0,1]
	Transitioning bool    // next image is rendered this tick at 1-Alpha
}

// Timeline maps a global elapsed time to the active image, its local
// progress and the crossfade state.
//
// Layout: every image owns perImage seconds of display and every
// transition adds transition seconds shared by its two neighbours, so
// the total runs count*perImage + (count-1)*transition. A segment's
// window covers its leading crossfade (absent for the first image) and
// its trailing one (absent for the last), which makes consecutive
// windows overlap by exactly the transition length. This is the same
// accounting the ffmpeg xfade graph uses: the overlap is subtracted
// once per transition from the summed clip lengths.
type Timeline struct {
	segments   []Segment
	count      int
	perImage   float64
	transition float64
	total      float64
}

// New builds the timeline for count images shown perImage seconds each
// with a transition-second crossfade between neighbours.
func New(count int, perImage, transition float64) *Timeline {
	t := &Timeline{
		count:      count,
		perImage:   perImage,
		transition: transition,
	}
	if count <= 0 {
		return t
	}

	t.total = float64(count)*perImage + float64(count-1)*transition
	t.segments = make([]Segment, count)
	for i := 0; i < count; i++ {
		start := float64(i)*perImage + float64(i-1)*transition
		if i == 0 {
			start = 0
		}
		end := start + perImage
		if i > 0 {
			end += transition // leading crossfade
		}
		if i < count-1 {
			end += transition // trailing crossfade
		}
		t.segments[i] = Segment{Index: i, Start: start, End: end}
	}
	return t
}

func (t *Timeline) TotalDuration() float64 { return t.total }

func (t *Timeline) Segments() []Segment { return t.segments }

// Resolve maps a global elapsed time to a FrameState. The first
// segment whose window contains the time wins, so during a crossfade
// the outgoing image stays active and the incoming one is rendered at
// the complementary alpha. Returns ErrEndOfTimeline at or past the
// total duration and ErrInconsistent for any in-bounds time the
// segments fail to cover.
func (t *Timeline) Resolve(elapsed float64) (FrameState, error) {
	if elapsed >= t.total {
		return FrameState{}, ErrEndOfTimeline
	}

	for _, seg := range t.segments {
		if elapsed < seg.Start || elapsed >= seg.End {
			continue
		}

		local := elapsed - seg.Start
		length := seg.End - seg.Start

		// The leading crossfade, when present, precedes the image's
		// own perImage window; Ken Burns progress starts counting
		// after it so the motion picks up seamlessly at 0 where the
		// fade-in left it.
		lead := 0.0
		if seg.Index > 0 {
			lead = t.transition
		}

		st := FrameState{
			ActiveIndex:  seg.Index,
			LocalElapsed: local,
			Progress:     clamp((local-lead)/t.perImage, 0, 1),
			Alpha:        1,
		}

		if t.transition > 0 {
			switch {
			case seg.Index < t.count-1 && local > length-t.transition:
				// fading out: the next image takes 1-Alpha
				st.Alpha = 1 - clamp((local-(length-t.transition))/t.transition, 0, 1)
				st.Transitioning = true
			case seg.Index > 0 && local < t.transition:
				// fading in over the previous image; unreachable while
				// the previous window still claims the overlap, kept
				// so the alpha contract survives a scan-order change
				st.Alpha = clamp(local/t.transition, 0, 1)
			}
		}
		return st, nil
	}

	return FrameState{}, fmt.Errorf("%w: no segment covers t=%.4fs of %.4fs", ErrInconsistent, elapsed, t.total)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
