package scheduler

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ivlev/img2video/internal/compositor"
	"github.com/ivlev/img2video/internal/geometry"
	"github.com/ivlev/img2video/internal/sink"
	"github.com/ivlev/img2video/internal/source"
	"github.com/ivlev/img2video/internal/timeline"
)

func testSlides(n int) []source.Slide {
	slides := make([]source.Slide, n)
	for i := range slides {
		img := image.NewRGBA(image.Rect(0, 0, 16, 9))
		c := color.RGBA{uint8(40 * (i + 1)), 0, 0, 255}
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = c.R
			img.Pix[p+3] = 255
		}
		slides[i] = source.Slide{ID: string(rune('a' + i)), Bitmap: img, Width: 16, Height: 9}
	}
	return slides
}

func newScheduler(n int, perImage, transition float64, fps int, sk sink.Sink, onProgress func(Progress)) *Scheduler {
	tl := timeline.New(n, perImage, transition)
	comp := compositor.New(compositor.Params{
		Fit:        geometry.FitCover,
		KenBurns:   true,
		ZoomFactor: 1.2,
		Directions: make([]geometry.Direction, n), // zero value falls back to zoom-in
	})
	surface := image.NewRGBA(image.Rect(0, 0, 16, 9))
	return New(tl, comp, testSlides(n), surface, sk, fps, onProgress)
}

func TestRunProducesExactFrameCount(t *testing.T) {
	// 2 images, 1s each, no transition, 10 fps: exactly 20 ticks
	mem := sink.NewMemory()
	mem.Start(16, 9, 10)
	s := newScheduler(2, 1.0, 0, 10, mem, nil)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.State() != StateCompleted {
		t.Errorf("state = %s, want completed", s.State())
	}
	if mem.FrameCount() != 20 {
		t.Errorf("frames = %d, want 20", mem.FrameCount())
	}
}

func TestRunFrameCountWithTransition(t *testing.T) {
	// 3 images, 2s each, 0.5s fades: total 7s at 8 fps = 56 ticks
	mem := sink.NewMemory()
	mem.Start(16, 9, 8)
	s := newScheduler(3, 2.0, 0.5, 8, mem, nil)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if mem.FrameCount() != 56 {
		t.Errorf("frames = %d, want 56", mem.FrameCount())
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	mem := sink.NewMemory()
	mem.Start(16, 9, 10)

	var last float64 = -1
	var tasks []string
	s := newScheduler(2, 1.0, 0.25, 10, mem, func(p Progress) {
		if p.Percentage < last {
			t.Fatalf("progress went backwards: %.2f after %.2f", p.Percentage, last)
		}
		if p.Percentage > 100 {
			t.Fatalf("progress above 100: %.2f", p.Percentage)
		}
		last = p.Percentage
		tasks = append(tasks, p.Task)
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if last < 0 {
		t.Fatal("no progress reported")
	}
	if tasks[0] != "Rendering image 1 of 2" {
		t.Errorf("first task label = %q", tasks[0])
	}
	if tasks[len(tasks)-1] != "Rendering image 2 of 2" {
		t.Errorf("last task label = %q", tasks[len(tasks)-1])
	}
}

func TestRunFailsOnSinkError(t *testing.T) {
	mem := sink.NewMemory()
	mem.FailAfter = 5
	mem.Start(16, 9, 10)
	s := newScheduler(2, 1.0, 0, 10, mem, nil)

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected sink failure")
	}
	if !errors.Is(err, ErrSinkFailure) {
		t.Errorf("error %v is not ErrSinkFailure", err)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	if mem.FrameCount() != 5 {
		t.Errorf("frames before failure = %d, want 5", mem.FrameCount())
	}
}

func TestRunCancellation(t *testing.T) {
	mem := sink.NewMemory()
	mem.Start(16, 9, 10)
	s := newScheduler(2, 1.0, 0, 10, mem, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if s.State() != StateCancelled {
		t.Errorf("state = %s, want cancelled", s.State())
	}
	if mem.FrameCount() != 0 {
		t.Errorf("cancelled before the first tick but %d frames captured", mem.FrameCount())
	}
}

func TestRunRejectsEmptySlides(t *testing.T) {
	mem := sink.NewMemory()
	mem.Start(16, 9, 10)
	tl := timeline.New(0, 1, 0)
	comp := compositor.New(compositor.Params{Fit: geometry.FitCover})
	s := New(tl, comp, nil, image.NewRGBA(image.Rect(0, 0, 16, 9)), mem, 10, nil)

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected rejection with no slides")
	}
}

func TestVirtualClockStep(t *testing.T) {
	mem := sink.NewMemory()
	mem.Start(16, 9, 25)
	s := newScheduler(1, 1.0, 0, 25, mem, nil)

	for i := 0; i < 10; i++ {
		if done, err := s.Tick(); err != nil || done {
			t.Fatalf("tick %d: done=%v err=%v", i, done, err)
		}
	}
	if math.Abs(s.VirtualTime()-0.4) > 1e-9 {
		t.Errorf("virtual time = %.6f, want 0.4", s.VirtualTime())
	}
}
