package session

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/img2video/internal/compositor"
	"github.com/ivlev/img2video/internal/config"
	"github.com/ivlev/img2video/internal/geometry"
	"github.com/ivlev/img2video/internal/scheduler"
	"github.com/ivlev/img2video/internal/sink"
	"github.com/ivlev/img2video/internal/source"
	"github.com/ivlev/img2video/internal/system"
	"github.com/ivlev/img2video/internal/timeline"
)

// Session owns one generation run end to end: validation, decoding,
// the destination surface, the encoder sink and the frame scheduler.
// None of these are shared between sessions.
type Session struct {
	settings   config.Settings
	sources    []source.Source
	sk         sink.Sink
	onProgress func(scheduler.Progress)

	mu      sync.Mutex
	slides  []source.Slide
	surface *image.RGBA
	sched   *scheduler.Scheduler
	cancel  context.CancelFunc
	closed  bool
}

// New creates a session over the given sources. onProgress may be nil.
// The sources' images must stay valid until the session finishes.
func New(settings config.Settings, sk sink.Sink, onProgress func(scheduler.Progress), sources ...source.Source) *Session {
	return &Session{
		settings:   settings,
		sources:    sources,
		sk:         sk,
		onProgress: onProgress,
	}
}

// Scheduler exposes the scheduler of the current run, nil before Run.
func (s *Session) Scheduler() *scheduler.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

// Run executes the whole generation and returns the finalized
// artifact. Every failure is typed (see Kind); context cancellation is
// returned as-is. A second Run first releases the previous run's
// resources.
func (s *Session) Run(ctx context.Context) (sink.Artifact, error) {
	// Сбрасываем ресурсы предыдущего запуска
	s.release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	// 1. Предусловия: до выделения каких-либо ресурсов
	if err := s.settings.Validate(); err != nil {
		return sink.Artifact{}, wrap(KindPrecondition, err)
	}
	total := 0
	for _, src := range s.sources {
		total += src.Count()
	}
	if total == 0 {
		return sink.Artifact{}, errorf(KindPrecondition, "источник не содержит изображений")
	}

	if need := system.FrameBytes(s.settings.Width, s.settings.Height, total); !system.EnoughMemory(need) {
		log.Printf("[!] Мало свободной памяти для %d кадров %dx%d — возможен своп",
			total, s.settings.Width, s.settings.Height)
	}

	// 2. Декодируем все изображения заранее; любая ошибка валит сессию
	slides, err := s.decodeAll(ctx, total)
	if err != nil {
		if ctx.Err() != nil {
			return sink.Artifact{}, ctx.Err()
		}
		return sink.Artifact{}, wrap(KindDecode, err)
	}

	// 3. Направление панорамы фиксируется один раз на изображение
	dirs := make([]geometry.Direction, len(slides))
	for i, sl := range slides {
		dirs[i] = geometry.ResolveDirection(s.settings.Direction(), sl.ID)
	}

	surface := image.NewRGBA(image.Rect(0, 0, s.settings.Width, s.settings.Height))

	tl := timeline.New(len(slides), s.settings.DurationPerImage, s.settings.TransitionDuration)
	comp := compositor.New(compositor.Params{
		Fit:        s.settings.FitMode(),
		KenBurns:   s.settings.KenBurns.Enabled,
		ZoomFactor: s.settings.KenBurns.ZoomFactor,
		Directions: dirs,
		Debug:      s.settings.Debug,
	})
	sched := scheduler.New(tl, comp, slides, surface, s.sk, s.settings.FPS, s.onProgress)

	s.mu.Lock()
	s.slides = slides
	s.surface = surface
	s.sched = sched
	s.mu.Unlock()

	// 4. Запускаем sink и цикл кадров
	if err := s.sk.Start(s.settings.Width, s.settings.Height, s.settings.FPS); err != nil {
		return sink.Artifact{}, wrap(KindCapability, err)
	}

	if err := sched.Run(ctx); err != nil {
		// stopping a dead sink is a no-op, but it must not leak
		s.sk.Stop()
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return sink.Artifact{}, err
		case errors.Is(err, scheduler.ErrSinkFailure):
			return sink.Artifact{}, wrap(KindSink, err)
		default:
			return sink.Artifact{}, wrap(KindInternal, err)
		}
	}

	artifact, err := s.sk.Stop()
	if err != nil {
		return sink.Artifact{}, wrap(KindSink, err)
	}
	return artifact, nil
}

// Cancel requests a cooperative stop; the scheduler finishes the
// current frame and exits at the next tick boundary.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close releases the session's resources and stops the sink. Safe to
// call any number of times.
func (s *Session) Close() error {
	s.Cancel()
	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !alreadyClosed && s.sk != nil {
		s.sk.Stop()
	}
	s.release()
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.slides = nil
	s.surface = nil
	s.sched = nil
	s.mu.Unlock()
}

// decodeAll renders every slide from every source in parallel, keeping
// input order. The first error cancels the remaining work.
func (s *Session) decodeAll(ctx context.Context, total int) ([]source.Slide, error) {
	slides := make([]source.Slide, total)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(system.DecodeWorkers())

	offset := 0
	for _, src := range s.sources {
		src := src
		base := offset
		for i := 0; i < src.Count(); i++ {
			i := i
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				img, err := src.Render(i)
				if err != nil {
					return &DecodeError{ID: src.ID(i), Err: err}
				}
				b := img.Bounds()
				slides[base+i] = source.Slide{
					ID:     src.ID(i),
					Bitmap: img,
					Width:  b.Dx(),
					Height: b.Dy(),
				}
				return nil
			})
		}
		offset += src.Count()
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slides, nil
}

// DecodeError identifies which input failed to decode.
type DecodeError struct {
	ID  string
	Err error
}

func (e *DecodeError) Error() string {
	return "decode " + e.ID + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
