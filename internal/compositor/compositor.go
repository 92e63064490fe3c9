package compositor

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/img2video/internal/geometry"
	"github.com/ivlev/img2video/internal/source"
	"github.com/ivlev/img2video/internal/timeline"
)

// background fills the letterbox/pillarbox area
var background = color.RGBA{0, 0, 0, 255}

// Params are the per-session rendering parameters.
type Params struct {
	Fit        geometry.FitMode
	KenBurns   bool
	ZoomFactor float64
	// Directions holds the pan direction per slide, already resolved
	// from "random" (see geometry.ResolveDirection)
	Directions []geometry.Direction
	Debug      bool
}

// Compositor draws one or two slides into a destination frame buffer.
type Compositor struct {
	params Params
	scaler xdraw.Scaler
}

func New(params Params) *Compositor {
	return &Compositor{
		params: params,
		// bilinear keeps per-tick rendering cheap; the sub-pixel motion
		// comes from the geometry, not the filter
		scaler: xdraw.ApproxBiLinear,
	}
}

// Render composites the frame for st into dst. The active slide is
// drawn at st.Alpha; during a crossfade the next slide is painted on
// top at 1-st.Alpha with its Ken Burns progress restarted at 0.
// Pure function of its inputs plus the surface.
func (c *Compositor) Render(dst *image.RGBA, st timeline.FrameState, slides []source.Slide) error {
	if st.ActiveIndex < 0 || st.ActiveIndex >= len(slides) {
		return fmt.Errorf("active slide %d out of range (%d slides)", st.ActiveIndex, len(slides))
	}
	if st.Transitioning && st.ActiveIndex+1 >= len(slides) {
		return fmt.Errorf("transition past last slide %d", st.ActiveIndex)
	}

	bounds := dst.Bounds()
	xdraw.Draw(dst, bounds, image.NewUniform(background), image.Point{}, xdraw.Src)

	c.drawSlide(dst, slides[st.ActiveIndex], st.ActiveIndex, st.Progress, st.Alpha)
	if st.Transitioning {
		// the incoming slide's motion starts from scratch; swapping to
		// a continued progress is a change to this one argument
		c.drawSlide(dst, slides[st.ActiveIndex+1], st.ActiveIndex+1, 0, 1-st.Alpha)
	}

	if c.params.Debug {
		drawLabel(dst, fmt.Sprintf("slide %d/%d  a=%.2f", st.ActiveIndex+1, len(slides), st.Alpha))
	}
	return nil
}

func (c *Compositor) drawSlide(dst *image.RGBA, slide source.Slide, index int, progress, alpha float64) {
	if alpha <= 0 {
		return
	}

	out := dst.Bounds()
	src, dstRect := geometry.Fit(slide.Width, slide.Height, out.Dx(), out.Dy(), c.params.Fit)
	if c.params.KenBurns {
		dir := geometry.DirectionZoomIn
		if index < len(c.params.Directions) {
			dir = c.params.Directions[index]
		}
		src = geometry.ApplyKenBurns(src, c.params.ZoomFactor, dir, progress)
	}

	sx0, sy0, sx1, sy1 := src.Round()
	dx0, dy0, dx1, dy1 := dstRect.Round()

	// geometry works in 0-based pixel space
	bmin := slide.Bitmap.Bounds().Min

	var opts *xdraw.Options
	if alpha < 1 {
		a := uint16(alpha*0xffff + 0.5)
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha16{A: a})}
	}

	c.scaler.Scale(dst,
		image.Rect(dx0+out.Min.X, dy0+out.Min.Y, dx1+out.Min.X, dy1+out.Min.Y),
		slide.Bitmap,
		image.Rect(sx0+bmin.X, sy0+bmin.Y, sx1+bmin.X, sy1+bmin.Y),
		xdraw.Over, opts)
}
