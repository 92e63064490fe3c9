package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/img2video/internal/geometry"
	"github.com/ivlev/img2video/internal/source"
	"github.com/ivlev/img2video/internal/timeline"
)

func solidSlide(id string, w, h int, c color.RGBA) source.Slide {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return source.Slide{ID: id, Bitmap: img, Width: w, Height: h}
}

func testParams() Params {
	return Params{
		Fit:        geometry.FitCover,
		KenBurns:   false,
		ZoomFactor: 1.2,
		Directions: []geometry.Direction{geometry.DirectionZoomIn, geometry.DirectionZoomIn},
	}
}

func TestRenderFillsSurface(t *testing.T) {
	slides := []source.Slide{solidSlide("red", 64, 36, color.RGBA{200, 0, 0, 255})}
	dst := image.NewRGBA(image.Rect(0, 0, 64, 36))

	c := New(testParams())
	st := timeline.FrameState{ActiveIndex: 0, Alpha: 1}
	if err := c.Render(dst, st, slides); err != nil {
		t.Fatalf("render: %v", err)
	}

	// cover fit with matching aspect: every pixel is the slide color
	r, _, _, _ := dst.At(32, 18).RGBA()
	if r>>8 < 190 {
		t.Errorf("center pixel red channel %d, want ~200", r>>8)
	}
}

func TestRenderContainLetterboxes(t *testing.T) {
	// Square white slide into a wide frame: left/right bars stay black
	slides := []source.Slide{solidSlide("white", 50, 50, color.RGBA{255, 255, 255, 255})}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 50))

	p := testParams()
	p.Fit = geometry.FitContain
	c := New(p)

	if err := c.Render(dst, timeline.FrameState{ActiveIndex: 0, Alpha: 1}, slides); err != nil {
		t.Fatalf("render: %v", err)
	}

	r, g, b, _ := dst.At(5, 25).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("pillarbox pixel not black: %d %d %d", r>>8, g>>8, b>>8)
	}
	r, _, _, _ = dst.At(50, 25).RGBA()
	if r>>8 < 250 {
		t.Errorf("center pixel not white: %d", r>>8)
	}
}

func TestRenderCrossfadeBlends(t *testing.T) {
	slides := []source.Slide{
		solidSlide("black", 64, 36, color.RGBA{0, 0, 0, 255}),
		solidSlide("white", 64, 36, color.RGBA{255, 255, 255, 255}),
	}
	dst := image.NewRGBA(image.Rect(0, 0, 64, 36))

	c := New(testParams())
	st := timeline.FrameState{ActiveIndex: 0, Alpha: 0.5, Transitioning: true}
	if err := c.Render(dst, st, slides); err != nil {
		t.Fatalf("render: %v", err)
	}

	// black at 0.5 over background, white at 0.5 on top: mid gray
	r, _, _, _ := dst.At(32, 18).RGBA()
	got := int(r >> 8)
	if got < 100 || got > 155 {
		t.Errorf("blended pixel %d, want mid gray", got)
	}
}

func TestRenderClearsPreviousFrame(t *testing.T) {
	slides := []source.Slide{solidSlide("white", 50, 50, color.RGBA{255, 255, 255, 255})}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 50))

	// Dirty the surface, then render a contain-fit frame over it
	for i := range dst.Pix {
		dst.Pix[i] = 0xff
	}

	p := testParams()
	p.Fit = geometry.FitContain
	c := New(p)
	if err := c.Render(dst, timeline.FrameState{ActiveIndex: 0, Alpha: 1}, slides); err != nil {
		t.Fatalf("render: %v", err)
	}

	r, g, b, _ := dst.At(2, 2).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Error("surface not cleared before drawing")
	}
}

func TestRenderRejectsBadIndices(t *testing.T) {
	slides := []source.Slide{solidSlide("only", 10, 10, color.RGBA{255, 0, 0, 255})}
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	c := New(testParams())

	if err := c.Render(dst, timeline.FrameState{ActiveIndex: 3, Alpha: 1}, slides); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if err := c.Render(dst, timeline.FrameState{ActiveIndex: 0, Alpha: 0.5, Transitioning: true}, slides); err == nil {
		t.Error("expected error for transition past the last slide")
	}
}
