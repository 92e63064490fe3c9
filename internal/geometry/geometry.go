package geometry

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// Rect is an axis-aligned rectangle in pixel space. Floating point so
// that per-frame zoom/pan steps stay sub-pixel smooth; rounding to
// integer coordinates happens only at draw time.
type Rect struct {
	X, Y, W, H float64
}

// Round converts the rect to integer pixel bounds.
func (r Rect) Round() (x0, y0, x1, y1 int) {
	return int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X + r.W)), int(math.Round(r.Y + r.H))
}

type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
)

func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(s) {
	case FitCover, FitContain:
		return FitMode(s), nil
	}
	return "", fmt.Errorf("unknown fit mode %q (expected cover|contain)", s)
}

type Direction string

const (
	DirectionRandom  Direction = "random"
	DirectionZoomIn  Direction = "zoom-in"
	DirectionZoomOut Direction = "zoom-out"
	DirectionLeft    Direction = "pan-left"
	DirectionRight   Direction = "pan-right"
	DirectionUp      Direction = "pan-up"
	DirectionDown    Direction = "pan-down"
)

// concrete directions "random" can resolve to
var concreteDirections = []Direction{
	DirectionZoomIn, DirectionZoomOut,
	DirectionLeft, DirectionRight, DirectionUp, DirectionDown,
}

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionRandom, DirectionZoomIn, DirectionZoomOut,
		DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown pan direction %q", s)
}

// MaxPanRatio bounds the pan travel to a fraction of the source
// dimension at progress 1.
const MaxPanRatio = 0.1

// Fit computes the source and destination rectangles mapping an image
// of imgW x imgH pixels onto an output of outW x outH pixels.
//
// cover: the source is center-cropped to the output aspect ratio and
// the destination fills the whole output. contain: the source is the
// full image and the destination is letterboxed/pillarboxed inside
// the output.
func Fit(imgW, imgH, outW, outH int, mode FitMode) (src, dst Rect) {
	iw, ih := float64(imgW), float64(imgH)
	ow, oh := float64(outW), float64(outH)

	if mode == FitContain {
		scale := math.Min(ow/iw, oh/ih)
		dw, dh := iw*scale, ih*scale
		return Rect{0, 0, iw, ih},
			Rect{(ow - dw) / 2, (oh - dh) / 2, dw, dh}
	}

	// cover
	imgAspect := iw / ih
	outAspect := ow / oh
	src = Rect{0, 0, iw, ih}
	if imgAspect > outAspect {
		// image is relatively wider: crop width
		src.W = ih * outAspect
		src.X = (iw - src.W) / 2
	} else {
		src.H = iw / outAspect
		src.Y = (ih - src.H) / 2
	}
	return src, Rect{0, 0, ow, oh}
}

// ResolveDirection replaces DirectionRandom with a concrete direction
// chosen from a seed derived from the image id. Repeated calls for the
// same id always produce the same direction, so a slide never changes
// its camera motion between frames.
func ResolveDirection(dir Direction, imageID string) Direction {
	if dir != DirectionRandom {
		return dir
	}
	h := fnv.New64a()
	h.Write([]byte(imageID))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	return concreteDirections[r.Intn(len(concreteDirections))]
}

// ApplyKenBurns adjusts the source rect for the Ken Burns effect at
// the given progress in [0,1]. zoomFactor must be >= 1; dir must be a
// concrete direction (see ResolveDirection).
//
// zoom-in runs 1 -> zoomFactor, zoom-out runs zoomFactor -> 1, and the
// pan directions hold a constant zoomFactor while translating the
// cropped window linearly by up to MaxPanRatio of the source
// dimension. The adjusted rect shrinks around its center by 1/zoom and
// never leaves the original source bounds.
func ApplyKenBurns(src Rect, zoomFactor float64, dir Direction, progress float64) Rect {
	progress = clamp(progress, 0, 1)
	if zoomFactor < 1 {
		zoomFactor = 1
	}

	var zoom float64
	switch dir {
	case DirectionZoomOut:
		zoom = zoomFactor - (zoomFactor-1)*progress
	case DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
		zoom = zoomFactor
	default:
		// zoom-in, and any direction with no pan component
		zoom = 1 + (zoomFactor-1)*progress
	}

	out := src
	out.W = src.W / zoom
	out.H = src.H / zoom
	out.X = src.X + (src.W-out.W)/2
	out.Y = src.Y + (src.H-out.H)/2

	switch dir {
	case DirectionLeft:
		out.X -= MaxPanRatio * src.W * progress
	case DirectionRight:
		out.X += MaxPanRatio * src.W * progress
	case DirectionUp:
		out.Y -= MaxPanRatio * src.H * progress
	case DirectionDown:
		out.Y += MaxPanRatio * src.H * progress
	}

	out.X = clamp(out.X, src.X, src.X+src.W-out.W)
	out.Y = clamp(out.Y, src.Y, src.Y+src.H-out.H)
	return out
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
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
