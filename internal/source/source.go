package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Slide is one decoded input image. The bitmap stays valid for the
// whole generation session; the compositor only reads it.
type Slide struct {
	ID     string
	Bitmap image.Image
	Width  int
	Height int
}

// Source supplies the ordered images of a slideshow. Render may be
// called from several goroutines with distinct indices.
type Source interface {
	Count() int
	ID(index int) string
	Render(index int) (image.Image, error)
	Close() error
}

// FitzSource renders PDF pages as slides through go-fitz.
type FitzSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewFitzSource(path string, dpi int) (*FitzSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *FitzSource) Count() int {
	return f.doc.NumPage()
}

func (f *FitzSource) ID(index int) string {
	return fmt.Sprintf("%s#page-%d", f.path, index+1)
}

func (f *FitzSource) Render(index int) (image.Image, error) {
	// fitz documents are not safe for concurrent rendering; each call
	// opens its own handle so the decode pool can fan out
	doc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.ImageDPI(index, float64(f.dpi))
}

func (f *FitzSource) Close() error {
	return f.doc.Close()
}
