package source

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// StaticSource serves pre-built in-memory images. Used for generated
// slides (QR outro) and in tests.
type StaticSource struct {
	ids    []string
	images []image.Image
}

func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

func (s *StaticSource) Add(id string, img image.Image) *StaticSource {
	s.ids = append(s.ids, id)
	s.images = append(s.images, img)
	return s
}

func (s *StaticSource) Count() int { return len(s.images) }

func (s *StaticSource) ID(index int) string { return s.ids[index] }

func (s *StaticSource) Render(index int) (image.Image, error) {
	if index < 0 || index >= len(s.images) {
		return nil, fmt.Errorf("slide index %d out of range", index)
	}
	return s.images[index], nil
}

func (s *StaticSource) Close() error { return nil }

// NewQRSource builds a single-slide source with a QR code for the
// given content, rendered at size x size pixels. Appended after the
// input images it makes a call-to-action outro.
func NewQRSource(content string, size int) (*StaticSource, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	return NewStaticSource().Add("qr:"+content, q.Image(size)), nil
}
