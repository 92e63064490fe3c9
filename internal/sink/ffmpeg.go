package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrNoEncoder reports that no usable H.264 encoder could be
// negotiated on this host.
var ErrNoEncoder = errors.New("no supported video encoder")

// NegotiateEncoder probes ffmpeg for the best available H.264 encoder.
//
// Приоритеты: VideoToolbox (macOS), NVENC (NVIDIA), затем libx264.
func NegotiateEncoder() (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("%w: ffmpeg not found in PATH", ErrNoEncoder)
	}

	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: ffmpeg -encoders failed: %v", ErrNoEncoder, err)
	}

	for _, enc := range []string{"h264_videotoolbox", "h264_nvenc", "libx264"} {
		if strings.Contains(string(out), enc) {
			return enc, nil
		}
	}
	return "", fmt.Errorf("%w: no h264 encoder in ffmpeg build", ErrNoEncoder)
}

// DefaultQuality returns the default quality value for an encoder:
// CRF for libx264/NVENC, bitrate units for VideoToolbox.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

// FFmpegSink pipes raw RGBA frames into an ffmpeg process and collects
// the encoded MP4 as an in-memory artifact on Stop.
type FFmpegSink struct {
	encoder string
	quality int

	ctx     context.Context
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	log     bytes.Buffer
	outPath string

	width, height int
	started       bool
	stopped       bool
	artifact      Artifact
}

// NewFFmpeg creates a sink using the given encoder (see
// NegotiateEncoder) and quality (0 = encoder default).
func NewFFmpeg(ctx context.Context, encoder string, quality int) *FFmpegSink {
	if quality <= 0 {
		quality = DefaultQuality(encoder)
	}
	return &FFmpegSink{ctx: ctx, encoder: encoder, quality: quality}
}

func (s *FFmpegSink) Start(width, height, fps int) error {
	if s.started {
		return errors.New("sink already started")
	}

	tmp, err := os.CreateTemp("", "img2video_*.mp4")
	if err != nil {
		return err
	}
	tmp.Close()
	s.outPath = tmp.Name()
	s.width, s.height = width, height

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", s.encoder,
	}
	args = append(args, qualityArgs(s.encoder, s.quality)...)
	args = append(args, s.outPath)

	s.cmd = exec.CommandContext(s.ctx, "ffmpeg", args...)
	s.cmd.Stdout = &s.log
	s.cmd.Stderr = &s.log

	s.stdin, err = s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	s.started = true
	return nil
}

// Capture writes the surface's current content as one raw RGBA frame.
func (s *FFmpegSink) Capture(frame *image.RGBA) error {
	if !s.started || s.stopped {
		return errors.New("sink not running")
	}
	if err := writeRawRGBA(s.stdin, frame); err != nil {
		// ffmpeg умер — достаем хвост его лога
		return fmt.Errorf("write frame: %w (ffmpeg: %s)", err, tail(&s.log))
	}
	return nil
}

// Stop closes the stream, waits for the encode to finish and returns
// the finalized artifact. Safe to call more than once.
func (s *FFmpegSink) Stop() (Artifact, error) {
	if s.stopped {
		return s.artifact, nil
	}
	s.stopped = true
	if !s.started {
		return Artifact{}, nil
	}

	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		os.Remove(s.outPath)
		return Artifact{}, fmt.Errorf("ffmpeg wait error: %w (log: %s)", err, tail(&s.log))
	}

	data, err := os.ReadFile(s.outPath)
	os.Remove(s.outPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("read output: %w", err)
	}

	s.artifact = Artifact{Data: data, MediaType: "video/mp4"}
	return s.artifact, nil
}

func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox не всегда поддерживает -q:v, используем битрейт
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride == bounds.Dx()*4 && bounds.Min.X == 0 && bounds.Min.Y == 0 {
		_, err := w.Write(img.Pix)
		return err
	}
	// non-standard stride: copy row by row
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y) : img.PixOffset(bounds.Min.X, y)+bounds.Dx()*4]
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func tail(b *bytes.Buffer) string {
	const n = 400
	s := b.String()
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return strings.TrimSpace(s)
}
