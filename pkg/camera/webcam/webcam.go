// Package webcam captures frames from a local camera or video file with
// OpenCV.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-hazardcam/pkg/camera"
	"github.com/teslashibe/go-hazardcam/pkg/pipeline"
	"gocv.io/x/gocv"
)

// ErrReadFailed is returned when the device yields no frame.
var ErrReadFailed = errors.New("webcam: read failed")

// Source reads frames from a gocv.VideoCapture.
type Source struct {
	config camera.Config
	logger *slog.Logger
	isFile bool

	mu       sync.Mutex
	capture  *gocv.VideoCapture
	frame    gocv.Mat
	index    int
	closed   bool
	interval time.Duration
	last     time.Time
}

// Open starts capture. Device "0", "1", ... opens a camera index; anything
// else is treated as a video file path.
func Open(cfg camera.Config, logger *slog.Logger) (*Source, error) {
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	_, convErr := strconv.Atoi(cfg.Device)
	isFile := convErr != nil

	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", cfg.Device, err)
	}
	if !isFile {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
		capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	s := &Source{
		config:  cfg,
		logger:  logger.With("component", "webcam", "device", cfg.Device),
		isFile:  isFile,
		capture: capture,
		frame:   gocv.NewMat(),
	}
	if isFile {
		// Cameras pace themselves; files are throttled to the target rate.
		s.interval = time.Second / time.Duration(cfg.Framerate)
	}

	s.logger.Info("capture opened",
		"width", int(capture.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(capture.Get(gocv.VideoCaptureFrameHeight)),
		"file", isFile,
	)
	return s, nil
}

// Next reads, encodes and returns one frame.
func (s *Source) Next(ctx context.Context) (pipeline.Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pipeline.Input{}, camera.ErrClosed
	}
	if err := s.pace(ctx); err != nil {
		return pipeline.Input{}, err
	}

	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		if s.isFile {
			return pipeline.Input{}, io.EOF
		}
		return pipeline.Input{}, ErrReadFailed
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.frame, []int{int(gocv.IMWriteJpegQuality), s.config.Quality})
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	in := pipeline.Input{
		Index:  s.index,
		Width:  s.frame.Cols(),
		Height: s.frame.Rows(),
		Image:  data,
	}
	s.index++
	return in, nil
}

func (s *Source) pace(ctx context.Context) error {
	if s.interval == 0 {
		return nil
	}
	if !s.last.IsZero() {
		if wait := s.interval - time.Since(s.last); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	s.last = time.Now()
	return nil
}

// Close releases the device.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.frame.Close()
	return s.capture.Close()
}

var _ pipeline.FrameSource = (*Source)(nil)
