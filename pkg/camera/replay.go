package camera

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-hazardcam/pkg/pipeline"
)

// Replay serves JPEG files from a directory in name order. It is used to
// rerun recorded sessions through the pipeline without a camera.
type Replay struct {
	files    []string
	interval time.Duration
	loop     bool

	mu     sync.Mutex
	next   int
	index  int
	closed bool
	last   time.Time
}

// OpenReplay lists *.jpg and *.jpeg files in dir. framerate > 0 paces
// delivery; loop restarts from the first file instead of returning io.EOF.
func OpenReplay(dir string, framerate int, loop bool) (*Replay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}

	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".jpg" || ext == ".jpeg") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("open replay: no jpeg files in %s", dir)
	}
	sort.Strings(files)

	r := &Replay{files: files, loop: loop}
	if framerate > 0 {
		r.interval = time.Second / time.Duration(framerate)
	}
	return r, nil
}

// Len returns the number of frames in one pass.
func (r *Replay) Len() int {
	return len(r.files)
}

// Next returns the next frame.
func (r *Replay) Next(ctx context.Context) (pipeline.Input, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return pipeline.Input{}, ErrClosed
	}
	if r.next >= len(r.files) {
		if !r.loop {
			return pipeline.Input{}, io.EOF
		}
		r.next = 0
	}
	if err := r.pace(ctx); err != nil {
		return pipeline.Input{}, err
	}

	path := r.files[r.next]
	r.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("read frame: %w", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	in := pipeline.Input{Index: r.index, Width: cfg.Width, Height: cfg.Height, Image: data}
	r.index++
	return in, nil
}

func (r *Replay) pace(ctx context.Context) error {
	if r.interval == 0 {
		return nil
	}
	if !r.last.IsZero() {
		if wait := r.interval - time.Since(r.last); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	r.last = time.Now()
	return nil
}

// Close stops the source.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

var _ pipeline.FrameSource = (*Replay)(nil)
