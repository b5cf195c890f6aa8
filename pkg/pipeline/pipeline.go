// Package pipeline runs the per-frame hazard loop: detect, fuse, track,
// analyze and schedule. Everything here executes synchronously on the
// caller's goroutine; speech delivery happens elsewhere.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/teslashibe/go-hazardcam/pkg/alert"
	"github.com/teslashibe/go-hazardcam/pkg/detection"
	"github.com/teslashibe/go-hazardcam/pkg/hazard"
	"github.com/teslashibe/go-hazardcam/pkg/tracking"
)

// ErrSourceFailed is returned by Run when the frame source keeps failing.
var ErrSourceFailed = errors.New("pipeline: frame source failed")

// Input is one captured frame.
type Input struct {
	Index  int
	Width  int
	Height int
	Image  []byte // JPEG
}

// FrameSource yields frames. Next returns io.EOF when exhausted.
type FrameSource interface {
	Next(ctx context.Context) (Input, error)
}

// FrameResult is the overlay record for one processed frame.
type FrameResult struct {
	Index       int                      `json:"index"`
	Width       int                      `json:"width"`
	Height      int                      `json:"height"`
	Time        time.Time                `json:"time"`
	Latency     time.Duration            `json:"latency_ns"`
	Detections  int                      `json:"detections"`
	Annotations []hazard.Annotation      `json:"annotations"`
	Alerts      []string                 `json:"alerts"`
	Utterance   string                   `json:"utterance,omitempty"`
	Queued      bool                     `json:"queued"`
	Tracks      []tracking.TrackedObject `json:"tracks"`
	Image       []byte                   `json:"-"`
}

// Sink receives every processed frame. OnFrame is called on the frame
// loop and must not block.
type Sink interface {
	OnFrame(result FrameResult)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(FrameResult)

// OnFrame calls f.
func (f SinkFunc) OnFrame(result FrameResult) { f(result) }

// Config wires the pipeline stages.
type Config struct {
	Detector     detection.Detector
	IoUThreshold float64
	Tracker      *tracking.Tracker
	Analyzer     *hazard.Analyzer
	Scheduler    *alert.Scheduler
	Sinks        []Sink

	// MaxSourceErrors is how many consecutive source errors Run tolerates
	// before giving up. Zero means never give up.
	MaxSourceErrors int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Stats summarizes pipeline activity.
type Stats struct {
	Frames         int64       `json:"frames"`
	Detections     int64       `json:"detections"`
	DetectorErrors int64       `json:"detector_errors"`
	SourceErrors   int64       `json:"source_errors"`
	Candidates     int64       `json:"candidates"`
	LastFrame      time.Time   `json:"last_frame"`
	LastLatency    string      `json:"last_latency"`
	LiveTracks     int         `json:"live_tracks"`
	Alerts         alert.Stats `json:"alerts"`
}

// Pipeline owns the producer-side state: the tracker and the cooldown
// table inside the scheduler.
type Pipeline struct {
	config Config
	logger *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New validates config and creates a pipeline.
func New(config Config) (*Pipeline, error) {
	if config.Detector == nil {
		return nil, fmt.Errorf("pipeline: detector required")
	}
	if config.Tracker == nil || config.Analyzer == nil || config.Scheduler == nil {
		return nil, fmt.Errorf("pipeline: tracker, analyzer and scheduler required")
	}
	if config.IoUThreshold <= 0 {
		config.IoUThreshold = detection.DefaultIoUThreshold
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Pipeline{
		config: config,
		logger: config.Logger.With("component", "pipeline"),
	}, nil
}

// Process runs detection on in and then ProcessDetections. A detector
// error is logged and treated as a frame with no detections.
func (p *Pipeline) Process(in Input) FrameResult {
	dets, err := p.config.Detector.Detect(in.Image)
	if err != nil {
		p.mu.Lock()
		p.stats.DetectorErrors++
		p.mu.Unlock()
		p.logger.Warn("detector failed, treating frame as empty", "frame", in.Index, "error", err)
		dets = nil
	}
	res := p.ProcessDetections(tracking.Frame{
		Index:      in.Index,
		Width:      in.Width,
		Height:     in.Height,
		Detections: dets,
	})
	res.Image = in.Image
	p.publish(res)
	return res
}

// ProcessDetections fuses, tracks, analyzes and schedules one frame of
// detections. It does not notify sinks.
func (p *Pipeline) ProcessDetections(frame tracking.Frame) FrameResult {
	start := p.config.Clock.Now()

	frame.Detections = detection.Fuse(frame.Detections, p.config.IoUThreshold)
	obs := p.config.Tracker.Update(frame)
	analysis := p.config.Analyzer.Analyze(frame.Width, frame.Height, obs)
	utterance, queued := p.config.Scheduler.Schedule(analysis.Candidates)

	now := p.config.Clock.Now()
	res := FrameResult{
		Index:       frame.Index,
		Width:       frame.Width,
		Height:      frame.Height,
		Time:        now,
		Latency:     now.Sub(start),
		Detections:  len(frame.Detections),
		Annotations: analysis.Annotations,
		Alerts:      analysis.Texts(),
		Utterance:   utterance,
		Queued:      queued,
		Tracks:      p.config.Tracker.Tracks(),
	}

	p.mu.Lock()
	p.stats.Frames++
	p.stats.Detections += int64(res.Detections)
	p.stats.Candidates += int64(len(res.Alerts))
	p.stats.LastFrame = now
	p.stats.LastLatency = res.Latency.String()
	p.stats.LiveTracks = len(res.Tracks)
	p.stats.Alerts = p.config.Scheduler.Stats()
	p.mu.Unlock()

	return res
}

func (p *Pipeline) publish(res FrameResult) {
	for _, s := range p.config.Sinks {
		s.OnFrame(res)
	}
}

// Run pulls frames from src until ctx is done or src returns io.EOF. A
// source error for one frame is processed as an empty frame.
func (p *Pipeline) Run(ctx context.Context, src FrameSource) error {
	p.logger.Info("pipeline started")
	defer p.logger.Info("pipeline stopped")

	var (
		failures int
		index    int
		last     Input
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		in, err := src.Next(ctx)
		switch {
		case err == nil:
			failures = 0
			last = in
			index = in.Index
			p.Process(in)
			continue
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return nil
		}

		failures++
		p.mu.Lock()
		p.stats.SourceErrors++
		p.mu.Unlock()
		p.logger.Warn("frame source error", "error", err, "consecutive", failures)

		if p.config.MaxSourceErrors > 0 && failures >= p.config.MaxSourceErrors {
			return fmt.Errorf("%w after %d attempts: %w", ErrSourceFailed, failures, err)
		}

		index++
		empty := p.ProcessDetections(tracking.Frame{Index: index, Width: last.Width, Height: last.Height})
		p.publish(empty)
	}
}

// Stats returns a snapshot of the counters. Safe for concurrent use.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
