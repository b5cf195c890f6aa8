package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/teslashibe/go-hazardcam/pkg/alert"
	"github.com/teslashibe/go-hazardcam/pkg/audio"
	"github.com/teslashibe/go-hazardcam/pkg/camera"
	"github.com/teslashibe/go-hazardcam/pkg/camera/webcam"
	"github.com/teslashibe/go-hazardcam/pkg/detection"
	"github.com/teslashibe/go-hazardcam/pkg/detection/yolo"
	"github.com/teslashibe/go-hazardcam/pkg/hazard"
	"github.com/teslashibe/go-hazardcam/pkg/pipeline"
	"github.com/teslashibe/go-hazardcam/pkg/speech"
	"github.com/teslashibe/go-hazardcam/pkg/tracking"
	"github.com/teslashibe/go-hazardcam/pkg/tts"
	"github.com/teslashibe/go-hazardcam/pkg/web"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Option overrides a component built by Init.
type Option func(*App)

// WithDetector uses d instead of loading ONNX models.
func WithDetector(d detection.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithSources uses dets in place of the configured ONNX models. They are
// fused and filtered the same way loaded models are.
func WithSources(dets ...detection.Detector) Option {
	return func(a *App) { a.sources = dets }
}

// WithSource uses src instead of opening a camera or replay directory.
func WithSource(src pipeline.FrameSource) Option {
	return func(a *App) { a.source = src }
}

// WithSpeaker uses s instead of the TTS chain.
func WithSpeaker(s speech.Speaker) Option {
	return func(a *App) { a.speaker = s }
}

// WithLogger sets the root logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// Status is the /api/status body.
type Status struct {
	Pipeline pipeline.Stats `json:"pipeline"`
	Speech   speech.Stats   `json:"speech"`
	State    string         `json:"speech_state"`
	Queued   int            `json:"queued"`
	Viewers  map[string]int `json:"viewers,omitempty"`
	Uptime   string         `json:"uptime"`
}

// App is the hazard camera application.
type App struct {
	config Config
	logger *slog.Logger

	detector detection.Detector
	sources  []detection.Detector
	source   pipeline.FrameSource
	speaker  speech.Speaker
	provider tts.Provider
	player   *audio.Player

	queue      *speech.Queue
	dispatcher *speech.Dispatcher
	pipeline   *pipeline.Pipeline
	webServer  *web.Server

	started time.Time
}

// New creates the application with the given configuration.
func New(cfg Config, opts ...Option) (*App, error) {
	cfg.LoadEnvConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "app")
	return a, nil
}

// Init builds every component. Call this after New and before Run.
func (a *App) Init() error {
	if err := a.initDetector(); err != nil {
		return fmt.Errorf("detector init: %w", err)
	}
	if err := a.initSource(); err != nil {
		return fmt.Errorf("source init: %w", err)
	}
	a.initSpeech()
	if err := a.initPipeline(); err != nil {
		return fmt.Errorf("pipeline init: %w", err)
	}
	return nil
}

// Run processes frames until ctx is cancelled or the source ends.
func (a *App) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return errors.New("app: Run called before Init")
	}
	a.started = time.Now()
	a.dispatcher.Start()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := a.pipeline.Run(ctx, a.source)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if a.webServer != nil {
		g.Go(func() error {
			return a.webServer.Run(ctx)
		})
	}

	a.logger.Info("hazard camera running", "models", len(a.config.Models), "tts", a.config.TTSMode)
	return g.Wait()
}

// Shutdown stops speech and releases every component. The overlay feed
// is stopped by Run when its context ends.
func (a *App) Shutdown() error {
	var err error
	if a.dispatcher != nil {
		err = multierr.Append(err, a.dispatcher.Stop(a.config.StopTimeout))
	}
	if a.player != nil {
		a.player.Cancel()
	}
	if a.provider != nil {
		err = multierr.Append(err, a.provider.Close())
	}
	if c, ok := a.source.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	if a.detector != nil {
		err = multierr.Append(err, a.detector.Close())
	}
	a.logger.Info("shutdown complete")
	return err
}

// Status returns a snapshot for the overlay feed.
func (a *App) Status() Status {
	st := Status{
		Pipeline: a.pipeline.Stats(),
		Speech:   a.dispatcher.Stats(),
		State:    a.dispatcher.State().String(),
		Queued:   a.queue.Len(),
	}
	if a.webServer != nil {
		st.Viewers = a.webServer.Viewers()
	}
	if !a.started.IsZero() {
		st.Uptime = time.Since(a.started).Round(time.Second).String()
	}
	return st
}

// Dispatcher returns the speech dispatcher.
func (a *App) Dispatcher() *speech.Dispatcher {
	return a.dispatcher
}

// Pipeline returns the frame pipeline.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

func (a *App) initDetector() error {
	if a.detector != nil {
		return nil
	}

	sources := a.sources
	if sources == nil {
		var err error
		if sources, err = a.loadModels(); err != nil {
			return err
		}
	}

	mcfg := detection.DefaultMultiConfig()
	mcfg.Postprocess = detection.Compose(
		detection.NewScoreFilter(a.config.ConfidenceThresh),
		detection.NewAreaFilter(a.config.MinBoxArea),
		detection.NewLabelFilter(a.config.Labels...),
	)
	mcfg.Logger = a.logger
	multi, err := detection.NewMultiSource(mcfg, sources...)
	if err != nil {
		return err
	}

	// Fused boxes are a per-frame consensus with no identity, so only a
	// lone model is turned into a tracker.
	if a.config.AssignTrackIDs && len(sources) == 1 {
		a.detector = detection.NewIOUTracker(multi, detection.DefaultIOUTrackerConfig())
	} else {
		a.detector = multi
	}
	return nil
}

// loadModels opens one YOLO detector per configured model, closing the
// ones already opened if any fails.
func (a *App) loadModels() ([]detection.Detector, error) {
	var sources []detection.Detector
	for _, path := range a.config.ModelPaths() {
		ycfg := yolo.DefaultConfig()
		ycfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		ycfg.ModelPath = path
		ycfg.ConfidenceThresh = float32(a.config.ConfidenceThresh)
		ycfg.Logger = a.logger
		d, err := yolo.New(ycfg)
		if err != nil {
			for _, s := range sources {
				s.Close()
			}
			return nil, err
		}
		sources = append(sources, d)
		a.logger.Info("detector loaded", "source", ycfg.Name, "model", path)
	}
	return sources, nil
}

func (a *App) initSource() error {
	if a.source != nil {
		return nil
	}
	cam := a.config.CameraConfig()

	if a.config.ReplayDir != "" {
		r, err := camera.OpenReplay(a.config.ReplayDir, cam.Framerate, a.config.ReplayLoop)
		if err != nil {
			return err
		}
		a.logger.Info("replaying frames", "dir", a.config.ReplayDir, "files", r.Len())
		a.source = r
		return nil
	}

	src, err := webcam.Open(cam, a.logger)
	if err != nil {
		return err
	}
	a.source = src
	return nil
}

func (a *App) initSpeech() {
	a.queue = speech.NewQueue(speech.DefaultQueueCapacity)

	if a.speaker == nil {
		a.speaker = a.buildSpeaker()
	}

	dcfg := speech.DefaultConfig()
	dcfg.Gap = a.config.Gap
	dcfg.Logger = a.logger
	a.dispatcher = speech.NewDispatcher(dcfg, a.queue, a.speaker)
}

// buildSpeaker assembles the TTS chain for the configured mode. Missing
// providers are skipped; with none left the speaker is Silent.
func (a *App) buildSpeaker() speech.Speaker {
	var providers []tts.Provider
	mode := a.config.TTSMode

	if (mode == TTSAuto || mode == TTSOpenAI) && a.config.OpenAIKey != "" {
		opts := []tts.Option{tts.WithAPIKey(a.config.OpenAIKey), tts.WithLogger(a.logger)}
		if a.config.Voice != "" {
			opts = append(opts, tts.WithVoice(a.config.Voice))
		}
		if p, err := tts.NewOpenAI(opts...); err != nil {
			a.logger.Warn("openai tts unavailable", "error", err)
		} else {
			providers = append(providers, p)
		}
	}
	if mode != TTSSilent {
		if p, err := tts.NewEspeak(tts.WithBinary(a.config.EspeakBinary), tts.WithLogger(a.logger)); err != nil {
			a.logger.Warn("espeak unavailable", "error", err)
		} else {
			providers = append(providers, p)
		}
	}

	if len(providers) == 0 {
		a.logger.Warn("no speech output, alerts will only be logged")
		return speech.Silent{Logger: a.logger}
	}

	chain, err := tts.NewChainWithLogger(a.logger, providers...)
	if err != nil {
		return speech.Silent{Logger: a.logger}
	}
	a.provider = chain
	pcfg := audio.DefaultConfig()
	pcfg.Logger = a.logger
	a.player = audio.NewPlayer(pcfg)
	return speech.NewTTSSpeaker(chain, a.player, 5*time.Second)
}

func (a *App) initPipeline() error {
	hcfg := hazard.DefaultConfig()
	if a.config.StreetRules {
		hcfg = hazard.StreetConfig()
	}
	hcfg.ProximityRatio = a.config.ProximityRatio
	hcfg.SpeedThreshold = a.config.SpeedThreshold
	hcfg.MinConfidence = a.config.ConfidenceThresh
	hcfg.Logger = a.logger

	acfg := alert.DefaultConfig()
	acfg.Cooldown = a.config.Cooldown
	acfg.Logger = a.logger

	tcfg := tracking.DefaultConfig()
	tcfg.Logger = a.logger
	if err := tcfg.Validate(); err != nil {
		return err
	}
	tracker := tracking.New(tcfg)

	var sinks []pipeline.Sink
	if !a.config.NoWeb {
		wcfg := web.DefaultConfig()
		wcfg.Port = a.config.WebPort
		wcfg.StaticDir = a.config.StaticDir
		wcfg.Logger = a.logger
		a.webServer = web.NewServer(wcfg)
		a.webServer.StatusFunc = func() any { return a.Status() }
		sinks = append(sinks, a.webServer)
	}

	p, err := pipeline.New(pipeline.Config{
		Detector:        a.detector,
		IoUThreshold:    detection.DefaultIoUThreshold,
		Tracker:         tracker,
		Analyzer:        hazard.NewAnalyzer(hcfg),
		Scheduler:       alert.NewScheduler(acfg, a.queue),
		Sinks:           sinks,
		MaxSourceErrors: 30,
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}
	a.pipeline = p
	return nil
}
