package detection

import (
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ErrAllSourcesFailed is returned when every source errored for a frame.
var ErrAllSourcesFailed = errors.New("detection: all sources failed")

// MultiConfig configures a MultiSource.
type MultiConfig struct {
	IoUThreshold float64       // Fusion overlap threshold (default 0.5)
	Postprocess  Postprocessor // Applied to each source's output before fusion
	Logger       *slog.Logger
}

// DefaultMultiConfig returns production defaults.
func DefaultMultiConfig() MultiConfig {
	return MultiConfig{
		IoUThreshold: DefaultIoUThreshold,
		Logger:       slog.Default(),
	}
}

// MultiSource runs several detectors on the same frame concurrently and
// fuses their output into one deduplicated list.
//
// With a single source, the source's track ids are kept. With several
// sources, fused detections are anonymous per frame.
type MultiSource struct {
	sources []Detector
	cfg     MultiConfig
	logger  *slog.Logger
}

// NewMultiSource creates a fusing detector over the given sources.
func NewMultiSource(cfg MultiConfig, sources ...Detector) (*MultiSource, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("detection: at least one source required")
	}
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = DefaultIoUThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &MultiSource{
		sources: sources,
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "detection.multi"),
	}, nil
}

// Name implements Detector.
func (m *MultiSource) Name() string {
	if len(m.sources) == 1 {
		return m.sources[0].Name()
	}
	return "multi"
}

// Sources returns the number of underlying detectors.
func (m *MultiSource) Sources() int {
	return len(m.sources)
}

// Detect runs every source on the frame and returns the fused result.
// A failing source contributes no detections. An error is returned only
// when all sources fail, together with an empty list.
func (m *MultiSource) Detect(jpeg []byte) ([]Detection, error) {
	results := make([][]Detection, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	for i, src := range m.sources {
		i, src := i, src
		g.Go(func() error {
			dets, err := src.Detect(jpeg)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			results[i] = m.tag(src.Name(), dets)
			return nil
		})
	}
	_ = g.Wait()

	var combined error
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			m.logger.Warn("detector failed, treating as empty", "error", err)
			combined = multierr.Append(combined, err)
		}
	}
	if failed == len(m.sources) {
		return []Detection{}, fmt.Errorf("%w: %w", ErrAllSourcesFailed, combined)
	}

	var union []Detection
	for _, r := range results {
		union = append(union, r...)
	}
	return Fuse(union, m.cfg.IoUThreshold), nil
}

// tag stamps the source id, applies postprocessing, and strips track ids
// when identities from different sources would be mixed.
func (m *MultiSource) tag(name string, dets []Detection) []Detection {
	if m.cfg.Postprocess != nil {
		dets = m.cfg.Postprocess(dets)
	}
	out := make([]Detection, len(dets))
	for i, d := range dets {
		d.SourceID = name
		if len(m.sources) > 1 {
			d.TrackID = nil
		}
		out[i] = d
	}
	return out
}

// Close closes every source and returns the combined error.
func (m *MultiSource) Close() error {
	var err error
	for _, src := range m.sources {
		err = multierr.Append(err, src.Close())
	}
	return err
}

// Verify MultiSource implements Detector at compile time.
var _ Detector = (*MultiSource)(nil)
