// hazardcam watches a camera, detects nearby and fast-moving objects and
// speaks short warnings about them.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	hlog "github.com/teslashibe/go-hazardcam/internal/log"
	"github.com/teslashibe/go-hazardcam/pkg/app"
	"github.com/teslashibe/go-hazardcam/pkg/camera"
)

func main() {
	cfg := parseFlags()
	cfg.LoadEnvConfig()

	hlog.Init(cfg.LogLevel)

	a, err := app.New(cfg, app.WithLogger(hlog.L()))
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if err := a.Init(); err != nil {
		a.Shutdown()
		log.Fatalf("initialization failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := a.Run(ctx)
	if err := a.Shutdown(); err != nil {
		hlog.Warn("shutdown", "error", err)
	}
	if runErr != nil {
		hlog.Error("runtime error", "error", runErr)
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	preset := flag.String("preset", cfg.CameraPreset, "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	device := flag.String("camera", "", "Camera index, device path or video file (overrides HAZARD_CAMERA)")
	replay := flag.String("replay", "", "Directory of JPEG frames to replay instead of a camera")
	loop := flag.Bool("loop", false, "Loop the replay directory")
	modelDir := flag.String("models", cfg.ModelDir, "Model directory (overrides HAZARD_MODELS)")
	models := flag.String("model", strings.Join(cfg.Models, ","), "Comma-separated ONNX model files")
	conf := flag.Float64("conf", cfg.ConfidenceThresh, "Detection confidence threshold")
	minArea := flag.Float64("min-area", 0, "Drop boxes smaller than this many pixels")
	labels := flag.String("labels", "", "Comma-separated labels to keep (default all)")
	noIDs := flag.Bool("no-track-ids", false, "Do not assign detector track ids")
	street := flag.Bool("street", false, "Enable street obstacle rules")
	proximity := flag.Float64("proximity", cfg.ProximityRatio, "Box/frame area ratio for a 'very close' alert")
	speed := flag.Float64("speed", cfg.SpeedThreshold, "Pixels per frame for a 'fast moving' alert")
	cooldown := flag.Duration("cooldown", cfg.Cooldown, "Minimum time before the same alert repeats")
	gap := flag.Duration("gap", cfg.Gap, "Minimum silence between utterances")
	ttsMode := flag.String("tts", cfg.TTSMode, "TTS provider: auto, openai, espeak, silent")
	voice := flag.String("voice", "", "Voice name for the TTS provider")
	port := flag.String("port", cfg.WebPort, "Overlay feed port (overrides HAZARD_WEB_PORT)")
	noWeb := flag.Bool("no-web", false, "Disable the overlay feed")
	static := flag.String("static", "", "Directory served at / by the overlay feed")
	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}
	cfg.CameraPreset, cfg.Device = *preset, *device
	cfg.ReplayDir, cfg.ReplayLoop = *replay, *loop
	cfg.ModelDir = *modelDir
	cfg.Models = splitList(*models)
	cfg.ConfidenceThresh, cfg.AssignTrackIDs = *conf, !*noIDs
	cfg.MinBoxArea, cfg.Labels = *minArea, splitList(*labels)
	cfg.StreetRules, cfg.ProximityRatio, cfg.SpeedThreshold = *street, *proximity, *speed
	cfg.Cooldown, cfg.Gap = *cooldown, *gap
	cfg.TTSMode, cfg.Voice = *ttsMode, *voice
	cfg.WebPort, cfg.NoWeb, cfg.StaticDir = *port, *noWeb, *static
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
