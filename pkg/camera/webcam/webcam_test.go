package webcam

import (
	"testing"

	"github.com/teslashibe/go-hazardcam/internal/log"
	"github.com/teslashibe/go-hazardcam/pkg/camera"
)

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Quality = 0
	if _, err := Open(cfg, log.Discard()); err == nil {
		t.Error("invalid config should fail before touching the device")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Device = "/nonexistent/clip.mp4"

	src, err := Open(cfg, log.Discard())
	if err == nil {
		src.Close()
		t.Skip("backend opened a missing file")
	}
}
