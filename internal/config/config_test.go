package config

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("HAZARD_TEST_STR", "")
	if got := String("HAZARD_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("empty env: got %q", got)
	}

	t.Setenv("HAZARD_TEST_STR", "value")
	if got := String("HAZARD_TEST_STR", "fallback"); got != "value" {
		t.Errorf("set env: got %q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("HAZARD_TEST_INT", "not-a-number")
	if got := Int("HAZARD_TEST_INT", 7); got != 7 {
		t.Errorf("invalid int should fall back, got %d", got)
	}

	t.Setenv("HAZARD_TEST_INT", "2")
	if got := Int("HAZARD_TEST_INT", 7); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestFloatAndDuration(t *testing.T) {
	t.Setenv("HAZARD_TEST_FLOAT", "0.65")
	if got := Float("HAZARD_TEST_FLOAT", 0.5); got != 0.65 {
		t.Errorf("Float: got %v", got)
	}

	t.Setenv("HAZARD_TEST_DUR", "750ms")
	if got := Duration("HAZARD_TEST_DUR", time.Second); got != 750*time.Millisecond {
		t.Errorf("Duration: got %v", got)
	}

	t.Setenv("HAZARD_TEST_DUR", "soon")
	if got := Duration("HAZARD_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("invalid duration should fall back, got %v", got)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("HAZARD_CAMERA", "")
	t.Setenv("HAZARD_WEB_PORT", "")
	t.Setenv("HAZARD_MODELS", "")

	if Camera() != DefaultCamera {
		t.Errorf("Camera: got %s", Camera())
	}
	if WebPort() != DefaultWebPort {
		t.Errorf("WebPort: got %s", WebPort())
	}
	if ModelDir() != DefaultModelDir {
		t.Errorf("ModelDir: got %s", ModelDir())
	}
}
