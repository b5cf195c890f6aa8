package camera

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig_Valid(t *testing.T) {
	for name, cfg := range Presets() {
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %s invalid: %v", name, errs)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = ""
	cfg.Width = 10
	cfg.Quality = 0

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
	if cfg.Err() == nil {
		t.Error("Err should report invalid config")
	}
}

func TestPresets(t *testing.T) {
	if diff := cmp.Diff([]string{"default", "hd", "low"}, PresetNames()); diff != "" {
		t.Errorf("PresetNames (-want +got):\n%s", diff)
	}
	if GetPreset("hd").Width != 1280 {
		t.Error("hd preset should be 1280 wide")
	}
	if GetPreset("nope") != nil {
		t.Error("unknown preset should be nil")
	}
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "b.jpg"), 64, 48)
	writeJPEG(t, filepath.Join(dir, "a.jpg"), 32, 24)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644)

	r, err := OpenReplay(dir, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", r.Len())
	}

	ctx := context.Background()
	first, err := r.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Index != 0 || first.Width != 32 || first.Height != 24 {
		t.Errorf("first frame should be a.jpg 32x24, got %+v", first)
	}
	second, _ := r.Next(ctx)
	if second.Index != 1 || second.Width != 64 {
		t.Errorf("second frame: got %+v", second)
	}
	if _, err := r.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}

	r.Close()
	if _, err := r.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestReplay_Loop(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "only.jpeg"), 16, 16)

	r, err := OpenReplay(dir, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		in, err := r.Next(context.Background())
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if in.Index != i {
			t.Errorf("Index: got %d, want %d", in.Index, i)
		}
	}
}

func TestReplay_Empty(t *testing.T) {
	if _, err := OpenReplay(t.TempDir(), 0, false); err == nil {
		t.Error("empty directory should fail")
	}
}
