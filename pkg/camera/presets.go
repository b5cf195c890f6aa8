package camera

import "sort"

// Preset names for common configurations
const (
	PresetLow     = "low"
	PresetDefault = "default"
	PresetHD      = "hd"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetLow:     LowConfig(),
		PresetDefault: DefaultConfig(),
		PresetHD:      HDConfig(),
	}
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, 3)
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowConfig returns 320x240 at 15 FPS for slow CPUs. The pixel-based
// motion threshold should be scaled down with it.
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 15
	cfg.Quality = 75
	return cfg
}

// HDConfig returns 1280x720 at 30 FPS.
func HDConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}
