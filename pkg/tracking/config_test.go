package tracking

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HistorySize != 7 {
		t.Errorf("Expected HistorySize=7, got %d", cfg.HistorySize)
	}
	if cfg.TallRatio != 0.35 {
		t.Errorf("Expected TallRatio=0.35, got %v", cfg.TallRatio)
	}
	if cfg.AspectRatio != 1.1 {
		t.Errorf("Expected AspectRatio=1.1, got %v", cfg.AspectRatio)
	}
	if len(cfg.PersonConfusable) == 0 {
		t.Error("Expected a non-empty PersonConfusable list")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
}

func TestNoCorrectionConfig(t *testing.T) {
	if cfg := NoCorrectionConfig(); len(cfg.PersonConfusable) != 0 {
		t.Errorf("Expected no confusable labels, got %v", cfg.PersonConfusable)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero history", func(c *Config) { c.HistorySize = 0 }},
		{"tall ratio above one", func(c *Config) { c.TallRatio = 1.5 }},
		{"negative aspect", func(c *Config) { c.AspectRatio = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
