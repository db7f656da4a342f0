package vm

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the tuning knobs a deployment sets once at VM startup:
// a flat TOML file unmarshaled straight into tagged struct fields.
type Config struct {
	ChunkWords            int     `toml:"chunk_words"`
	NewSpaceChunks        int     `toml:"new_space_chunks"`
	OldSpaceBudgetWords   int     `toml:"old_space_budget_words"`
	PromotionAge          uint8   `toml:"promotion_age"`
	LargeObjectThreshold  int     `toml:"large_object_threshold_words"`
	CompactionMinProgress float64 `toml:"compaction_min_progress_ratio"`
	TelemetryDBPath       string  `toml:"telemetry_db_path"`
}

// DefaultConfig returns the settings a freshly embedded VM starts with
// absent a config file: small chunks appropriate to embedded and
// resource-constrained targets, a conservative promotion age, and a
// large-object threshold of one chunk.
func DefaultConfig() Config {
	return Config{
		ChunkWords:            4096,
		NewSpaceChunks:        4,
		OldSpaceBudgetWords:   1 << 20,
		PromotionAge:          3,
		LargeObjectThreshold:  4096,
		CompactionMinProgress: 0.05,
		TelemetryDBPath:       "",
	}
}

// LoadConfig reads a TOML config file, applying it on top of
// DefaultConfig so a partial file only overrides the fields it sets.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("vm: loading config %s: %w", path, err)
	}
	return cfg, nil
}
