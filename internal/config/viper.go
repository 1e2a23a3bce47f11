package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultConfigName matches the teacher's own settings-file convention
// (~/.vibe-vep.yaml), adapted to this tool's name.
const DefaultConfigName = ".readphase.yaml"

// Load reads an optional config file into viper, following the teacher's
// cmd/vibe-vep/config.go precedent: an explicit --config path if given,
// else ~/.readphase.yaml if it exists, else no file at all (defaults and
// flags still apply).
func Load(explicitPath string) error {
	v := viper.GetViper()
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return v.ReadInConfig()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	path := filepath.Join(home, DefaultConfigName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	v.SetConfigFile(path)
	return v.ReadInConfig()
}

// FromViper overlays whatever keys viper has loaded (file + explicit Set
// calls from `readphase config set`) onto base, following the same
// viper.Get/viper.Set pattern the teacher's config.go uses for its own
// settings.
func FromViper(base Config) Config {
	get := func(key string, cur interface{}) interface{} {
		if !viper.IsSet(key) {
			return cur
		}
		return viper.Get(key)
	}

	if v, ok := get("phase.max-coverage", nil).(int); ok {
		base.MaxCoverage = v
	} else if v, ok := get("phase.max-coverage", nil).(int64); ok {
		base.MaxCoverage = int(v)
	}
	if v, ok := get("phase.mapping-quality", nil).(int); ok {
		base.MappingQuality = v
	}
	if v, ok := get("phase.seed", nil).(int64); ok {
		base.Seed = v
	} else if v, ok := get("phase.seed", nil).(int); ok {
		base.Seed = int64(v)
	}
	if v, ok := get("phase.all-het", nil).(bool); ok {
		base.AllHet = v
	}
	if v, ok := get("extend.gap-threshold", nil).(int); ok {
		base.GapThreshold = v
	}
	if v, ok := get("extend.cut-poly", nil).(int); ok {
		base.CutPoly = v
	}
	if v, ok := get("extend.only-indels", nil).(bool); ok {
		base.OnlyIndels = v
	}
	if v, ok := get("sample", nil).(string); ok {
		base.Sample = v
	}
	if v, ok := get("ignore-read-groups", nil).(bool); ok {
		base.IgnoreReadGroups = v
	}
	return base
}
