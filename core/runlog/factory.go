package runlog

import (
	"errors"

	"github.com/kilianp07/fleetsizer/core/factory"
)

var storeRegistry = factory.NewRegistry[Store]()

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// Open creates the store named by cfg.Type. An empty type disables the run
// log and returns a nil store.
func Open(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return nil, nil
	}
	return storeRegistry.Create(cfg)
}

// FileConfig locates a JSONL run log. Rotation fields only apply to the
// rotating store.
type FileConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func decodeFile(conf map[string]any) (FileConfig, error) {
	c := FileConfig{MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 30}
	if err := factory.Decode(conf, &c); err != nil {
		return c, err
	}
	if c.Path == "" {
		return c, errors.New("run log path is required")
	}
	return c, nil
}

func init() {
	_ = RegisterStore("jsonl", func(conf map[string]any) (Store, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path)
	})
	_ = RegisterStore("rotating", func(conf map[string]any) (Store, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
}
