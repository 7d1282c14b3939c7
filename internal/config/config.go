// Package config loads kasync.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"kasync/internal/keyboard"
	"kasync/internal/trace"
)

// FileName is the config file Find looks for.
const FileName = "kasync.toml"

// Config is the kernel configuration.
type Config struct {
	Executor ExecutorConfig `toml:"executor"`
	Keyboard KeyboardConfig `toml:"keyboard"`
	Timer    TimerConfig    `toml:"timer"`
	Trace    TraceConfig    `toml:"trace"`
}

type ExecutorConfig struct {
	ReadyCapacity int    `toml:"ready_capacity"`
	Fuzz          bool   `toml:"fuzz"`
	Seed          uint64 `toml:"seed"`
}

type KeyboardConfig struct {
	QueueCapacity int    `toml:"queue_capacity"`
	Layout        string `toml:"layout"`
}

type TimerConfig struct {
	Interval time.Duration `toml:"interval"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	RingSize int    `toml:"ring_size"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Executor: ExecutorConfig{ReadyCapacity: 128},
		Keyboard: KeyboardConfig{QueueCapacity: keyboard.DefaultQueueCapacity, Layout: "en-US"},
		Timer:    TimerConfig{Interval: 100 * time.Millisecond},
		Trace:    TraceConfig{Level: "off", Mode: "stream", RingSize: 4096},
	}
}

// Find searches startDir and its parents for kasync.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("keyboard", "layout") && strings.TrimSpace(cfg.Keyboard.Layout) == "" {
		return Config{}, fmt.Errorf("%s: [keyboard].layout is empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the config found from startDir upward, or the defaults when
// there is none. The returned path is empty for defaults.
func Discover(startDir string) (Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := Capacity(c.Executor.ReadyCapacity); err != nil {
		return fmt.Errorf("[executor].ready_capacity: %w", err)
	}
	if _, err := Capacity(c.Keyboard.QueueCapacity); err != nil {
		return fmt.Errorf("[keyboard].queue_capacity: %w", err)
	}
	if _, err := keyboard.LayoutFor(c.Keyboard.Layout); err != nil {
		return fmt.Errorf("[keyboard].layout: %w", err)
	}
	if c.Timer.Interval < 0 {
		return fmt.Errorf("[timer].interval: negative duration %s", c.Timer.Interval)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if c.Trace.RingSize < 0 {
		return fmt.Errorf("[trace].ring_size: negative size %d", c.Trace.RingSize)
	}
	return nil
}

// Capacity converts a configured queue size, rejecting zero, negative and
// values beyond 32 bits.
func Capacity(n int) (int, error) {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, fmt.Errorf("capacity %d out of range: %w", n, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("capacity must be positive")
	}
	return n, nil
}
