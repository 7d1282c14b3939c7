package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives kernel, executor, interrupt and task events.
type Tracer interface {
	// Emit records ev. Called from task context and from interrupt handlers,
	// so implementations must be goroutine-safe.
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled is false for LevelOff.
	Enabled() bool
}

// StorageMode selects where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they happen
	ModeRing                          // last RingSize events kept in memory
	ModeBoth
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name to a StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

// DefaultRingSize is the ring capacity when none is configured.
const DefaultRingSize = 4096

// Config is a resolved tracer setup.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer // overrides OutputPath
	OutputPath string    // "" or "-" is stderr
	RingSize   int
}

// Options is the textual tracer setup as written in the [trace] table of
// kasync.toml or given on the command line. Empty fields are unset.
type Options struct {
	Level    string
	Mode     string
	Output   string
	RingSize int
}

// Merge fills the unset fields of o from base, typically flags over the
// config file. An output given without a level turns tracing on at info
// when base leaves it off.
func (o Options) Merge(base Options) Options {
	if o.Level == "" {
		o.Level = base.Level
		if o.Output != "" && (o.Level == "" || strings.EqualFold(o.Level, "off")) {
			o.Level = "info"
		}
	}
	if o.Mode == "" {
		o.Mode = base.Mode
	}
	if o.Output == "" {
		o.Output = base.Output
	}
	if o.RingSize <= 0 {
		o.RingSize = base.RingSize
	}
	return o
}

// Resolve parses o. Unset level and mode mean off and stream.
func (o Options) Resolve() (Config, error) {
	cfg := Config{Level: LevelOff, Mode: ModeStream, OutputPath: o.Output, RingSize: o.RingSize}
	var err error
	if o.Level != "" {
		if cfg.Level, err = ParseLevel(o.Level); err != nil {
			return cfg, err
		}
	}
	if o.Mode != "" {
		if cfg.Mode, err = ParseMode(o.Mode); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// New builds the tracer for cfg. LevelOff yields Nop. Stream output to a path
// ending in .ndjson defaults to NDJSON, anything else to text.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = DefaultRingSize
	}
	if cfg.Format == FormatAuto {
		cfg.Format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") {
			cfg.Format = FormatNDJSON
		}
	}

	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream := NewStreamTracer(w, cfg.Level, cfg.Format)
		if cfg.Mode == ModeStream {
			return stream, nil
		}
		return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
