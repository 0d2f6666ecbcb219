package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config declares a logger.
type Config struct {
	// Level is debug|info|warn|error (default info).
	Level string `json:"level" yaml:"level"`
	// Format is text|json (default text).
	Format string `json:"format" yaml:"format"`
	// Outputs lists console, null, or file:<path>. Defaults to console.
	Outputs []string `json:"outputs" yaml:"outputs"`
	// Redact replaces these field values with [REDACTED].
	Redact []string `json:"redact" yaml:"redact"`
	// SampleInitial and SampleThereafter enable per-message sampling when
	// SampleThereafter > 0.
	SampleInitial    int `json:"sampleInitial" yaml:"sampleInitial"`
	SampleThereafter int `json:"sampleThereafter" yaml:"sampleThereafter"`
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	}
	return InfoLevel, fmt.Errorf("log: unknown level %q", s)
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	for _, spec := range cfg.Outputs {
		switch {
		case spec == "console":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case spec == "null":
			opts = append(opts, WithOutput(NullOutput{}))
		case strings.HasPrefix(spec, "file:"):
			out, err := NewFileOutput(strings.TrimPrefix(spec, "file:"))
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithOutput(out))
		default:
			return nil, fmt.Errorf("log: unknown output %q", spec)
		}
	}

	l := NewLogger(opts...).(*BaseLogger)
	l.handler = l.handler.withRedactions(cfg.Redact).withSampler(cfg.SampleInitial, cfg.SampleThereafter)
	l.slogLogger = slog.New(l.handler)
	return l, nil
}
