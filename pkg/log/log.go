// Package log provides structured logging for qnglm on top of zerolog.
//
// Models obtain a named Logger from the global provider and log key/value
// pairs using the key constants defined in this package:
//
//	logger := log.GetLoggerWithName("glm").With(log.ComponentKey, "qn")
//	logger.Info("Training started", log.SamplesKey, n, log.FeaturesKey, d)
//
// The global provider is created lazily at the info level and writes JSON to
// stderr. Call SetupLogger once at program start to change the level.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used by models.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	// With returns a child logger that always carries the given fields.
	With(fields ...interface{}) Logger
	// Enabled reports whether messages at level would be written.
	Enabled(level zerolog.Level) bool
}

// LoggerProvider hands out loggers that share one output and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level zerolog.Level)
}

// ToLogLevel parses a level name. Unknown names map to info.
func ToLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type zerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider returns a provider writing JSON lines to stderr.
func NewZerologProvider(level zerolog.Level) LoggerProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter returns a provider writing to w.
func NewZerologProviderWithWriter(w io.Writer, level zerolog.Level) LoggerProvider {
	return &zerologProvider{
		base: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{l: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{l: p.base.With().Str(LoggerNameKey, name).Logger()}
}

func (p *zerologProvider) SetLevel(level zerolog.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(level)
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) {
	z.l.Debug().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...interface{}) {
	z.l.Info().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...interface{}) {
	z.l.Warn().Fields(fields).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...interface{}) {
	z.l.Error().Fields(fields).Msg(msg)
}

func (z *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{l: z.l.With().Fields(fields).Logger()}
}

func (z *zerologLogger) Enabled(level zerolog.Level) bool {
	return level >= z.l.GetLevel() && level >= zerolog.GlobalLevel()
}

var (
	globalMu       sync.RWMutex
	globalProvider LoggerProvider
	globalZerolog  = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

func provider() LoggerProvider {
	globalMu.RLock()
	p := globalProvider
	globalMu.RUnlock()
	if p != nil {
		return p
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalProvider == nil {
		globalProvider = NewZerologProvider(zerolog.InfoLevel)
	}
	return globalProvider
}

// SetupLogger configures the global provider at the named level.
func SetupLogger(level string) {
	lvl := ToLogLevel(level)
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = NewZerologProvider(lvl)
	globalZerolog = globalZerolog.Level(lvl)
}

// SetProvider replaces the global provider. Mainly useful in tests.
func SetProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

// GetLogger returns the raw global zerolog logger for call sites that want
// zerolog's chained event API.
func GetLogger() *zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	l := globalZerolog
	return &l
}

// GetLoggerWithName returns a Logger tagged with name.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// LogError logs err with msg at error level on the global logger.
func LogError(err error, msg string) {
	GetLogger().Error().Err(err).Msg(msg)
}
