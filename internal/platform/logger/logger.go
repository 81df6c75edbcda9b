// Package logger provides the zerolog root logger plus request and watch
// scoped child loggers
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codefill/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the root logger
type Options struct {
	Level   string    // zerolog level name; unknown names mean debug
	Format  string    // "console" or "json"
	Service string    // binary name stamped on every line
	Writer  io.Writer // defaults to stdout; the CLIs pass stderr to keep stdout for results
	Caller  bool
}

// FromEnv reads LOG_* through the raw view, since config itself logs
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:   rc.Get("LEVEL", "info"),
		Format:  strings.ToLower(rc.Get("FORMAT", "console")),
		Service: rc.Get("SERVICE", "codefill"),
		Caller:  rc.GetBool("CALLER", false),
	}
}

// ForBinary is FromEnv with the service name and writer a command wants
// LOG_SERVICE still wins when set
func ForBinary(service string, w io.Writer) Options {
	opt := FromEnv()
	if !raw.New().Prefix("LOG_").Has("SERVICE") {
		opt.Service = service
	}
	opt.Writer = w
	return opt
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Logger is the zerolog logger every package logs through
type Logger = zerolog.Logger

// Get returns the root logger, configuring it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger; only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		}

		ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok {
			ctx = ctx.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			ctx = ctx.Str("service", opt.Service)
		}
		if opt.Caller {
			ctx = ctx.Caller()
		}
		l := ctx.Logger()
		root.Store(&l)
	})
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

type ctxKey struct{ field string }

var (
	keyRequestID = ctxKey{"request_id"}
	keyFieldID   = ctxKey{"field"}
)

// WithRequest annotates ctx with the request id and, when known, the watched field handle
func WithRequest(ctx context.Context, reqID, field string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, keyRequestID, reqID)
	}
	if field != "" {
		ctx = context.WithValue(ctx, keyFieldID, field)
	}
	return ctx
}

// C returns a child of the root logger carrying request_id and field from ctx
func C(ctx context.Context) *Logger {
	b := Get().With()
	for _, k := range []ctxKey{keyRequestID, keyFieldID} {
		if s, _ := ctx.Value(k).(string); s != "" {
			b = b.Str(k.field, s)
		}
	}
	l := b.Logger()
	return &l
}

// Nop returns a disabled logger for callers that were handed none
func Nop() *Logger {
	l := zerolog.Nop()
	return &l
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}
