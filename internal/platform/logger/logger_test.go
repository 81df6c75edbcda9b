package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"INFO":    zerolog.InfoLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"panic":   zerolog.PanicLevel,
		"":        zerolog.DebugLevel,
		"loud":    zerolog.DebugLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// Init takes effect once per process, so one test owns it
func TestInit_ScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Service: "codefill-test", Writer: &buf})

	Get().Debug().Msg("dropped")
	Named("mailbox").Info().Msg("search")
	ctx := WithRequest(context.Background(), "req-7", "otp-1")
	C(ctx).Warn().Msg("no code yet")
	C(context.Background()).Info().Msg("bare")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d: %s", len(lines), buf.String())
	}
	decode := func(s string) map[string]any {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			t.Fatalf("bad line %q: %v", s, err)
		}
		return m
	}

	named := decode(lines[0])
	if named["component"] != "mailbox" || named["service"] != "codefill-test" {
		t.Fatalf("named line: %v", named)
	}
	scoped := decode(lines[1])
	if scoped["request_id"] != "req-7" || scoped["field"] != "otp-1" || scoped["level"] != "warn" {
		t.Fatalf("scoped line: %v", scoped)
	}
	if _, ok := decode(lines[2])["request_id"]; ok {
		t.Fatalf("bare context should carry no request id")
	}
}

func TestForBinary(t *testing.T) {
	t.Setenv("LOG_SERVICE", "")
	t.Setenv("LOG_FORMAT", "JSON")
	opt := ForBinary("codefill-extract", os.Stderr)
	if opt.Service != "codefill-extract" || opt.Writer != os.Stderr || opt.Format != "json" {
		t.Fatalf("got %+v", opt)
	}

	t.Setenv("LOG_SERVICE", "custom")
	if opt := ForBinary("codefill-extract", os.Stderr); opt.Service != "custom" {
		t.Fatalf("LOG_SERVICE should win, got %q", opt.Service)
	}
}

func TestNop(t *testing.T) {
	if Nop().GetLevel() != zerolog.Disabled {
		t.Fatalf("Nop should be disabled")
	}
}
