package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every child is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected lone handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsChildLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	info := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(newFanoutHandler(info, debug))
	logger.Debug("probe detail")
	logger.Info("probe finished")

	if strings.Contains(infoBuf.String(), "probe detail") {
		t.Fatalf("info child received debug record: %s", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "probe detail") || !strings.Contains(debugBuf.String(), "probe finished") {
		t.Fatalf("debug child missing records: %s", debugBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "probe finished") {
		t.Fatalf("info child missing info record: %s", infoBuf.String())
	}
}

func TestFanoutHandlerWithAttrsReachesEveryChild(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(newFanoutHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)).With("component", "tempfiles").WithGroup("file")
	logger.Info("reserved", "ext", "mp4")

	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		out := buf.String()
		if !strings.Contains(out, `"component":"tempfiles"`) || !strings.Contains(out, `"file":{"ext":"mp4"}`) {
			t.Fatalf("child %s missing attrs: %s", name, out)
		}
	}
}

func TestSessionIDHandlerAddsSessionToEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	h := newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "sess-42")
	slog.New(h).With("component", "resolver").Info("scan")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[FieldSessionID] != "sess-42" {
		t.Fatalf("missing session id: %v", payload)
	}
	if payload["component"] != "resolver" {
		t.Fatalf("missing component: %v", payload)
	}
	if _, ok := newSessionIDHandler(nil, "x").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for nil base")
	}
}

func TestPrettyHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Info("transcode finished",
		String(FieldComponent, "transcode"),
		String(FieldOperation, "gif_to_video"),
		String("output", "/tmp/a b.mp4"),
		slog.Group("plan", slog.Bool("pass_through", false)),
	)
	line := buf.String()
	if !strings.Contains(line, " INFO transcode: [gif_to_video] transcode finished") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, `output="/tmp/a b.mp4"`) {
		t.Fatalf("expected quoted value: %q", line)
	}
	if !strings.Contains(line, "plan.pass_through=false") {
		t.Fatalf("expected grouped key: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix only: %q", line)
	}

	buf.Reset()
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record should be filtered at info level: %q", buf.String())
	}
}

func TestPrettyHandlerAddsSourceWhenRequested(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	slog.New(newPrettyHandler(&buf, lvl, true)).Debug("with caller")
	if !strings.Contains(buf.String(), "handlers_test.go:") {
		t.Fatalf("expected caller location: %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	WarnWithContext(logger, "sweep skipped file", "tempfiles_sweep_failed", String(FieldErrorHint, "check permissions"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[FieldEventType] != "tempfiles_sweep_failed" {
		t.Fatalf("event type: %v", payload)
	}
	if payload[FieldErrorHint] != "check permissions" {
		t.Fatalf("explicit hint should win: %v", payload)
	}
	if payload[FieldImpact] == nil {
		t.Fatalf("expected default impact: %v", payload)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewComponentLogger(nil, "x")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should never be enabled")
	}
}
