package kernel

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/raytrace"
)

func TestLogger_FollowsRoot(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	raytrace.SetLogger(l)
	defer raytrace.SetLogger(nil)

	if slogger() != l {
		t.Fatal("kernel logger does not follow raytrace.SetLogger")
	}
	slogger().Info("kernel: dispatched")
	if !strings.Contains(buf.String(), "kernel: dispatched") {
		t.Errorf("log output = %q", buf.String())
	}

	raytrace.SetLogger(nil)
	if slogger().Enabled(t.Context(), slog.LevelError) {
		t.Error("nil logger should restore the silent default")
	}
}
