package kernel

import (
	"log/slog"

	"github.com/gogpu/raytrace"
)

// slogger returns the logger configured with raytrace.SetLogger.
func slogger() *slog.Logger { return raytrace.Logger() }
