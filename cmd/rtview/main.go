// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command rtview opens a window and traces the scene every frame while the
// mouse and WASD/arrow keys fly the camera.
//
// Keys: R restarts the trajectory, H toggles the status line.
package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/integration/ggcanvas"
	"github.com/gogpu/gg/text"
	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/raytrace"
	"github.com/gogpu/raytrace/config"
	"github.com/gogpu/raytrace/input"
	"github.com/gogpu/raytrace/internal/kernel"
	"github.com/gogpu/raytrace/overlay"
	"github.com/gogpu/raytrace/session"
	"github.com/gogpu/raytrace/skymap"
	"github.com/gogpu/raytrace/tonemap"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "TOML configuration file")
		width   = flag.Int("width", 0, "window width (overrides config)")
		height  = flag.Int("height", 0, "window height (overrides config)")
		sky     = flag.String("sky", "", "sky map image (overrides config)")
		kpath   = flag.String("kernel", "", "WGSL kernel file (overrides config)")
		cpu     = flag.Bool("cpu", false, "trace on the CPU instead of the GPU")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	raytrace.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Image.Width = *width
		case "height":
			cfg.Image.Height = *height
		case "sky":
			cfg.Sky.Path = *sky
		case "kernel":
			cfg.Kernel.Path = *kpath
		case "cpu":
			cfg.Kernel.CPU = *cpu
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if err := run(cfg); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "rtview: %v\n", err)
	os.Exit(1)
}

// viewer holds the state of the live loop.
type viewer struct {
	cfg     *config.Config
	sess    *session.Session
	poller  *input.Poller
	sky     *skymap.Image
	tracer  *kernel.Tracer
	ref     *kernel.Reference
	canvas  *ggcanvas.Canvas
	frame   *image.RGBA
	hud     *hud
	focus   uint64
	showHUD bool
}

func run(cfg *config.Config) error {
	sky, err := skymap.Open(cfg.Sky.Path, cfg.Sky.CheckerWidth, cfg.Sky.CheckerHeight, cfg.Sky.MaxBytes)
	if err != nil {
		return err
	}
	sess, err := session.New(cfg, sky.Width, sky.Height)
	if err != nil {
		return err
	}

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("Ray GL").
		WithSize(cfg.Image.Width, cfg.Image.Height).
		WithContinuousRender(true))

	v := &viewer{
		cfg:     cfg,
		sess:    sess,
		poller:  input.NewPoller(nil),
		sky:     sky,
		hud:     newHUD(loadFont()),
		showHUD: true,
	}
	v.poller.Attach(app.EventSource())

	app.OnDraw(func(dc *gogpu.Context) {
		if err := v.draw(app, dc); err != nil {
			v.close()
			fatal(err)
		}
	})
	app.OnClose(v.close)

	return app.Run()
}

func (v *viewer) init(app *gogpu.App, w, h int) error {
	if v.cfg.Kernel.CPU {
		v.ref = kernel.NewReference(0)
	} else {
		var opts []kernel.Option
		if v.cfg.Kernel.Path != "" {
			body, err := kernel.LoadSource(v.cfg.Kernel.Path)
			if err != nil {
				return err
			}
			opts = append(opts, kernel.WithSource(body))
		}
		v.tracer = kernel.New(opts...)
		if err := v.tracer.SetDeviceProvider(app.GPUContextProvider()); err != nil {
			return err
		}
		if err := v.tracer.UploadSky(v.sky); err != nil {
			return err
		}
	}

	canvas, err := ggcanvas.New(app.GPUContextProvider(), w, h)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	v.canvas = canvas
	return nil
}

func (v *viewer) draw(app *gogpu.App, dc *gogpu.Context) error {
	w, h := dc.Width(), dc.Height()
	if w <= 0 || h <= 0 {
		return nil
	}
	if v.canvas == nil {
		if app.GPUContextProvider() == nil {
			return nil
		}
		if err := v.init(app, w, h); err != nil {
			return err
		}
	}
	if cw, ch := v.canvas.Size(); cw != w || ch != h {
		if err := v.canvas.Resize(w, h); err != nil {
			return fmt.Errorf("resize canvas: %w", err)
		}
	}
	if v.frame == nil || v.frame.Rect.Dx() != w || v.frame.Rect.Dy() != h {
		v.frame = image.NewRGBA(image.Rect(0, 0, w, h))
		v.sess.Resize(w, h)
	}

	v.handleKeys(app)

	start := time.Now()
	st := v.sess.Frame(v.poller)
	linear, err := v.trace()
	if err != nil {
		return err
	}
	if err := tonemap.EncodeInto(v.frame, linear); err != nil {
		return err
	}
	v.hud.tick(time.Since(start))

	buf := gg.ImageBufFromImage(v.frame)
	if err := v.canvas.Draw(func(cc *gg.Context) {
		cc.DrawImage(buf, 0, 0)
		if _, err := overlay.Draw(cc, v.sess.Projected(), overlay.DefaultStyle); err != nil {
			raytrace.Logger().Warn("overlay failed", "err", err)
		}
		if v.showHUD {
			if err := v.hud.draw(cc, v.sess, st); err != nil {
				raytrace.Logger().Warn("hud failed", "err", err)
			}
		}
	}); err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	sw, sh := dc.SurfaceSize()
	if err := v.canvas.RenderDirect(dc.SurfaceView(), sw, sh); err != nil {
		raytrace.Logger().Warn("present failed", "frame", st.Frame, "err", err)
	}
	return nil
}

func (v *viewer) handleKeys(app *gogpu.App) {
	if v.poller.Pressed(gpucontext.KeyEscape) {
		app.Quit()
	}
	if gen := v.poller.FocusGen(); gen != v.focus {
		v.focus = gen
		v.sess.ResetInput()
	}
	if v.poller.Pressed(gpucontext.KeyR) {
		if err := v.sess.RestartTrajectory(); err != nil {
			raytrace.Logger().Warn("restart trajectory", "err", err)
		}
	}
	if v.poller.Pressed(gpucontext.KeyH) {
		v.showHUD = !v.showHUD
	}
}

func (v *viewer) trace() ([]float32, error) {
	if v.ref != nil {
		return v.ref.Dispatch(&v.sess.Block, v.sky)
	}
	return v.tracer.Dispatch(&v.sess.Block)
}

func (v *viewer) close() {
	if v.tracer != nil {
		v.tracer.Close()
	}
	if v.ref != nil {
		v.ref.Close()
	}
}

func loadFont() text.Face {
	path := findSystemFont()
	if path == "" {
		raytrace.Logger().Info("no system font found, status line disabled")
		return nil
	}
	source, err := text.NewFontSourceFromFile(path)
	if err != nil {
		raytrace.Logger().Warn("load font", "path", path, "err", err)
		return nil
	}
	return source.Face(14)
}

func findSystemFont() string {
	candidates := []string{
		"C:\\Windows\\Fonts\\consola.ttf",
		"C:\\Windows\\Fonts\\arial.ttf",
		"/System/Library/Fonts/Monaco.ttf",
		"/Library/Fonts/Arial.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/usr/share/fonts/liberation/LiberationMono-Regular.ttf",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
