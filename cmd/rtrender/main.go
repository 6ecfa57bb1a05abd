// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command rtrender traces one frame and writes it as a PNG.
//
// Usage:
//
//	rtrender [-config rt.toml] [-width 512] [-height 256] [-output image.png]
//	         [-sky sky.jpg] [-kernel kernel.wgsl] [-cpu] [-info] [-v]
//
// The light-ray trajectory is integrated to completion and drawn over the
// traced image unless -overlay=false is given.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/gg"

	"github.com/gogpu/raytrace"
	"github.com/gogpu/raytrace/config"
	"github.com/gogpu/raytrace/internal/kernel"
	"github.com/gogpu/raytrace/overlay"
	"github.com/gogpu/raytrace/session"
	"github.com/gogpu/raytrace/shaderdata"
	"github.com/gogpu/raytrace/skymap"
	"github.com/gogpu/raytrace/tonemap"
)

type flags struct {
	config  string
	width   int
	height  int
	output  string
	sky     string
	kernel  string
	cpu     bool
	info    bool
	overlay bool
	verbose bool

	set map[string]bool // flags given on the command line
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "TOML configuration file")
	flag.IntVar(&f.width, "width", 0, "image width (overrides config)")
	flag.IntVar(&f.height, "height", 0, "image height (overrides config)")
	flag.StringVar(&f.output, "output", "", "output PNG file (overrides config)")
	flag.StringVar(&f.sky, "sky", "", "sky map image (overrides config)")
	flag.StringVar(&f.kernel, "kernel", "", "WGSL kernel file (overrides config)")
	flag.BoolVar(&f.cpu, "cpu", false, "trace on the CPU instead of the GPU")
	flag.BoolVar(&f.info, "info", false, "print GPU limits and exit")
	flag.BoolVar(&f.overlay, "overlay", true, "draw the light-ray trajectory")
	flag.BoolVar(&f.verbose, "v", false, "verbose logging")
	flag.Parse()
	f.set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "rtrender: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	raytrace.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	if f.info {
		tr := kernel.New()
		defer tr.Close()
		if err := tr.Init(); err != nil {
			return err
		}
		return tr.Limits().Write(os.Stdout)
	}

	sky, err := skymap.Open(cfg.Sky.Path, cfg.Sky.CheckerWidth, cfg.Sky.CheckerHeight, cfg.Sky.MaxBytes)
	if err != nil {
		return err
	}
	raytrace.Logger().Info("sky map loaded",
		"format", sky.Format, "width", sky.Width, "height", sky.Height, "channels", sky.SourceChannels)

	s, err := session.New(cfg, sky.Width, sky.Height)
	if err != nil {
		return err
	}
	if s.Path != nil {
		s.Path.Advance(cfg.Trajectory.MaxPoints)
		s.Path.Reproject(s.Camera)
	}

	start := time.Now()
	linear, err := trace(cfg, &s.Block, sky)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	img, err := tonemap.Encode(linear, cfg.Image.Width, cfg.Image.Height)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	defer dc.Close()

	if f.overlay && s.Path != nil {
		if _, err := overlay.Draw(dc, s.Projected(), overlay.DefaultStyle); err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
	}
	if err := dc.SavePNG(cfg.Output.Path); err != nil {
		return fmt.Errorf("save %s: %w", cfg.Output.Path, err)
	}

	p := message.NewPrinter(language.English)
	p.Printf("%s: %d×%d, %d pixels traced in %v", cfg.Output.Path,
		cfg.Image.Width, cfg.Image.Height, cfg.Image.Width*cfg.Image.Height, elapsed.Round(time.Millisecond))
	if s.Path != nil {
		p.Printf(", trajectory %d points (%s)", s.Path.Len(), s.Path.Reason())
	}
	p.Println()
	return nil
}

func loadConfig(f flags) (*config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, err
		}
	}
	if f.set["width"] {
		cfg.Image.Width = f.width
	}
	if f.set["height"] {
		cfg.Image.Height = f.height
	}
	if f.set["output"] {
		cfg.Output.Path = f.output
	}
	if f.set["sky"] {
		cfg.Sky.Path = f.sky
	}
	if f.set["kernel"] {
		cfg.Kernel.Path = f.kernel
	}
	if f.set["cpu"] {
		cfg.Kernel.CPU = f.cpu
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func trace(cfg *config.Config, b *shaderdata.Block, sky *skymap.Image) ([]float32, error) {
	if cfg.Kernel.CPU {
		ref := kernel.NewReference(0)
		defer ref.Close()
		return ref.Dispatch(b, sky)
	}

	var opts []kernel.Option
	if cfg.Kernel.Path != "" {
		body, err := kernel.LoadSource(cfg.Kernel.Path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kernel.WithSource(body))
	}
	tr := kernel.New(opts...)
	defer tr.Close()
	if err := tr.Init(); err != nil {
		return nil, fmt.Errorf("%w (use -cpu to trace without a GPU)", err)
	}
	if err := tr.UploadSky(sky); err != nil {
		return nil, err
	}
	return tr.Dispatch(b)
}
