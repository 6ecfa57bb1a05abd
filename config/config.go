// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config holds the settings shared by the render and view programs.
//
// Settings start from Default, are optionally overlaid by a TOML file and
// are checked by Validate before use:
//
//	[image]
//	width = 1280
//	height = 720
//
//	[camera]
//	eye = [0.0, 0.0, 20.0]
//	fov = 45.0
//	policy = "incremental"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/raytrace"
	"github.com/gogpu/raytrace/camera"
	"github.com/gogpu/raytrace/trajectory"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full program configuration.
type Config struct {
	Image      Image      `toml:"image"`
	Sky        Sky        `toml:"sky"`
	Kernel     Kernel     `toml:"kernel"`
	Camera     Camera     `toml:"camera"`
	Controls   Controls   `toml:"controls"`
	Trajectory Trajectory `toml:"trajectory"`
	Output     Output     `toml:"output"`
}

// Image is the size of the traced image in pixels.
type Image struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Sky selects the sky map.
type Sky struct {
	// Path of the sky image. Empty selects the procedural checker sky.
	Path string `toml:"path"`

	// MaxBytes caps the uploaded pixel data; larger maps are downsampled.
	// Zero disables the cap.
	MaxBytes int `toml:"max_bytes"`

	// CheckerWidth and CheckerHeight size the procedural sky.
	CheckerWidth  int `toml:"checker_width"`
	CheckerHeight int `toml:"checker_height"`
}

// Kernel selects the compute kernel.
type Kernel struct {
	// Path of a WGSL kernel to load instead of the embedded one.
	Path string `toml:"path"`

	// CPU runs the float32 reference kernel instead of the GPU.
	CPU bool `toml:"cpu"`
}

// Camera is the initial camera placement.
type Camera struct {
	Eye    [3]float64 `toml:"eye"`
	Center [3]float64 `toml:"center"`
	Up     [3]float64 `toml:"up"`
	FOV    float64    `toml:"fov"`
	Near   float64    `toml:"near"`
	Far    float64    `toml:"far"`
	Policy string     `toml:"policy"`
}

// Controls tunes the input controller.
type Controls struct {
	Sensitivity float64 `toml:"sensitivity"`
	Speed       float64 `toml:"speed"`
}

// Trajectory describes the overlaid light path.
type Trajectory struct {
	Enabled       bool       `toml:"enabled"`
	Position      [3]float64 `toml:"position"`
	Velocity      [3]float64 `toml:"velocity"`
	K             float64    `toml:"k"`
	Step          float64    `toml:"step"`
	Adaptive      bool       `toml:"adaptive"`
	MaxPoints     int        `toml:"max_points"`
	InnerRadius   float64    `toml:"inner_radius"`
	OuterRadius   float64    `toml:"outer_radius"`
	StepsPerFrame int        `toml:"steps_per_frame"`
}

// Output names the file written by the render program.
type Output struct {
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Image: Image{Width: 800, Height: 600},
		Sky: Sky{
			MaxBytes:      128 << 20,
			CheckerWidth:  1024,
			CheckerHeight: 512,
		},
		Camera: Camera{
			Eye:    [3]float64{0, 0, 20},
			Center: [3]float64{0, 0, 0},
			Up:     [3]float64{0.2, 1, 0},
			FOV:    45,
			Near:   camera.DefaultNear,
			Far:    camera.DefaultFar,
			Policy: camera.PolicyEuler.String(),
		},
		Controls: Controls{
			Sensitivity: camera.DefaultSensitivity,
			Speed:       camera.DefaultSpeed,
		},
		Trajectory: Trajectory{
			Enabled:       true,
			Position:      [3]float64{-10, 3, 0},
			Velocity:      [3]float64{1, 0, 0},
			K:             trajectory.DefaultK,
			Step:          0.01,
			MaxPoints:     5000,
			InnerRadius:   1.5,
			OuterRadius:   30,
			StepsPerFrame: 20,
		},
		Output: Output{Path: "raytrace.png"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Decode reads TOML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

// Validate reports every problem found, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Image.Width <= 0 || c.Image.Height <= 0 {
		bad("image size %dx%d", c.Image.Width, c.Image.Height)
	}
	if c.Sky.MaxBytes < 0 {
		bad("sky.max_bytes %d", c.Sky.MaxBytes)
	}
	if c.Sky.Path == "" && (c.Sky.CheckerWidth <= 0 || c.Sky.CheckerHeight <= 0) {
		bad("checker sky size %dx%d", c.Sky.CheckerWidth, c.Sky.CheckerHeight)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		bad("camera.fov %v must be in (0, 180)", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		bad("camera clip planes near=%v far=%v", c.Camera.Near, c.Camera.Far)
	}
	if _, err := camera.ParsePolicy(c.Camera.Policy); err != nil {
		bad("%v", err)
	}
	if vec(c.Camera.Up).IsZero() {
		bad("camera.up must not be zero")
	}
	if c.Controls.Sensitivity < 0 || c.Controls.Speed < 0 {
		bad("controls must not be negative")
	}
	if c.Trajectory.Enabled {
		if err := c.TrajectoryConfig().Validate(); err != nil {
			bad("trajectory: %v", err)
		}
		if c.Trajectory.StepsPerFrame < 0 {
			bad("trajectory.steps_per_frame %d", c.Trajectory.StepsPerFrame)
		}
	}
	return errors.Join(errs...)
}

// Aspect returns the image width/height ratio.
func (c *Config) Aspect() float64 {
	if c.Image.Height == 0 {
		return camera.DefaultAspect
	}
	return float64(c.Image.Width) / float64(c.Image.Height)
}

// NewCamera builds the configured camera. The policy must already be valid.
func (c *Config) NewCamera() *camera.Camera {
	policy, _ := camera.ParsePolicy(c.Camera.Policy)
	return camera.New(
		vec(c.Camera.Eye), vec(c.Camera.Center), vec(c.Camera.Up), c.Camera.FOV,
		camera.WithAspect(c.Aspect()),
		camera.WithClip(c.Camera.Near, c.Camera.Far),
		camera.WithPolicy(policy),
	)
}

// NewController builds the configured input controller.
func (c *Config) NewController() *camera.Controller {
	return camera.NewController(c.Controls.Sensitivity, c.Controls.Speed)
}

// TrajectoryConfig converts the trajectory section.
func (c *Config) TrajectoryConfig() trajectory.Config {
	t := c.Trajectory
	return trajectory.Config{
		Position:    vec(t.Position),
		Velocity:    vec(t.Velocity),
		K:           t.K,
		Step:        t.Step,
		Adaptive:    t.Adaptive,
		MaxPoints:   t.MaxPoints,
		InnerRadius: t.InnerRadius,
		OuterRadius: t.OuterRadius,
	}
}

func vec(a [3]float64) raytrace.Vec3 {
	return raytrace.V3(a[0], a[1], a[2])
}
