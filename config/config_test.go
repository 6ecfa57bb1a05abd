// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/raytrace/camera"
	"github.com/gogpu/raytrace/trajectory"
)

func TestDefault_Valid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDecode_Overlay(t *testing.T) {
	src := `
[image]
width = 320
height = 240

[camera]
eye = [1.0, 2.0, 3.0]
policy = "incremental"

[trajectory]
adaptive = true
inner_radius = 2.0
`
	c, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 320, c.Image.Width)
	assert.Equal(t, 240, c.Image.Height)
	assert.Equal(t, [3]float64{1, 2, 3}, c.Camera.Eye)
	assert.Equal(t, "incremental", c.Camera.Policy)
	assert.True(t, c.Trajectory.Adaptive)

	// Untouched keys keep their defaults.
	def := Default()
	assert.Equal(t, def.Camera.FOV, c.Camera.FOV)
	assert.Equal(t, def.Trajectory.Step, c.Trajectory.Step)
	assert.Equal(t, def.Output.Path, c.Output.Path)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "[image]\ndepth = 3\n"},
		{"syntax", "[image\nwidth = 1\n"},
		{"wrong type", "[image]\nwidth = \"wide\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Image.Width = 0 }},
		{"negative sky cap", func(c *Config) { c.Sky.MaxBytes = -1 }},
		{"no checker size", func(c *Config) { c.Sky.CheckerWidth = 0 }},
		{"fov too wide", func(c *Config) { c.Camera.FOV = 180 }},
		{"far before near", func(c *Config) { c.Camera.Far = c.Camera.Near }},
		{"bad policy", func(c *Config) { c.Camera.Policy = "quaternion" }},
		{"zero up", func(c *Config) { c.Camera.Up = [3]float64{} }},
		{"negative speed", func(c *Config) { c.Controls.Speed = -1 }},
		{"trajectory step", func(c *Config) { c.Trajectory.Step = 0 }},
		{"steps per frame", func(c *Config) { c.Trajectory.StepsPerFrame = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			assert.True(t, errors.Is(err, ErrInvalid), "Validate() = %v, want ErrInvalid", err)
		})
	}

	t.Run("disabled trajectory skips its checks", func(t *testing.T) {
		c := Default()
		c.Trajectory.Enabled = false
		c.Trajectory.Step = 0
		assert.NoError(t, c.Validate())
	})

	t.Run("sky path skips checker size", func(t *testing.T) {
		c := Default()
		c.Sky.Path = "sky.jpg"
		c.Sky.CheckerWidth = 0
		assert.NoError(t, c.Validate())
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rt.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\npath = \"out.png\"\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out.png", c.Output.Path)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrite_RoundTrip(t *testing.T) {
	c := Default()
	c.Camera.Policy = "incremental"
	c.Image.Width = 64

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestNewCamera(t *testing.T) {
	c := Default()
	c.Image.Width, c.Image.Height = 200, 100
	c.Camera.Policy = "incremental"

	cam := c.NewCamera()
	assert.Equal(t, camera.PolicyIncremental, cam.Policy())
	assert.InDelta(t, 2.0, cam.Aspect, 1e-12)
	assert.Equal(t, c.Camera.Near, cam.Near)
	assert.InDelta(t, 0, cam.Front().X, 1e-9)
	assert.InDelta(t, -1, cam.Front().Z, 1e-9)

	ctl := c.NewController()
	assert.Equal(t, c.Controls.Sensitivity, ctl.Sensitivity)
	assert.Equal(t, c.Controls.Speed, ctl.Speed)
}

func TestTrajectoryConfig(t *testing.T) {
	c := Default()
	tc := c.TrajectoryConfig()
	require.NoError(t, tc.Validate())
	assert.Equal(t, trajectory.DefaultK, tc.K)
	assert.Equal(t, c.Trajectory.MaxPoints, tc.MaxPoints)
	assert.Equal(t, -10.0, tc.Position.X)
}
