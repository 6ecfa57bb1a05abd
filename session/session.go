// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package session owns the per-run state of the ray tracer: one camera, one
// input controller, one trajectory and one shader data block.
//
// Frame runs the per-frame pipeline in a fixed order:
//
//	controller → camera → block → trajectory advance → reprojection
//
// A Session is not safe for concurrent use; it belongs to the frame loop.
package session

import (
	"fmt"

	"github.com/gogpu/raytrace"
	"github.com/gogpu/raytrace/camera"
	"github.com/gogpu/raytrace/config"
	"github.com/gogpu/raytrace/shaderdata"
	"github.com/gogpu/raytrace/trajectory"
)

// Session is the state shared by one render or view run.
type Session struct {
	Camera     *camera.Camera
	Controller *camera.Controller

	// Path is nil when the trajectory overlay is disabled.
	Path *trajectory.Path

	Block shaderdata.Block

	trajCfg       trajectory.Config
	stepsPerFrame int
	frames        uint64
}

// Stats describes one completed frame.
type Stats struct {
	Frame     uint64
	NewPoints int
	Visible   int
}

// New creates a session for cfg with a sky map of skyWidth×skyHeight pixels.
func New(cfg *config.Config, skyWidth, skyHeight int) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		Camera:        cfg.NewCamera(),
		Controller:    cfg.NewController(),
		stepsPerFrame: cfg.Trajectory.StepsPerFrame,
	}
	if cfg.Trajectory.Enabled {
		s.trajCfg = cfg.TrajectoryConfig()
		p, err := trajectory.New(s.trajCfg)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		s.Path = p
	}
	s.Block.SetImage(cfg.Image.Width, cfg.Image.Height, skyWidth, skyHeight)
	s.packCamera()
	s.reproject()
	return s, nil
}

// Frame samples in, moves the camera, repacks the block and grows and
// reprojects the trajectory.
func (s *Session) Frame(in camera.Input) Stats {
	s.frames++
	s.Controller.ActOnInput(s.Camera, in)
	s.packCamera()

	var added int
	if s.Path != nil {
		added = s.Path.Advance(s.stepsPerFrame)
	}
	visible := s.reproject()

	raytrace.Logger().Debug("session: frame",
		"frame", s.frames,
		"eye", s.Camera.Position,
		"yaw", s.Camera.Yaw(),
		"pitch", s.Camera.Pitch(),
		"points", added)
	return Stats{Frame: s.frames, NewPoints: added, Visible: visible}
}

// Frames returns the number of completed frames.
func (s *Session) Frames() uint64 { return s.frames }

// Resize updates the output size and the camera aspect ratio.
func (s *Session) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.Block.SetImage(width, height, int(s.Block.SkyWidth), int(s.Block.SkyHeight))
	s.Camera.Aspect = float64(width) / float64(height)
	s.reproject()
}

// ResetInput makes the controller re-seed its cursor position on the next
// frame. Call it when the window regains focus.
func (s *Session) ResetInput() {
	s.Controller.Reset()
}

// RestartTrajectory discards the path and starts it again from its initial
// state.
func (s *Session) RestartTrajectory() error {
	if s.Path == nil {
		return nil
	}
	p, err := trajectory.New(s.trajCfg)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s.Path = p
	s.reproject()
	return nil
}

// Projected returns the current projection of every trajectory point.
func (s *Session) Projected() []trajectory.Projection {
	if s.Path == nil {
		return nil
	}
	return s.Path.Projected()
}

func (s *Session) packCamera() {
	s.Block.SetCamera(s.Camera.Position, s.Camera.Orientation3(), s.Camera.TanHalfFOV())
}

func (s *Session) reproject() int {
	if s.Path == nil {
		return 0
	}
	n := 0
	for _, p := range s.Path.Reproject(s.Camera) {
		if p.Visible {
			n++
		}
	}
	return n
}
