// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/gogpu/raytrace/session"
)

// hud draws a status line with camera and trajectory state.
type hud struct {
	face text.Face
	p    *message.Printer
	avg  time.Duration // smoothed frame time
}

func newHUD(face text.Face) *hud {
	return &hud{face: face, p: message.NewPrinter(language.English)}
}

func (h *hud) tick(d time.Duration) {
	if h.avg == 0 {
		h.avg = d
		return
	}
	h.avg += (d - h.avg) / 8
}

func (h *hud) lines(s *session.Session, st session.Stats) []string {
	cam := s.Camera
	out := []string{
		h.p.Sprintf("eye %.2f %.2f %.2f  yaw %.1f  pitch %.1f  %s",
			cam.Position.X, cam.Position.Y, cam.Position.Z, cam.Yaw(), cam.Pitch(), cam.Policy()),
		h.p.Sprintf("frame %d  %.1f ms", st.Frame, float64(h.avg.Microseconds())/1000),
	}
	if s.Path != nil {
		out = append(out, h.p.Sprintf("ray %d points, %d visible, %s",
			s.Path.Len(), st.Visible, s.Path.Reason()))
	}
	return out
}

func (h *hud) draw(cc *gg.Context, s *session.Session, st session.Stats) error {
	if h.face == nil {
		return nil
	}
	lines := h.lines(s, st)
	cc.SetFont(h.face)

	const pad, lineH = 6.0, 18.0
	width := 0.0
	for _, l := range lines {
		if w, _ := cc.MeasureString(l); w > width {
			width = w
		}
	}
	cc.SetRGBA(0, 0, 0, 0.55)
	cc.DrawRectangle(4, 4, width+2*pad, float64(len(lines))*lineH+pad)
	if err := cc.Fill(); err != nil {
		return fmt.Errorf("hud background: %w", err)
	}

	cc.SetRGBA(1, 1, 1, 0.9)
	for i, l := range lines {
		cc.DrawString(l, 4+pad, 4+pad+float64(i+1)*lineH-4)
	}
	return nil
}
