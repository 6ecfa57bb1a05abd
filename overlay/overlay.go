// Package overlay draws the projected trajectory on top of the traced image.
package overlay

import (
	"image/color"

	"github.com/gogpu/gg"

	"github.com/gogpu/raytrace/trajectory"
)

// Style controls how the trajectory is drawn.
type Style struct {
	Color      color.NRGBA
	LineWidth  float64
	HeadRadius float64 // radius of the marker at the newest point, 0 to omit
}

// DefaultStyle is a thin yellow line with a small head marker.
var DefaultStyle = Style{
	Color:      color.NRGBA{R: 255, G: 220, B: 40, A: 255},
	LineWidth:  2,
	HeadRadius: 4,
}

// ToPixel maps normalized device coordinates to pixel coordinates. The
// camera frame points x to the left, so x' = +1 is the left edge; y' = +1 is
// the top edge.
func ToPixel(x, y float64, width, height int) (px, py float64) {
	px = (1 - x) / 2 * float64(width)
	py = (1 - y) / 2 * float64(height)
	return px, py
}

// Draw strokes the visible runs of proj as polylines on dc and returns the
// number of runs drawn. Points behind the camera split the line.
func Draw(dc *gg.Context, proj []trajectory.Projection, style Style) (int, error) {
	w, h := dc.Width(), dc.Height()
	dc.ClearPath()
	dc.SetColor(style.Color)
	dc.SetLineWidth(style.LineWidth)

	runs := 0
	inRun := false
	for _, p := range proj {
		if !p.Visible {
			inRun = false
			continue
		}
		x, y := ToPixel(p.NDC.X, p.NDC.Y, w, h)
		if !inRun {
			dc.MoveTo(x, y)
			inRun = true
			runs++
			continue
		}
		dc.LineTo(x, y)
	}
	if runs > 0 {
		if err := dc.Stroke(); err != nil {
			return 0, err
		}
	}

	if style.HeadRadius > 0 && len(proj) > 0 {
		if last := proj[len(proj)-1]; last.Visible {
			x, y := ToPixel(last.NDC.X, last.NDC.Y, w, h)
			dc.DrawCircle(x, y, style.HeadRadius)
			if err := dc.Fill(); err != nil {
				return runs, err
			}
		}
	}
	return runs, nil
}
