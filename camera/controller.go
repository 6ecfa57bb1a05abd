package camera

import "github.com/gogpu/raytrace"

// Default controller tuning.
const (
	DefaultSensitivity = 0.1
	DefaultSpeed       = 0.1
)

// Key identifies one of the four movement directions.
type Key int

// Movement keys.
const (
	KeyForward Key = iota
	KeyBackward
	KeyLeft
	KeyRight
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyForward:
		return "forward"
	case KeyBackward:
		return "backward"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	default:
		return "unknown"
	}
}

// Input is polled once per frame by the Controller.
type Input interface {
	// CursorPos returns the absolute cursor position in screen space.
	// ok is false when no position is available yet.
	CursorPos() (x, y float64, ok bool)

	// KeyDown reports whether the movement key is held.
	KeyDown(k Key) bool
}

// Controller converts polled input into camera rotation and movement.
type Controller struct {
	Sensitivity float64 // degrees per cursor pixel
	Speed       float64 // world units per frame per key

	lastX, lastY float64
	cursorPosSet bool
}

// NewController creates a Controller with the given sensitivity and speed.
func NewController(sensitivity, speed float64) *Controller {
	return &Controller{Sensitivity: sensitivity, Speed: speed}
}

// Reset forgets the last cursor position. The next ActOnInput call
// re-seeds it without rotating the camera.
func (ctl *Controller) Reset() {
	ctl.cursorPosSet = false
}

// ActOnInput samples in and updates cam in place.
//
// The first cursor sample after construction or Reset only seeds the
// previous position. Later samples rotate by Sensitivity per pixel with the
// Y axis inverted, so moving the cursor up raises the pitch. Each held
// movement key translates along ±front or ±right by Speed; keys compose
// additively.
func (ctl *Controller) ActOnInput(cam *Camera, in Input) {
	if x, y, ok := in.CursorPos(); ok {
		if !ctl.cursorPosSet {
			ctl.lastX, ctl.lastY = x, y
			ctl.cursorPosSet = true
		}
		xOffset := x - ctl.lastX
		yOffset := ctl.lastY - y
		ctl.lastX, ctl.lastY = x, y

		if xOffset != 0 || yOffset != 0 {
			cam.Rotate(ctl.Sensitivity*xOffset, ctl.Sensitivity*yOffset)
		}
	}

	var d raytrace.Vec3
	if in.KeyDown(KeyForward) {
		d = d.Add(cam.Front().Mul(ctl.Speed))
	}
	if in.KeyDown(KeyBackward) {
		d = d.Sub(cam.Front().Mul(ctl.Speed))
	}
	if in.KeyDown(KeyLeft) {
		d = d.Sub(cam.Right().Mul(ctl.Speed))
	}
	if in.KeyDown(KeyRight) {
		d = d.Add(cam.Right().Mul(ctl.Speed))
	}
	cam.Move(d)
}
