// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package input latches window events into a state the camera controller
// polls once per frame.
//
// Window callbacks arrive on the platform thread and only record the
// latest cursor position and which keys are held. The frame loop then
// reads that state through the camera.Input interface.
package input

import (
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/raytrace/camera"
)

// KeyMap binds window keys to camera movement directions.
type KeyMap map[gpucontext.Key]camera.Key

// DefaultKeyMap maps WASD and the arrow keys.
var DefaultKeyMap = KeyMap{
	gpucontext.KeyW:     camera.KeyForward,
	gpucontext.KeyUp:    camera.KeyForward,
	gpucontext.KeyS:     camera.KeyBackward,
	gpucontext.KeyDown:  camera.KeyBackward,
	gpucontext.KeyA:     camera.KeyLeft,
	gpucontext.KeyLeft:  camera.KeyLeft,
	gpucontext.KeyD:     camera.KeyRight,
	gpucontext.KeyRight: camera.KeyRight,
}

// Poller records cursor and key state from an event source.
// It is safe for concurrent use.
type Poller struct {
	keys KeyMap

	mu      sync.Mutex
	x, y    float64
	hasPos  bool
	held    map[gpucontext.Key]bool
	pressed map[gpucontext.Key]bool
	focus   uint64 // incremented on every focus gain
}

// NewPoller creates a Poller using keys, or DefaultKeyMap when keys is nil.
func NewPoller(keys KeyMap) *Poller {
	if keys == nil {
		keys = DefaultKeyMap
	}
	return &Poller{
		keys:    keys,
		held:    make(map[gpucontext.Key]bool),
		pressed: make(map[gpucontext.Key]bool),
	}
}

// Attach registers the Poller's callbacks on src.
func (p *Poller) Attach(src gpucontext.EventSource) {
	src.OnKeyPress(func(k gpucontext.Key, _ gpucontext.Modifiers) { p.keyEvent(k, true) })
	src.OnKeyRelease(func(k gpucontext.Key, _ gpucontext.Modifiers) { p.keyEvent(k, false) })
	src.OnMouseMove(p.cursorEvent)
	src.OnFocus(p.focusEvent)
}

func (p *Poller) keyEvent(k gpucontext.Key, down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if down && !p.held[k] {
		p.pressed[k] = true
	}
	p.held[k] = down
}

func (p *Poller) cursorEvent(x, y float64) {
	p.mu.Lock()
	p.x, p.y = x, y
	p.hasPos = true
	p.mu.Unlock()
}

// Losing focus drops held keys so that a release delivered to another
// window cannot leave the camera drifting. Unconsumed presses are dropped
// too, so they cannot fire after focus returns.
func (p *Poller) focusEvent(focused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if focused {
		p.focus++
		return
	}
	clear(p.held)
	clear(p.pressed)
	p.hasPos = false
}

// CursorPos returns the last cursor position seen.
func (p *Poller) CursorPos() (x, y float64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y, p.hasPos
}

// KeyDown reports whether any window key bound to k is held.
func (p *Poller) KeyDown(k camera.Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for wk, ck := range p.keys {
		if ck == k && p.held[wk] {
			return true
		}
	}
	return false
}

// Held reports whether the window key k is held.
func (p *Poller) Held(k gpucontext.Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held[k]
}

// Pressed reports whether k went down since the last call for k.
func (p *Poller) Pressed(k gpucontext.Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.pressed[k]
	delete(p.pressed, k)
	return was
}

// FocusGen returns a counter that changes each time the window gains focus.
// Callers compare it between frames to know when to reset the controller.
func (p *Poller) FocusGen() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focus
}

var _ camera.Input = (*Poller)(nil)
