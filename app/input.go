package app

import (
	"github.com/vkngwrapper/vulkantest/camera"
	"github.com/vkngwrapper/vulkantest/window"
)

// Action is what the main loop has to do in response to an event, beyond
// what Handle already did to the camera.
type Action int

const (
	None Action = iota
	Stop
	ToggleMode
	CaptureMouse
	ReleaseMouse
)

var movementKeys = map[window.Key]camera.Movement{
	window.KeyW: camera.MoveForward,
	window.KeyS: camera.MoveBackward,
	window.KeyD: camera.MoveRight,
	window.KeyA: camera.MoveLeft,
	window.KeyE: camera.MoveUp,
	window.KeyQ: camera.MoveDown,
}

// Handle routes one input event to the camera.
func Handle(cam *camera.Camera, ev window.Event) Action {
	switch ev.Kind {
	case window.Quit:
		return Stop
	case window.KeyDown:
		if m, ok := movementKeys[ev.Key]; ok {
			cam.SetMoving(m, true)
			return None
		}
		switch {
		case ev.Key == window.KeyEscape:
			return Stop
		case ev.Key == window.KeyR && !ev.Repeat:
			return ToggleMode
		}
	case window.KeyUp:
		if m, ok := movementKeys[ev.Key]; ok {
			cam.SetMoving(m, false)
		}
	case window.MouseButtonDown:
		switch ev.Button {
		case window.ButtonLeft:
			cam.MouseLook = true
			return CaptureMouse
		case window.ButtonRight:
			cam.MouseLook = false
			return ReleaseMouse
		}
	case window.MouseWheel:
		cam.AdjustSpeed(ev.Wheel)
	case window.MouseMotion:
		cam.Look(int(ev.DX), int(ev.DY))
	}
	return None
}
