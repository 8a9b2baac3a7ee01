package window

import (
	"github.com/veandco/go-sdl2/sdl"
)

type EventKind int

const (
	Quit EventKind = iota
	KeyDown
	KeyUp
	MouseButtonDown
	MouseButtonUp
	MouseWheel
	MouseMotion
)

// Key names the keys the application binds. Everything else is KeyOther.
type Key int

const (
	KeyOther Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyR
	KeyEscape
)

var keys = map[sdl.Keycode]Key{
	sdl.K_w:      KeyW,
	sdl.K_a:      KeyA,
	sdl.K_s:      KeyS,
	sdl.K_d:      KeyD,
	sdl.K_q:      KeyQ,
	sdl.K_e:      KeyE,
	sdl.K_r:      KeyR,
	sdl.K_ESCAPE: KeyEscape,
}

type MouseButton int

const (
	ButtonOther MouseButton = iota
	ButtonLeft
	ButtonRight
)

type Event struct {
	Kind EventKind

	Key    Key
	Repeat bool

	Button MouseButton

	// DX and DY are relative motion in pixels.
	DX, DY float32
	// Wheel is the vertical scroll amount, positive away from the user.
	Wheel int
}

// Translate converts an SDL event. Events the application does not use
// report false.
func Translate(event sdl.Event) (Event, bool) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		return Event{Kind: Quit}, true
	case *sdl.KeyboardEvent:
		kind := KeyDown
		if ev.Type == sdl.KEYUP {
			kind = KeyUp
		}
		return Event{Kind: kind, Key: keys[ev.Keysym.Sym], Repeat: ev.Repeat != 0}, true
	case *sdl.MouseButtonEvent:
		kind := MouseButtonDown
		if ev.Type == sdl.MOUSEBUTTONUP {
			kind = MouseButtonUp
		}
		button := ButtonOther
		switch ev.Button {
		case sdl.BUTTON_LEFT:
			button = ButtonLeft
		case sdl.BUTTON_RIGHT:
			button = ButtonRight
		}
		return Event{Kind: kind, Button: button}, true
	case *sdl.MouseWheelEvent:
		wheel := int(ev.Y)
		if ev.Direction == sdl.MOUSEWHEEL_FLIPPED {
			wheel = -wheel
		}
		return Event{Kind: MouseWheel, Wheel: wheel}, true
	case *sdl.MouseMotionEvent:
		return Event{Kind: MouseMotion, DX: float32(ev.XRel), DY: float32(ev.YRel)}, true
	}
	return Event{}, false
}
