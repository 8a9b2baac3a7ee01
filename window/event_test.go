package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		in   sdl.Event
		want Event
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, Event{Kind: Quit}},
		{"w down", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_w}}, Event{Kind: KeyDown, Key: KeyW}},
		{"w repeat", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Sym: sdl.K_w}}, Event{Kind: KeyDown, Key: KeyW, Repeat: true}},
		{"escape up", &sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, Event{Kind: KeyUp, Key: KeyEscape}},
		{"unbound key", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_z}}, Event{Kind: KeyDown, Key: KeyOther}},
		{"left click", &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT}, Event{Kind: MouseButtonDown, Button: ButtonLeft}},
		{"right release", &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_RIGHT}, Event{Kind: MouseButtonUp, Button: ButtonRight}},
		{"wheel", &sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 2}, Event{Kind: MouseWheel, Wheel: 2}},
		{"flipped wheel", &sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 2, Direction: sdl.MOUSEWHEEL_FLIPPED}, Event{Kind: MouseWheel, Wheel: -2}},
		{"motion", &sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, XRel: 3, YRel: -4}, Event{Kind: MouseMotion, DX: 3, DY: -4}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := Translate(c.in)
			assert.True(t, ok)
			assert.Equal(t, c.want, got)
		})
	}

	_, ok := Translate(&sdl.WindowEvent{Type: sdl.WINDOWEVENT})
	assert.False(t, ok)
}
