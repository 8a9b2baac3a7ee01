// Package window owns the SDL window the renderer draws into and turns SDL
// events into the few input events the application reacts to.
package window

import (
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/vulkantest/gpu"
)

// Extent is the fixed window size.
var Extent = gpu.Extent{Width: 800, Height: 600}

type Window struct {
	window  *sdl.Window
	Extent  gpu.Extent
	clicked bool
}

// New initializes SDL video and opens a Vulkan-capable window.
func New(title string, extent gpu.Extent) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(extent.Width), int32(extent.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}
	return &Window{window: window, Extent: extent}, nil
}

// SDL exposes the underlying window for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

// Poll drains the SDL event queue.
func (w *Window) Poll() []Event {
	var events []Event
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if e, ok := Translate(event); ok {
			events = append(events, e)
		}
	}
	return events
}

// Capture hides the cursor and switches to relative mouse motion so the
// camera can be turned. Release undoes it.
func (w *Window) Capture() {
	if !w.clicked {
		sdl.SetRelativeMouseMode(true)
		w.clicked = true
	}
}

func (w *Window) Release() {
	if w.clicked {
		sdl.SetRelativeMouseMode(false)
		w.clicked = false
	}
}

// Captured reports whether the mouse is captured.
func (w *Window) Captured() bool {
	return w.clicked
}

func (w *Window) Destroy() {
	if w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
	sdl.Quit()
}

var showMessageBox = sdl.ShowSimpleMessageBox

// ShowError puts err in a message box. It works without a window, so it
// can report a failure to create one. When no box can be shown, as on a
// headless machine, that is logged at debug level.
func ShowError(logger *log.Logger, title string, err error) {
	if boxErr := showMessageBox(sdl.MESSAGEBOX_ERROR, title, err.Error(), nil); boxErr != nil {
		logger.Debug("no message box", "title", title, "err", boxErr)
	}
}
