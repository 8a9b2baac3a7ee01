// Package app ties the window, the Vulkan device and the renderer together
// and runs the frame loop.
package app

import (
	"context"
	"io/fs"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"

	"github.com/vkngwrapper/vulkantest/camera"
	"github.com/vkngwrapper/vulkantest/mesh"
	"github.com/vkngwrapper/vulkantest/renderer"
	"github.com/vkngwrapper/vulkantest/scene"
	"github.com/vkngwrapper/vulkantest/vk"
	"github.com/vkngwrapper/vulkantest/window"
)

// ErrWindow marks failures to open the window, which are worth a message
// box rather than only a log line.
var ErrWindow = errors.New("window unavailable")

type Options struct {
	Title string
	Scene *scene.Scene
	// Meshes resolves the mesh paths the scene names.
	Meshes fs.FS
	// Shaders holds the compiled SPIR-V binaries.
	Shaders fs.FS
	Log     *log.Logger
}

type App struct {
	log *log.Logger

	window   *window.Window
	device   *vk.Device
	renderer *renderer.Renderer
	camera   *camera.Camera
	stats    Stats
}

// New opens the window, brings up the device and uploads the scene. On
// failure everything created so far is torn down again.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Scene == nil {
		opts.Scene = scene.Default()
	}
	if opts.Log == nil {
		opts.Log = log.Default()
	}
	a := &App{log: opts.Log}
	if err := a.init(ctx, opts); err != nil {
		return nil, errors.CombineErrors(err, a.Close())
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	// Parse meshes before touching the GPU so a bad file fails fast.
	files := opts.Scene.MeshFiles()
	loaded, err := mesh.LoadAll(ctx, opts.Meshes, files)
	if err != nil {
		return err
	}
	meshes := make(map[string][]mesh.Vertex, len(files)+1)
	for i, file := range files {
		meshes[file] = loaded[i]
	}
	meshes[scene.Triangle] = mesh.Triangle()

	a.window, err = window.New(opts.Title, window.Extent)
	if err != nil {
		return errors.Mark(err, ErrWindow)
	}

	a.device, err = vk.Bootstrap(a.window.SDL(), vk.Options{AppName: opts.Title, Log: a.log})
	if err != nil {
		return err
	}

	rctx, err := renderer.NewContext(a.device, a.log)
	if err != nil {
		return err
	}
	a.renderer, err = renderer.New(rctx, renderer.Options{
		Extent:  a.window.Extent,
		Shaders: opts.Shaders,
		Scene:   opts.Scene.Lighting.SceneData(),
	})
	if err != nil {
		return err
	}

	for _, m := range opts.Scene.Models {
		if _, err := a.renderer.AddModel(m.Name, meshes[m.Mesh], m.Transform()); err != nil {
			return err
		}
	}

	start := opts.Scene.Camera
	a.camera = camera.New(start.Position)
	a.camera.SetRotation(start.Pitch, start.Yaw)
	a.camera.FOV = start.FOV
	return nil
}

// Run draws frames until the window is closed or Escape is pressed.
func (a *App) Run() error {
	a.stats.Start(hrtime.Now())
	for {
		for _, ev := range a.window.Poll() {
			switch Handle(a.camera, ev) {
			case Stop:
				a.log.Info("stopping", "frames", a.stats.Frames)
				return nil
			case ToggleMode:
				a.renderer.Mode = a.renderer.Mode.Toggle()
				a.log.Info("render mode", "mode", a.renderer.Mode)
			case CaptureMouse:
				a.window.Capture()
			case ReleaseMouse:
				a.window.Release()
			}
		}

		a.camera.Update()
		if err := a.renderer.Render(a.camera); err != nil {
			return errors.Wrapf(err, "frame %d", a.stats.Frames)
		}

		if r, ok := a.stats.Tick(hrtime.Now()); ok {
			a.log.Debug("frame stats", "fps", int(r.FPS), "avg", r.Average, "slowest", r.Slowest)
		}
	}
}

// Close releases the renderer, the device and the window, in that order.
// It may be called more than once.
func (a *App) Close() error {
	var errs error
	if a.renderer != nil {
		errs = errors.CombineErrors(errs, a.renderer.Destroy())
		a.renderer = nil
	}
	if a.device != nil {
		errs = errors.CombineErrors(errs, a.device.Destroy())
		a.device = nil
	}
	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
	return errs
}
