package main

//go:generate glslc shaders/mesh.vert -o shaders/spirv/mesh.vert.spv
//go:generate glslc shaders/mesh.frag -o shaders/spirv/mesh.frag.spv

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/app"
	"github.com/vkngwrapper/vulkantest/logging"
	"github.com/vkngwrapper/vulkantest/scene"
	"github.com/vkngwrapper/vulkantest/window"
)

const title = "vulkantest"

type args struct {
	scene string
}

func processCommandLineArgs(argv []string) (args, error) {
	var a args
	for i := 0; i < len(argv); i++ {
		switch arg := argv[i]; arg {
		case "--scene", "-s":
			if i+1 >= len(argv) {
				return a, errors.Newf("%s needs a file name", arg)
			}
			i++
			a.scene = argv[i]
		case "--help", "-h":
			fmt.Println("\nOptions")
			fmt.Println("\t--scene <file>")
			fmt.Println("\t\tTOML scene to draw instead of the built-in triangle")
			fmt.Printf("\nSet %s to debug, info, warn or error to change logging.\n", logging.LevelEnv)
			os.Exit(0)
		default:
			return a, errors.Newf("unrecognized option: %s", arg)
		}
	}
	return a, nil
}

// loadScene reads the scene at file, which may be absolute or relative to
// the working directory. Mesh paths inside it are relative to the scene's
// own directory, so the returned file system is rooted there.
func loadScene(file string) (*scene.Scene, fs.FS, error) {
	if file == "" {
		return scene.Default(), os.DirFS("."), nil
	}
	dir := os.DirFS(filepath.Dir(file))
	s, err := scene.Load(dir, filepath.Base(file))
	if err != nil {
		return nil, nil, err
	}
	return s, dir, nil
}

func main() {
	// SDL and the Vulkan surface must stay on the main thread.
	runtime.LockOSThread()

	logger := logging.FromEnv()

	opts, err := processCommandLineArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("\n%v\n\nUse --help or -h for option list.\n", err)
		os.Exit(1)
	}

	s, meshes, err := loadScene(opts.scene)
	if err != nil {
		logger.Fatalf("%+v\n", err)
	}

	a, err := app.New(context.Background(), app.Options{
		Title:   title,
		Scene:   s,
		Meshes:  meshes,
		Shaders: os.DirFS("."),
		Log:     logger,
	})
	if err != nil {
		if errors.Is(err, app.ErrWindow) {
			window.ShowError(logger, title, err)
		}
		logger.Fatalf("%+v\n", err)
	}

	err = a.Run()
	err = errors.CombineErrors(err, a.Close())
	if err != nil {
		logger.Fatalf("%+v\n", err)
	}
}
