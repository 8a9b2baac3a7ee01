// Package scene reads the TOML description of what to draw: the models and
// their placement, where the camera starts and how the scene is lit.
//
// A scene file looks like this. Numbers are floats and need a decimal point.
//
//	[camera]
//	position = [0.0, 0.0, 2.0]
//	yaw = -90.0
//
//	[lighting]
//	ambient_color = [0.05, 0.05, 0.05, 1.0]
//
//	[[model]]
//	name = "monkey"
//	mesh = "assets/monkey_smooth.obj"
//	translation = [0.0, -1.0, 0.0]
//	rotation = [0.0, 45.0, 0.0]
package scene

import (
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/vkngwrapper/vulkantest/renderer"
)

// Triangle is the mesh name that selects the built-in triangle instead of
// an OBJ file.
const Triangle = "triangle"

var ErrInvalidScene = errors.New("invalid scene")

type Camera struct {
	Position mgl32.Vec3 `toml:"position"`
	// Pitch and Yaw are in degrees.
	Pitch float32 `toml:"pitch"`
	Yaw   float32 `toml:"yaw"`
	FOV   float32 `toml:"fov"`
}

type Lighting struct {
	FogColor          mgl32.Vec4 `toml:"fog_color"`
	FogDistance       mgl32.Vec4 `toml:"fog_distance"`
	AmbientColor      mgl32.Vec4 `toml:"ambient_color"`
	SunlightDirection mgl32.Vec4 `toml:"sunlight_direction"`
	SunlightColor     mgl32.Vec4 `toml:"sunlight_color"`
}

// SceneData converts the lighting into the uniform layout.
func (l Lighting) SceneData() renderer.SceneData {
	return renderer.SceneData{
		FogColor:          l.FogColor,
		FogDistance:       l.FogDistance,
		AmbientColor:      l.AmbientColor,
		SunlightDirection: l.SunlightDirection,
		SunlightColor:     l.SunlightColor,
	}
}

type Model struct {
	Name string `toml:"name"`
	// Mesh is an OBJ path relative to the scene's file system, or Triangle.
	Mesh        string     `toml:"mesh"`
	Translation mgl32.Vec3 `toml:"translation"`
	// Rotation is XYZ Euler angles in degrees.
	Rotation mgl32.Vec3 `toml:"rotation"`
	// Scale defaults to 1 on every axis when left out.
	Scale *mgl32.Vec3 `toml:"scale"`
}

// Transform is the model's placement.
func (m Model) Transform() renderer.Transform {
	t := renderer.Identity()
	t.Translation = m.Translation
	t.Rotation = m.Rotation
	if m.Scale != nil {
		t.Scale = *m.Scale
	}
	return t
}

// Builtin reports whether the model uses the built-in triangle.
func (m Model) Builtin() bool {
	return m.Mesh == Triangle
}

type Scene struct {
	Camera   Camera   `toml:"camera"`
	Lighting Lighting `toml:"lighting"`
	Models   []Model  `toml:"model"`
}

// Default is a single triangle in front of the camera.
func Default() *Scene {
	return &Scene{
		Camera: Camera{
			Position: mgl32.Vec3{0, 0, 2},
			Yaw:      -90,
			FOV:      60,
		},
		Lighting: Lighting{
			AmbientColor:      mgl32.Vec4{0.1, 0.1, 0.1, 1},
			SunlightDirection: mgl32.Vec4{0, 0, -1, 1},
			SunlightColor:     mgl32.Vec4{1, 1, 1, 1},
		},
		Models: []Model{{Name: Triangle, Mesh: Triangle}},
	}
}

// Load decodes and validates the named scene file. Keys the scene format
// does not know are rejected so typos do not go unnoticed.
func Load(fsys fs.FS, name string) (*Scene, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open scene %s", name)
	}
	defer f.Close()

	s := Default()
	s.Models = nil
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, errors.Wrapf(ErrInvalidScene, "%s:%d:%d: %s", name, row, col, derr.Error())
		}
		return nil, errors.Wrapf(errors.Mark(err, ErrInvalidScene), "decode scene %s", name)
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "scene %s", name)
	}
	return s, nil
}

// Validate checks that every model is named once and has a mesh.
func (s *Scene) Validate() error {
	if len(s.Models) > renderer.MaxObjects {
		return errors.Wrapf(ErrInvalidScene, "%d models, at most %d", len(s.Models), renderer.MaxObjects)
	}
	if s.Camera.FOV <= 0 || s.Camera.FOV >= 180 {
		return errors.Wrapf(ErrInvalidScene, "camera fov %g out of (0, 180)", s.Camera.FOV)
	}
	seen := make(map[string]bool, len(s.Models))
	for i, m := range s.Models {
		if m.Name == "" {
			return errors.Wrapf(ErrInvalidScene, "model %d has no name", i)
		}
		if m.Mesh == "" {
			return errors.Wrapf(ErrInvalidScene, "model %q has no mesh", m.Name)
		}
		if seen[m.Name] {
			return errors.Wrapf(ErrInvalidScene, "model %q listed twice", m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// MeshFiles lists the OBJ paths the scene needs, without duplicates, in
// the order they first appear.
func (s *Scene) MeshFiles() []string {
	var files []string
	seen := map[string]bool{}
	for _, m := range s.Models {
		if m.Builtin() || seen[m.Mesh] {
			continue
		}
		seen[m.Mesh] = true
		files = append(files, m.Mesh)
	}
	return files
}
