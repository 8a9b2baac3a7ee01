package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraData is the layout of the camera uniform at set 0, binding 0.
type GPUCameraData struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	ViewProj mgl32.Mat4
}

// SceneData is the layout of the dynamic scene uniform at set 0, binding 1.
type SceneData struct {
	FogColor mgl32.Vec4 // w is the exponent
	// FogDistance holds min and max in x and y. w carries the RenderMode.
	FogDistance       mgl32.Vec4
	AmbientColor      mgl32.Vec4
	SunlightDirection mgl32.Vec4 // w is the intensity
	SunlightColor     mgl32.Vec4
}

// GPUObjectData is one element of the object storage buffer at set 1,
// binding 0. The vertex shader indexes it with gl_InstanceIndex, which is
// the first instance of the draw.
type GPUObjectData struct {
	Model mgl32.Mat4
}

// RenderMode selects how the fragment shader colors meshes.
type RenderMode int

const (
	RenderSolid RenderMode = iota
	RenderRainbow
)

func (m RenderMode) String() string {
	if m == RenderRainbow {
		return "rainbow"
	}
	return "solid"
}

// Toggle flips between the two modes.
func (m RenderMode) Toggle() RenderMode {
	if m == RenderSolid {
		return RenderRainbow
	}
	return RenderSolid
}
