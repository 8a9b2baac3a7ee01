package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/vkngwrapper/vulkantest/mesh"
)

// Transform places a model in the world. Rotation is in degrees around X,
// Y then Z.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Vec3
	Scale       mgl32.Vec3
}

// Identity returns a transform that leaves a model where it is.
func Identity() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(t.Rotation.Z())).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(t.Rotation.Y()))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(t.Rotation.X())))
	return mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Model is an uploaded mesh. Its vertices are read-only once uploaded;
// only Transform may change between frames.
type Model struct {
	ID           uuid.UUID
	Name         string
	Vertices     []mesh.Vertex
	VertexBuffer AllocatedBuffer
	Transform    Transform
}

func (m *Model) VertexCount() int {
	return len(m.Vertices)
}
