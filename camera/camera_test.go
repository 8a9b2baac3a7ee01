package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func vecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-5), "want %v, got %v", want, got)
}

func TestNewLooksDownNegativeZ(t *testing.T) {
	c := New(mgl32.Vec3{0, 0, 5})
	vecNear(t, mgl32.Vec3{0, 0, -1}, c.Forward())
}

func TestMoveForwardAndCancel(t *testing.T) {
	c := New(mgl32.Vec3{})
	c.Speed = 1

	c.SetMoving(MoveForward, true)
	c.Update()
	vecNear(t, mgl32.Vec3{0, 0, -1}, c.Position)

	c.SetMoving(MoveBackward, true)
	c.Update()
	vecNear(t, mgl32.Vec3{0, 0, -1}, c.Position)

	c.SetMoving(MoveForward, false)
	c.SetMoving(MoveBackward, false)
	assert.Equal(t, NotMoving, c.Moving())
}

func TestMoveUpIsWorldUp(t *testing.T) {
	c := New(mgl32.Vec3{})
	c.Speed = 2
	c.SetMoving(MoveUp, true)
	c.Update()
	vecNear(t, mgl32.Vec3{0, 2, 0}, c.Position)
}

func TestAdjustSpeedClamps(t *testing.T) {
	c := New(mgl32.Vec3{})
	c.AdjustSpeed(-1000)
	assert.InDelta(t, MinSpeed, c.Speed, 1e-6)
	c.AdjustSpeed(100000)
	assert.InDelta(t, MaxSpeed, c.Speed, 1e-6)
}

func TestLookNeedsMouseLook(t *testing.T) {
	c := New(mgl32.Vec3{})
	c.Look(100, 100)
	assert.Equal(t, float32(-90), c.Yaw)

	c.MouseLook = true
	c.Look(0, -10000)
	assert.Equal(t, float32(89), c.Pitch)
	c.Look(0, 10000)
	assert.Equal(t, float32(-89), c.Pitch)
}

func TestProjectionFlipsY(t *testing.T) {
	c := New(mgl32.Vec3{})
	proj := c.Projection(4.0 / 3.0)
	plain := mgl32.Perspective(mgl32.DegToRad(c.FOV), 4.0/3.0, c.ZNear, c.ZFar)
	assert.InDelta(t, -plain.At(1, 1), proj.At(1, 1), 1e-6)

	// A point on the near plane maps to depth 0 in Vulkan clip space.
	p := proj.Mul4x1(mgl32.Vec4{0, 0, -c.ZNear, 1})
	assert.InDelta(t, 0, p.Z()/p.W(), 1e-5)
}

func TestSetRotation(t *testing.T) {
	c := New(mgl32.Vec3{})
	c.SetRotation(0, 0)
	assert.InDelta(t, 1, c.Forward().X(), 1e-6)
	assert.InDelta(t, 0, c.Forward().Z(), 1e-6)

	c.SetRotation(120, -90)
	assert.Equal(t, float32(89), c.Pitch)
	assert.Greater(t, c.Forward().Y(), float32(0.99))
}
