// Package camera implements a first-person fly camera.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Movement is a set of directions the camera is being pushed in.
type Movement int

const (
	MoveForward Movement = 1 << iota
	MoveBackward
	MoveRight
	MoveLeft
	MoveUp
	MoveDown

	NotMoving Movement = 0
)

const (
	SpeedStep        = 0.025
	MaxSpeed         = 10.0
	MinSpeed         = 0.001
	MouseSensitivity = 0.15
	maxPitch         = 89.0
)

// Vulkan's clip space has Y pointing down and depth in [0, 1].
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

var worldUp = mgl32.Vec3{0, 1, 0}

type Camera struct {
	Position mgl32.Vec3
	// Pitch and Yaw are in degrees. A yaw of -90 looks down -Z.
	Pitch float32
	Yaw   float32

	FOV   float32
	ZNear float32
	ZFar  float32
	Speed float32

	// MouseLook enables rotation from mouse motion; the window turns it on
	// when it is clicked.
	MouseLook bool

	move    Movement
	forward mgl32.Vec3
	right   mgl32.Vec3
}

func New(position mgl32.Vec3) *Camera {
	c := &Camera{
		Position: position,
		Yaw:      -90,
		FOV:      60,
		ZNear:    0.1,
		ZFar:     1000,
		Speed:    0.1,
	}
	c.updateVectors()
	return c
}

// SetRotation points the camera. Pitch is clamped to avoid flipping over the
// vertical.
func (c *Camera) SetRotation(pitch, yaw float32) {
	c.Pitch = mgl32.Clamp(pitch, -maxPitch, maxPitch)
	c.Yaw = yaw
	c.updateVectors()
}

// SetMoving adds or removes directions from the movement set.
func (c *Camera) SetMoving(m Movement, on bool) {
	if on {
		c.move |= m
	} else {
		c.move &^= m
	}
}

func (c *Camera) Moving() Movement {
	return c.move
}

// Look turns the camera by a relative mouse motion. It does nothing unless
// MouseLook is set.
func (c *Camera) Look(dx, dy int) {
	if !c.MouseLook {
		return
	}
	c.Yaw += float32(dx) * MouseSensitivity
	c.Pitch -= float32(dy) * MouseSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch, -maxPitch, maxPitch)
	c.updateVectors()
}

// AdjustSpeed changes the movement speed by whole wheel steps.
func (c *Camera) AdjustSpeed(steps int) {
	c.Speed = mgl32.Clamp(c.Speed+float32(steps)*SpeedStep, MinSpeed, MaxSpeed)
}

// Update moves the camera one step along the current movement set.
func (c *Camera) Update() {
	var dir mgl32.Vec3
	if c.move&MoveForward != 0 {
		dir = dir.Add(c.forward)
	}
	if c.move&MoveBackward != 0 {
		dir = dir.Sub(c.forward)
	}
	if c.move&MoveRight != 0 {
		dir = dir.Add(c.right)
	}
	if c.move&MoveLeft != 0 {
		dir = dir.Sub(c.right)
	}
	if c.move&MoveUp != 0 {
		dir = dir.Add(worldUp)
	}
	if c.move&MoveDown != 0 {
		dir = dir.Sub(worldUp)
	}
	// Opposite directions cancel out and leave nothing to normalize.
	if dir.Len() < 1e-6 {
		return
	}
	c.Position = c.Position.Add(dir.Normalize().Mul(c.Speed))
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.forward
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.forward), worldUp)
}

// Projection is a perspective projection already corrected for Vulkan's
// clip space.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return vulkanClip.Mul4(mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.ZNear, c.ZFar))
}

func (c *Camera) updateVectors() {
	pitch := float64(mgl32.DegToRad(c.Pitch))
	yaw := float64(mgl32.DegToRad(c.Yaw))
	front := mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}
	c.forward = front.Normalize()
	c.right = c.forward.Cross(worldUp).Normalize()
}
