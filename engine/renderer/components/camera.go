package components

import (
	"github.com/hcfgod/Vortex-sub001/engine/math"
)

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

// Pitch clamps just shy of straight up/down to avoid gimbal lock.
const pitchLimit = float32(1.55334306) // 89 degrees in radians

/**
 * @brief A camera drives the view matrix for rendering. Cameras are
 * created and shared through the camera system; mutate them only via
 * the setters so the view matrix is rebuilt when needed.
 */
type Camera struct {
	position      math.Vec3
	eulerRotation math.Vec3

	dirty bool
	view  math.Mat4
}

func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

// Reset returns the camera to the origin with identity view.
func (c *Camera) Reset() {
	c.position = math.NewVec3Zero()
	c.eulerRotation = math.NewVec3Zero()
	c.dirty = false
	c.view = math.NewMat4Identity()
}

func (c *Camera) Position() math.Vec3 {
	return c.position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.position = position
	c.dirty = true
}

func (c *Camera) EulerRotation() math.Vec3 {
	return c.eulerRotation
}

func (c *Camera) SetEulerRotation(rotation math.Vec3) {
	c.eulerRotation = rotation
	c.dirty = true
}

// View rebuilds the view matrix if the camera moved since the last
// call.
func (c *Camera) View() math.Mat4 {
	if c.dirty {
		rotation := math.NewMat4EulerXYZ(c.eulerRotation.X, c.eulerRotation.Y, c.eulerRotation.Z)
		translation := math.NewMat4Translation(c.position)
		c.view = rotation.Mul(translation).Inverse()
		c.dirty = false
	}
	return c.view
}

func (c *Camera) Forward() math.Vec3 {
	return c.View().Forward()
}

func (c *Camera) Backward() math.Vec3 {
	return c.View().Backward()
}

func (c *Camera) Left() math.Vec3 {
	return c.View().Left()
}

func (c *Camera) Right() math.Vec3 {
	return c.View().Right()
}

func (c *Camera) MoveForward(amount float32) {
	c.translate(c.Forward().MulScalar(amount))
}

func (c *Camera) MoveBackward(amount float32) {
	c.translate(c.Backward().MulScalar(amount))
}

func (c *Camera) MoveLeft(amount float32) {
	c.translate(c.Left().MulScalar(amount))
}

func (c *Camera) MoveRight(amount float32) {
	c.translate(c.Right().MulScalar(amount))
}

func (c *Camera) MoveUp(amount float32) {
	c.translate(math.NewVec3Up().MulScalar(amount))
}

func (c *Camera) MoveDown(amount float32) {
	c.translate(math.NewVec3Up().MulScalar(-amount))
}

func (c *Camera) translate(delta math.Vec3) {
	c.position = c.position.Add(delta)
	c.dirty = true
}

func (c *Camera) Yaw(amount float32) {
	c.eulerRotation.Y += amount
	c.dirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.eulerRotation.X = math.Clamp(c.eulerRotation.X+amount, -pitchLimit, pitchLimit)
	c.dirty = true
}
