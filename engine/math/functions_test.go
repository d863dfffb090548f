package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Operations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), a.Add(b))
	assert.Equal(t, NewVec3(-3, -3, -3), a.Sub(b))
	assert.InDelta(t, 32, a.Dot(b), 0.0001)
	assert.Equal(t, NewVec3(-3, 6, -3), a.Cross(b))
	assert.InDelta(t, 1, NewVec3(3, 0, 4).Normalized().Length(), 0.0001)
	assert.Equal(t, NewVec3Zero(), NewVec3Zero().Normalized())
}

func TestMat4IdentityMul(t *testing.T) {
	id := NewMat4Identity()
	m := NewMat4Translation(NewVec3(2, 3, 4))
	assert.Equal(t, m, id.Mul(m))
	assert.Equal(t, m, m.Mul(id))
}

func TestMat4TranslationComposition(t *testing.T) {
	a := NewMat4Translation(NewVec3(1, 0, 0))
	b := NewMat4Translation(NewVec3(0, 2, 0))
	c := a.Mul(b)
	assert.InDelta(t, 1, c.Data[12], 0.0001)
	assert.InDelta(t, 2, c.Data[13], 0.0001)
}

func TestLookAtBasisIsOrthonormal(t *testing.T) {
	view := NewMat4LookAt(NewVec3(0, 0, 5), NewVec3Zero(), NewVec3Up())

	f := view.Forward()
	u := view.Up()
	r := view.Right()
	assert.InDelta(t, 0, f.Dot(u), 0.0001)
	assert.InDelta(t, 0, f.Dot(r), 0.0001)
	assert.InDelta(t, 0, u.Dot(r), 0.0001)
	assert.True(t, f.Compare(NewVec3(0, 0, -1), 0.0001), "camera at +Z looking at origin faces -Z")
}

func TestPerspectiveShape(t *testing.T) {
	p := NewMat4Perspective(DegToRad(90), 1, 0.1, 100)
	assert.InDelta(t, 1, p.Data[5], 0.001, "unit half-tan at 90 degrees fov")
	assert.InDelta(t, -1, p.Data[11], 0.0001)
	assert.Zero(t, p.Data[15])
}

func TestOrthographicMapsCorners(t *testing.T) {
	o := NewMat4Orthographic(0, 800, 600, 0, -1, 1)
	// x' = x*Data[0] + Data[12]; left edge maps to -1, right to +1.
	left := 0*o.Data[0] + o.Data[12]
	right := 800*o.Data[0] + o.Data[12]
	assert.InDelta(t, -1, left, 0.0001)
	assert.InDelta(t, 1, right, 0.0001)
}

func TestClampAndLerp(t *testing.T) {
	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, 0, Clamp(-3, 0, 5))
	assert.Equal(t, 3, Clamp(3, 0, 5))
	assert.InDelta(t, 0.25, Clamp(float32(0.25), 0, 1), 0.0001)

	assert.InDelta(t, 5, Lerp(0, 10, 0.5), 0.0001)
	assert.InDelta(t, 10, Lerp(0, 10, 2), 0.0001, "t clamps to 1")
}

func TestMat4Inverse(t *testing.T) {
	m := NewMat4Translation(NewVec3(3, -2, 7)).Mul(NewMat4EulerY(DegToRad(40)))
	inv := m.Inverse()
	product := m.Mul(inv)

	id := NewMat4Identity()
	for i := range product.Data {
		assert.InDelta(t, id.Data[i], product.Data[i], 0.0001, "element %d", i)
	}

	assert.Equal(t, Mat4{}, (Mat4{}).Inverse(), "singular input yields the zero matrix")
}

func TestDegRadRoundTrip(t *testing.T) {
	assert.InDelta(t, Pi, DegToRad(180), 0.0001)
	assert.InDelta(t, 180, RadToDeg(Pi), 0.001)
}
