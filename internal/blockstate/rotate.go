package blockstate

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelbake/internal/bakery"
	"voxelbake/internal/world"
)

var blockCenter = mgl32.Vec3{0.5, 0.5, 0.5}

// RotationMatrix returns the variant rotation: x degrees about the X axis,
// then y degrees about the Y axis, both clockwise looking down the positive axis.
func RotationMatrix(x, y int) mgl32.Mat3 {
	ry := mgl32.Rotate3DY(mgl32.DegToRad(float32(-y)))
	rx := mgl32.Rotate3DX(mgl32.DegToRad(float32(-x)))
	return ry.Mul3(rx)
}

// RotateModel returns a copy of m rotated about the block centre. UVs are
// not counter-rotated.
func RotateModel(m *bakery.Model, x, y int) *bakery.Model {
	if x%360 == 0 && y%360 == 0 {
		return m
	}
	rot := RotationMatrix(x, y)

	out := &bakery.Model{
		Quads:            make([]bakery.Quad, len(m.Quads)),
		Transparent:      m.Transparent,
		AmbientOcclusion: m.AmbientOcclusion,
	}
	for i, q := range m.Quads {
		for j, v := range q.Vertices {
			q.Vertices[j] = snap(rot.Mul3x1(v.Sub(blockCenter)).Add(blockCenter))
		}
		q.Normal = snap(rot.Mul3x1(q.Normal)).Normalize()
		if q.CullFace.Valid() {
			q.CullFace = world.DirectionFromNormal(rot.Mul3x1(q.CullFace.Normal()))
		}
		out.Quads[i] = q
	}
	return out
}

// snap removes the float noise quarter turns leave on values that should be exact.
func snap(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		r := float32(int(v[i]*4096+copysign(0.5, v[i]))) / 4096
		if mgl32.Abs(v[i]-r) < 1e-5 {
			v[i] = r
		}
	}
	return v
}

func copysign(mag, sign float32) float32 {
	if sign < 0 {
		return -mag
	}
	return mag
}
