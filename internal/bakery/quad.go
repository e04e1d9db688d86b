package bakery

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelbake/internal/world"
)

// Quad is one baked face in unit-cube space, wound counter-clockwise
// around Normal. Corner order is bottom-left, bottom-right, top-right, top-left.
type Quad struct {
	Vertices   [4]mgl32.Vec3
	UVs        [4]mgl32.Vec2
	OverlayUVs [4]mgl32.Vec2
	HasOverlay bool
	Normal     mgl32.Vec3
	CullFace   world.Direction
	AO         [4]float32
	Shade      bool
	TintIndex  int
}

// Model is an immutable list of baked quads. No quads means invisible.
type Model struct {
	Quads            []Quad
	Transparent      bool
	AmbientOcclusion bool
}

// Empty is the model of air.
var Empty = &Model{}

func (m *Model) IsEmpty() bool {
	return m == nil || len(m.Quads) == 0
}

// faceVertices returns the corners of the face of the box from..to (0-16 space)
// pointing in dir.
func faceVertices(dir world.Direction, from, to [3]float32) [4]mgl32.Vec3 {
	fx, fy, fz := from[0], from[1], from[2]
	tx, ty, tz := to[0], to[1], to[2]

	switch dir {
	case world.Down:
		return [4]mgl32.Vec3{{fx, fy, fz}, {tx, fy, fz}, {tx, fy, tz}, {fx, fy, tz}}
	case world.Up:
		return [4]mgl32.Vec3{{fx, ty, tz}, {tx, ty, tz}, {tx, ty, fz}, {fx, ty, fz}}
	case world.North:
		return [4]mgl32.Vec3{{tx, fy, fz}, {fx, fy, fz}, {fx, ty, fz}, {tx, ty, fz}}
	case world.South:
		return [4]mgl32.Vec3{{fx, fy, tz}, {tx, fy, tz}, {tx, ty, tz}, {fx, ty, tz}}
	case world.West:
		return [4]mgl32.Vec3{{fx, fy, fz}, {fx, fy, tz}, {fx, ty, tz}, {fx, ty, fz}}
	case world.East:
		return [4]mgl32.Vec3{{tx, fy, tz}, {tx, fy, fz}, {tx, ty, fz}, {tx, ty, tz}}
	}
	return [4]mgl32.Vec3{}
}

// RotateUVs cyclically shifts the corner UVs by rotation/90 steps.
func RotateUVs(uvs [4]mgl32.Vec2, rotation int) [4]mgl32.Vec2 {
	steps := ((rotation/90)%4 + 4) % 4
	if steps == 0 {
		return uvs
	}
	var out [4]mgl32.Vec2
	for i := range out {
		out[i] = uvs[(i+steps)%4]
	}
	return out
}

// SameVertices reports whether both quads cover the same corner positions
// within eps, in any order.
func SameVertices(a, b *Quad, eps float32) bool {
	for _, va := range a.Vertices {
		found := false
		for _, vb := range b.Vertices {
			if near(va, vb, eps) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, vb := range b.Vertices {
		found := false
		for _, va := range a.Vertices {
			if near(vb, va, eps) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func near(a, b mgl32.Vec3, eps float32) bool {
	d := a.Sub(b)
	return mgl32.Abs(d[0]) <= eps && mgl32.Abs(d[1]) <= eps && mgl32.Abs(d[2]) <= eps
}
