// Package bakery turns resolved block models into quads with atlas UVs.
package bakery

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voxelbake/internal/profiling"
	"voxelbake/internal/textures"
	"voxelbake/internal/world"
	"voxelbake/pkg/blockmodel"
)

// OverlayEpsilon is the vertex distance under which two quads are stacked.
const OverlayEpsilon = 1e-4

// TextureSource maps a texture name to its atlas rectangle.
type TextureSource interface {
	GetTextureInfo(name string) textures.Info
}

// Bakery bakes and caches models by identity.
type Bakery struct {
	log   *zap.Logger
	cache map[*blockmodel.Model]*Model
}

func New(log *zap.Logger) *Bakery {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bakery{
		log:   log,
		cache: make(map[*blockmodel.Model]*Model),
	}
}

// BakeModel bakes every face of every element of a resolved model, then
// folds tinted quads into coincident untinted ones as overlays.
func (b *Bakery) BakeModel(m *blockmodel.Model, tex TextureSource) (*Model, error) {
	if m == nil {
		return nil, errors.New("bake: nil model")
	}
	if !m.Resolved {
		return nil, errors.Errorf("bake: model %s is not resolved", m.Name)
	}
	if baked, ok := b.cache[m]; ok {
		return baked, nil
	}
	defer profiling.Track("bakery.BakeModel")()

	baked := &Model{AmbientOcclusion: m.AO()}
	var quads []Quad
	for i := range m.Elements {
		el := &m.Elements[i]
		for _, dir := range world.Directions {
			face, ok := el.Faces[dir.String()]
			if !ok && dir == world.Down {
				face, ok = el.Faces["bottom"]
			}
			if !ok && dir == world.Up {
				face, ok = el.Faces["top"]
			}
			if !ok {
				continue
			}
			info := tex.GetTextureInfo(face.Texture)
			if info.Translucent {
				baked.Transparent = true
			}
			quads = append(quads, bakeFace(el, dir, face, info))
		}
	}
	baked.Quads = MergeOverlays(quads)

	b.cache[m] = baked
	b.log.Debug("baked model",
		zap.String("model", m.Name),
		zap.Int("quads", len(baked.Quads)),
		zap.Int("merged", len(quads)-len(baked.Quads)))
	return baked, nil
}

func bakeFace(el *blockmodel.Element, dir world.Direction, face blockmodel.Face, info textures.Info) Quad {
	q := Quad{
		Vertices:  faceVertices(dir, el.From, el.To),
		Normal:    dir.Normal(),
		CullFace:  world.ParseDirection(face.CullFace),
		AO:        [4]float32{1, 1, 1, 1},
		Shade:     el.Shaded(),
		TintIndex: face.Tint(),
	}
	for i := range q.Vertices {
		q.Vertices[i] = q.Vertices[i].Mul(1.0 / 16.0)
	}

	if el.Rotation != nil && el.Rotation.Angle != 0 {
		rot := newElementRotation(el.Rotation)
		for i := range q.Vertices {
			q.Vertices[i] = rot.apply(q.Vertices[i])
		}
		q.Normal = rot.matrix.Mul3x1(q.Normal).Normalize()
	}

	uv := face.UVFor(dir.String(), el)
	q.UVs = atlasUVs(uv, info)
	q.UVs = RotateUVs(q.UVs, face.Rotation)
	return q
}

// atlasUVs maps a 0-16 texel rectangle (top-left origin) into the atlas
// rectangle (bottom-left origin).
func atlasUVs(uv [4]float32, info textures.Info) [4]mgl32.Vec2 {
	off, size := info.UVOffset, info.UVSize
	u0 := off.X() + uv[0]/16*size.X()
	u1 := off.X() + uv[2]/16*size.X()
	vTop := off.Y() + (1-uv[1]/16)*size.Y()
	vBottom := off.Y() + (1-uv[3]/16)*size.Y()
	return [4]mgl32.Vec2{
		{u0, vBottom},
		{u1, vBottom},
		{u1, vTop},
		{u0, vTop},
	}
}

type elementRotation struct {
	origin mgl32.Vec3
	matrix mgl32.Mat3
	scale  mgl32.Vec3
}

func newElementRotation(r *blockmodel.Rotation) elementRotation {
	rad := mgl32.DegToRad(r.Angle)
	er := elementRotation{
		origin: mgl32.Vec3{r.Origin[0], r.Origin[1], r.Origin[2]}.Mul(1.0 / 16.0),
		scale:  mgl32.Vec3{1, 1, 1},
	}

	axis := 1
	switch r.Axis {
	case "x":
		er.matrix, axis = mgl32.Rotate3DX(rad), 0
	case "z":
		er.matrix, axis = mgl32.Rotate3DZ(rad), 2
	default:
		er.matrix = mgl32.Rotate3DY(rad)
	}

	if r.Rescale {
		f := rescaleFactor(r.Angle)
		for i := range er.scale {
			if i != axis {
				er.scale[i] = f
			}
		}
	}
	return er
}

func (er elementRotation) apply(v mgl32.Vec3) mgl32.Vec3 {
	p := er.matrix.Mul3x1(v.Sub(er.origin))
	p = mgl32.Vec3{p[0] * er.scale[0], p[1] * er.scale[1], p[2] * er.scale[2]}
	return p.Add(er.origin)
}

func rescaleFactor(angle float32) float32 {
	switch math.Abs(float64(angle)) {
	case 45:
		return math.Sqrt2
	case 22.5:
		return float32(math.Sqrt(2 - math.Sqrt2))
	}
	return 1
}

// MergeOverlays drops every tinted quad whose corners coincide with an
// earlier untinted quad, moving its UVs into that quad's overlay slot.
func MergeOverlays(quads []Quad) []Quad {
	out := make([]Quad, 0, len(quads))
	for _, q := range quads {
		if q.TintIndex >= 0 {
			merged := false
			for j := range out {
				base := &out[j]
				if base.TintIndex >= 0 || base.HasOverlay {
					continue
				}
				if SameVertices(base, &q, OverlayEpsilon) {
					base.OverlayUVs = q.UVs
					base.HasOverlay = true
					base.TintIndex = q.TintIndex
					merged = true
					break
				}
			}
			if merged {
				continue
			}
		}
		out = append(out, q)
	}
	return out
}

// Len returns the number of cached baked models.
func (b *Bakery) Len() int {
	return len(b.cache)
}

// ClearCache forgets every baked model. Models handed out earlier remain usable.
func (b *Bakery) ClearCache() {
	b.cache = make(map[*blockmodel.Model]*Model)
}
