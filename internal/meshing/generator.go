package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelbake/internal/profiling"
	"voxelbake/internal/registry"
	"voxelbake/internal/world"
)

// quadIndices are the two triangles of a quad relative to its first vertex.
var quadIndices = [6]uint32{0, 1, 2, 2, 3, 0}

// StateSource resolves state handles stored in chunks.
type StateSource interface {
	State(id world.StateID) *registry.BlockState
}

// Vertex is one emitted corner in chunk-local space.
type Vertex struct {
	Position   mgl32.Vec3
	Normal     mgl32.Vec3
	UV         mgl32.Vec2
	OverlayUV  mgl32.Vec2
	HasOverlay bool
	AO         float32
	Tint       mgl32.Vec3
}

// Buffer is an indexed triangle list.
type Buffer struct {
	Vertices []Vertex
	Indices  []uint32
}

func (b *Buffer) reset() {
	b.Vertices = b.Vertices[:0]
	b.Indices = b.Indices[:0]
}

func (b *Buffer) QuadCount() int {
	return len(b.Vertices) / 4
}

func (b *Buffer) clone() Buffer {
	return Buffer{
		Vertices: append([]Vertex(nil), b.Vertices...),
		Indices:  append([]uint32(nil), b.Indices...),
	}
}

// MeshData holds the opaque pass (depth write) and the transparent pass
// (blended, no depth write) of one chunk.
type MeshData struct {
	Opaque      Buffer
	Transparent Buffer
}

// Clone copies the buffers so they outlive the next GenerateMeshData call.
func (m *MeshData) Clone() *MeshData {
	return &MeshData{Opaque: m.Opaque.clone(), Transparent: m.Transparent.clone()}
}

func (m *MeshData) IsEmpty() bool {
	return len(m.Opaque.Vertices) == 0 && len(m.Transparent.Vertices) == 0
}

// Generator builds per-face culled meshes. Its buffers are reused between
// calls, so a Generator must not be shared between goroutines.
type Generator struct {
	states StateSource
	data   MeshData
}

func NewGenerator(states StateSource) *Generator {
	return &Generator{states: states}
}

// GenerateMeshData meshes c and marks it clean. The returned data is owned
// by the generator and overwritten by the next call.
func (g *Generator) GenerateMeshData(c *world.Chunk) *MeshData {
	defer profiling.Track("meshing.GenerateMeshData")()

	g.data.Opaque.reset()
	g.data.Transparent.reset()

	if !c.IsEmpty() {
		for idx := 0; idx < world.ChunkVolume; idx++ {
			x, y, z := world.PosFromIndex(idx)
			id, _ := c.StateAt(x, y, z)
			if id == world.StateAir {
				continue
			}
			s := g.states.State(id)
			if s == nil || s.Model.IsEmpty() {
				continue
			}
			g.emitBlock(c, x, y, z, s)
		}
	}

	c.SetClean()
	return &g.data
}

// EnsureMesh regenerates only when the chunk is dirty. ok is false when the
// mesh is still current.
func (g *Generator) EnsureMesh(c *world.Chunk) (*MeshData, bool) {
	if !c.IsDirty() {
		return nil, false
	}
	return g.GenerateMeshData(c), true
}

func (g *Generator) emitBlock(c *world.Chunk, x, y, z int, s *registry.BlockState) {
	def := s.Block.Definition()
	model := s.Model

	buf := &g.data.Opaque
	if def.Transparency == registry.Translucent || model.Transparent {
		buf = &g.data.Transparent
	}
	useAO := !def.NoAmbientOcclusion && model.AmbientOcclusion
	origin := mgl32.Vec3{float32(x), float32(y), float32(z)}

	for i := range model.Quads {
		q := &model.Quads[i]
		if g.culled(c, x, y, z, q.CullFace, def) {
			continue
		}

		tint := mgl32.Vec3{1, 1, 1}
		if q.TintIndex >= 0 {
			tint = registry.TintOf(s.Block, q.TintIndex)
		}

		base := uint32(len(buf.Vertices))
		for v := 0; v < 4; v++ {
			ao := float32(1)
			if useAO && q.Shade {
				ao = CalculateVertexAO(c, g.states, x, y, z, q.Normal, q.Vertices[v])
			}
			buf.Vertices = append(buf.Vertices, Vertex{
				Position:   origin.Add(q.Vertices[v]),
				Normal:     q.Normal,
				UV:         q.UVs[v],
				OverlayUV:  q.OverlayUVs[v],
				HasOverlay: q.HasOverlay,
				AO:         ao,
				Tint:       tint,
			})
		}
		for _, k := range quadIndices {
			buf.Indices = append(buf.Indices, base+k)
		}
	}
}

// culled reports whether the neighbour across dir hides the face.
func (g *Generator) culled(c *world.Chunk, x, y, z int, dir world.Direction, def *registry.BlockDefinition) bool {
	if !dir.Valid() {
		return false
	}
	o := dir.Offset()
	n := g.stateAt(c, x+o[0], y+o[1], z+o[2])
	if n == nil {
		return false
	}
	nd := n.Block.Definition()
	if nd.IsOpaque {
		return true
	}
	return def.CullsSelf && nd.ID == def.ID
}

func (g *Generator) stateAt(c *world.Chunk, x, y, z int) *registry.BlockState {
	return lookup(c, g.states, x, y, z)
}

func lookup(c *world.Chunk, states StateSource, x, y, z int) *registry.BlockState {
	id, ok := c.StateAt(x, y, z)
	if !ok || id == world.StateAir {
		return nil
	}
	return states.State(id)
}

// opaqueAt treats cells outside the chunk as empty.
func opaqueAt(c *world.Chunk, states StateSource, x, y, z int) bool {
	s := lookup(c, states, x, y, z)
	return s != nil && s.Block.Definition().IsOpaque
}

// CalculateVertexAO returns the occlusion weight of the vertex at offset
// (unit-cube position) on the face of block x,y,z with the given normal.
// The result is one of 0, 1/3, 2/3 or 1.
func CalculateVertexAO(c *world.Chunk, states StateSource, x, y, z int, normal, offset mgl32.Vec3) float32 {
	dir := world.DirectionFromNormal(normal)
	if !dir.Valid() {
		return 1
	}
	shell := dir.Offset()
	sx, sy, sz := x+shell[0], y+shell[1], z+shell[2]

	axis := dir.Axis()
	t1, t2 := (axis+1)%3, (axis+2)%3
	var e1, e2 [3]int
	e1[t1] = side(offset[t1])
	e2[t2] = side(offset[t2])

	edge1 := opaqueAt(c, states, sx+e1[0], sy+e1[1], sz+e1[2])
	edge2 := opaqueAt(c, states, sx+e2[0], sy+e2[1], sz+e2[2])
	if edge1 && edge2 {
		return 0
	}
	corner := opaqueAt(c, states, sx+e1[0]+e2[0], sy+e1[1]+e2[1], sz+e1[2]+e2[2])

	occluded := 0
	for _, b := range [3]bool{edge1, edge2, corner} {
		if b {
			occluded++
		}
	}
	return float32(3-occluded) / 3
}

// side maps an in-cube coordinate to the neighbouring row it leans towards.
func side(v float32) int {
	if v > 0.5 {
		return 1
	}
	return -1
}
