package world

const (
	// ChunkSize is the edge length of a cubic chunk.
	ChunkSize   = 32
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Chunk is a dense cubic volume of block-state ids.
// Storage is allocated on the first non-air write.
type Chunk struct {
	X, Y, Z int
	states  []StateID
	count   int
	dirty   bool
}

// NewChunk creates an empty chunk at the given chunk coordinates.
func NewChunk(x, y, z int) *Chunk {
	return &Chunk{
		X:     x,
		Y:     y,
		Z:     z,
		dirty: true,
	}
}

func InBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// IndexFromPos converts local coordinates to a flat index (z*S*S + y*S + x).
func IndexFromPos(x, y, z int) int {
	return z*ChunkSize*ChunkSize + y*ChunkSize + x
}

// PosFromIndex is the inverse of IndexFromPos.
func PosFromIndex(idx int) (x, y, z int) {
	x = idx % ChunkSize
	y = (idx / ChunkSize) % ChunkSize
	z = idx / (ChunkSize * ChunkSize)
	return
}

// StateAt returns the state at local coordinates. ok is false outside the chunk.
func (c *Chunk) StateAt(x, y, z int) (StateID, bool) {
	if !InBounds(x, y, z) {
		return StateAir, false
	}
	if c.states == nil {
		return StateAir, true
	}
	return c.states[IndexFromPos(x, y, z)], true
}

// SetState writes a state id at local coordinates. Out-of-range writes are ignored.
func (c *Chunk) SetState(x, y, z int, id StateID) {
	if !InBounds(x, y, z) {
		return
	}
	if c.states == nil {
		if id == StateAir {
			return
		}
		c.states = make([]StateID, ChunkVolume)
	}

	idx := IndexFromPos(x, y, z)
	old := c.states[idx]
	if old == id {
		return
	}
	c.states[idx] = id
	c.dirty = true

	switch {
	case old == StateAir:
		c.count++
	case id == StateAir:
		c.count--
	}
	if c.count == 0 {
		c.states = nil
	}
}

// Fill sets every cell to id.
func (c *Chunk) Fill(id StateID) {
	c.dirty = true
	if id == StateAir {
		c.states = nil
		c.count = 0
		return
	}
	if c.states == nil {
		c.states = make([]StateID, ChunkVolume)
	}
	for i := range c.states {
		c.states[i] = id
	}
	c.count = ChunkVolume
}

// IsEmpty reports whether the chunk contains only air.
func (c *Chunk) IsEmpty() bool {
	return c.count == 0
}

// BlockCount returns the number of non-air cells.
func (c *Chunk) BlockCount() int {
	return c.count
}

// IsDirty returns whether the chunk has been modified since it was last meshed
func (c *Chunk) IsDirty() bool {
	return c.dirty
}

// MarkDirty forces the next EnsureMesh to regenerate.
func (c *Chunk) MarkDirty() {
	c.dirty = true
}

// SetClean marks the chunk as meshed
func (c *Chunk) SetClean() {
	c.dirty = false
}
