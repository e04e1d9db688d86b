package world

import (
	"sort"
	"sync"
)

// ChunkCoord identifies a chunk in chunk units.
type ChunkCoord struct {
	X, Y, Z int
}

// ChunkStore holds chunks addressed by chunk coordinates.
type ChunkStore struct {
	chunks map[ChunkCoord]*Chunk
	mu     sync.RWMutex
}

// NewChunkStore creates a new chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// GetChunk returns the chunk at the specified chunk coordinates.
// If the chunk doesn't exist and create is true, an empty one is created.
func (cs *ChunkStore) GetChunk(coord ChunkCoord, create bool) *Chunk {
	cs.mu.RLock()
	chunk, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	if exists || !create {
		return chunk
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if existing, ok := cs.chunks[coord]; ok {
		return existing
	}
	chunk = NewChunk(coord.X, coord.Y, coord.Z)
	cs.chunks[coord] = chunk
	return chunk
}

// ChunkCoordFromBlock converts world block coordinates to the owning chunk.
func ChunkCoordFromBlock(x, y, z int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, ChunkSize), Y: floorDiv(y, ChunkSize), Z: floorDiv(z, ChunkSize)}
}

// Get returns the state at world coordinates, air if no chunk is loaded there.
func (cs *ChunkStore) Get(x, y, z int) StateID {
	chunk := cs.GetChunk(ChunkCoordFromBlock(x, y, z), false)
	if chunk == nil {
		return StateAir
	}
	id, _ := chunk.StateAt(mod(x, ChunkSize), mod(y, ChunkSize), mod(z, ChunkSize))
	return id
}

// Set writes a state at world coordinates, creating the chunk when needed.
func (cs *ChunkStore) Set(x, y, z int, id StateID) {
	chunk := cs.GetChunk(ChunkCoordFromBlock(x, y, z), true)
	chunk.SetState(mod(x, ChunkSize), mod(y, ChunkSize), mod(z, ChunkSize), id)
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// DirtyChunks returns the coordinates of chunks that need meshing, sorted.
func (cs *ChunkStore) DirtyChunks() []ChunkCoord {
	cs.mu.RLock()
	var out []ChunkCoord
	for coord, c := range cs.chunks {
		if c.IsDirty() {
			out = append(out, coord)
		}
	}
	cs.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
