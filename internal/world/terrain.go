package world

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Layers are the states a terrain column is built from, top to bottom.
type Layers struct {
	Surface     StateID
	Filler      StateID
	FillerDepth int
	Base        StateID
}

// Terrain is a value-noise heightmap roughened by one block of simplex detail.
type Terrain struct {
	detail      opensimplex.Noise
	seed        int64
	scale       float64
	baseHeight  int
	amp         float64
	octaves     int
	persistence float64
	lacunarity  float64
}

// NewTerrain creates a heightmap varying between baseHeight-1 and
// baseHeight+amp+1.
func NewTerrain(seed int64, baseHeight, amp int) *Terrain {
	return &Terrain{
		detail:      opensimplex.New(seed),
		seed:        seed,
		scale:       1.0 / 32.0,
		baseHeight:  baseHeight,
		amp:         float64(amp),
		octaves:     4,
		persistence: 0.5,
		lacunarity:  2.0,
	}
}

// HeightAt computes the surface block Y at world X,Z.
func (t *Terrain) HeightAt(worldX, worldZ int) int {
	x := float64(worldX) * t.scale
	z := float64(worldZ) * t.scale
	n := octaveNoise2D(x, z, t.seed, t.octaves, t.persistence, t.lacunarity)
	d := math.Round(t.detail.Eval2(x*4, z*4))
	return max(0, int(math.Floor(float64(t.baseHeight)+n*t.amp))+int(d))
}

// Populate fills the columns x0..x0+w, z0..z0+d of store and returns the
// number of cells written.
func (t *Terrain) Populate(store *ChunkStore, x0, z0, w, d int, l Layers) int {
	set := 0
	for x := x0; x < x0+w; x++ {
		for z := z0; z < z0+d; z++ {
			top := t.HeightAt(x, z)
			for y := 0; y <= top; y++ {
				id := l.Base
				switch {
				case y == top:
					id = l.Surface
				case y >= top-l.FillerDepth:
					id = l.Filler
				}
				if id == StateAir {
					continue
				}
				store.Set(x, y, z, id)
				set++
			}
		}
	}
	return set
}
