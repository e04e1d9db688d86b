package pipeline

import (
	"math/rand"

	"voxelbake/internal/registry"
	"voxelbake/internal/world"
)

// demoGround is the mean surface height of the demo world.
const demoGround = 12

// FillDemo writes a hilly test world of n×n chunk columns, one chunk high.
// The ground uses the first loaded state of the first configured block and
// every other state is scattered on top. It returns the number of cells set.
func (p *Pipeline) FillDemo(store *world.ChunkStore, n int) int {
	var ground world.StateID
	var props []*registry.BlockState
	for _, e := range p.blocks {
		if len(e.states) == 0 {
			continue
		}
		if ground == world.StateAir {
			ground = e.states[0].ID
			continue
		}
		props = append(props, e.states...)
	}
	if ground == world.StateAir {
		return 0
	}

	rng := rand.New(rand.NewSource(p.cfg.Variants.Seed))
	terrain := world.NewTerrain(p.cfg.Variants.Seed, demoGround-4, 8)
	size := n * world.ChunkSize
	set := terrain.Populate(store, 0, 0, size, size, world.Layers{Surface: ground, Filler: ground, Base: ground})
	if len(props) == 0 {
		return set
	}
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			if rng.Intn(4) != 0 {
				continue
			}
			top := terrain.HeightAt(x, z)
			height := 1 + rng.Intn(3)
			s := props[rng.Intn(len(props))]
			for y := top + 1; y <= top+height; y++ {
				store.Set(x, y, z, s.ID)
				set++
			}
		}
	}
	return set
}
