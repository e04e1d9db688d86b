// Package pipeline wires the texture registry, model loader, bakery and
// blockstate loader into one pack-to-mesh flow.
package pipeline

import (
	"context"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"voxelbake/internal/bakery"
	"voxelbake/internal/blockstate"
	"voxelbake/internal/config"
	"voxelbake/internal/meshing"
	"voxelbake/internal/profiling"
	"voxelbake/internal/registry"
	"voxelbake/internal/textures"
	"voxelbake/internal/world"
	"voxelbake/pkg/blockmodel"
)

type entry struct {
	block      registry.Block
	blockstate string
	states     []*registry.BlockState
}

// Pipeline owns every loader and cache for one resource pack.
type Pipeline struct {
	cfg *config.Config
	log *zap.Logger

	Textures *textures.Registry
	Models   *blockmodel.Loader
	Bakery   *bakery.Bakery
	Registry *registry.Registry
	States   *blockstate.Loader

	blocks []*entry
}

// Open loads the configured pack and builds its atlas. Blocks are not
// loaded until LoadBlocks.
func Open(cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		cfg: cfg,
		log: log,
		Textures: textures.NewRegistry(textures.Options{
			SpriteSize: cfg.Atlas.SpriteSize,
			Padding:    cfg.Atlas.Padding,
		}, log.Named("textures")),
		Bakery:   bakery.New(log.Named("bakery")),
		Registry: registry.New(),
	}
	if err := p.Textures.LoadResourcePack(cfg.Pack.Path); err != nil {
		return nil, errors.Wrap(err, "open pipeline")
	}
	p.resetLoaders()
	return p, nil
}

func (p *Pipeline) resetLoaders() {
	p.Models = blockmodel.NewLoader(p.Textures.Pack().Assets(), p.log.Named("models"))
	p.States = blockstate.New(blockstate.Config{
		Models:   p.Models,
		Bakery:   p.Bakery,
		Textures: p.Textures,
		Registry: p.Registry,
		Rand:     rand.New(rand.NewSource(p.cfg.Variants.Seed)),
		Log:      p.log.Named("blockstates"),
	})
}

// LoadBlocks registers every configured block and loads its states. A
// block whose blockstate fails to load stays registered without states.
func (p *Pipeline) LoadBlocks() error {
	for _, bc := range p.cfg.Blocks {
		name := bc.BlockstateName()
		block := bc.Definition(p.inferOpaque(name))
		if _, _, err := registry.Register(p.Registry, block); err != nil {
			return errors.Wrapf(err, "register %s", bc.Name)
		}
		e := &entry{block: block, blockstate: name}
		e.states = p.States.LoadBlockState(name, block)
		p.blocks = append(p.blocks, e)
	}
	p.log.Info("loaded blocks",
		zap.Int("blocks", len(p.blocks)),
		zap.Int("states", p.Registry.StateCount()-1),
		zap.Int("baked", p.Bakery.Len()))
	return nil
}

// inferOpaque treats a block as opaque when the model of its first variant
// is a full cube.
func (p *Pipeline) inferOpaque(blockstateName string) bool {
	doc, err := p.Models.LoadBlockState(blockstateName)
	if err != nil || len(doc.Variants) == 0 {
		return false
	}
	first := lo.Min(lo.Keys(doc.Variants))
	variants := doc.Variants[first]
	if len(variants) == 0 || variants[0].Model == "" {
		return false
	}
	return registry.IsFullCube(p.Models.LoadModel(variants[0].Model))
}

// Reload rebuilds the atlas from the current pack and rebakes every
// block. Previously returned state ids are invalid afterwards.
func (p *Pipeline) Reload() error {
	defer profiling.Track("pipeline.Reload")()
	if err := p.Textures.ReloadResourcePack(); err != nil {
		return err
	}
	p.rebake()
	return nil
}

// SwitchPack loads a different pack and rebakes every block against it.
func (p *Pipeline) SwitchPack(path string) error {
	if err := p.Textures.SwitchResourcePack(path); err != nil {
		return err
	}
	p.resetLoaders()
	p.rebake()
	return nil
}

func (p *Pipeline) rebake() {
	p.Models.ClearCache()
	p.Bakery.ClearCache()
	p.States.ClearCache()
	p.Registry.ClearStates()
	for _, e := range p.blocks {
		e.states = p.States.LoadBlockState(e.blockstate, e.block)
	}
	p.log.Info("rebaked blocks",
		zap.Int("states", p.Registry.StateCount()-1),
		zap.Uint32("generation", p.Registry.Generation()))
}

// StatesOf returns the loaded states of a configured block by name.
func (p *Pipeline) StatesOf(name string) []*registry.BlockState {
	e, ok := lo.Find(p.blocks, func(e *entry) bool { return e.block.Definition().Name == name })
	if !ok {
		return nil
	}
	return e.states
}

// MeshStats summarises a meshing run.
type MeshStats struct {
	Chunks           int
	OpaqueQuads      int
	TransparentQuads int
}

// Mesh meshes every dirty chunk of store on the worker pool.
func (p *Pipeline) Mesh(ctx context.Context, store *world.ChunkStore) (MeshStats, error) {
	defer profiling.Track("pipeline.Mesh")()

	coords := store.DirtyChunks()
	pool := meshing.NewWorkerPool(p.Registry, p.cfg.Meshing.Workers, len(coords))
	defer pool.Shutdown()

	meshes, err := pool.MeshChunks(ctx, store, coords)
	if err != nil {
		return MeshStats{}, err
	}

	stats := MeshStats{Chunks: len(meshes)}
	for coord, m := range meshes {
		stats.OpaqueQuads += m.Opaque.QuadCount()
		stats.TransparentQuads += m.Transparent.QuadCount()
		p.log.Debug("meshed chunk",
			zap.Int("x", coord.X), zap.Int("y", coord.Y), zap.Int("z", coord.Z),
			zap.Int("opaque", m.Opaque.QuadCount()),
			zap.Int("transparent", m.Transparent.QuadCount()))
	}
	return stats, nil
}

// DumpAtlas writes the atlas image as PNG.
func (p *Pipeline) DumpAtlas(path string) error {
	a := p.Textures.Atlas()
	if a == nil {
		return errors.New("dump atlas: no atlas built")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "dump atlas")
	}
	if err := a.WritePNG(f); err != nil {
		f.Close()
		return errors.Wrap(err, "dump atlas")
	}
	return f.Close()
}

func (p *Pipeline) Close() error {
	return p.Textures.Close()
}
