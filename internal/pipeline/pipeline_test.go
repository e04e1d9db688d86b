package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelbake/internal/config"
	"voxelbake/internal/world"
)

const cubeAll = `{
	"elements": [ {
		"from": [0,0,0], "to": [16,16,16],
		"faces": {
			"down":  { "texture": "#all", "cullface": "down" },
			"up":    { "texture": "#all", "cullface": "up" },
			"north": { "texture": "#all", "cullface": "north" },
			"south": { "texture": "#all", "cullface": "south" },
			"west":  { "texture": "#all", "cullface": "west" },
			"east":  { "texture": "#all", "cullface": "east" }
		}
	} ]
}`

const slab = `{
	"textures": { "all": "block/stone" },
	"elements": [ {
		"from": [0,0,0], "to": [16,8,16],
		"faces": {
			"down":  { "texture": "#all", "cullface": "down" },
			"up":    { "texture": "#all" },
			"north": { "texture": "#all", "cullface": "north" },
			"south": { "texture": "#all", "cullface": "south" },
			"west":  { "texture": "#all", "cullface": "west" },
			"east":  { "texture": "#all", "cullface": "east" }
		}
	} ]
}`

const furnaceStates = `{
	"variants": {
		"facing=north": { "model": "block/furnace" },
		"facing=east":  { "model": "block/furnace", "y": 90 },
		"facing=south": { "model": "block/furnace", "y": 180 },
		"facing=west":  { "model": "block/furnace", "y": 270 }
	}
}`

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePack(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "pack.mcmeta", []byte(`{"pack":{"pack_format":6,"description":"pipeline"}}`))

	const assets = "assets/minecraft/"
	writeFile(t, root, assets+"textures/block/stone.png", solidPNG(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}))
	writeFile(t, root, assets+"textures/block/glass.png", solidPNG(t, color.RGBA{R: 220, G: 240, B: 255, A: 80}))
	writeFile(t, root, assets+"textures/block/furnace.png", solidPNG(t, color.RGBA{R: 90, G: 90, B: 90, A: 255}))

	writeFile(t, root, assets+"models/block/cube_all.json", []byte(cubeAll))
	writeFile(t, root, assets+"models/block/stone.json", []byte(`{"parent":"block/cube_all","textures":{"all":"block/stone"}}`))
	writeFile(t, root, assets+"models/block/glass.json", []byte(`{"parent":"block/cube_all","textures":{"all":"block/glass"}}`))
	writeFile(t, root, assets+"models/block/furnace.json", []byte(`{"parent":"block/cube_all","textures":{"all":"block/furnace"}}`))
	writeFile(t, root, assets+"models/block/stone_slab.json", []byte(slab))

	writeFile(t, root, assets+"blockstates/stone.json", []byte(`{"variants":{"":{"model":"block/stone"}}}`))
	writeFile(t, root, assets+"blockstates/glass.json", []byte(`{"variants":{"":{"model":"block/glass"}}}`))
	writeFile(t, root, assets+"blockstates/stone_slab.json", []byte(`{"variants":{"type=bottom":{"model":"block/stone_slab"}}}`))
	writeFile(t, root, assets+"blockstates/furnace.json", []byte(furnaceStates))
	return root
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	no := false
	cfg := config.Default()
	cfg.Pack.Path = writePack(t)
	cfg.Meshing.Workers = 2
	cfg.Blocks = []config.BlockConfig{
		{Name: "stone"},
		{Name: "glass", Opaque: &no, Transparency: "translucent", CullsSelf: true},
		{Name: "stone_slab"},
		{Name: "furnace"},
		{Name: "nether_portal"},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func openPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := Open(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	require.NoError(t, p.LoadBlocks())
	return p
}

func TestOpenMissingPack(t *testing.T) {
	cfg := config.Default()
	cfg.Pack.Path = filepath.Join(t.TempDir(), "absent")
	_, err := Open(cfg, nil)
	assert.Error(t, err)
}

func TestLoadBlocks(t *testing.T) {
	p := openPipeline(t)

	stone := p.StatesOf("stone")
	require.Len(t, stone, 1)
	assert.True(t, stone[0].Block.Definition().IsOpaque)
	assert.Len(t, stone[0].Model.Quads, 6)

	glass := p.StatesOf("glass")
	require.Len(t, glass, 1)
	assert.False(t, glass[0].Block.Definition().IsOpaque)
	assert.True(t, glass[0].Model.Transparent)

	slabs := p.StatesOf("stone_slab")
	require.Len(t, slabs, 1)
	assert.False(t, slabs[0].Block.Definition().IsOpaque)
	assert.Equal(t, "bottom", slabs[0].Properties["type"])

	assert.Len(t, p.StatesOf("furnace"), 4)

	// registered without states
	_, ok := p.Registry.BlockByName("nether_portal")
	assert.True(t, ok)
	assert.Empty(t, p.StatesOf("nether_portal"))
	assert.Nil(t, p.StatesOf("unknown"))

	assert.Equal(t, 1+1+1+1+4, p.Registry.StateCount())
}

func TestFillDemoAndMesh(t *testing.T) {
	p := openPipeline(t)
	store := world.NewChunkStore()

	set := p.FillDemo(store, 2)
	assert.GreaterOrEqual(t, set, 2*world.ChunkSize*2*world.ChunkSize*(demoGround-4))
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, p.StatesOf("stone")[0].ID, store.Get(5, 0, 5))

	stats, err := p.Mesh(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Chunks)
	// at least the bottom of the ground is visible
	assert.GreaterOrEqual(t, stats.OpaqueQuads, 4*world.ChunkSize*world.ChunkSize)
	assert.Empty(t, store.DirtyChunks())

	// nothing left to mesh
	stats, err = p.Mesh(context.Background(), store)
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
}

func TestMeshCancelled(t *testing.T) {
	p := openPipeline(t)
	store := world.NewChunkStore()
	p.FillDemo(store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Mesh(ctx, store)
	assert.Error(t, err)
}

func TestReloadRebakes(t *testing.T) {
	p := openPipeline(t)
	before := p.StatesOf("furnace")
	count := p.Registry.StateCount()

	require.NoError(t, p.Reload())
	assert.Equal(t, uint32(1), p.Registry.Generation())
	assert.Equal(t, count, p.Registry.StateCount())

	after := p.StatesOf("furnace")
	require.Len(t, after, 4)
	assert.NotSame(t, before[0], after[0])
	assert.NotSame(t, before[0].Model, after[0].Model)
}

func TestSwitchPack(t *testing.T) {
	p := openPipeline(t)
	other := writePack(t)
	writeFile(t, other, "assets/minecraft/blockstates/stone.json",
		[]byte(`{"variants":{"":{"model":"block/stone_slab"}}}`))

	require.NoError(t, p.SwitchPack(other))
	stone := p.StatesOf("stone")
	require.Len(t, stone, 1)
	assert.Equal(t, float32(0.5), stone[0].Model.Quads[1].Vertices[0].Y())
}

func TestDumpAtlas(t *testing.T) {
	p := openPipeline(t)
	path := filepath.Join(t.TempDir(), "atlas.png")
	require.NoError(t, p.DumpAtlas(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, p.Textures.Atlas().Width, img.Bounds().Dx())
}
