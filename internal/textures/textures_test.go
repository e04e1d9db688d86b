package textures

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mcmeta = `{"pack":{"pack_format":6,"description":"test pack"}}`

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testPackFS(t *testing.T) fstest.MapFS {
	const dir = "assets/minecraft/textures/block/"
	fsys := fstest.MapFS{"pack.mcmeta": {Data: []byte(mcmeta)}}
	fsys[dir+"stone.png"] = &fstest.MapFile{Data: pngBytes(t, 16, 16, color.RGBA{R: 120, G: 120, B: 120, A: 255})}
	fsys[dir+"dirt.png"] = &fstest.MapFile{Data: pngBytes(t, 16, 16, color.RGBA{R: 120, G: 80, B: 40, A: 255})}
	fsys[dir+"glass.png"] = &fstest.MapFile{Data: pngBytes(t, 16, 16, color.RGBA{R: 200, G: 200, B: 255, A: 60})}
	fsys[dir+"water.png"] = &fstest.MapFile{Data: pngBytes(t, 16, 64, color.RGBA{B: 200, A: 255})}
	fsys[dir+"water.png.mcmeta"] = &fstest.MapFile{Data: []byte(`{"animation":{"frametime":2}}`)}
	fsys[dir+"readme.txt"] = &fstest.MapFile{Data: []byte("ignored")}
	return fsys
}

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	p, err := NewPack("test", "", testPackFS(t), nil)
	require.NoError(t, err)
	r := NewRegistry(DefaultOptions(), nil)
	require.NoError(t, r.LoadPack(p))
	return r
}

func TestNewPackValidation(t *testing.T) {
	_, err := NewPack("nometa", "", fstest.MapFS{
		"assets/minecraft/textures/block/stone.png": {Data: []byte{}},
	}, nil)
	assert.Error(t, err)

	_, err = NewPack("notextures", "", fstest.MapFS{
		"pack.mcmeta": {Data: []byte(mcmeta)},
	}, nil)
	assert.Error(t, err)

	p, err := NewPack("ok", "", testPackFS(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Info.Format)
	assert.Equal(t, "test pack", p.Info.Description)
}

func TestPackDescriptionComponent(t *testing.T) {
	fsys := testPackFS(t)
	fsys["pack.mcmeta"] = &fstest.MapFile{Data: []byte(`{"pack":{"pack_format":15,"description":{"text":"fancy"}}}`)}
	p, err := NewPack("c", "", fsys, nil)
	require.NoError(t, err)
	assert.Equal(t, "fancy", p.Info.Description)
	assert.Equal(t, 15, p.Info.Format)
}

func TestOpenPackDirAndZip(t *testing.T) {
	dir := t.TempDir()
	fsys := testPackFS(t)

	packDir := filepath.Join(dir, "folder")
	zipPath := filepath.Join(dir, "archive.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(zf)
	for name, f := range fsys {
		full := filepath.Join(packDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, f.Data, 0o644))

		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	assert.True(t, IsValidPack(packDir))
	assert.True(t, IsValidPack(zipPath))
	assert.False(t, IsValidPack(filepath.Join(dir, "nope")))

	r := NewRegistry(DefaultOptions(), nil)
	require.NoError(t, r.LoadResourcePack(zipPath))
	assert.Equal(t, "archive", r.Pack().Info.Name)
	assert.True(t, r.HasTexture("block/stone"))

	require.NoError(t, r.SwitchResourcePack(packDir))
	assert.Equal(t, "folder", r.Pack().Info.Name)
	assert.True(t, r.HasTexture("minecraft:block/dirt"))
	require.NoError(t, r.Close())
}

func TestRegistryLoadsTextures(t *testing.T) {
	r := loadTestRegistry(t)

	assert.Equal(t, []string{
		"block/dirt", "block/glass", "block/stone",
		"block/water", "block/water@1", "block/water@2", "block/water@3",
		MissingTexture,
	}, r.Names())

	stone := r.GetTextureInfo("block/stone")
	assert.Same(t, r.Atlas(), stone.Atlas)
	assert.False(t, stone.Translucent)
	assert.True(t, r.GetTextureInfo("block/glass").Translucent)
	assert.True(t, r.GetTextureInfo("block/water").Animated)

	assert.True(t, r.HasTexture(MissingTexture))
	unknown := r.GetTextureInfo("block/does_not_exist")
	assert.Equal(t, mgl32.Vec2{0, 0}, unknown.UVOffset)
	assert.Equal(t, mgl32.Vec2{1, 1}, unknown.UVSize)
	assert.Same(t, r.Atlas(), unknown.Atlas)
	assert.NotEqual(t, r.GetTextureInfo(MissingTexture).UVSize, unknown.UVSize)

	empty := NewRegistry(DefaultOptions(), nil).GetTextureInfo("block/stone")
	assert.Equal(t, float32(1), empty.UVSize.X())
	assert.Equal(t, float32(1), empty.UVSize.Y())
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)
	assert.Error(t, r.ReloadResourcePack())

	r = loadTestRegistry(t)
	before := r.Atlas()
	require.NoError(t, r.ReloadResourcePack())
	assert.NotSame(t, before, r.Atlas())
	assert.Equal(t, 8, len(r.Names()))
}

// unreadableFS fails to list one directory.
type unreadableFS struct {
	fsys fstest.MapFS
	dir  string
}

func (u unreadableFS) Open(name string) (fs.File, error) {
	return u.fsys.Open(name)
}

func (u unreadableFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name == u.dir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrPermission}
	}
	return u.fsys.ReadDir(name)
}

func TestFailedSwitchKeepsCurrentPack(t *testing.T) {
	r := loadTestRegistry(t)
	pack, before := r.Pack(), r.Atlas()

	broken, err := NewPack("broken", "", unreadableFS{
		fsys: testPackFS(t),
		dir:  "assets/minecraft/textures/block",
	}, nil)
	require.NoError(t, err)
	assert.Error(t, r.LoadPack(broken))

	assert.Same(t, pack, r.Pack())
	assert.Same(t, before, r.Atlas())
	assert.True(t, r.HasTexture("block/stone"))

	require.NoError(t, r.ReloadResourcePack())
	assert.True(t, r.HasTexture("block/stone"))
	assert.Equal(t, 8, len(r.Names()))
}

func TestRegistryAnimatedUV(t *testing.T) {
	r := loadTestRegistry(t)

	info, ok := r.AnimatedUV("block/water")
	require.True(t, ok)
	assert.Equal(t, r.GetTextureInfo("block/water").UVOffset, info.UVOffset)

	r.UpdateAnimations(2 * TickDuration)
	info, ok = r.AnimatedUV("block/water")
	require.True(t, ok)
	assert.Equal(t, r.GetTextureInfo("block/water@1").UVOffset, info.UVOffset)

	_, ok = r.AnimatedUV("block/stone")
	assert.False(t, ok)
}

func TestParseAnimation(t *testing.T) {
	a, err := ParseAnimation([]byte(`{"animation":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, a.FrameTime)
	assert.False(t, a.Interpolate)
	assert.Empty(t, a.Frames)

	a, err = ParseAnimation([]byte(`{"animation":{"interpolate":true,"frametime":3,"frames":[0,{"index":2,"time":7},{"index":1}]}}`))
	require.NoError(t, err)
	assert.True(t, a.Interpolate)
	assert.Equal(t, []Frame{{Index: 0, Time: 3}, {Index: 2, Time: 7}, {Index: 1, Time: 3}}, a.Frames)

	_, err = ParseAnimation([]byte(`{"texture":{}}`))
	assert.Error(t, err)
	_, err = ParseAnimation([]byte(`{`))
	assert.Error(t, err)
}

func TestAnimatedTextureTiming(t *testing.T) {
	anim := &Animation{FrameTime: 2, Frames: []Frame{{Index: 3, Time: 1}, {Index: 0, Time: 4}}}
	at := NewAnimatedTexture("block/lava", anim, 4)

	assert.Equal(t, 3, at.Frame())
	assert.Equal(t, "block/lava@3", at.CurrentSprite())

	at.Update(TickDuration)
	assert.Equal(t, 1, at.Step())
	assert.Equal(t, 0, at.Frame())
	assert.Equal(t, "block/lava", at.CurrentSprite())

	at.Update(3 * TickDuration)
	assert.Equal(t, 1, at.Step())
	at.Update(TickDuration)
	assert.Equal(t, 0, at.Step())

	at.Update(10 * time.Millisecond)
	at.Reset()
	assert.Equal(t, 0, at.Step())
}

func TestAnimatedTextureDefaultSequence(t *testing.T) {
	at := NewAnimatedTexture("block/fire", &Animation{FrameTime: 1}, 3)
	at.Update(4 * TickDuration)
	assert.Equal(t, 1, at.Frame())
	assert.Equal(t, "block/fire@1", at.CurrentSprite())
}
