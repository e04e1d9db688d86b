package atlas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAddTextureFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"textures/block/stone.png": {Data: encodePNG(t, solid(16, 16, color.RGBA{R: 128, G: 128, B: 128, A: 255}))},
		"textures/block/bad.png":   {Data: []byte("not a png")},
	}
	b := NewBuilder(fsys, nil)

	require.NoError(t, b.AddTexture("block/stone", "textures/block/stone.png"))
	assert.NoError(t, b.AddTexture("block/stone", "textures/block/missing.png"), "duplicate is a no-op")
	assert.Error(t, b.AddTexture("block/missing", "textures/block/missing.png"))
	assert.Error(t, b.AddTexture("block/bad", "textures/block/bad.png"))
	assert.Equal(t, 1, b.Len())
}

func TestBuildAtlasEmpty(t *testing.T) {
	_, _, err := NewBuilder(nil, nil).BuildAtlas(16, 0)
	assert.Error(t, err)
}

func TestBuildAtlasGrid(t *testing.T) {
	b := NewBuilder(nil, nil)
	for i := 0; i < 5; i++ {
		b.AddImage(fmt.Sprintf("block/t%d", i), solid(16, 16, color.RGBA{R: uint8(i * 40), A: 255}))
	}

	a, positions, err := b.BuildAtlas(16, 0)
	require.NoError(t, err)
	require.Len(t, positions, 5)

	// 5 textures -> 3 columns x 2 rows -> 48x32 -> 64x32
	assert.Equal(t, 64, a.Width)
	assert.Equal(t, 32, a.Height)

	p := positions["block/t4"]
	assert.Equal(t, [2]int{1, 1}, p.Grid)
	assert.InDelta(t, 16.0/64.0, p.UVOffset.X(), 1e-6)
	assert.InDelta(t, 16.0/32.0, p.UVOffset.Y(), 1e-6)
	assert.InDelta(t, 0.25, p.UVSize.X(), 1e-6)
	assert.InDelta(t, 0.5, p.UVSize.Y(), 1e-6)

	got, ok := b.GetTexturePosition("block/t4")
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestAtlasUVNonOverlap(t *testing.T) {
	b := NewBuilder(nil, nil)
	for i := 0; i < 23; i++ {
		b.AddImage(fmt.Sprintf("block/t%02d", i), solid(16, 16, color.RGBA{G: uint8(i), A: 255}))
	}
	_, positions, err := b.BuildAtlas(16, 2)
	require.NoError(t, err)

	type rect struct{ x0, y0, x1, y1 float32 }
	var rects []rect
	for _, p := range positions {
		r := rect{p.UVOffset.X(), p.UVOffset.Y(), p.UVOffset.X() + p.UVSize.X(), p.UVOffset.Y() + p.UVSize.Y()}
		assert.LessOrEqual(t, r.x1, float32(1))
		assert.LessOrEqual(t, r.y1, float32(1))
		rects = append(rects, r)
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			a, c := rects[i], rects[j]
			overlap := a.x0 < c.x1 && c.x0 < a.x1 && a.y0 < c.y1 && c.y0 < a.y1
			assert.False(t, overlap, "rects %d and %d overlap", i, j)
		}
	}
}

func TestBuildAtlasFlipsVertically(t *testing.T) {
	img := solid(16, 16, color.RGBA{B: 255, A: 255})
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255}) // top-left in image space

	b := NewBuilder(nil, nil)
	b.AddImage("block/marked", img)
	a, _, err := b.BuildAtlas(16, 0)
	require.NoError(t, err)

	assert.Equal(t, [4]byte{255, 0, 0, 255}, a.At(0, 15), "image top row lands at the top of the cell")
	assert.Equal(t, [4]byte{0, 0, 255, 255}, a.At(0, 0))

	// Image() restores the top-down orientation.
	top := a.Image()
	assert.Equal(t, color.RGBA{R: 255, A: 255}, top.RGBAAt(0, a.Height-16))
}

func TestBuildAtlasPaddingReplicatesEdges(t *testing.T) {
	img := solid(4, 4, color.RGBA{G: 200, A: 255})
	for y := 0; y < 4; y++ {
		img.SetRGBA(3, y, color.RGBA{R: 99, A: 255})
	}
	b := NewBuilder(nil, nil)
	b.AddImage("block/a", img)
	a, _, err := b.BuildAtlas(4, 2)
	require.NoError(t, err)
	require.Equal(t, 8, a.Width)

	assert.Equal(t, [4]byte{99, 0, 0, 255}, a.At(4, 1))
	assert.Equal(t, [4]byte{99, 0, 0, 255}, a.At(5, 1))
	assert.Equal(t, [4]byte{0, 200, 0, 255}, a.At(0, 4))
	assert.Equal(t, [4]byte{0, 200, 0, 255}, a.At(1, 5))
	assert.Equal(t, [4]byte{99, 0, 0, 255}, a.At(5, 5), "corner copies the top-right pixel")
}

func TestBuildAtlasCropsAndScales(t *testing.T) {
	strip := solid(32, 96, color.RGBA{R: 10, A: 255})
	b := NewBuilder(nil, nil)
	b.AddImage("block/strip", strip)
	b.AddImage("block/glass", solid(16, 16, color.RGBA{R: 10, A: 100}))

	a, positions, err := b.BuildAtlas(16, 0)
	require.NoError(t, err)
	assert.Equal(t, 32, a.Width)
	assert.False(t, positions["block/strip"].Translucent)
	assert.True(t, positions["block/glass"].Translucent)
}

func TestBuildAtlasCapacity(t *testing.T) {
	b := NewBuilder(nil, nil)
	for i := 0; i < 5; i++ {
		b.AddImage(fmt.Sprintf("block/big%d", i), solid(4, 4, color.RGBA{A: 255}))
	}
	a, positions, err := b.BuildAtlas(2048, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxSize, a.Width)
	assert.Equal(t, MaxSize, a.Height)
	assert.Len(t, positions, 4)
	_, ok := positions["block/big4"]
	assert.False(t, ok)
}

func TestWritePNG(t *testing.T) {
	b := NewBuilder(nil, nil)
	b.AddImage("block/a", solid(16, 16, color.RGBA{R: 1, A: 255}))
	a, _, err := b.BuildAtlas(16, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WritePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), decoded.Bounds())
}
