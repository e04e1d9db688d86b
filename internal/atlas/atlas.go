// Package atlas packs block textures into a single power-of-two RGBA image.
package atlas

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"io/fs"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	// extra decoders for texture packs that ship non-PNG sprites
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxSize is the largest atlas edge in pixels.
const MaxSize = 4096

// Position locates one packed texture inside the atlas.
type Position struct {
	Grid        [2]int
	UVOffset    mgl32.Vec2
	UVSize      mgl32.Vec2
	Translucent bool
}

// Atlas is the packed pixel buffer. Pix is RGBA, row 0 is the bottom row (v = 0).
type Atlas struct {
	Width, Height int
	SpriteSize    int
	Padding       int
	Pix           []byte
}

// Builder collects textures and packs them with BuildAtlas.
type Builder struct {
	fsys      fs.FS
	log       *zap.Logger
	images    map[string]*image.RGBA
	positions map[string]Position
}

// NewBuilder reads texture paths relative to fsys.
func NewBuilder(fsys fs.FS, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		fsys:      fsys,
		log:       log,
		images:    make(map[string]*image.RGBA),
		positions: make(map[string]Position),
	}
}

// AddTexture decodes the image at path and stores it under name.
// A duplicate name is ignored with a warning.
func (b *Builder) AddTexture(name, path string) error {
	if _, ok := b.images[name]; ok {
		b.log.Warn("texture already added", zap.String("name", name))
		return nil
	}
	if b.fsys == nil {
		return errors.Errorf("atlas: no filesystem to read %s", path)
	}

	f, err := b.fsys.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open texture %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return errors.Wrapf(err, "decode texture %s", path)
	}
	b.images[name] = toRGBA(img)
	return nil
}

// AddImage stores an already decoded image. It reports false for a duplicate name.
func (b *Builder) AddImage(name string, img image.Image) bool {
	if _, ok := b.images[name]; ok {
		b.log.Warn("texture already added", zap.String("name", name))
		return false
	}
	b.images[name] = toRGBA(img)
	return true
}

// Len returns the number of textures waiting to be packed.
func (b *Builder) Len() int {
	return len(b.images)
}

// GetTexturePosition returns the packed position from the last BuildAtlas call.
func (b *Builder) GetTexturePosition(name string) (Position, bool) {
	p, ok := b.positions[name]
	return p, ok
}

// Clear drops all textures and positions.
func (b *Builder) Clear() {
	b.images = make(map[string]*image.RGBA)
	b.positions = make(map[string]Position)
}

// BuildAtlas packs every added texture into a near-square grid of
// (spriteSize+padding) cells. Textures that do not fit in MaxSize are dropped.
func (b *Builder) BuildAtlas(spriteSize, padding int) (*Atlas, map[string]Position, error) {
	if len(b.images) == 0 {
		return nil, nil, errors.New("atlas: no textures to pack")
	}
	if spriteSize <= 0 || padding < 0 {
		return nil, nil, errors.Errorf("atlas: invalid sprite size %d / padding %d", spriteSize, padding)
	}
	cell := spriteSize + padding
	if cell > MaxSize {
		return nil, nil, errors.Errorf("atlas: cell size %d exceeds %d", cell, MaxSize)
	}

	names := make([]string, 0, len(b.images))
	for name := range b.images {
		names = append(names, name)
	}
	sort.Strings(names)

	n := len(names)
	columns := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + columns - 1) / columns

	width := min(nextPowerOfTwo(columns*cell), MaxSize)
	height := min(nextPowerOfTwo(rows*cell), MaxSize)
	columns = min(columns, width/cell)
	rows = min((n+columns-1)/columns, height/cell)

	if capacity := columns * rows; n > capacity {
		b.log.Error("atlas capacity exceeded, dropping textures",
			zap.Int("textures", n),
			zap.Int("capacity", capacity),
			zap.Strings("dropped", names[capacity:]))
		names = names[:capacity]
	}

	a := &Atlas{
		Width:      width,
		Height:     height,
		SpriteSize: spriteSize,
		Padding:    padding,
		Pix:        make([]byte, width*height*4),
	}

	b.positions = make(map[string]Position, len(names))
	for i, name := range names {
		gx, gy := i%columns, i/columns
		sprite := fitSprite(b.images[name], spriteSize)
		a.blit(sprite, gx*cell, gy*cell)

		b.positions[name] = Position{
			Grid:        [2]int{gx, gy},
			UVOffset:    mgl32.Vec2{float32(gx*cell) / float32(width), float32(gy*cell) / float32(height)},
			UVSize:      mgl32.Vec2{float32(spriteSize) / float32(width), float32(spriteSize) / float32(height)},
			Translucent: hasTranslucency(sprite),
		}
	}

	b.log.Debug("atlas built",
		zap.Int("textures", len(names)),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("columns", columns),
		zap.Int("rows", rows))

	out := make(map[string]Position, len(b.positions))
	for k, v := range b.positions {
		out[k] = v
	}
	return a, out, nil
}

// blit copies sprite into the cell whose bottom-left pixel is (x0, y0),
// flipping it vertically, then replicates its right and top edges into the padding.
func (a *Atlas) blit(sprite *image.RGBA, x0, y0 int) {
	s := a.SpriteSize
	for sy := 0; sy < s; sy++ {
		src := sprite.Pix[sy*sprite.Stride : sy*sprite.Stride+s*4]
		dy := y0 + (s - 1 - sy)
		copy(a.Pix[a.offset(x0, dy):], src)
	}
	if a.Padding == 0 {
		return
	}

	for y := y0; y < y0+s; y++ {
		edge := a.offset(x0+s-1, y)
		for p := 0; p < a.Padding; p++ {
			copy(a.Pix[a.offset(x0+s+p, y):a.offset(x0+s+p, y)+4], a.Pix[edge:edge+4])
		}
	}
	top := y0 + s - 1
	rowLen := (s + a.Padding) * 4
	for p := 0; p < a.Padding; p++ {
		dst := a.offset(x0, top+1+p)
		copy(a.Pix[dst:dst+rowLen], a.Pix[a.offset(x0, top):a.offset(x0, top)+rowLen])
	}
}

func (a *Atlas) offset(x, y int) int {
	return (y*a.Width + x) * 4
}

// At returns the RGBA value at (x, y) in bottom-up atlas coordinates.
func (a *Atlas) At(x, y int) [4]byte {
	o := a.offset(x, y)
	return [4]byte{a.Pix[o], a.Pix[o+1], a.Pix[o+2], a.Pix[o+3]}
}

// Image converts the atlas into a conventional top-down image.
func (a *Atlas) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	rowLen := a.Width * 4
	for y := 0; y < a.Height; y++ {
		src := a.Pix[(a.Height-1-y)*rowLen : (a.Height-y)*rowLen]
		copy(img.Pix[y*img.Stride:], src)
	}
	return img
}

// WritePNG encodes the atlas as PNG.
func (a *Atlas) WritePNG(w io.Writer) error {
	return errors.Wrap(png.Encode(w, a.Image()), "encode atlas png")
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// fitSprite returns a size x size image. Tall strips (animation frames)
// contribute their first square frame.
func fitSprite(img *image.RGBA, size int) *image.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == size && h == size {
		return img
	}
	side := min(w, h)
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, image.Rect(0, 0, side, side), xdraw.Src, nil)
	return dst
}

func hasTranslucency(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] < 255 {
			return true
		}
	}
	return false
}

func nextPowerOfTwo(v int) int {
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}
