// Package textures loads a resource pack's block textures into an atlas
// and answers name -> UV rectangle lookups.
package textures

import (
	"image"
	"image/color"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"voxelbake/internal/atlas"
	"voxelbake/internal/profiling"
)

// MissingTexture is the name of the generated placeholder sprite used by
// the fallback model.
const MissingTexture = "missing"

const blockTextureDir = "textures/block"

// Options control atlas packing.
type Options struct {
	SpriteSize int
	Padding    int
}

// DefaultOptions matches vanilla 16x16 block textures.
func DefaultOptions() Options {
	return Options{SpriteSize: 16, Padding: 0}
}

// Info is the atlas rectangle of one texture.
type Info struct {
	UVOffset    mgl32.Vec2
	UVSize      mgl32.Vec2
	Grid        [2]int
	Atlas       *atlas.Atlas
	Translucent bool
	Animated    bool
}

// Registry owns the current pack, its atlas and the name -> Info map.
type Registry struct {
	opts       Options
	log        *zap.Logger
	pack       *Pack
	builder    *atlas.Builder
	atlas      *atlas.Atlas
	infos      map[string]Info
	animations map[string]*AnimatedTexture
}

func NewRegistry(opts Options, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SpriteSize <= 0 {
		opts.SpriteSize = DefaultOptions().SpriteSize
	}
	return &Registry{
		opts:       opts,
		log:        log,
		infos:      make(map[string]Info),
		animations: make(map[string]*AnimatedTexture),
	}
}

// LoadResourcePack opens the pack at path and builds the atlas from its block textures.
func (r *Registry) LoadResourcePack(path string) error {
	p, err := OpenPack(path)
	if err != nil {
		return err
	}
	if err := r.LoadPack(p); err != nil {
		p.Close()
		return err
	}
	return nil
}

// LoadPack replaces the current pack with p and rebuilds everything. When
// the build fails the previous pack and atlas stay in place.
func (r *Registry) LoadPack(p *Pack) error {
	b, err := r.build(p)
	if err != nil {
		return err
	}
	if r.pack != nil && r.pack != p {
		r.pack.Close()
	}
	r.pack = p
	r.publish(b)
	return nil
}

// ReloadResourcePack rebuilds the atlas from the current pack.
func (r *Registry) ReloadResourcePack() error {
	if r.pack == nil {
		return errors.New("no resource pack loaded")
	}
	r.log.Info("reloading resource pack", zap.String("pack", r.pack.Info.Name))
	b, err := r.build(r.pack)
	if err != nil {
		return err
	}
	r.publish(b)
	return nil
}

// SwitchResourcePack loads a different pack from path.
func (r *Registry) SwitchResourcePack(path string) error {
	r.log.Info("switching resource pack", zap.String("path", path))
	return r.LoadResourcePack(path)
}

func (r *Registry) clear() {
	r.infos = make(map[string]Info)
	r.animations = make(map[string]*AnimatedTexture)
	r.atlas = nil
	if r.builder != nil {
		r.builder.Clear()
	}
}

// built is the result of one atlas build, published only when complete.
type built struct {
	builder    *atlas.Builder
	atlas      *atlas.Atlas
	infos      map[string]Info
	animations map[string]*AnimatedTexture
}

func (r *Registry) build(p *Pack) (*built, error) {
	defer profiling.Track("textures.build")()

	if p.Info.Format != RequiredPackFormat {
		r.log.Warn("unexpected pack format",
			zap.String("pack", p.Info.Name),
			zap.Int("format", p.Info.Format),
			zap.Int("expected", RequiredPackFormat))
	}

	assets := p.Assets()
	b := &built{
		builder:    atlas.NewBuilder(assets, r.log),
		infos:      make(map[string]Info),
		animations: make(map[string]*AnimatedTexture),
	}

	if _, err := fs.Stat(assets, blockTextureDir); err != nil {
		r.log.Warn("pack has no block textures", zap.String("pack", p.Info.Name))
	} else if err := r.scanBlockTextures(assets, b); err != nil {
		return nil, err
	}

	b.builder.AddImage(MissingTexture, missingSprite(r.opts.SpriteSize))

	a, positions, err := b.builder.BuildAtlas(r.opts.SpriteSize, r.opts.Padding)
	if err != nil {
		return nil, errors.Wrap(err, "build atlas")
	}
	b.atlas = a
	for name, pos := range positions {
		_, animated := b.animations[name]
		b.infos[name] = Info{
			UVOffset:    pos.UVOffset,
			UVSize:      pos.UVSize,
			Grid:        pos.Grid,
			Atlas:       a,
			Translucent: pos.Translucent,
			Animated:    animated,
		}
	}

	r.log.Info("resource pack loaded",
		zap.String("pack", p.Info.Name),
		zap.String("description", p.Info.Description),
		zap.Int("textures", len(b.infos)),
		zap.Int("animated", len(b.animations)),
		zap.Int("atlas_width", a.Width),
		zap.Int("atlas_height", a.Height))
	return b, nil
}

func (r *Registry) publish(b *built) {
	r.clear()
	r.builder = b.builder
	r.atlas = b.atlas
	r.infos = b.infos
	r.animations = b.animations
}

func (r *Registry) scanBlockTextures(assets fs.FS, b *built) error {
	err := fs.WalkDir(assets, blockTextureDir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(file), ".png") {
			return nil
		}
		rel := strings.TrimPrefix(file, blockTextureDir+"/")
		name := "block/" + strings.TrimSuffix(rel, path.Ext(rel))

		if n, anim := r.addAnimated(assets, b.builder, name, file); anim != nil {
			b.animations[name] = NewAnimatedTexture(name, anim, n)
			return nil
		}
		if err := b.builder.AddTexture(name, file); err != nil {
			r.log.Error("failed to load texture", zap.String("name", name), zap.Error(err))
		}
		return nil
	})
	return errors.Wrapf(err, "scan %s", blockTextureDir)
}

// addAnimated packs every frame of a texture that has a sibling .mcmeta.
// It returns a nil animation for static textures.
func (r *Registry) addAnimated(assets fs.FS, builder *atlas.Builder, name, file string) (int, *Animation) {
	meta, err := fs.ReadFile(assets, file+".mcmeta")
	if err != nil {
		return 0, nil
	}
	anim, err := ParseAnimation(meta)
	if err != nil {
		r.log.Warn("ignoring texture metadata", zap.String("name", name), zap.Error(err))
		return 0, nil
	}

	f, err := assets.Open(file)
	if err != nil {
		r.log.Error("failed to open animated texture", zap.String("name", name), zap.Error(err))
		return 0, nil
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		r.log.Error("failed to decode animated texture", zap.String("name", name), zap.Error(err))
		return 0, nil
	}

	bounds := img.Bounds()
	side := bounds.Dx()
	count := max(bounds.Dy()/max(side, 1), 1)
	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok || count == 1 {
		builder.AddImage(name, img)
		return 1, anim
	}
	for i := 0; i < count; i++ {
		rect := image.Rect(bounds.Min.X, bounds.Min.Y+i*side, bounds.Max.X, bounds.Min.Y+(i+1)*side)
		builder.AddImage(FrameSpriteName(name, i), sub.SubImage(rect))
	}
	return count, anim
}

func normalizeName(name string) string {
	return strings.TrimPrefix(name, "minecraft:")
}

// GetTextureInfo returns the atlas rectangle for name. Unknown names are
// logged and get the whole atlas, origin (0,0) and size (1,1).
func (r *Registry) GetTextureInfo(name string) Info {
	if info, ok := r.infos[normalizeName(name)]; ok {
		return info
	}
	r.log.Warn("texture not found in registry", zap.String("name", name))
	return Info{UVSize: mgl32.Vec2{1, 1}, Atlas: r.atlas}
}

func (r *Registry) HasTexture(name string) bool {
	_, ok := r.infos[normalizeName(name)]
	return ok
}

// Names returns every registered texture name, sorted.
func (r *Registry) Names() []string {
	names := lo.Keys(r.infos)
	sort.Strings(names)
	return names
}

func (r *Registry) Atlas() *atlas.Atlas { return r.atlas }

func (r *Registry) Pack() *Pack { return r.pack }

// UpdateAnimations advances every animated texture.
func (r *Registry) UpdateAnimations(dt time.Duration) {
	for _, a := range r.animations {
		a.Update(dt)
	}
}

// AnimatedUV returns the rectangle of the frame currently shown for name.
func (r *Registry) AnimatedUV(name string) (Info, bool) {
	a, ok := r.animations[normalizeName(name)]
	if !ok {
		return Info{}, false
	}
	info, ok := r.infos[a.CurrentSprite()]
	if !ok {
		return Info{}, false
	}
	info.Animated = true
	return info, true
}

// Animation returns the animation state for name.
func (r *Registry) Animation(name string) (*AnimatedTexture, bool) {
	a, ok := r.animations[normalizeName(name)]
	return a, ok
}

// Close releases the current pack.
func (r *Registry) Close() error {
	err := r.pack.Close()
	r.pack = nil
	r.clear()
	return err
}

// missingSprite is a magenta and black checkerboard.
func missingSprite(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	half := max(size/2, 1)
	magenta := color.RGBA{R: 248, B: 248, A: 255}
	black := color.RGBA{A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/half+y/half)%2 == 0 {
				img.SetRGBA(x, y, magenta)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img
}
