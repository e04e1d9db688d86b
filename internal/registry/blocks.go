package registry

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"voxelbake/pkg/blockmodel"
)

// BlockID identifies a registered block. Air is always 0.
type BlockID uint16

const AirID BlockID = 0

// Transparency selects the mesh buffer a block's quads go to.
type Transparency int

const (
	Opaque Transparency = iota
	Cutout
	Translucent
)

func (t Transparency) String() string {
	switch t {
	case Cutout:
		return "cutout"
	case Translucent:
		return "translucent"
	}
	return "opaque"
}

// ParseTransparency maps a config string to a Transparency. Unknown values are Opaque.
func ParseTransparency(s string) Transparency {
	switch strings.ToLower(s) {
	case "cutout":
		return Cutout
	case "translucent", "transparent":
		return Translucent
	}
	return Opaque
}

// Block is anything that can be registered.
type Block interface {
	Definition() *BlockDefinition
}

// Tinter supplies the colour multiplier for a quad's tint index.
type Tinter interface {
	Tint(tintIndex int) mgl32.Vec3
}

// BlockDefinition defines the properties of a block type
type BlockDefinition struct {
	ID                 BlockID
	Name               string
	IsOpaque           bool
	Transparency       Transparency
	CullsSelf          bool
	NoAmbientOcclusion bool
	TintColor          uint32 // 0xRRGGBB, 0 means untinted
}

func (d *BlockDefinition) Definition() *BlockDefinition { return d }

// Tint returns TintColor for any tinted quad, white otherwise.
func (d *BlockDefinition) Tint(tintIndex int) mgl32.Vec3 {
	if tintIndex < 0 || d.TintColor == 0 {
		return mgl32.Vec3{1, 1, 1}
	}
	return RGB(d.TintColor)
}

// TintedBlock carries one colour per tint index, e.g. grass and foliage.
type TintedBlock struct {
	BlockDefinition
	Colors []uint32
}

func (b *TintedBlock) Definition() *BlockDefinition { return &b.BlockDefinition }

func (b *TintedBlock) Tint(tintIndex int) mgl32.Vec3 {
	if tintIndex >= 0 && tintIndex < len(b.Colors) {
		return RGB(b.Colors[tintIndex])
	}
	return b.BlockDefinition.Tint(tintIndex)
}

// RGB unpacks 0xRRGGBB into 0-1 components.
func RGB(c uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((c>>16)&0xFF) / 255,
		float32((c>>8)&0xFF) / 255,
		float32(c&0xFF) / 255,
	}
}

// TintOf returns the tint colour a block applies to tintIndex.
func TintOf(b Block, tintIndex int) mgl32.Vec3 {
	if t, ok := b.(Tinter); ok {
		return t.Tint(tintIndex)
	}
	return b.Definition().Tint(tintIndex)
}

// Register adds b to r, assigns its id and returns it.
func Register[T Block](r *Registry, b T) (T, BlockID, error) {
	def := b.Definition()
	if def.Name == "" {
		return b, 0, errors.New("register: block has no name")
	}
	if _, exists := r.byName[def.Name]; exists {
		return b, 0, errors.Errorf("register: block %q already registered", def.Name)
	}
	if len(r.blocks) > int(^BlockID(0)) {
		return b, 0, errors.New("register: block id space exhausted")
	}

	def.ID = BlockID(len(r.blocks))
	r.blocks = append(r.blocks, b)
	r.byName[def.Name] = def.ID
	return b, def.ID, nil
}

// IsFullCube reports whether any element spans the whole block, the
// usual sign that a block hides its neighbours' faces.
func IsFullCube(m *blockmodel.Model) bool {
	const epsilon = float32(0.001)
	isZero := func(v [3]float32) bool {
		return v[0] > -epsilon && v[0] < epsilon &&
			v[1] > -epsilon && v[1] < epsilon &&
			v[2] > -epsilon && v[2] < epsilon
	}
	isSixteen := func(v [3]float32) bool {
		return v[0] > 16.0-epsilon && v[0] < 16.0+epsilon &&
			v[1] > 16.0-epsilon && v[1] < 16.0+epsilon &&
			v[2] > 16.0-epsilon && v[2] < 16.0+epsilon
	}

	for _, e := range m.Elements {
		if e.Rotation == nil && isZero(e.From) && isSixteen(e.To) {
			return true
		}
	}
	return false
}
