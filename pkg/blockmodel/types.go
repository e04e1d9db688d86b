package blockmodel

import (
	"encoding/json"
	"maps"
)

// Model is a block model document. Name and Resolved are filled in by the Loader.
type Model struct {
	Parent           string            `json:"parent"`
	AmbientOcclusion *bool             `json:"ambientocclusion"`
	Textures         map[string]string `json:"textures"`
	Elements         []Element         `json:"elements"`

	Name     string `json:"-"`
	Resolved bool   `json:"-"`

	// texture variables and elements before resolution, inherited by children
	rawTextures map[string]string
	rawElements []Element
}

// AO reports whether ambient occlusion is enabled. Unset means true.
func (m *Model) AO() bool {
	return m.AmbientOcclusion == nil || *m.AmbientOcclusion
}

type Element struct {
	From     [3]float32      `json:"from"`
	To       [3]float32      `json:"to"`
	Rotation *Rotation       `json:"rotation"`
	Shade    *bool           `json:"shade"`
	Faces    map[string]Face `json:"faces"`
}

// Shaded reports whether the element receives directional shading. Unset means true.
func (e *Element) Shaded() bool {
	return e.Shade == nil || *e.Shade
}

// Clone returns a deep copy so children never alias a parent's elements.
func (e Element) Clone() Element {
	out := e
	if e.Rotation != nil {
		r := *e.Rotation
		out.Rotation = &r
	}
	if e.Shade != nil {
		s := *e.Shade
		out.Shade = &s
	}
	out.Faces = make(map[string]Face, len(e.Faces))
	for k, f := range e.Faces {
		out.Faces[k] = f.clone()
	}
	return out
}

func cloneElements(in []Element) []Element {
	if in == nil {
		return nil
	}
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

type Rotation struct {
	Origin  [3]float32 `json:"origin"`
	Angle   float32    `json:"angle"`
	Axis    string     `json:"axis"`
	Rescale bool       `json:"rescale"`
}

type Face struct {
	UV        *[4]float32 `json:"uv"`
	Texture   string      `json:"texture"`
	CullFace  string      `json:"cullface"`
	Rotation  int         `json:"rotation"`
	TintIndex *int        `json:"tintindex"`
}

// Tint returns the tint index, -1 when untinted.
func (f Face) Tint() int {
	if f.TintIndex == nil {
		return -1
	}
	return *f.TintIndex
}

// UVFor returns the face UV in 0-16 texel space. When the document omits
// it, the rectangle is derived from the element bounds projected on the face.
func (f Face) UVFor(dir string, e *Element) [4]float32 {
	if f.UV != nil {
		return *f.UV
	}
	from, to := e.From, e.To
	switch dir {
	case "down", "bottom":
		return [4]float32{from[0], 16 - to[2], to[0], 16 - from[2]}
	case "up", "top":
		return [4]float32{from[0], from[2], to[0], to[2]}
	case "north":
		return [4]float32{16 - to[0], 16 - to[1], 16 - from[0], 16 - from[1]}
	case "south":
		return [4]float32{from[0], 16 - to[1], to[0], 16 - from[1]}
	case "west":
		return [4]float32{from[2], 16 - to[1], to[2], 16 - from[1]}
	case "east":
		return [4]float32{16 - to[2], 16 - to[1], 16 - from[2], 16 - from[1]}
	}
	return [4]float32{0, 0, 16, 16}
}

func (f Face) clone() Face {
	if f.UV != nil {
		uv := *f.UV
		f.UV = &uv
	}
	if f.TintIndex != nil {
		ti := *f.TintIndex
		f.TintIndex = &ti
	}
	return f
}

func cloneTextures(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	maps.Copy(out, in)
	return out
}

// BlockState defines the blockstate JSON structure. It maps variants of a block to their corresponding models.
type BlockState struct {
	// Variants is a map of property strings to one or more weighted models.
	Variants map[string]BlockStateVariants `json:"variants"`
	// Multipart is kept raw; multipart blockstates are not baked.
	Multipart json.RawMessage `json:"multipart,omitempty"`
}

// BlockStateVariants is a custom type to handle the fact that the "variants" field can contain either a single object or an array of objects.
type BlockStateVariants []Variant

func (v *BlockStateVariants) UnmarshalJSON(data []byte) error {
	// First, try to unmarshal as an array
	var variants []Variant
	if err := json.Unmarshal(data, &variants); err == nil {
		*v = variants
		return nil
	}

	// If that fails, try to unmarshal as a single object
	var singleVariant Variant
	if err := json.Unmarshal(data, &singleVariant); err != nil {
		return err
	}

	*v = []Variant{singleVariant}
	return nil
}

// Variant is one weighted model choice. Weight <= 0 means 1.
type Variant struct {
	Model  string `json:"model"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	UVLock bool   `json:"uvlock"`
	Weight int    `json:"weight"`
}

// EffectiveWeight returns the selection weight, defaulting to 1.
func (v Variant) EffectiveWeight() int {
	if v.Weight <= 0 {
		return 1
	}
	return v.Weight
}
