package blockmodel

import (
	"encoding/json"
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FallbackName names the model substituted for missing or broken documents.
const FallbackName = "builtin/missing"

// Loader reads model and blockstate documents from an assets filesystem
// rooted at assets/<namespace>.
type Loader struct {
	fsys       fs.FS
	log        *zap.Logger
	modelCache map[string]*Model
	fallback   *Model
}

func NewLoader(fsys fs.FS, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		fsys:       fsys,
		log:        log,
		modelCache: make(map[string]*Model),
	}
}

// NormalizeName strips the minecraft namespace and defaults the folder to block/.
func NormalizeName(name string) string {
	name = strings.TrimPrefix(name, "minecraft:")
	if !strings.Contains(name, "/") {
		name = "block/" + name
	}
	return name
}

// LoadModel never fails: a model that cannot be loaded is replaced by the
// fallback cube, which is cached under the requested name.
func (l *Loader) LoadModel(name string) *Model {
	m, err := l.Load(name)
	if err != nil {
		l.log.Error("failed to load model, using fallback", zap.String("model", name), zap.Error(err))
		fb := l.Fallback()
		l.modelCache[NormalizeName(name)] = fb
		return fb
	}
	return m
}

// Load reads, merges and resolves a model. Cached models are returned as is.
func (l *Loader) Load(name string) (*Model, error) {
	name = NormalizeName(name)
	if model, ok := l.modelCache[name]; ok {
		return model, nil
	}

	data, err := fs.ReadFile(l.fsys, path.Join("models", name+".json"))
	if err != nil {
		return nil, errors.Wrap(err, "could not read model file")
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal model json %s", name)
	}
	model.Name = name
	if model.Textures == nil {
		model.Textures = make(map[string]string)
	}
	model.rawTextures = cloneTextures(model.Textures)
	model.rawElements = cloneElements(model.Elements)

	// Cached before the parent is loaded so a parent chain that loops back
	// finds this entry instead of recursing forever.
	l.modelCache[name] = &model

	if model.Parent != "" && !strings.HasPrefix(model.Parent, "builtin/") {
		parent, err := l.Load(model.Parent)
		if err != nil {
			l.log.Warn("missing parent model, inheriting from fallback",
				zap.String("model", name), zap.String("parent", model.Parent), zap.Error(err))
			parent = l.Fallback()
		}
		l.inherit(&model, parent)
	}

	l.ResolveTextures(&model)
	return &model, nil
}

func (l *Loader) inherit(m, parent *Model) {
	if m.AmbientOcclusion == nil && parent.AmbientOcclusion != nil {
		ao := *parent.AmbientOcclusion
		m.AmbientOcclusion = &ao
	}

	parentTextures, parentElements := parent.rawTextures, parent.rawElements
	if parentTextures == nil {
		parentTextures = parent.Textures
	}
	if parentElements == nil {
		parentElements = parent.Elements
	}

	for key, val := range parentTextures {
		if _, ok := m.Textures[key]; !ok {
			m.Textures[key] = val
		}
	}
	if len(m.Elements) == 0 {
		m.Elements = cloneElements(parentElements)
	}

	m.rawTextures = cloneTextures(m.Textures)
	m.rawElements = cloneElements(m.Elements)
}

// ResolveTextures replaces every #variable in the texture map and in element
// faces with its terminal literal. Variables that cannot be resolved keep
// their text. Already resolved models are left untouched.
func (l *Loader) ResolveTextures(m *Model) {
	if m.Resolved {
		return
	}
	for key, val := range m.Textures {
		if res, ok := l.ResolveTexture(val, m); ok {
			m.Textures[key] = res
		}
	}
	for i := range m.Elements {
		for faceName, face := range m.Elements[i].Faces {
			if res, ok := l.ResolveTexture(face.Texture, m); ok && res != face.Texture {
				face.Texture = res
				m.Elements[i].Faces[faceName] = face
			}
		}
	}
	m.Resolved = true
}

// ResolveTexture follows a #variable chain through the model's textures.
// It returns false for a cycle or a variable that is never defined.
func (l *Loader) ResolveTexture(ref string, m *Model) (string, bool) {
	visited := make(map[string]struct{})
	for strings.HasPrefix(ref, "#") {
		key := strings.TrimPrefix(ref, "#")
		if _, seen := visited[key]; seen {
			l.log.Error("cyclic texture variable", zap.String("model", m.Name), zap.String("variable", key))
			return "", false
		}
		visited[key] = struct{}{}

		next, ok := m.Textures[key]
		if !ok {
			l.log.Warn("unresolved texture variable", zap.String("model", m.Name), zap.String("variable", key))
			return "", false
		}
		ref = next
	}
	return strings.TrimPrefix(ref, "minecraft:"), true
}

// Fallback returns the full cube textured "missing" on every face.
func (l *Loader) Fallback() *Model {
	if l.fallback != nil {
		return l.fallback
	}
	faces := make(map[string]Face, 6)
	for _, dir := range []string{"down", "up", "north", "south", "west", "east"} {
		faces[dir] = Face{Texture: "#all", CullFace: dir}
	}
	m := &Model{
		Name:     FallbackName,
		Textures: map[string]string{"all": "missing"},
		Elements: []Element{{From: [3]float32{0, 0, 0}, To: [3]float32{16, 16, 16}, Faces: faces}},
	}
	l.ResolveTextures(m)
	l.fallback = m
	return m
}

// IsCached reports whether name has been loaded.
func (l *Loader) IsCached(name string) bool {
	_, ok := l.modelCache[NormalizeName(name)]
	return ok
}

// ClearCache drops every loaded model. Models returned earlier stay valid
// but are no longer shared with later loads.
func (l *Loader) ClearCache() {
	l.modelCache = make(map[string]*Model)
	l.fallback = nil
}

// LoadBlockState reads blockstates/<name>.json.
func (l *Loader) LoadBlockState(name string) (*BlockState, error) {
	name = strings.TrimPrefix(name, "minecraft:")
	data, err := fs.ReadFile(l.fsys, path.Join("blockstates", name+".json"))
	if err != nil {
		return nil, errors.Wrap(err, "could not read blockstate file")
	}

	var blockState BlockState
	if err := json.Unmarshal(data, &blockState); err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal blockstate json %s", name)
	}

	return &blockState, nil
}
