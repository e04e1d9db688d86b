// Package blockstate turns blockstate documents into registered block
// states with baked, rotated models.
package blockstate

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"voxelbake/internal/bakery"
	"voxelbake/internal/profiling"
	"voxelbake/internal/registry"
	"voxelbake/pkg/blockmodel"
)

// Config wires the loader to the components it drives.
type Config struct {
	Models   *blockmodel.Loader
	Bakery   *bakery.Bakery
	Textures bakery.TextureSource
	Registry *registry.Registry
	// Rand picks among weighted variants. Nil seeds from 0.
	Rand *rand.Rand
	Log  *zap.Logger
}

// Loader caches the states built for each blockstate path.
type Loader struct {
	cfg   Config
	log   *zap.Logger
	rng   *rand.Rand
	cache map[string][]*registry.BlockState
}

func New(cfg Config) *Loader {
	l := &Loader{
		cfg:   cfg,
		log:   cfg.Log,
		rng:   cfg.Rand,
		cache: make(map[string][]*registry.BlockState),
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewSource(0))
	}
	return l
}

// LoadBlockState builds one state per property string of the blockstate at
// path. Weighted variants are drawn once here, so every placement of a
// state shares the chosen model. Broken entries are logged and skipped.
func (l *Loader) LoadBlockState(path string, block registry.Block) []*registry.BlockState {
	if states, ok := l.cache[path]; ok {
		return states
	}
	defer profiling.Track("blockstate.LoadBlockState")()

	doc, err := l.cfg.Models.LoadBlockState(path)
	if err != nil {
		l.log.Error("failed to load blockstate", zap.String("blockstate", path), zap.Error(err))
		return nil
	}
	if len(doc.Variants) == 0 {
		if doc.Multipart != nil {
			l.log.Error("multipart blockstates are not supported", zap.String("blockstate", path))
		} else {
			l.log.Error("blockstate has no variants", zap.String("blockstate", path))
		}
		return nil
	}

	keys := lo.Keys(doc.Variants)
	sort.Strings(keys)

	var states []*registry.BlockState
	for _, key := range keys {
		variants := doc.Variants[key]
		if len(variants) == 0 {
			l.log.Error("empty variant list", zap.String("blockstate", path), zap.String("variant", key))
			continue
		}

		v := variants[0]
		if len(variants) > 1 {
			total := TotalWeight(variants)
			v = SelectVariant(variants, l.rng.Intn(total))
			l.log.Debug("selected weighted variant",
				zap.String("blockstate", path),
				zap.String("variant", key),
				zap.Int("choices", len(variants)),
				zap.Int("total_weight", total),
				zap.Int("weight", v.EffectiveWeight()))
		}

		if state := l.createState(path, key, v, block); state != nil {
			states = append(states, state)
		}
	}

	l.cache[path] = states
	l.log.Info("loaded blockstate", zap.String("blockstate", path), zap.Int("states", len(states)))
	return states
}

func (l *Loader) createState(path, key string, v blockmodel.Variant, block registry.Block) *registry.BlockState {
	if v.Model == "" {
		l.log.Error("variant has no model", zap.String("blockstate", path), zap.String("variant", key))
		return nil
	}

	model := l.cfg.Models.LoadModel(v.Model)
	baked, err := l.cfg.Bakery.BakeModel(model, l.cfg.Textures)
	if err != nil {
		l.log.Error("failed to bake model", zap.String("model", v.Model), zap.Error(err))
		return nil
	}

	if v.X%360 != 0 || v.Y%360 != 0 {
		if v.UVLock {
			l.log.Debug("uvlock requested but not applied", zap.String("blockstate", path), zap.String("variant", key))
		}
		baked = RotateModel(baked, v.X, v.Y)
	}

	state, err := l.cfg.Registry.AddState(block, ParseProperties(key), baked)
	if err != nil {
		l.log.Error("failed to register state", zap.String("blockstate", path), zap.String("variant", key), zap.Error(err))
		return nil
	}
	return state
}

// TotalWeight sums the effective weights of vs.
func TotalWeight(vs []blockmodel.Variant) int {
	return lo.SumBy(vs, func(v blockmodel.Variant) int { return v.EffectiveWeight() })
}

// SelectVariant returns the variant whose cumulative weight range contains r,
// for r in [0, TotalWeight(vs)).
func SelectVariant(vs []blockmodel.Variant, r int) blockmodel.Variant {
	cumulative := 0
	for _, v := range vs {
		cumulative += v.EffectiveWeight()
		if r < cumulative {
			return v
		}
	}
	return vs[len(vs)-1]
}

// ParseProperties splits "k=v,k=v". Pairs without '=' (such as the
// legacy "normal" key) are ignored.
func ParseProperties(s string) map[string]string {
	props := make(map[string]string)
	if s == "" {
		return props
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		props[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return props
}

// ClearCache forgets built states. Their registry entries are not removed;
// call Registry.ClearStates for that.
func (l *Loader) ClearCache() {
	l.cache = make(map[string][]*registry.BlockState)
}
