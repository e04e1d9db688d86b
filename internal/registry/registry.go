// Package registry holds registered blocks and the block-state arena
// addressed by world.StateID handles.
package registry

import (
	"maps"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"voxelbake/internal/bakery"
	"voxelbake/internal/world"
)

// BlockState is one property combination of a block with its baked model.
type BlockState struct {
	Block      Block
	ID         world.StateID
	Properties map[string]string
	Model      *bakery.Model
}

// PropertyString formats the properties as sorted k=v pairs.
func (s *BlockState) PropertyString() string {
	keys := lo.Keys(s.Properties)
	sort.Strings(keys)
	parts := lo.Map(keys, func(k string, _ int) string { return k + "=" + s.Properties[k] })
	return strings.Join(parts, ",")
}

// Registry owns blocks and block states. It is not safe for concurrent
// mutation; concurrent reads are fine once loading is done.
type Registry struct {
	blocks     []Block
	byName     map[string]BlockID
	states     []*BlockState
	generation uint32
}

// New creates a registry holding only air (block 0, state 0).
func New() *Registry {
	r := &Registry{byName: make(map[string]BlockID)}
	air := &BlockDefinition{Name: "air", Transparency: Opaque}
	if _, _, err := Register(r, air); err != nil {
		panic(err)
	}
	r.states = []*BlockState{{Block: air, ID: world.StateAir, Model: bakery.Empty}}
	return r
}

func (r *Registry) Block(id BlockID) Block {
	if int(id) >= len(r.blocks) {
		return nil
	}
	return r.blocks[id]
}

func (r *Registry) BlockByName(name string) (Block, bool) {
	id, ok := r.byName[strings.TrimPrefix(name, "minecraft:")]
	if !ok {
		return nil, false
	}
	return r.blocks[id], true
}

// Blocks returns every registered block in id order.
func (r *Registry) Blocks() []Block {
	return append([]Block(nil), r.blocks...)
}

// AddState appends a new state with the next free id.
func (r *Registry) AddState(block Block, props map[string]string, model *bakery.Model) (*BlockState, error) {
	if block == nil {
		return nil, errors.New("add state: nil block")
	}
	if len(r.states) > int(^world.StateID(0)) {
		return nil, errors.New("add state: state id space exhausted")
	}
	if model == nil {
		model = bakery.Empty
	}
	if props == nil {
		props = map[string]string{}
	}
	s := &BlockState{
		Block:      block,
		ID:         world.StateID(len(r.states)),
		Properties: maps.Clone(props),
		Model:      model,
	}
	r.states = append(r.states, s)
	return s, nil
}

// State resolves a handle. Unknown ids return nil.
func (r *Registry) State(id world.StateID) *BlockState {
	if int(id) >= len(r.states) {
		return nil
	}
	return r.states[id]
}

// States returns every state in id order, air included.
func (r *Registry) States() []*BlockState {
	return append([]*BlockState(nil), r.states...)
}

// StatesOf returns the states of one block.
func (r *Registry) StatesOf(id BlockID) []*BlockState {
	return lo.Filter(r.states, func(s *BlockState, _ int) bool {
		return s.Block.Definition().ID == id
	})
}

// StateCount includes air.
func (r *Registry) StateCount() int {
	return len(r.states)
}

// IsOpaque reports whether the state hides neighbouring faces.
func (r *Registry) IsOpaque(id world.StateID) bool {
	s := r.State(id)
	return s != nil && s.Block.Definition().IsOpaque
}

// ClearStates drops every state except air. Ids restart at 1, so handles
// taken before the clear must be discarded; Generation tells them apart.
func (r *Registry) ClearStates() {
	clear(r.states[1:])
	r.states = r.states[:1]
	r.generation++
}

// Generation increments on every ClearStates.
func (r *Registry) Generation() uint32 {
	return r.generation
}
