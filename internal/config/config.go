// Package config handles bakeinfo configuration loading and management.
package config

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"voxelbake/internal/registry"
)

// Config holds all settings.
type Config struct {
	Pack     PackConfig     `yaml:"pack"`
	Atlas    AtlasConfig    `yaml:"atlas"`
	Meshing  MeshingConfig  `yaml:"meshing"`
	Variants VariantsConfig `yaml:"variants"`
	Blocks   []BlockConfig  `yaml:"blocks"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PackConfig points at a resource pack directory or zip.
type PackConfig struct {
	Path string `yaml:"path"`
}

// AtlasConfig holds atlas packing settings.
type AtlasConfig struct {
	SpriteSize int    `yaml:"sprite_size"`
	Padding    int    `yaml:"padding"`
	DumpPath   string `yaml:"dump_path"` // Write the atlas as PNG when set
}

// MeshingConfig holds chunk meshing settings.
type MeshingConfig struct {
	Workers int `yaml:"workers"`
	Chunks  int `yaml:"chunks"` // Demo chunks per axis
}

// VariantsConfig seeds weighted variant selection.
type VariantsConfig struct {
	Seed int64 `yaml:"seed"`
}

// BlockConfig registers one block and its blockstate file.
type BlockConfig struct {
	Name         string   `yaml:"name"`
	Blockstate   string   `yaml:"blockstate,omitempty"` // Defaults to Name
	Opaque       *bool    `yaml:"opaque,omitempty"`     // Inferred from the model when unset
	Transparency string   `yaml:"transparency,omitempty"`
	CullsSelf    bool     `yaml:"culls_self,omitempty"`
	NoAO         bool     `yaml:"no_ao,omitempty"`
	Tint         []uint32 `yaml:"tint,omitempty"` // 0xRRGGBB per tint index
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// BlockstateName returns the blockstate file name for the block.
func (b BlockConfig) BlockstateName() string {
	if b.Blockstate != "" {
		return b.Blockstate
	}
	return b.Name
}

// Definition builds the registry block for this entry. opaque is used when
// the entry does not say.
func (b BlockConfig) Definition(opaque bool) registry.Block {
	if b.Opaque != nil {
		opaque = *b.Opaque
	}
	def := registry.BlockDefinition{
		Name:               b.Name,
		IsOpaque:           opaque,
		Transparency:       registry.ParseTransparency(b.Transparency),
		CullsSelf:          b.CullsSelf,
		NoAmbientOcclusion: b.NoAO,
	}
	switch len(b.Tint) {
	case 0:
		return &def
	case 1:
		def.TintColor = b.Tint[0]
		return &def
	default:
		return &registry.TintedBlock{BlockDefinition: def, Colors: b.Tint}
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pack: PackConfig{
			Path: "resourcepack",
		},
		Atlas: AtlasConfig{
			SpriteSize: 16,
			Padding:    0,
		},
		Meshing: MeshingConfig{
			Workers: 4,
			Chunks:  2,
		},
		Variants: VariantsConfig{
			Seed: 1,
		},
		Blocks: []BlockConfig{
			{Name: "stone"},
			{Name: "dirt"},
			{Name: "grass_block", Tint: []uint32{0x91BD59}},
			{Name: "oak_leaves", Transparency: "cutout", Tint: []uint32{0x48B518}},
			{Name: "glass", Transparency: "translucent", CullsSelf: true},
			{Name: "furnace"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate rejects settings the pipeline cannot work with.
func (c *Config) Validate() error {
	s := c.Atlas.SpriteSize
	if s <= 0 || s&(s-1) != 0 {
		return errors.Errorf("atlas.sprite_size must be a positive power of two, got %d", s)
	}
	if c.Atlas.Padding < 0 {
		return errors.Errorf("atlas.padding must not be negative, got %d", c.Atlas.Padding)
	}
	if c.Meshing.Workers < 1 {
		return errors.Errorf("meshing.workers must be at least 1, got %d", c.Meshing.Workers)
	}
	for i, b := range c.Blocks {
		if b.Name == "" {
			return errors.Errorf("blocks[%d]: missing name", i)
		}
		switch b.Transparency {
		case "", "opaque", "cutout", "translucent", "transparent":
		default:
			return errors.Errorf("block %s: unknown transparency %q", b.Name, b.Transparency)
		}
	}
	if dups := lo.FindDuplicatesBy(c.Blocks, func(b BlockConfig) string { return b.Name }); len(dups) > 0 {
		return errors.Errorf("block %s listed twice", dups[0].Name)
	}
	return nil
}
