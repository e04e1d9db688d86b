// Command bakeinfo loads a resource pack, bakes the configured blocks,
// meshes a small demo world and reports what it built.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"voxelbake/internal/config"
	"voxelbake/internal/logger"
	"voxelbake/internal/pipeline"
	"voxelbake/internal/profiling"
	"voxelbake/internal/world"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		// logger is not up yet
		os.Stderr.WriteString("bakeinfo: " + err.Error() + "\n")
		os.Exit(2)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		os.Stderr.WriteString("bakeinfo: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("bakeinfo failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	p, err := pipeline.Open(cfg, logger.Log)
	if err != nil {
		return err
	}
	defer p.Close()

	pack := p.Textures.Pack().Info
	a := p.Textures.Atlas()
	logger.Info("resource pack loaded",
		zap.String("pack", pack.Name),
		zap.Int("format", pack.Format),
		zap.String("description", pack.Description),
		zap.Int("textures", len(p.Textures.Names())),
		zap.Int("atlas_width", a.Width),
		zap.Int("atlas_height", a.Height))

	if err := p.LoadBlocks(); err != nil {
		return err
	}
	for _, b := range p.Registry.Blocks()[1:] {
		def := b.Definition()
		logger.Debug("block",
			zap.String("name", def.Name),
			zap.Bool("opaque", def.IsOpaque),
			zap.Stringer("transparency", def.Transparency),
			zap.Int("states", len(p.StatesOf(def.Name))))
	}

	if cfg.Atlas.DumpPath != "" {
		if err := p.DumpAtlas(cfg.Atlas.DumpPath); err != nil {
			return err
		}
		logger.Info("atlas written", zap.String("path", cfg.Atlas.DumpPath))
	}

	store := world.NewChunkStore()
	cells := p.FillDemo(store, cfg.Meshing.Chunks)
	stats, err := p.Mesh(ctx, store)
	if err != nil {
		return err
	}
	logger.Info("meshed demo world",
		zap.Int("cells", cells),
		zap.Int("chunks", stats.Chunks),
		zap.Int("opaque_quads", stats.OpaqueQuads),
		zap.Int("transparent_quads", stats.TransparentQuads),
		zap.Int("workers", cfg.Meshing.Workers),
		zap.Duration("elapsed", time.Since(start)))

	logger.Info("profile", zap.String("top", profiling.TopN(5)))
	profiling.Report(logger.L("profiling"))
	return nil
}
