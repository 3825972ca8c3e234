package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rhythmatician/lodiffusion/export"
	"github.com/rhythmatician/lodiffusion/extract"
	"github.com/rhythmatician/lodiffusion/region"
)

func exportRegions(c *cli.Context) (err error) {
	if c.NArg() == 0 {
		return cli.Exit("need at least one region file or directory", 2)
	}
	logger, config := env(c)
	runID := c.App.Metadata["run"].(uuid.UUID)

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	paths, err := discoverRegions(c.Args().Slice())
	if err != nil {
		return err
	}
	logger.Info("Exporting regions", zap.Int("regions", len(paths)), zap.String("out", outDir))

	cache := region.NewCache(logger)
	defer func() {
		if err2 := cache.Clear(); err == nil && err2 != nil {
			err = err2
		}
	}()
	e := extract.New(cache, extract.WithLogger(logger), extract.WithConfig(config))
	w := &export.Writer{RunID: runID, Logger: logger}
	limiter := config.ReadLimiter.Limiter()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, path := range paths {
		if err := limiter.Wait(c.Context); err != nil {
			mu.Lock()
			errs = multierr.Append(errs, err)
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			if err := exportRegion(cache, e, w, path, outDir, logger); err != nil {
				logger.Error("Export region fail", zap.String("path", path), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(path)
	}
	wg.Wait()

	if in := e.Instrumentation(); in != nil {
		s := in.Snapshot()
		logger.Info("Extraction stats",
			zap.Int64("calls", s.Calls), zap.Int64("failures", s.Failures), zap.Int64("fallbacks", s.Fallbacks),
			zap.Duration("mean", s.Mean()), zap.Duration("max", s.Max))
	}
	return errs
}

// exportRegion writes one grid file. Chunks that fail to decode are left out and
// counted; the region fails only when it cannot be opened or nothing in it decoded.
func exportRegion(cache *region.Cache, e *extract.Extractor, w *export.Writer, path, outDir string, logger *zap.Logger) (err error) {
	h, err := cache.Acquire(path)
	if err != nil {
		return err
	}
	coord := h.Coord()
	chunks, chunkErrs := e.Region(path)
	if failed := len(multierr.Errors(chunkErrs)); failed > 0 {
		decoded := 0
		for _, c := range chunks {
			if c != nil {
				decoded++
			}
		}
		logger.Warn("Region has unreadable chunks",
			zap.String("path", path), zap.Int("failed", failed), zap.Int("decoded", decoded))
		if decoded == 0 {
			return chunkErrs
		}
	}

	name := strings.TrimSuffix(region.FileName(coord), ".mca") + ".grid"
	f, err := os.Create(filepath.Join(outDir, name))
	if err != nil {
		return err
	}
	defer func() {
		if err2 := f.Close(); err == nil && err2 != nil {
			err = err2
		}
	}()
	return w.Write(f, coord, chunks)
}

// discoverRegions expands directories to the .mca files directly inside them.
func discoverRegions(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mca") {
				continue
			}
			if _, err := region.ParseFileName(entry.Name()); err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Join(arg, entry.Name()), err)
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	return paths, nil
}
