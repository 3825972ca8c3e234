package extract

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rhythmatician/lodiffusion/region"
)

// Batch extracts many chunks of one region through a single handle. The result always
// has one slot per coordinate; slots stay nil for chunks that do not exist or failed.
// Per-chunk failures are logged and returned combined, without stopping the batch.
func (e *Extractor) Batch(path string, coords []region.LocalCoord) (chunks []*Chunk, err error) {
	s := e.instr.begin("batch")
	defer func() { s.end(err) }()

	chunks = make([]*Chunk, len(coords))
	h, err := e.cache.Acquire(path)
	if err != nil {
		return chunks, err
	}
	for i, c := range coords {
		chunk, readErr := e.read(h, c.X, c.Z)
		if readErr != nil {
			e.logger.Warn("Skip chunk", zap.String("path", path), zap.Int("x", c.X), zap.Int("z", c.Z), zap.Error(readErr))
			err = multierr.Append(err, readErr)
			continue
		}
		chunks[i] = chunk
	}
	return chunks, err
}

// Region extracts all 1024 slots of a region, indexed z*32+x.
func (e *Extractor) Region(path string) ([]*Chunk, error) {
	return e.Batch(path, AllSlots())
}

// AllSlots lists every local coordinate of a region in index order.
func AllSlots() []region.LocalCoord {
	coords := make([]region.LocalCoord, 0, 1024)
	for z := 0; z < 32; z++ {
		for x := 0; x < 32; x++ {
			coords = append(coords, region.LocalCoord{X: x, Z: z})
		}
	}
	return coords
}
