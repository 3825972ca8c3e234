// Package extract turns chunks of Anvil region files into heightmap and surface biome
// grids.
//
// Every call walks the same states: the chunk is located in the region header (absent
// chunks end here with a nil result), its payload is read and decompressed (corrupt or
// unsupported payloads end with an error), the NBT is decoded by the go-mc based primary
// decoder and, when that reports a schema it does not handle, by the FallbackReader, and
// finally the heightmap and biome fields are decoded. Missing fields are not errors:
// they leave the matching Chunk field nil.
//
// All I/O is synchronous on the calling goroutine.
package extract

import (
	"errors"

	"go.uber.org/zap"

	"github.com/rhythmatician/lodiffusion/biome"
	"github.com/rhythmatician/lodiffusion/heightmap"
	"github.com/rhythmatician/lodiffusion/region"
)

// Source tells which decoder produced a Chunk.
type Source int

const (
	SourcePrimary Source = iota
	SourceFallback
)

func (s Source) String() string {
	if s == SourceFallback {
		return "fallback"
	}
	return "primary"
}

// Chunk is the extracted data of one chunk. X and Z are world chunk coordinates.
type Chunk struct {
	X         int
	Z         int
	Heightmap *heightmap.Grid
	Biomes    biome.Grid
	Source    Source
}

type Extractor struct {
	cache    *region.Cache
	config   Config
	logger   *zap.Logger
	instr    *Instrumentation
	fallback *FallbackReader
}

type Option func(*Extractor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

func WithConfig(c Config) Option {
	return func(e *Extractor) { e.config = c }
}

// WithInstrumentation records timings into in, overriding Config.Instrument.
func WithInstrumentation(in *Instrumentation) Option {
	return func(e *Extractor) { e.instr = in }
}

// New creates an extractor reading through cache. The cache is shared, not owned: the
// caller decides when to Clear it.
func New(cache *region.Cache, opts ...Option) *Extractor {
	e := &Extractor{cache: cache, config: DefaultConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.config.HeightmapKeys) == 0 {
		e.config.HeightmapKeys = heightmap.DefaultKeys
	}
	if e.instr == nil && e.config.Instrument {
		e.instr = NewInstrumentation(e.logger)
	}
	e.fallback = &FallbackReader{
		MaxPayloadSize: e.config.MaxPayloadSize,
		MaxNBTSize:     e.config.MaxNBTSize,
		HeightmapKeys:  e.config.HeightmapKeys,
	}
	return e
}

// Instrumentation returns the timing recorder, or nil when timing is off.
func (e *Extractor) Instrumentation() *Instrumentation { return e.instr }

// Chunk extracts local chunk (x, z) of the region file at path. A chunk that was never
// generated returns nil, nil.
func (e *Extractor) Chunk(path string, x, z int) (c *Chunk, err error) {
	s := e.instr.begin("chunk")
	defer func() { s.end(err) }()

	h, err := e.cache.Acquire(path)
	if err != nil {
		return nil, &ChunkError{Path: path, X: x, Z: z, Err: err}
	}
	return e.read(h, x, z)
}

// Heightmap extracts only the heightmap of local chunk (x, z).
func (e *Extractor) Heightmap(path string, x, z int) (*heightmap.Grid, error) {
	c, err := e.Chunk(path, x, z)
	if c == nil {
		return nil, err
	}
	return c.Heightmap, err
}

// Biomes extracts only the surface biomes of local chunk (x, z).
func (e *Extractor) Biomes(path string, x, z int) (biome.Grid, error) {
	c, err := e.Chunk(path, x, z)
	if c == nil {
		return nil, err
	}
	return c.Biomes, err
}

func (e *Extractor) read(h *region.Handle, x, z int) (*Chunk, error) {
	data, err := h.ReadChunk(x, z, e.config.MaxPayloadSize, e.config.MaxNBTSize)
	if err != nil {
		return nil, &ChunkError{Path: h.Path(), X: x, Z: z, Err: err}
	}
	if data == nil {
		return nil, nil
	}

	c, err := decodePrimary(data, e.config.HeightmapKeys)
	if errors.Is(err, errSchemaMismatch) {
		e.logger.Debug("Primary decoder rejected chunk, using fallback reader",
			zap.String("path", h.Path()), zap.Int("x", x), zap.Int("z", z), zap.Error(err))
		e.instr.fallback()
		c, err = e.fallback.Read(h, x, z)
	}
	if err != nil {
		return nil, &ChunkError{Path: h.Path(), X: x, Z: z, Err: err}
	}
	if c == nil {
		return nil, nil
	}
	rc := h.Coord()
	c.X, c.Z = region.WorldChunk(rc.X, rc.Z, x, z)
	return c, nil
}

// ReadOnce extracts a single chunk through a private cache that is cleared before
// returning, so no file handle outlives the call.
func ReadOnce(path string, x, z int, opts ...Option) (c *Chunk, err error) {
	cache := region.NewCache(nil)
	defer func() {
		err2 := cache.Clear()
		if err == nil && err2 != nil {
			err = err2
		}
	}()
	return New(cache, opts...).Chunk(path, x, z)
}
