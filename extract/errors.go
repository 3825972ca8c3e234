package extract

import (
	"errors"
	"fmt"
)

// errSchemaMismatch is returned by the primary decoder when the chunk is not in the
// layout it understands. It never leaves this package: the dispatcher reroutes to the
// fallback reader instead.
var errSchemaMismatch = errors.New("extract: chunk schema mismatch")

// ChunkError names the region file and local chunk a failure happened in. It unwraps to
// the region and nbt sentinel errors.
type ChunkError struct {
	Path string
	X    int
	Z    int
	Err  error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("could not read chunk %d,%d in %s: %v", e.X, e.Z, e.Path, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }
