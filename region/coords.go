package region

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	mcregion "github.com/Tnze/go-mc/save/region"
)

// ErrInvalidFileName is returned for names that do not look like r.<x>.<z>.mca.
var ErrInvalidFileName = errors.New("region: invalid region file name")

var fileNamePattern = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// Coord is a region position, one unit per 32x32 chunks.
type Coord struct {
	X int
	Z int
}

// LocalCoord addresses a chunk slot inside one region, both axes in [0,32).
type LocalCoord struct {
	X int
	Z int
}

// ParseFileName extracts region coordinates from the base name of path.
func ParseFileName(path string) (Coord, error) {
	name := filepath.Base(path)
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	x, err := strconv.Atoi(m[1])
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %q: %v", ErrInvalidFileName, name, err)
	}
	z, err := strconv.Atoi(m[2])
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %q: %v", ErrInvalidFileName, name, err)
	}
	return Coord{X: x, Z: z}, nil
}

// FileName is the inverse of ParseFileName.
func FileName(c Coord) string {
	return fmt.Sprintf("r.%d.%d.mca", c.X, c.Z)
}

// WorldChunk converts a region position and a local slot to world chunk coordinates.
func WorldChunk(rx, rz, lx, lz int) (cx, cz int) {
	return rx*32 + lx, rz*32 + lz
}

// At returns the region containing world chunk (cx, cz).
func At(cx, cz int) Coord {
	x, z := mcregion.At(cx, cz)
	return Coord{X: x, Z: z}
}

// In returns the slot of world chunk (cx, cz) inside its region.
func In(cx, cz int) LocalCoord {
	x, z := mcregion.In(cx, cz)
	return LocalCoord{X: x, Z: z}
}

// Resolver memoises ParseFileName by absolute path. It is safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	cache map[string]Coord
}

func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]Coord)}
}

func (r *Resolver) Resolve(path string) (Coord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Coord{}, err
	}
	r.mu.RLock()
	c, ok := r.cache[abs]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	c, err = ParseFileName(abs)
	if err != nil {
		return Coord{}, err
	}
	r.mu.Lock()
	r.cache[abs] = c
	r.mu.Unlock()
	return c, nil
}

// Len reports how many paths have been resolved.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
