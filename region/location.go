package region

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	maxOffsets = 1024
	// SectorSize is the alignment unit of chunk payloads and the size of each header table.
	SectorSize = 4096
	// headerSectors covers the location table and the unused timestamp table.
	headerSectors = 2
)

var ErrCorruptLocationTable = errors.New("region: corrupt location table")

// Location is the byte range a chunk payload occupies.
type Location struct {
	Offset  int64
	Sectors int
}

// LocationTable holds the 1024 raw big-endian entries of a region header.
type LocationTable [maxOffsets]uint32

// ParseLocationTable reads the first SectorSize bytes of header. An empty header is a
// region the game created but never wrote a chunk into.
func ParseLocationTable(header []byte) (table LocationTable, err error) {
	if len(header) == 0 {
		return table, nil
	}
	if len(header) < SectorSize {
		return table, fmt.Errorf("%w: header is %d bytes", ErrCorruptLocationTable, len(header))
	}
	for i := range table {
		table[i] = binary.BigEndian.Uint32(header[i*4:])
	}
	return table, nil
}

// EntryOffset is the byte position of local chunk (x, z)'s entry in the header.
func EntryOffset(x, z int) int64 {
	return int64(z*32+x) * 4
}

// Lookup finds the payload of local chunk (x, z). Missing, half-written and
// header-overlapping entries all report false.
func (t *LocationTable) Lookup(x, z int) (Location, bool) {
	if x < 0 || x >= 32 || z < 0 || z >= 32 {
		return Location{}, false
	}
	return DecodeLocation(t[z*32+x])
}

// Exists reports whether local chunk (x, z) has a usable location entry.
func (t *LocationTable) Exists(x, z int) bool {
	_, ok := t.Lookup(x, z)
	return ok
}

// DecodeLocation splits a raw table entry into offset and sector count.
func DecodeLocation(entry uint32) (Location, bool) {
	sectorNumber := entry >> 8
	occupiedSectors := entry & 0xff
	if sectorNumber == 0 || occupiedSectors == 0 || sectorNumber < headerSectors {
		return Location{}, false
	}
	return Location{
		Offset:  int64(sectorNumber) * SectorSize,
		Sectors: int(occupiedSectors),
	}, true
}
