package badger

import (
	"encoding/binary"
	"time"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// Key prefixes for different data types. No prefix is a prefix of another.
const (
	memoryPrefix         = "memrec:"
	memoryDatePrefix     = "memdate:"
	memoryTagPrefix      = "memtag:"
	memoryCategoryPrefix = "memcat:"
	memoryFingerprintPfx = "memfp:"
	memoryInsertedPrefix = "memins:"
	memoryIDSeq          = "memseq"
	catalogPrefix        = "catalog:"
	dimensionKey         = "meta:dim"
)

// sep terminates variable-length components so "work" never prefixes "workshop".
const sep = 0x00

func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeMemoryKey generates the primary key for a memory.
// IDs are big-endian so prefix iteration visits memories in ID order.
func makeMemoryKey(id core.ID) []byte {
	return appendID([]byte(memoryPrefix), id)
}

// makeDatePrefix generates the index prefix for one date field.
// Format: prefix field sep
func makeDatePrefix(field core.DateField) []byte {
	buf := append([]byte(memoryDatePrefix), string(field)...)
	return append(buf, sep)
}

// makeDateKey generates a composite key for the date index.
// Format: prefix field sep short sep id
func makeDateKey(field core.DateField, short string, id core.ID) []byte {
	buf := append(makeDatePrefix(field), short...)
	buf = append(buf, sep)
	return appendID(buf, id)
}

// makePartialDateKey generates the seek key for the first entry on short.
func makePartialDateKey(field core.DateField, short string) []byte {
	return append(makeDatePrefix(field), short...)
}

// makeTermKey generates an index key for a tag or category.
// Format: prefix term sep id
func makeTermKey(prefix, term string, id core.ID) []byte {
	buf := append([]byte(prefix), term...)
	buf = append(buf, sep)
	return appendID(buf, id)
}

// splitTermKey returns the term of a tag or category index key.
func splitTermKey(prefix string, key []byte) string {
	rest := key[len(prefix):]
	if len(rest) < 9 {
		return ""
	}
	return string(rest[:len(rest)-9])
}

// makeFingerprintKey generates the key for the content fingerprint index.
func makeFingerprintKey(fp core.ID) []byte {
	return appendID([]byte(memoryFingerprintPfx), fp)
}

// makeInsertedKey generates a composite key for the insertion-time index.
// Format: prefix micros id
func makeInsertedKey(ts time.Time, id core.ID) []byte {
	buf := binary.BigEndian.AppendUint64([]byte(memoryInsertedPrefix), uint64(ts.UnixMicro()))
	return appendID(buf, id)
}

// makeCatalogKey generates the key for a catalog category.
func makeCatalogKey(name string) []byte {
	return append([]byte(catalogPrefix), name...)
}
