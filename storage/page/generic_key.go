// this code is grounded on the fixed-width GenericKey<N> type BusTub uses
// for index keys, adapted to Go as a parameterized-by-size byte slice
// rather than a C++ template, with an injected comparator rather than
// operator overloading.

package page

import "encoding/binary"

// KeySize enumerates the supported fixed widths for a GenericKey.
type KeySize int

const (
	KeySize4  KeySize = 4
	KeySize8  KeySize = 8
	KeySize16 KeySize = 16
	KeySize32 KeySize = 32
	KeySize64 KeySize = 64
)

// GenericKey is a fixed-width, comparator-injected index key. It holds raw
// bytes; all it promises is a stable size and the ability to be populated
// from an int64 for the bulk-load test helpers.
type GenericKey struct {
	data []byte
}

// NewGenericKey returns a zero-filled key of the given width.
func NewGenericKey(size KeySize) GenericKey {
	return GenericKey{data: make([]byte, size)}
}

// SetFromInteger widens an integer into the key's fixed-width
// little-endian byte representation, matching the test-only bulk-load
// input format. Widths narrower than 8 bytes (e.g. KeySize4) keep only
// the integer's low-order bytes.
func (k *GenericKey) SetFromInteger(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	for i := range k.data {
		k.data[i] = 0
	}
	copy(k.data, buf[:])
}

// ToInteger recovers the integer a key was populated with via
// SetFromInteger. Test-only convenience, not part of the on-disk contract.
func (k GenericKey) ToInteger() int64 {
	var buf [8]byte
	copy(buf[:], k.data)
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// Bytes returns the key's raw fixed-width representation.
func (k GenericKey) Bytes() []byte {
	return k.data
}

// Size returns the key's fixed width in bytes.
func (k GenericKey) Size() int {
	return len(k.data)
}

// SetFromBytes copies raw bytes into the key, truncating or zero-padding
// to the key's fixed width.
func (k *GenericKey) SetFromBytes(b []byte) {
	for i := range k.data {
		if i < len(b) {
			k.data[i] = b[i]
		} else {
			k.data[i] = 0
		}
	}
}

// KeyComparator is the injected total-order comparator B+ tree pages and
// the tree core use to compare two GenericKeys: negative if a < b, zero if
// equal, positive if a > b.
type KeyComparator func(a, b GenericKey) int

// IntegerComparator compares keys as little-endian int64s, the
// comparator used throughout this package's tests and in the concrete
// scenarios the tree is validated against.
func IntegerComparator(a, b GenericKey) int {
	av, bv := a.ToInteger(), b.ToInteger()
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}
