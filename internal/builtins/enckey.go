package builtins

import (
	"encoding/binary"
	"math"

	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/vm"
)

// encodeKey produces a byte encoding of a boxed SQL value such that
// lexicographic byte comparison matches the value's own ordering —
// cockroachdb-cockroach/util/encoding's memcmp-ordering technique,
// reimplemented locally since that package is internal to cockroach's
// module. Used by hash to build a stable hash input across SQL value
// kinds.
//
// A null value always encodes to a single 0x00 byte, never colliding
// with a non-null encoding because every non-null encoding below starts
// with 0x01.
func encodeKey(v any) []byte {
	switch t := v.(type) {
	case Integer:
		if t.Null {
			return []byte{0}
		}
		return encodeOrderedInt(t.Value)
	case Real:
		if t.Null {
			return []byte{0}
		}
		return encodeOrderedFloat(t.Value)
	case Date:
		if t.Null {
			return []byte{0}
		}
		return encodeOrderedInt(int64(t.Value))
	case Timestamp:
		if t.Null {
			return []byte{0}
		}
		return encodeOrderedInt(t.Value)
	case StringVal:
		if t.Null {
			return []byte{0}
		}
		buf := make([]byte, 1+len(t.Value))
		buf[0] = 1
		copy(buf[1:], t.Value)
		return buf
	case Boolean:
		if t.Null {
			return []byte{0}
		}
		if t.Value {
			return []byte{1, 1}
		}
		return []byte{1, 0}
	default:
		return []byte{0}
	}
}

// encodeKeyArg reads the argument local — which may be a boxed SQL value
// (hash/concat/sort keys proper) or a raw primitive scalar used directly
// as a grouping/hash key (@hash also accepts plain numeric arguments) —
// and encodes it. Whether a given argument is boxed isn't known
// statically here, so the boxed map is checked first and a raw 8-byte
// scalar read is the fallback.
func encodeKeyArg(fr *vm.Frame, l bytecode.LocalVar) []byte {
	if b := fr.Boxed(l.Offset()); b != nil {
		return encodeKey(b)
	}
	buf := make([]byte, 9)
	buf[0] = 1
	binary.BigEndian.PutUint64(buf[1:], fr.ReadUint(l.Offset(), 8))
	return buf
}

// encodeOrderedInt flips the sign bit so that two's-complement ordering
// becomes unsigned-big-endian-byte ordering.
func encodeOrderedInt(v int64) []byte {
	buf := make([]byte, 9)
	buf[0] = 1
	binary.BigEndian.PutUint64(buf[1:], uint64(v)^(1<<63))
	return buf
}

// encodeOrderedFloat maps an IEEE-754 double to a bit pattern whose
// unsigned ordering matches float ordering: for non-negative floats,
// flip the sign bit; for negative floats, flip every bit (so more
// negative sorts lower).
func encodeOrderedFloat(v float64) []byte {
	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	buf := make([]byte, 9)
	buf[0] = 1
	binary.BigEndian.PutUint64(buf[1:], bits)
	return buf
}
