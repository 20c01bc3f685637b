package vm

import (
	"encoding/binary"
	"math"
	"sync"
	"unsafe"

	"github.com/turingcompl33t/tpl/internal/bytecode"
)

// Frame-size policy (spec.md §4.6.1): small frames are served from a
// recycled buffer pool (the Go-idiomatic analogue of "use the host
// stack"), oversized frames fall back to a plain heap allocation that is
// simply garbage collected once the frame is released.
const (
	softFrameThreshold = 4 * 1024
	hardFrameThreshold = 16 * 1024
)

var framePool = sync.Pool{
	New: func() any {
		buf := make([]byte, hardFrameThreshold)
		return &buf
	},
}

// Frame is one function call's activation record: a raw byte buffer for
// scalar and by-value struct/array storage, plus a side table for
// "boxed" locals — pointers, SQL values, and opaque runtime objects —
// that have no stable flat byte representation in pure Go without
// unsafe tricks this package otherwise avoids.
type Frame struct {
	bytes []byte
	boxed map[uint32]any
	debug bool
}

func acquireFrame(size int, debug bool) (*Frame, func()) {
	if size <= hardFrameThreshold {
		bufp := framePool.Get().(*[]byte)
		buf := (*bufp)[:size]
		for i := range buf {
			buf[i] = 0
		}
		return &Frame{bytes: buf, debug: debug}, func() {
			*bufp = buf[:hardFrameThreshold]
			framePool.Put(bufp)
		}
	}
	return &Frame{bytes: make([]byte, size), debug: debug}, func() {}
}

func (f *Frame) checkBounds(off uint32, size int) {
	if f.debug && int(off)+size > len(f.bytes) {
		panic(&FrameBoundsError{Offset: off, Size: size, FrameSize: uint32(len(f.bytes))})
	}
}

// ReadUint reads size (1/2/4/8) little-endian bytes at off as an
// unsigned integer.
func (f *Frame) ReadUint(off uint32, size int) uint64 {
	f.checkBounds(off, size)
	switch size {
	case 1:
		return uint64(f.bytes[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(f.bytes[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(f.bytes[off:]))
	default:
		return binary.LittleEndian.Uint64(f.bytes[off:])
	}
}

// WriteUint writes the low size bytes of v, little-endian, at off.
func (f *Frame) WriteUint(off uint32, size int, v uint64) {
	f.checkBounds(off, size)
	switch size {
	case 1:
		f.bytes[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(f.bytes[off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(f.bytes[off:], uint32(v))
	default:
		binary.LittleEndian.PutUint64(f.bytes[off:], v)
	}
}

// ReadInt sign-extends the size bytes at off.
func (f *Frame) ReadInt(off uint32, size int) int64 {
	switch size {
	case 1:
		return int64(int8(f.ReadUint(off, 1)))
	case 2:
		return int64(int16(f.ReadUint(off, 2)))
	case 4:
		return int64(int32(f.ReadUint(off, 4)))
	default:
		return int64(f.ReadUint(off, 8))
	}
}

func (f *Frame) ReadBool(off uint32) bool  { return f.ReadUint(off, 1) != 0 }
func (f *Frame) WriteBool(off uint32, v bool) {
	if v {
		f.WriteUint(off, 1, 1)
	} else {
		f.WriteUint(off, 1, 0)
	}
}

func (f *Frame) ReadFloat32(off uint32) float32 {
	return math.Float32frombits(uint32(f.ReadUint(off, 4)))
}
func (f *Frame) WriteFloat32(off uint32, v float32) {
	f.WriteUint(off, 4, uint64(math.Float32bits(v)))
}
func (f *Frame) ReadFloat64(off uint32) float64 {
	return math.Float64frombits(f.ReadUint(off, 8))
}
func (f *Frame) WriteFloat64(off uint32, v float64) {
	f.WriteUint(off, 8, math.Float64bits(v))
}

// Raw returns the size raw bytes at off, for opaque copies (struct/array
// assignment, argument passing).
func (f *Frame) Raw(off uint32, size int) []byte {
	f.checkBounds(off, size)
	return f.bytes[off : int(off)+size]
}

// Boxed returns the boxed handle stored at off (a Ptr, a *builtins SQL
// value, or an opaque runtime object pointer), or nil if none was ever
// stored there.
func (f *Frame) Boxed(off uint32) any {
	if f.boxed == nil {
		return nil
	}
	return f.boxed[off]
}

// SetBoxed stores a boxed handle at off.
func (f *Frame) SetBoxed(off uint32, v any) {
	if f.boxed == nil {
		f.boxed = make(map[uint32]any)
	}
	f.boxed[off] = v
}

// local decodes l per bytecode.LocalVar's §3.6 rule: in address mode the
// caller means "dereference the boxed pointer stored at this offset",
// otherwise the frame's own byte range at this offset is the operand.
func (f *Frame) local(l bytecode.LocalVar) (Ptr, bool) {
	if !l.AddrMode() {
		return Ptr{}, false
	}
	p, _ := f.Boxed(l.Offset()).(Ptr)
	return p, true
}

// Ptr is TPL's runtime pointer representation: an offset into some
// frame's (or heap buffer's) byte slice. Go gives no portable way to
// compare two slices for backing-array identity without a pointer
// comparison, so Ptr keeps exactly one unsafe.Pointer use for that
// purpose (PtrEqual) and nothing else — no reinterpretation, no
// arithmetic beyond what Go's slicing already provides.
type Ptr struct {
	Buf []byte
	Off uint32
}

// IsNil reports whether p is the null pointer.
func (p Ptr) IsNil() bool { return p.Buf == nil }

func (p Ptr) base() uintptr {
	if len(p.Buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p.Buf[0]))
}

// PtrEqual reports whether a and b address the same byte.
func PtrEqual(a, b Ptr) bool {
	if a.IsNil() || b.IsNil() {
		return a.IsNil() == b.IsNil()
	}
	return a.base() == b.base() && a.Off == b.Off
}

func (p Ptr) readUint(size int) uint64 {
	switch size {
	case 1:
		return uint64(p.Buf[p.Off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(p.Buf[p.Off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(p.Buf[p.Off:]))
	default:
		return binary.LittleEndian.Uint64(p.Buf[p.Off:])
	}
}

func (p Ptr) writeUint(size int, v uint64) {
	switch size {
	case 1:
		p.Buf[p.Off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(p.Buf[p.Off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(p.Buf[p.Off:], uint32(v))
	default:
		binary.LittleEndian.PutUint64(p.Buf[p.Off:], v)
	}
}

// Offset returns the byte offset p addresses within its backing buffer,
// for shims that need to compute a derived address (e.g. vector element
// access) without going through LeaScaled.
func (p Ptr) Offset() uint32 { return p.Off }

// Slice returns the size bytes p addresses, for raw struct/array copies.
func (p Ptr) Slice(size int) []byte { return p.Buf[p.Off : int(p.Off)+size] }

// FrameBoundsError is raised (via panic, matching spec.md §4.6.4's "abort"
// wording for debug-mode frame violations) when debug mode is enabled and
// an operand access falls outside its frame.
type FrameBoundsError struct {
	Offset, FrameSize uint32
	Size              int
}

func (e *FrameBoundsError) Error() string {
	return "vm: frame bounds violation"
}
