package value

import (
	"encoding/binary"
	"fmt"
	"math"

	"fortio.org/safecast"
)

// StrRef addresses a string in a StrPool. The zero ref is the empty string.
type StrRef uint32

const strHeader = 4

// StrPool stores strings as [len:u32 little-endian][bytes]. It only grows,
// so a StrRef stays valid for the pool's lifetime.
type StrPool struct {
	data []byte
}

func NewStrPool() *StrPool {
	return &StrPool{data: make([]byte, 0, 256)}
}

// Add copies s into the pool.
func (p *StrPool) Add(s string) StrRef {
	return p.AddBytes([]byte(s))
}

// Fits reports whether a string of n bytes can still be added. Operations
// check it before building a result so that AddBytes never fails on them.
func (p *StrPool) Fits(n uint64) bool {
	return n <= math.MaxUint32 && uint64(len(p.data))+1 <= math.MaxUint32
}

// AddBytes copies b into the pool. Callers producing strings at run time
// check Fits first; an oversized string here is a programming error.
func (p *StrPool) AddBytes(b []byte) StrRef {
	if len(b) == 0 {
		return 0
	}
	if uint64(len(b)) > math.MaxUint32 {
		panic(fmt.Errorf("string too large: %d bytes", len(b)))
	}
	ref, err := safecast.Conv[uint32](len(p.data) + 1)
	if err != nil {
		panic(fmt.Errorf("string pool overflow: %w", err))
	}
	var hdr [strHeader]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(b))) // #nosec G115 -- checked above
	p.data = append(p.data, hdr[:]...)
	p.data = append(p.data, b...)
	return StrRef(ref)
}

// Bytes returns the stored bytes; callers must not modify them.
func (p *StrPool) Bytes(ref StrRef) ([]byte, bool) {
	if ref == 0 {
		return nil, true
	}
	off := int(ref) - 1
	if off < 0 || off+strHeader > len(p.data) {
		return nil, false
	}
	n := int(binary.LittleEndian.Uint32(p.data[off : off+strHeader]))
	start := off + strHeader
	if start+n > len(p.data) {
		return nil, false
	}
	return p.data[start : start+n], true
}

// String returns the text for ref, or "" for an invalid ref.
func (p *StrPool) String(ref StrRef) string {
	b, _ := p.Bytes(ref)
	return string(b)
}

// Len returns the byte length of the referenced string.
func (p *StrPool) Len(ref StrRef) int {
	b, _ := p.Bytes(ref)
	return len(b)
}

// Size is the number of bytes held by the pool.
func (p *StrPool) Size() int { return len(p.data) }

// Raw exposes the pool image for serialization.
func (p *StrPool) Raw() []byte { return p.data }

// LoadStrPool wraps a pool image produced by Raw.
func LoadStrPool(raw []byte) *StrPool {
	return &StrPool{data: append([]byte(nil), raw...)}
}
