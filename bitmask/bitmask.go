// Package bitmask provides a fixed-length packed boolean array over grid
// node indices.
//
// A Mask uses one bit per node, packed into uint64 words (64 nodes per word).
// Bit index = node position, word index = pos / 64, bit position = pos % 64.
// Bits past Len are always zero so that whole-word operations (Invert,
// TrueCount, Equal) never see garbage in the partial last word.
//
// Positional methods panic when pos is outside [0, Len). Methods that combine
// two masks panic when the sizes differ. Both are precondition violations,
// not recoverable errors.
//
// Thread safety: Mask is NOT safe for concurrent mutation. Parallel users
// work on a Clone and merge back under the caller's control.
package bitmask

import (
	"fmt"
	"math/bits"
)

// Mask is a packed bit-per-node boolean array.
type Mask struct {
	words []uint64
	size  int
}

// New creates a mask with size bits.
// Callers must not rely on the initial contents and should call InitFalse
// or InitTrue before use.
func New(size int) *Mask {
	if size < 0 {
		panic(fmt.Sprintf("bitmask: negative size %d", size))
	}
	return &Mask{
		words: make([]uint64, (size+63)/64), // Ceiling division
		size:  size,
	}
}

// Len returns the number of bits in the mask.
func (m *Mask) Len() int { return m.size }

func (m *Mask) check(pos int) {
	if pos < 0 || pos >= m.size {
		panic(fmt.Sprintf("bitmask: position %d out of range [0, %d)", pos, m.size))
	}
}

func (m *Mask) checkSize(o *Mask) {
	if o.size != m.size {
		panic(fmt.Sprintf("bitmask: size mismatch %d != %d", m.size, o.size))
	}
}

// Get returns the bit at pos.
func (m *Mask) Get(pos int) bool {
	m.check(pos)
	return m.words[pos>>6]&(1<<(pos&63)) != 0
}

// SetTrue sets the bit at pos.
func (m *Mask) SetTrue(pos int) {
	m.check(pos)
	m.words[pos>>6] |= 1 << (pos & 63)
}

// SetFalse clears the bit at pos.
func (m *Mask) SetFalse(pos int) {
	m.check(pos)
	m.words[pos>>6] &^= 1 << (pos & 63)
}

// Set assigns v to the bit at pos.
func (m *Mask) Set(pos int, v bool) {
	if v {
		m.SetTrue(pos)
	} else {
		m.SetFalse(pos)
	}
}

// InitFalse clears every bit.
func (m *Mask) InitFalse() {
	clear(m.words)
}

// InitTrue sets every bit.
func (m *Mask) InitTrue() {
	for i := range m.words {
		m.words[i] = ^uint64(0)
	}
	m.trim()
}

// Invert flips every bit.
func (m *Mask) Invert() {
	for i := range m.words {
		m.words[i] = ^m.words[i]
	}
	m.trim()
}

// trim zeroes the bits of the partial last word that lie past Len.
func (m *Mask) trim() {
	if rem := m.size & 63; rem != 0 {
		m.words[len(m.words)-1] &= (uint64(1) << rem) - 1
	}
}

// And keeps only the bits also set in o.
func (m *Mask) And(o *Mask) {
	m.checkSize(o)
	for i := range m.words {
		m.words[i] &= o.words[i]
	}
}

// Or sets every bit set in o.
func (m *Mask) Or(o *Mask) {
	m.checkSize(o)
	for i := range m.words {
		m.words[i] |= o.words[i]
	}
}

// Xor flips every bit set in o.
func (m *Mask) Xor(o *Mask) {
	m.checkSize(o)
	for i := range m.words {
		m.words[i] ^= o.words[i]
	}
}

// AndNot clears every bit set in o (m = m AND NOT o).
func (m *Mask) AndNot(o *Mask) {
	m.checkSize(o)
	for i := range m.words {
		m.words[i] &^= o.words[i]
	}
}

// TrueCount returns the number of set bits.
func (m *Mask) TrueCount() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsEmpty reports whether no bit is set.
func (m *Mask) IsEmpty() bool {
	for _, w := range m.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// CopyFrom overwrites m with the contents of o.
func (m *Mask) CopyFrom(o *Mask) {
	m.checkSize(o)
	copy(m.words, o.words)
}

// Clone returns an independent copy of m.
func (m *Mask) Clone() *Mask {
	c := &Mask{words: make([]uint64, len(m.words)), size: m.size}
	copy(c.words, m.words)
	return c
}

// Equal reports whether o has the same size and bits as m.
func (m *Mask) Equal(o *Mask) bool {
	if o == nil || o.size != m.size {
		return false
	}
	for i := range m.words {
		if m.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether any bit is set in both m and o.
func (m *Mask) Intersects(o *Mask) bool {
	m.checkSize(o)
	for i := range m.words {
		if m.words[i]&o.words[i] != 0 {
			return true
		}
	}
	return false
}

// FirstCommon returns the lowest position set in both m and o, or -1.
func (m *Mask) FirstCommon(o *Mask) int {
	m.checkSize(o)
	for i := range m.words {
		if w := m.words[i] & o.words[i]; w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// ForEach calls fn for every set bit in ascending order.
func (m *Mask) ForEach(fn func(pos int)) {
	for wordIdx, word := range m.words {
		for word != 0 {
			bitIdx := bits.TrailingZeros64(word)
			fn(wordIdx*64 + bitIdx)
			word &^= 1 << bitIdx
		}
	}
}
