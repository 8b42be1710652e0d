package graph

import "math/bits"

// BitSet is a compact set of uint32 values using a bitmap.
// Symbol handles are dense, so a bitmap beats a map for the mark phase.
type BitSet struct {
	bits []uint64
}

// NewBitSet creates a BitSet that can hold values up to maxVal (inclusive).
func NewBitSet(maxVal int) *BitSet {
	words := (maxVal + 64) / 64
	return &BitSet{bits: make([]uint64, words)}
}

// Set adds val to the set.
func (b *BitSet) Set(val uint32) {
	word := val / 64
	if int(word) >= len(b.bits) {
		b.grow(int(word) + 1)
	}
	b.bits[word] |= 1 << (val % 64)
}

// Has returns true if val is in the set.
func (b *BitSet) Has(val uint32) bool {
	word := val / 64
	if int(word) >= len(b.bits) {
		return false
	}
	return b.bits[word]&(1<<(val%64)) != 0
}

// ToSlice returns sorted slice of all values in the set.
func (b *BitSet) ToSlice() []uint32 {
	var result []uint32
	for i, word := range b.bits {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			result = append(result, uint32(i*64+bit))
			word &= word - 1
		}
	}
	return result
}

// Count returns the number of elements in the set.
func (b *BitSet) Count() int {
	count := 0
	for _, word := range b.bits {
		count += bits.OnesCount64(word)
	}
	return count
}

// Equal reports whether both sets hold the same values.
func (b *BitSet) Equal(other *BitSet) bool {
	n := max(len(b.bits), len(other.bits))
	for i := 0; i < n; i++ {
		var x, y uint64
		if i < len(b.bits) {
			x = b.bits[i]
		}
		if i < len(other.bits) {
			y = other.bits[i]
		}
		if x != y {
			return false
		}
	}
	return true
}

func (b *BitSet) grow(words int) {
	newBits := make([]uint64, words)
	copy(newBits, b.bits)
	b.bits = newBits
}
