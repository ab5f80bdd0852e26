package simdtext

import "math/bits"

// =============================================================================
// Range Masks
// =============================================================================

// lowMask[i] has every bit at position >= i set; highMask[i] has every bit at
// position <= i set. escapes&lowMask[a]&highMask[b] tests for an escape in
// [a, b] without building a mask per query.
var lowMask, highMask = buildRangeMasks()

func buildRangeMasks() (low, high [WindowSize]uint64) {
	for i := 0; i < WindowSize; i++ {
		low[i] = ^uint64(0) << i
		high[i] = ^uint64(0) >> (WindowSize - 1 - i)
	}
	return low, high
}

// =============================================================================
// Escape Mask Processing
// =============================================================================
//
// Escape bytes can escape escape bytes, so only the first byte of every
// escape pair is active:
//
//   input:   a  \  \  \  ,  b
//   raw:     0  1  1  1  0  0
//   active:  0  1  0  1  0  0
//   escaped: 0  0  1  0  1  0   (active shifted one byte later)
//
// escaped[i] means the byte at i is taken literally; a delimiter there does
// not break the field. The carry in/out says whether the byte just before the
// window is an active escape.

// processEscapeMask reduces a raw escape mask to the escaped-byte mask for a
// window. carry is the active state of the byte preceding the window;
// lastIsEscape is the active state of the window's final byte.
func processEscapeMask(escapes uint64, carry bool) (escaped uint64, lastIsEscape bool) {
	var active uint64
	prev := -2
	if carry {
		prev = -1
	}
	for m := escapes; m != 0; m &= m - 1 {
		i := bits.TrailingZeros64(m)
		if i == prev+1 {
			continue // escaped by the active escape at prev
		}
		active |= uint64(1) << i
		prev = i
	}

	escaped = active << 1
	if carry {
		escaped |= 1
	}
	return escaped, active>>(WindowSize-1) != 0
}

// processEscapeMaskSequential is the bit-by-bit form of processEscapeMask.
// It is used to cross-check the fast form when invariants are enabled.
func processEscapeMaskSequential(escapes uint64, carry bool) (escaped uint64, lastIsEscape bool) {
	escapeNext := carry
	for i := 0; i < WindowSize; i++ {
		bit := uint64(1) << i
		if escapeNext {
			escapes &^= bit
		}
		escapeNext = escapes&bit != 0
	}
	lastIsEscape = escapes&(uint64(1)<<(WindowSize-1)) != 0

	escaped = escapes << 1
	if carry {
		escaped |= 1
	}
	return escaped, lastIsEscape
}
