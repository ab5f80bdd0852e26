//go:build goexperiment.simd && amd64

package simdtext

import (
	"simd/archsimd"
	"unsafe"
)

// NOTE: archsimd.Int8x32.Equal().ToBits() is lowered to VPMOVB2M (AVX-512BW)
// and raises SIGILL on CPUs without AVX-512, so the kernel is only installed
// when useAVX512 is set.
func init() {
	if useAVX512 {
		classifyWindow = classifyWindowAVX512
		kernelName = "avx512"
	}
}

// classifyWindowAVX512 classifies one window with two 256-bit compares per
// search byte.
// Precondition: len(window) >= WindowSize.
func classifyWindowAVX512(c *classifier, window []byte) (delims, escapes uint64) {
	tupleCmp := archsimd.BroadcastInt8x32(int8(c.tuple))
	fieldCmp := archsimd.BroadcastInt8x32(int8(c.field))
	collectionCmp := archsimd.BroadcastInt8x32(int8(c.collection))

	// Bytes 0-31
	low := archsimd.LoadInt8x32((*[windowHalf]int8)(unsafe.Pointer(&window[0])))
	delimLow := low.Equal(tupleCmp).ToBits() |
		low.Equal(fieldCmp).ToBits() |
		low.Equal(collectionCmp).ToBits()

	// Bytes 32-63
	high := archsimd.LoadInt8x32((*[windowHalf]int8)(unsafe.Pointer(&window[windowHalf])))
	delimHigh := high.Equal(tupleCmp).ToBits() |
		high.Equal(fieldCmp).ToBits() |
		high.Equal(collectionCmp).ToBits()

	delims = uint64(delimLow) | uint64(delimHigh)<<32

	if c.hasEscape {
		escapeCmp := archsimd.BroadcastInt8x32(int8(c.escape))
		escapes = uint64(low.Equal(escapeCmp).ToBits()) | uint64(high.Equal(escapeCmp).ToBits())<<32
	}
	return delims, escapes
}
