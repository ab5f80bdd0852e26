package simdtext

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// =============================================================================
// Window Classification
// =============================================================================
//
// A window is WindowSize consecutive input bytes. Classifying a window yields
// two bitmasks in which bit i describes byte i of the window:
//
//   delims:  byte i equals the tuple, field or collection delimiter
//   escapes: byte i equals the escape byte (only when escaping is enabled)
//
// Two kernels produce identical masks:
//   - AVX-512 (2x32-byte vector compares), built with GOEXPERIMENT=simd on amd64
//   - SWAR (8 bytes per 64-bit word), everywhere else
//
// The kernel is chosen once at init time from the detected CPU features.
//
// =============================================================================

// WindowSize is the number of bytes classified per step of the windowed
// tokenizer. Masks are uint64, one bit per byte.
const WindowSize = 64

// windowHalf is the width of one 256-bit vector register.
const windowHalf = 32

// useAVX512 indicates whether the AVX-512 instructions required by the vector
// kernel (VPMOVB2M for ToBits) are available at runtime.
var useAVX512 = cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW && cpu.X86.HasAVX512VL

// classifyWindow is the kernel in use. Precondition: len(window) >= WindowSize.
var classifyWindow = classifyWindowSWAR

// kernelName names the kernel installed in classifyWindow.
var kernelName = "swar"

// Implementation returns the name of the window classification kernel
// selected for this process ("avx512" or "swar").
func Implementation() string {
	return kernelName
}

// classifier holds the search bytes of a table, both raw and broadcast to
// every byte lane of a 64-bit word.
type classifier struct {
	tuple      byte
	field      byte
	collection byte // equals field when the table has no collection delimiter
	escape     byte
	hasEscape  bool

	tupleLanes      uint64
	fieldLanes      uint64
	collectionLanes uint64
	escapeLanes     uint64
}

// newClassifier builds a classifier for a validated configuration.
func newClassifier(cfg Config) classifier {
	c := classifier{
		tuple:      cfg.TupleDelim,
		field:      cfg.FieldDelim,
		collection: cfg.CollectionDelim,
		escape:     cfg.Escape,
		hasEscape:  cfg.EscapeEnabled(),
	}
	if c.collection == 0 {
		c.collection = c.field
	}
	c.tupleLanes = broadcast(c.tuple)
	c.fieldLanes = broadcast(c.field)
	c.collectionLanes = broadcast(c.collection)
	c.escapeLanes = broadcast(c.escape)
	return c
}

// =============================================================================
// SWAR Kernel
// =============================================================================

const (
	laneOnes   = 0x0101010101010101
	laneHigh   = 0x8080808080808080
	laneLow7   = 0x7f7f7f7f7f7f7f7f
	laneGather = 0x0102040810204080
)

// broadcast copies b into all eight byte lanes of a word.
func broadcast(b byte) uint64 {
	return uint64(b) * laneOnes
}

// equalLanes returns a word with 1 in the low bit of every byte lane of
// word that equals the corresponding lane of pattern, 0 elsewhere.
// The computation is exact: no borrow crosses lanes.
func equalLanes(word, pattern uint64) uint64 {
	x := word ^ pattern
	nonZero := ((x & laneLow7) + laneLow7) | x
	return (^nonZero & laneHigh) >> 7
}

// gatherLanes packs the low bit of each byte lane into an 8-bit mask,
// lane 0 to bit 0.
func gatherLanes(lanes uint64) uint64 {
	return (lanes * laneGather) >> 56
}

// classifyWindowSWAR classifies one window eight bytes at a time.
// Precondition: len(window) >= WindowSize.
func classifyWindowSWAR(c *classifier, window []byte) (delims, escapes uint64) {
	_ = window[WindowSize-1]
	for i := 0; i < WindowSize/8; i++ {
		word := binary.LittleEndian.Uint64(window[i*8:])
		d := equalLanes(word, c.tupleLanes) |
			equalLanes(word, c.fieldLanes) |
			equalLanes(word, c.collectionLanes)
		delims |= gatherLanes(d) << (i * 8)
		if c.hasEscape {
			escapes |= gatherLanes(equalLanes(word, c.escapeLanes)) << (i * 8)
		}
	}
	return delims, escapes
}
