// Package simdtext tokenizes delimited text (CSV-like rows of fields with an
// optional escape byte) into field and tuple boundaries without copying
// bytes. The inner loop classifies WindowSize bytes at a time into delimiter
// and escape bitmasks and walks the set bits.
package simdtext

import (
	"math/bits"

	"github.com/nnnkkk7/go-simdtext/internal/invariants"
)

// =============================================================================
// Parser State
// =============================================================================
//
// A Parser owns the state carried between windows and between calls:
//
//   columnIdx              column about to be parsed in the current tuple
//   currentColumnHasEscape an escaped byte was seen in the current column
//   lastCharIsEscape       the byte before the cursor is an active escape
//
// Calls on one Parser must be sequential. Concurrent scans use one Parser
// each; there is no shared mutable state.
//
// =============================================================================

// Parser tokenizes delimited text for one table configuration.
type Parser struct {
	cls              classifier
	tupleDelim       byte
	escape           byte
	hasEscape        bool
	numPartitionKeys int
	materialize      func(columnIdx int) bool
	isDelim          [256]bool

	// windows is the escape or no-escape window loop, chosen at construction.
	windows func(p *Parser, buf []byte, cur *Cursor, stop int, out *Output)

	columnIdx              int
	currentColumnHasEscape bool
	lastCharIsEscape       bool
}

// NewParser validates cfg and returns a Parser for it.
func NewParser(cfg Config) (*Parser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Parser{
		cls:              newClassifier(cfg),
		tupleDelim:       cfg.TupleDelim,
		escape:           cfg.Escape,
		hasEscape:        cfg.EscapeEnabled(),
		numPartitionKeys: cfg.NumPartitionKeys,
		materialize:      cfg.Materialize,
	}
	for _, d := range cfg.delimiters() {
		p.isDelim[d] = true
	}
	if p.hasEscape {
		p.windows = (*Parser).tokenizeWindowsEscaped
	} else {
		p.windows = (*Parser).tokenizeWindowsPlain
	}
	return p, nil
}

// Reset prepares the parser for an unrelated input stream.
func (p *Parser) Reset() {
	p.columnIdx = 0
	p.currentColumnHasEscape = false
	p.lastCharIsEscape = false
}

// ColumnIndex returns the index of the column about to be parsed within the
// current tuple.
func (p *Parser) ColumnIndex() int {
	return p.columnIdx
}

// EscapeEnabled reports whether the parser handles escape bytes.
func (p *Parser) EscapeEnabled() bool {
	return p.hasEscape
}

// =============================================================================
// Windowed Tokenizer
// =============================================================================

// Tokenize consumes whole windows of buf starting at cur.Pos, appending field
// locations and tuple ends to out.
//
// It returns when fewer than WindowSize bytes remain, or as soon as maxTuples
// tuples were produced by this call. In the latter case cur.Pos is just past
// the last tuple delimiter and a later call resumes there. Bytes left in a
// short tail are untouched; hand them to TokenizeTail or extend buf.
//
// out must have room for maxTuples more tuples and for every field the call
// can produce; violating either panics.
func (p *Parser) Tokenize(buf []byte, cur *Cursor, maxTuples int, out *Output) {
	stop := p.tupleStop(maxTuples, out)
	p.windows(p, buf, cur, stop, out)
}

func (p *Parser) tupleStop(maxTuples int, out *Output) int {
	if maxTuples < 1 {
		contractViolation("maxTuples must be positive, got %d", maxTuples)
	}
	stop := out.NumTuples + maxTuples
	if stop > len(out.TupleEnds) {
		contractViolation("tuple output holds %d, need room for %d", len(out.TupleEnds), stop)
	}
	return stop
}

// tokenizeWindowsPlain is the window loop for tables without an escape byte.
func (p *Parser) tokenizeWindowsPlain(buf []byte, cur *Cursor, stop int, out *Output) {
	for len(buf)-cur.Pos >= WindowSize {
		window := buf[cur.Pos : cur.Pos+WindowSize]
		delims, _ := classifyWindow(&p.cls, window)

		for delims != 0 {
			n := bits.TrailingZeros64(delims)
			delims &= delims - 1

			delimPos := cur.Pos + n
			p.addColumn(delimPos-cur.ColumnStart, cur, out)

			if window[n] == p.tupleDelim && p.endTuple(delimPos, stop, out) {
				cur.Pos = delimPos + 1
				return
			}
		}
		cur.Pos += WindowSize
	}
}

// tokenizeWindowsEscaped is the window loop for tables with an escape byte.
func (p *Parser) tokenizeWindowsEscaped(buf []byte, cur *Cursor, stop int, out *Output) {
	for len(buf)-cur.Pos >= WindowSize {
		window := buf[cur.Pos : cur.Pos+WindowSize]
		delims, escapes := classifyWindow(&p.cls, window)

		carry := p.lastCharIsEscape
		escaped, lastIsEscape := processEscapeMask(escapes, carry)
		if invariants.Enabled {
			wantEscaped, wantLast := processEscapeMaskSequential(escapes, carry)
			if escaped != wantEscaped || lastIsEscape != wantLast {
				contractViolation("escape mask %#x carry %t: got %#x/%t, want %#x/%t",
					escapes, carry, escaped, lastIsEscape, wantEscaped, wantLast)
			}
		}
		p.lastCharIsEscape = lastIsEscape
		delims &^= escaped

		// Escaped bytes that are not escape bytes themselves; an escaped
		// escape resolves to a literal escape and needs no flag.
		unescapes := escaped &^ escapes

		lastCol := 0
		for delims != 0 {
			n := bits.TrailingZeros64(delims)
			delims &= delims - 1

			if unescapes&lowMask[lastCol]&highMask[n] != 0 {
				p.currentColumnHasEscape = true
			}
			lastCol = n

			delimPos := cur.Pos + n
			p.addColumn(delimPos-cur.ColumnStart, cur, out)

			if window[n] == p.tupleDelim && p.endTuple(delimPos, stop, out) {
				cur.Pos = delimPos + 1
				p.lastCharIsEscape = false
				return
			}
		}

		// Escapes after the last delimiter belong to a column that ends in a
		// later window.
		if unescapes&lowMask[lastCol]&highMask[WindowSize-1] != 0 {
			p.currentColumnHasEscape = true
		}
		cur.Pos += WindowSize
	}
}

// =============================================================================
// Scalar Tokenizer
// =============================================================================

// TokenizeTail consumes buf byte by byte from cur.Pos to its end with the
// same semantics as Tokenize. It shares state with Tokenize, so the two can
// be interleaved at any offset. A trailing field without a delimiter is left
// unfinalized: cur.ColumnStart still points at it when TokenizeTail returns.
func (p *Parser) TokenizeTail(buf []byte, cur *Cursor, maxTuples int, out *Output) {
	stop := p.tupleStop(maxTuples, out)
	for cur.Pos < len(buf) {
		pos := cur.Pos
		b := buf[pos]
		cur.Pos++

		if p.hasEscape {
			if p.lastCharIsEscape {
				p.lastCharIsEscape = false
				if b != p.escape {
					p.currentColumnHasEscape = true
				}
				continue
			}
			if b == p.escape {
				p.lastCharIsEscape = true
				continue
			}
		}
		if !p.isDelim[b] {
			continue
		}

		p.addColumn(pos-cur.ColumnStart, cur, out)
		if b == p.tupleDelim && p.endTuple(pos, stop, out) {
			return
		}
	}
}

// =============================================================================
// Column and Tuple Emission
// =============================================================================

// addColumn finishes the column of the given length that starts at
// cur.ColumnStart, emitting it if it is materialized.
func (p *Parser) addColumn(length int, cur *Cursor, out *Output) {
	if p.returnCurrentColumn() {
		if out.NumFields >= len(out.Fields) {
			contractViolation("field output holds %d fields, column %d does not fit",
				len(out.Fields), p.columnIdx)
		}
		loc := FieldLocation{Start: cur.ColumnStart, Len: length}
		if p.currentColumnHasEscape {
			loc.Len = -length
		}
		out.Fields[out.NumFields] = loc
		out.NumFields++
	}
	p.currentColumnHasEscape = false
	cur.ColumnStart += length + 1
	p.columnIdx++
}

// returnCurrentColumn reports whether the current column is materialized.
func (p *Parser) returnCurrentColumn() bool {
	if p.materialize != nil {
		return p.materialize(p.columnIdx)
	}
	return p.columnIdx >= p.numPartitionKeys
}

// endTuple records a tuple ending at delimPos and reports whether the tuple
// quota for this call is reached.
func (p *Parser) endTuple(delimPos, stop int, out *Output) bool {
	p.columnIdx = 0
	out.TupleEnds[out.NumTuples] = delimPos
	out.NumTuples++
	return out.NumTuples == stop
}
