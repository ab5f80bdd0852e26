package simdtext

import (
	"bytes"
	"sync"
)

// ============================================================================
// Public API - Whole-Buffer Tokenization
// ============================================================================

// Result holds the tokenization of one complete buffer.
type Result struct {
	// Fields are the materialized fields of all complete tuples, followed by
	// those of a trailing unterminated tuple, in buffer order.
	Fields []FieldLocation

	// TupleEnds holds the offset of every tuple delimiter.
	TupleEnds []int

	// Consumed is the offset just past the last tuple delimiter. Bytes from
	// Consumed on form an unterminated tuple, left to the caller.
	Consumed int

	// tupleFields[i] is the index in Fields of the first field of tuple i.
	tupleFields []int
}

// Pool capacity constants for Result.
// Fields: 1024 * 16 bytes = 16KB. Tuples: 256 * 8 bytes = 2KB.
const (
	resultPoolFieldCap = 1024
	resultPoolTupleCap = 256
)

var resultPool = sync.Pool{
	New: func() interface{} {
		return &Result{
			Fields:      make([]FieldLocation, 0, resultPoolFieldCap),
			TupleEnds:   make([]int, 0, resultPoolTupleCap),
			tupleFields: make([]int, 0, resultPoolTupleCap),
		}
	},
}

// TokenizeBytes tokenizes all of data with the windowed tokenizer followed
// by the scalar tail. The Result views data and is valid while data is.
// Call Release when done with it.
func TokenizeBytes(data []byte, cfg Config) (*Result, error) {
	p, err := NewParser(cfg)
	if err != nil {
		return nil, err
	}

	res := resultPool.Get().(*Result)
	res.reset()

	// One spare tuple slot keeps the quota out of reach: both passes run to
	// the end of data.
	maxFields, maxTuples := countDelimiters(data, cfg)
	quota := maxTuples + 1
	out := &Output{
		Fields:    growFields(res.Fields, maxFields),
		TupleEnds: growInts(res.TupleEnds, quota),
	}

	var cur Cursor
	p.Tokenize(data, &cur, quota, out)
	p.TokenizeTail(data, &cur, quota-out.NumTuples, out)

	res.Fields = out.FilledFields()
	res.TupleEnds = out.FilledTupleEnds()
	if n := len(res.TupleEnds); n > 0 {
		res.Consumed = res.TupleEnds[n-1] + 1
	}
	res.tupleFields = indexTupleFields(res.tupleFields, res.Fields, res.TupleEnds)
	return res, nil
}

// countDelimiters returns upper bounds for the number of fields and tuples
// in data. Escaped delimiters are counted too.
func countDelimiters(data []byte, cfg Config) (fields, tuples int) {
	tuples = bytes.Count(data, []byte{cfg.TupleDelim})
	fields = tuples + bytes.Count(data, []byte{cfg.FieldDelim})
	if cfg.CollectionDelim != 0 && cfg.CollectionDelim != cfg.FieldDelim {
		fields += bytes.Count(data, []byte{cfg.CollectionDelim})
	}
	return fields, tuples
}

func growFields(s []FieldLocation, n int) []FieldLocation {
	if cap(s) < n {
		return make([]FieldLocation, n)
	}
	return s[:n]
}

func growInts(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

// indexTupleFields records, for every tuple, the index of its first field.
// Fields are in buffer order, so a field belongs to the first tuple whose
// delimiter is at or after the field's start.
func indexTupleFields(dst []int, fields []FieldLocation, tupleEnds []int) []int {
	dst = dst[:0]
	f := 0
	for _, end := range tupleEnds {
		dst = append(dst, f)
		for f < len(fields) && fields[f].Start <= end {
			f++
		}
	}
	return append(dst, f)
}

// NumTuples returns the number of complete tuples.
func (r *Result) NumTuples() int {
	return len(r.TupleEnds)
}

// Tuple returns the materialized fields of tuple i.
func (r *Result) Tuple(i int) []FieldLocation {
	return r.Fields[r.tupleFields[i]:r.tupleFields[i+1]]
}

// Trailing returns the fields already emitted for the unterminated tuple at
// the end of the buffer, excluding its final, delimiter-less field.
func (r *Result) Trailing() []FieldLocation {
	return r.Fields[r.tupleFields[len(r.TupleEnds)]:]
}

// reset clears the Result for reuse while preserving slice capacity.
func (r *Result) reset() {
	r.Fields = r.Fields[:0]
	r.TupleEnds = r.TupleEnds[:0]
	r.tupleFields = r.tupleFields[:0]
	r.Consumed = 0
}

// Release returns the Result to the pool. It must not be used afterwards.
func (r *Result) Release() {
	if r == nil {
		return
	}
	r.reset()
	resultPool.Put(r)
}
