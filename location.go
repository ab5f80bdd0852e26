package simdtext

// FieldLocation is a non-owning view of one field in the caller's buffer.
//
// Start is a byte offset into the buffer that was passed to the tokenizer.
// The absolute value of Len is the field length excluding its terminating
// delimiter. A negative Len marks a field whose bytes contain an escape that
// must be resolved downstream before the value is used.
//
// A FieldLocation is only meaningful together with the buffer it was produced
// from; resolve it with Bytes while that buffer is alive and unmodified.
type FieldLocation struct {
	Start int
	Len   int
}

// Length returns the field length in bytes, excluding the delimiter.
func (f FieldLocation) Length() int {
	if f.Len < 0 {
		return -f.Len
	}
	return f.Len
}

// NeedsUnescape reports whether the field contains escaped bytes.
func (f FieldLocation) NeedsUnescape() bool {
	return f.Len < 0
}

// End returns the offset of the delimiter that terminates the field.
func (f FieldLocation) End() int {
	return f.Start + f.Length()
}

// Bytes returns the raw field bytes as a subslice of buf. It panics if the
// view does not fit buf, which means buf is not the buffer the location was
// produced from.
func (f FieldLocation) Bytes(buf []byte) []byte {
	end := f.End()
	if f.Start < 0 || end > len(buf) {
		contractViolation("field [%d, %d) outside buffer of %d bytes", f.Start, end, len(buf))
	}
	return buf[f.Start:end:end]
}

// Cursor is the resumable read position of a tokenizer over one buffer.
// The remaining length of the buffer is len(buf) - Pos.
type Cursor struct {
	Pos         int // next byte to classify
	ColumnStart int // first byte of the column being built
}

// Remaining returns the number of bytes of buf not yet consumed.
func (c *Cursor) Remaining(buf []byte) int {
	return len(buf) - c.Pos
}

// Output receives tokenizer results. len(Fields) and len(TupleEnds) are the
// capacities; NumFields and NumTuples count the filled prefix. New entries are
// appended after the existing counts.
type Output struct {
	Fields    []FieldLocation
	NumFields int

	// TupleEnds holds the buffer offset of each tuple delimiter.
	TupleEnds []int
	NumTuples int
}

// NewOutput returns an Output able to hold maxFields fields and maxTuples
// tuples.
func NewOutput(maxFields, maxTuples int) *Output {
	return &Output{
		Fields:    make([]FieldLocation, maxFields),
		TupleEnds: make([]int, maxTuples),
	}
}

// Reset empties the output while keeping its capacity.
func (o *Output) Reset() {
	o.NumFields = 0
	o.NumTuples = 0
}

// FilledFields returns the filled prefix of Fields.
func (o *Output) FilledFields() []FieldLocation {
	return o.Fields[:o.NumFields]
}

// FilledTupleEnds returns the filled prefix of TupleEnds.
func (o *Output) FilledTupleEnds() []int {
	return o.TupleEnds[:o.NumTuples]
}
