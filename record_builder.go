package simdtext

// =============================================================================
// Record Building - Resolving field views into records
// =============================================================================

// appendFieldViews appends the raw bytes of every field to dst.
// The returned slices alias buf.
func appendFieldViews(dst [][]byte, buf []byte, fields []FieldLocation) [][]byte {
	for _, f := range fields {
		dst = append(dst, f.Bytes(buf))
	}
	return dst
}

// Record returns the raw bytes of every materialized field of tuple i.
// The slices alias buf; escaped fields are returned unresolved.
func (r *Result) Record(buf []byte, i int) [][]byte {
	fields := r.Tuple(i)
	return appendFieldViews(make([][]byte, 0, len(fields)), buf, fields)
}

// Strings copies every complete tuple of buf into a []string record.
// Escaped fields are copied raw; check Tuple(i)[j].NeedsUnescape to find them.
func (r *Result) Strings(buf []byte) [][]string {
	if len(r.TupleEnds) == 0 {
		return nil
	}
	records := make([][]string, len(r.TupleEnds))
	for i := range records {
		records[i] = recordStrings(buf, r.Tuple(i))
	}
	return records
}

// recordStrings converts the fields of one tuple with a single string
// allocation covering the span from the first to the last field.
func recordStrings(buf []byte, fields []FieldLocation) []string {
	record := make([]string, len(fields))
	if len(fields) == 0 {
		return record
	}
	lo := fields[0].Start
	hi := fields[len(fields)-1].End()
	str := string(buf[lo:hi])
	for k, f := range fields {
		record[k] = str[f.Start-lo : f.End()-lo]
	}
	return record
}
