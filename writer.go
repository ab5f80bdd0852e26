package simdtext

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
)

// Writer writes records as delimited text that a [Parser] with the same
// Config tokenizes back into the same fields.
//
// Fields are separated by FieldDelim and records terminated by TupleDelim.
// Any field byte that is a delimiter or the escape byte is prefixed with
// the escape byte. Without an escape byte such fields are rejected with
// ErrFieldNeedsEscape.
//
// The writes of individual records are buffered. After all data has been
// written, the client should call Flush and check Error.
type Writer struct {
	cfg     Config
	special [256]bool
	cls     classifier

	w   *bufio.Writer
	err error
}

// NewWriter returns a new Writer that writes to w.
func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	wr := &Writer{
		cfg: cfg,
		cls: newClassifier(cfg),
		w:   bufio.NewWriter(w),
	}
	for _, d := range cfg.delimiters() {
		wr.special[d] = true
	}
	if cfg.EscapeEnabled() {
		wr.special[cfg.Escape] = true
	}
	return wr, nil
}

// Write writes a single record followed by the tuple delimiter.
// A record with no fields is rejected with ErrEmptyRecord: it would read
// back as a record holding one empty field.
func (w *Writer) Write(record []string) error {
	if w.err != nil {
		return w.err
	}
	if len(record) == 0 {
		w.err = ErrEmptyRecord
		return w.err
	}

	for i, field := range record {
		if i > 0 {
			if w.err = w.w.WriteByte(w.cfg.FieldDelim); w.err != nil {
				return w.err
			}
		}
		if w.err = w.writeField(field); w.err != nil {
			return w.err
		}
	}

	w.err = w.w.WriteByte(w.cfg.TupleDelim)
	return w.err
}

// writeField writes a single field, escaping it if necessary.
func (w *Writer) writeField(field string) error {
	if !w.fieldNeedsEscape(field) {
		_, err := w.w.WriteString(field)
		return err
	}
	if !w.cfg.EscapeEnabled() {
		return errors.Wrapf(ErrFieldNeedsEscape, "field %q", field)
	}
	return w.writeEscapedField(field)
}

// fieldNeedsEscape reports whether field contains a delimiter or escape byte.
// Whole windows go through the window classifier; the tail is checked
// byte by byte.
func (w *Writer) fieldNeedsEscape(field string) bool {
	i := 0
	if len(field) >= WindowSize {
		var window [WindowSize]byte
		for ; i+WindowSize <= len(field); i += WindowSize {
			copy(window[:], field[i:i+WindowSize])
			delims, escapes := classifyWindow(&w.cls, window[:])
			if delims|escapes != 0 {
				return true
			}
		}
	}
	for ; i < len(field); i++ {
		if w.special[field[i]] {
			return true
		}
	}
	return false
}

// writeEscapedField writes field with the escape byte before every special byte.
func (w *Writer) writeEscapedField(field string) error {
	lastWritten := 0
	for i := 0; i < len(field); i++ {
		if !w.special[field[i]] {
			continue
		}
		if _, err := w.w.WriteString(field[lastWritten:i]); err != nil {
			return err
		}
		if err := w.w.WriteByte(w.cfg.Escape); err != nil {
			return err
		}
		lastWritten = i
	}
	_, err := w.w.WriteString(field[lastWritten:])
	return err
}

// WriteAll writes multiple records using Write and then calls Flush,
// returning any error from the Flush.
func (w *Writer) WriteAll(records [][]string) error {
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	w.err = w.w.Flush()
	return w.err
}

// Error reports any error that has occurred during a previous Write or Flush.
func (w *Writer) Error() error {
	return w.err
}
