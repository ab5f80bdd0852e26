package simdtext

import "github.com/cockroachdb/errors"

// Config holds the byte-level configuration of a delimited text table.
// It is fixed for the lifetime of a [Parser].
type Config struct {
	// TupleDelim terminates a tuple (row). It must not be 0.
	TupleDelim byte

	// FieldDelim terminates a field (column). It must not be 0 and must
	// differ from TupleDelim.
	FieldDelim byte

	// CollectionDelim, if not 0, separates the items of a nested collection
	// value. The tokenizer treats it exactly like FieldDelim.
	CollectionDelim byte

	// Escape, if not 0, strips the delimiter meaning from the byte that
	// follows it. An escape byte can escape another escape byte.
	// When 0, the escape handling path is disabled entirely.
	Escape byte

	// NumPartitionKeys is the number of leading columns of every tuple that
	// are walked past but never emitted as a FieldLocation.
	NumPartitionKeys int

	// Materialize, if not nil, replaces the default column predicate
	// (columnIdx >= NumPartitionKeys). columnIdx counts columns from 0 at the
	// start of each tuple.
	// It is the file column index, not offset by NumPartitionKeys: the first
	// non-key column of a tuple is NumPartitionKeys, not 0.
	Materialize func(columnIdx int) bool
}

// DefaultConfig returns a configuration for newline-terminated,
// comma-separated text without escaping.
func DefaultConfig() Config {
	return Config{
		TupleDelim: '\n',
		FieldDelim: ',',
	}
}

// EscapeEnabled reports whether the configuration enables escape handling.
func (c Config) EscapeEnabled() bool {
	return c.Escape != 0
}

// Validate checks the configuration, failing fast on settings the
// tokenizer cannot honor.
func (c Config) Validate() error {
	if c.TupleDelim == 0 {
		return errors.Wrap(ErrInvalidDelimiter, "tuple delimiter is unset")
	}
	if c.FieldDelim == 0 {
		return errors.Wrap(ErrInvalidDelimiter, "field delimiter is unset")
	}
	if c.FieldDelim == c.TupleDelim {
		return errors.Wrapf(ErrDelimiterConflict, "field and tuple delimiter are both %q", c.TupleDelim)
	}
	if c.CollectionDelim != 0 && c.CollectionDelim == c.TupleDelim {
		return errors.Wrapf(ErrDelimiterConflict, "collection and tuple delimiter are both %q", c.TupleDelim)
	}
	if c.Escape != 0 {
		for _, d := range c.delimiters() {
			if c.Escape == d {
				return errors.Wrapf(ErrEscapeConflict, "escape %q", c.Escape)
			}
		}
	}
	if c.NumPartitionKeys < 0 {
		return errors.Wrapf(ErrInvalidPartitionKeys, "got %d", c.NumPartitionKeys)
	}
	return nil
}

// delimiters returns the configured delimiter bytes, tuple delimiter first.
func (c Config) delimiters() []byte {
	if c.CollectionDelim == 0 {
		return []byte{c.TupleDelim, c.FieldDelim}
	}
	return []byte{c.TupleDelim, c.FieldDelim, c.CollectionDelim}
}
