package simdtext

import "github.com/cockroachdb/errors"

// Sentinel errors returned by [NewParser], [Config.Validate] and [Writer].
// Returned errors wrap these and can be matched with [errors.Is].
var (
	ErrInvalidDelimiter     = errors.New("invalid delimiter")
	ErrDelimiterConflict    = errors.New("delimiters must be distinct")
	ErrEscapeConflict       = errors.New("escape byte must differ from every delimiter")
	ErrInvalidPartitionKeys = errors.New("partition key count must not be negative")
	ErrFieldNeedsEscape     = errors.New("field contains a delimiter but no escape byte is configured")
	ErrEmptyRecord          = errors.New("record has no fields")
)

// contractViolation panics with an assertion failure. It is reserved for
// caller bugs such as undersized output containers, never for input bytes.
func contractViolation(format string, args ...interface{}) {
	panic(errors.AssertionFailedf(format, args...))
}
