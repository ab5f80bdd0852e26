package simdtext

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spkg/bom"
)

// DefaultBatchSize is the number of tuples a Scanner asks the tokenizer for
// per call.
const DefaultBatchSize = 1024

// ScannerOptions contains optional settings for [Scanner].
type ScannerOptions struct {
	BatchSize int  // tuples per tokenizer call; DefaultBatchSize if <= 0
	SkipBOM   bool // drop a leading UTF-8 byte order mark
}

// Scanner reads delimited text tuple by tuple.
//
// The input is read into one buffer on the first call to Scan and tokenized
// lazily, BatchSize tuples at a time. Field views returned by Fields and
// Tuple stay valid for the lifetime of the Scanner.
type Scanner struct {
	r    io.Reader
	cfg  Config
	opts ScannerOptions

	parser      *Parser
	buf         []byte
	cur         Cursor
	out         *Output
	windowsDone bool

	nextTuple int // index into out.TupleEnds of the next tuple to return
	nextField int // index into out.Fields of that tuple's first field
	start     int // offset of the current tuple
	consumed  int // offset just past the current tuple's delimiter

	fields []FieldLocation
	views  [][]byte

	initialized bool
	err         error
}

// NewScanner returns a Scanner that reads from r.
func NewScanner(r io.Reader, cfg Config, opts ScannerOptions) *Scanner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Scanner{r: r, cfg: cfg, opts: opts}
}

// Scan advances to the next complete tuple. It returns false at the end of
// the input or on error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.initialized {
		if err := s.initialize(); err != nil {
			s.err = err
			return false
		}
	}

	for s.nextTuple >= s.out.NumTuples {
		if !s.fill() {
			return false
		}
	}

	end := s.out.TupleEnds[s.nextTuple]
	s.nextTuple++

	first := s.nextField
	for s.nextField < s.out.NumFields && s.out.Fields[s.nextField].Start <= end {
		s.nextField++
	}
	s.fields = s.out.Fields[first:s.nextField]
	s.start = s.consumed
	s.consumed = end + 1
	return true
}

// initialize reads all input and prepares the parser and output buffers.
func (s *Scanner) initialize() error {
	s.initialized = true

	p, err := NewParser(s.cfg)
	if err != nil {
		return err
	}
	s.parser = p

	s.buf, err = io.ReadAll(s.r)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	if s.opts.SkipBOM {
		s.buf = bom.Clean(s.buf)
	}

	maxFields, _ := countDelimiters(s.buf, s.cfg)
	s.out = NewOutput(maxFields, s.opts.BatchSize)
	return nil
}

// fill tokenizes the next batch of tuples. Fields accumulate across batches;
// tuple ends are reused. It reports whether any tuple was produced.
func (s *Scanner) fill() bool {
	s.out.NumTuples = 0
	s.nextTuple = 0

	if !s.windowsDone {
		s.parser.Tokenize(s.buf, &s.cur, s.opts.BatchSize, s.out)
		s.windowsDone = s.cur.Remaining(s.buf) < WindowSize
		if s.out.NumTuples > 0 {
			return true
		}
	}
	if s.cur.Pos < len(s.buf) {
		s.parser.TokenizeTail(s.buf, &s.cur, s.opts.BatchSize, s.out)
	}
	return s.out.NumTuples > 0
}

// Fields returns the materialized field locations of the current tuple.
// Offsets are relative to Buffer.
func (s *Scanner) Fields() []FieldLocation {
	return s.fields
}

// Tuple returns the raw bytes of the current tuple's materialized fields.
// The returned slice is overwritten by the next call to Scan.
func (s *Scanner) Tuple() [][]byte {
	s.views = appendFieldViews(s.views[:0], s.buf, s.fields)
	return s.views
}

// Bytes returns the raw bytes of the current tuple, without its delimiter.
func (s *Scanner) Bytes() []byte {
	return s.buf[s.start : s.consumed-1]
}

// Buffer returns the input buffer that field locations refer to.
func (s *Scanner) Buffer() []byte {
	return s.buf
}

// Remainder returns the bytes after the last complete tuple returned so far.
// After Scan returns false it is the unterminated trailing tuple, if any.
func (s *Scanner) Remainder() []byte {
	return s.buf[s.consumed:]
}

// InputOffset returns the input byte offset just past the most recently
// returned tuple.
func (s *Scanner) InputOffset() int64 {
	return int64(s.consumed)
}

// Err returns the first error encountered by the Scanner.
func (s *Scanner) Err() error {
	return s.err
}
