package simdtext

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

// =============================================================================
// Test Helper Functions
// =============================================================================

// escapeConfig is the configuration used by most escape tests.
func escapeConfig() Config {
	cfg := DefaultConfig()
	cfg.Escape = '\\'
	return cfg
}

// mustParser returns a Parser for cfg or fails the test.
func mustParser(t testing.TB, cfg Config) *Parser {
	t.Helper()
	p, err := NewParser(cfg)
	if err != nil {
		t.Fatalf("NewParser(%+v): %v", cfg, err)
	}
	return p
}

// padWindow pads s with filler bytes to a multiple of WindowSize, so the
// windowed tokenizer sees all of s. The filler forms an unterminated field.
func padWindow(s string) []byte {
	n := (len(s) + WindowSize - 1) / WindowSize * WindowSize
	if n == 0 {
		n = WindowSize
	}
	return []byte(s + strings.Repeat("x", n-len(s)))
}

// tokenizeWindows runs only the windowed tokenizer over buf.
func tokenizeWindows(t testing.TB, cfg Config, buf []byte) *Output {
	t.Helper()
	p := mustParser(t, cfg)
	maxFields, maxTuples := countDelimiters(buf, cfg)
	out := NewOutput(maxFields, maxTuples+1)
	var cur Cursor
	p.Tokenize(buf, &cur, maxTuples+1, out)
	return out
}

// maskPositions returns a slice of bit positions that are set
func maskPositions(m uint64) []int {
	var positions []int
	for i := 0; i < 64; i++ {
		if m&(1<<i) != 0 {
			positions = append(positions, i)
		}
	}
	return positions
}

// hexDump returns a formatted hex dump of data for debugging
func hexDump(data []byte, prefix string) string {
	var sb strings.Builder
	for i := 0; i < len(data); i += 16 {
		sb.WriteString(prefix)
		sb.WriteString(fmt.Sprintf("%04x: ", i))
		end := min(i+16, len(data))
		for j := i; j < end; j++ {
			sb.WriteString(fmt.Sprintf("%02x ", data[j]))
		}
		for j := end; j < i+16; j++ {
			sb.WriteString("   ")
		}
		sb.WriteString(" |")
		for j := i; j < end; j++ {
			if data[j] >= 32 && data[j] < 127 {
				sb.WriteByte(data[j])
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}

// referenceTokenize is a straightforward byte loop used as an oracle.
// It emits fields and tuple ends exactly like the tokenizer, including the
// fields of a trailing unterminated tuple.
func referenceTokenize(buf []byte, cfg Config) (fields []FieldLocation, tupleEnds []int) {
	materialize := cfg.Materialize
	if materialize == nil {
		materialize = func(col int) bool { return col >= cfg.NumPartitionKeys }
	}
	col, start, hasEscape := 0, 0, false
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if cfg.Escape != 0 && b == cfg.Escape {
			if i+1 < len(buf) && buf[i+1] != cfg.Escape {
				hasEscape = true
			}
			i++ // the next byte is literal
			continue
		}
		if b != cfg.TupleDelim && b != cfg.FieldDelim && (cfg.CollectionDelim == 0 || b != cfg.CollectionDelim) {
			continue
		}
		if materialize(col) {
			length := i - start
			if hasEscape {
				length = -length
			}
			fields = append(fields, FieldLocation{Start: start, Len: length})
		}
		hasEscape = false
		start = i + 1
		col++
		if b == cfg.TupleDelim {
			tupleEnds = append(tupleEnds, i)
			col = 0
		}
	}
	return fields, tupleEnds
}

// randomInput builds n bytes drawn from alphabet, with runs of the first
// byte to exercise escape chains.
func randomInput(rng *rand.Rand, n int, alphabet string) []byte {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		if rng.IntN(8) == 0 {
			run := 1 + rng.IntN(5)
			for j := 0; j < run && len(buf) < n; j++ {
				buf = append(buf, alphabet[0])
			}
			continue
		}
		buf = append(buf, alphabet[rng.IntN(len(alphabet))])
	}
	return buf
}

// assertTokens compares tokenizer output against expected fields and tuple ends.
func assertTokens(t *testing.T, buf []byte, gotFields []FieldLocation, gotTuples []int, wantFields []FieldLocation, wantTuples []int) {
	t.Helper()
	if len(gotFields) == 0 && len(wantFields) == 0 {
		gotFields, wantFields = nil, nil
	}
	if len(gotTuples) == 0 && len(wantTuples) == 0 {
		gotTuples, wantTuples = nil, nil
	}
	if !reflect.DeepEqual(gotFields, wantFields) {
		t.Errorf("fields mismatch:\n  input:\n%s  got:  %v\n  want: %v", hexDump(buf, "    "), gotFields, wantFields)
	}
	if !reflect.DeepEqual(gotTuples, wantTuples) {
		t.Errorf("tuple ends mismatch:\n  got:  %v\n  want: %v", gotTuples, wantTuples)
	}
}

// expectAssertion runs fn and fails unless it panics with an assertion failure.
func expectAssertion(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected panic, got none")
		}
		err, ok := r.(error)
		if !ok || !errors.IsAssertionFailure(err) {
			t.Fatalf("expected assertion failure, got %v", r)
		}
	}()
	fn()
}
