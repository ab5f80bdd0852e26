package simdtext

import (
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/cockroachdb/errors"
)

// scanAll drains s and returns every tuple as strings.
func scanAll(t *testing.T, s *Scanner) [][]string {
	t.Helper()
	var records [][]string
	for s.Scan() {
		record := make([]string, 0, len(s.Fields()))
		for _, field := range s.Tuple() {
			record = append(record, string(field))
		}
		records = append(records, record)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return records
}

// =============================================================================
// TestScanner
// =============================================================================

func TestScanner(t *testing.T) {
	tests := []struct {
		name          string
		cfg           Config
		opts          ScannerOptions
		input         string
		want          [][]string
		wantRemainder string
	}{
		{
			name:  "simple",
			cfg:   DefaultConfig(),
			input: "a,b\nc,d\n",
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:          "unterminated_remainder",
			cfg:           DefaultConfig(),
			input:         "a,b\nc,d",
			want:          [][]string{{"a", "b"}},
			wantRemainder: "c,d",
		},
		{
			name:  "batch_of_one",
			cfg:   DefaultConfig(),
			opts:  ScannerOptions{BatchSize: 1},
			input: "1\n2\n3\n",
			want:  [][]string{{"1"}, {"2"}, {"3"}},
		},
		{
			name:  "escaped_stays_raw",
			cfg:   escapeConfig(),
			input: `a\,b,c` + "\n",
			want:  [][]string{{`a\,b`, "c"}},
		},
		{
			name:  "partition_keys",
			cfg:   Config{TupleDelim: '\n', FieldDelim: ',', NumPartitionKeys: 1},
			input: "p,a\np,b\n",
			want:  [][]string{{"a"}, {"b"}},
		},
		{
			name:  "bom_kept",
			cfg:   DefaultConfig(),
			input: "\xef\xbb\xbfa,b\n",
			want:  [][]string{{"\xef\xbb\xbfa", "b"}},
		},
		{
			name:  "bom_skipped",
			cfg:   DefaultConfig(),
			opts:  ScannerOptions{SkipBOM: true},
			input: "\xef\xbb\xbfa,b\n",
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "empty",
			cfg:   DefaultConfig(),
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(strings.NewReader(tt.input), tt.cfg, tt.opts)
			got := scanAll(t, s)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("records = %q, want %q", got, tt.want)
			}
			if string(s.Remainder()) != tt.wantRemainder {
				t.Errorf("Remainder() = %q, want %q", s.Remainder(), tt.wantRemainder)
			}
		})
	}
}

// TestScanner_MatchesTokenizeBytes scans random inputs with small batches
// and expects the same tuples as a single whole-buffer pass.
func TestScanner_MatchesTokenizeBytes(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	for iter := 0; iter < 100; iter++ {
		buf := randomInput(rng, rng.IntN(2000), `\abc,`+"\n")
		cfg := escapeConfig()

		res, err := TokenizeBytes(buf, cfg)
		if err != nil {
			t.Fatal(err)
		}
		want := res.Strings(buf)
		consumed := res.Consumed
		res.Release()

		s := NewScanner(strings.NewReader(string(buf)), cfg, ScannerOptions{BatchSize: 1 + rng.IntN(8)})
		got := scanAll(t, s)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("scanner records differ:\n  got:  %q\n  want: %q", got, want)
		}
		if s.InputOffset() != int64(consumed) {
			t.Fatalf("InputOffset() = %d, want %d", s.InputOffset(), consumed)
		}
	}
}

func TestScanner_Positions(t *testing.T) {
	input := "ab,c\n\nd\n"
	s := NewScanner(strings.NewReader(input), DefaultConfig(), ScannerOptions{})

	wantBytes := []string{"ab,c", "", "d"}
	wantOffsets := []int64{5, 6, 8}
	for i := range wantBytes {
		if !s.Scan() {
			t.Fatalf("Scan %d returned false: %v", i, s.Err())
		}
		if got := string(s.Bytes()); got != wantBytes[i] {
			t.Errorf("tuple %d: Bytes() = %q, want %q", i, got, wantBytes[i])
		}
		if got := s.InputOffset(); got != wantOffsets[i] {
			t.Errorf("tuple %d: InputOffset() = %d, want %d", i, got, wantOffsets[i])
		}
		for _, f := range s.Fields() {
			if f.End() >= len(s.Buffer()) || s.Buffer()[f.End()] != ',' && s.Buffer()[f.End()] != '\n' {
				t.Errorf("tuple %d: field %v does not end at a delimiter", i, f)
			}
		}
	}
	if s.Scan() {
		t.Error("Scan after last tuple returned true")
	}
}

func TestScanner_Errors(t *testing.T) {
	t.Run("read_error", func(t *testing.T) {
		readErr := errors.New("disk gone")
		s := NewScanner(iotest.ErrReader(readErr), DefaultConfig(), ScannerOptions{})
		if s.Scan() {
			t.Fatal("Scan succeeded on failing reader")
		}
		if !errors.Is(s.Err(), readErr) {
			t.Errorf("Err() = %v, want %v", s.Err(), readErr)
		}
		if s.Scan() {
			t.Error("Scan succeeded after error")
		}
	})
	t.Run("invalid_config", func(t *testing.T) {
		s := NewScanner(strings.NewReader("a\n"), Config{}, ScannerOptions{})
		if s.Scan() {
			t.Fatal("Scan succeeded with invalid config")
		}
		if !errors.Is(s.Err(), ErrInvalidDelimiter) {
			t.Errorf("Err() = %v, want %v", s.Err(), ErrInvalidDelimiter)
		}
	})
}

// TestScanner_MatchesReference scans random inputs with tiny batches, so the
// hand-off from the windowed pass to the tail lands at varying tuples, and
// compares every location with the byte-loop oracle.
func TestScanner_MatchesReference(t *testing.T) {
	for _, pc := range propertyConfigs {
		t.Run(pc.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(17, 18))
			for iter := 0; iter < 200; iter++ {
				buf := randomInput(rng, rng.IntN(800), `\ab,|`+"\n")
				refFields, wantTuples := referenceTokenize(buf, pc.cfg)

				// Fields of the unterminated trailing tuple are never returned.
				var wantFields []FieldLocation
				if n := len(wantTuples); n > 0 {
					for _, f := range refFields {
						if f.Start <= wantTuples[n-1] {
							wantFields = append(wantFields, f)
						}
					}
				}

				s := NewScanner(strings.NewReader(string(buf)), pc.cfg, ScannerOptions{BatchSize: 1 + rng.IntN(4)})
				var gotFields []FieldLocation
				var gotTuples []int
				for s.Scan() {
					gotFields = append(gotFields, s.Fields()...)
					gotTuples = append(gotTuples, int(s.InputOffset())-1)
				}
				if err := s.Err(); err != nil {
					t.Fatal(err)
				}

				assertTokens(t, buf, gotFields, gotTuples, wantFields, wantTuples)
				if t.Failed() {
					return
				}
			}
		})
	}
}
