// Command simdtext tokenizes delimited text files and reports what it found.
//
//	simdtext [flags] FILE...
//
// For every file it prints the number of complete tuples, the number of
// materialized fields, how many of them still hold escaped bytes, and the
// length of the unterminated remainder.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	simdtext "github.com/nnnkkk7/go-simdtext"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	cfg   simdtext.Config
	scan  simdtext.ScannerOptions
	dump  bool
	files []string
}

// stats summarizes one scanned file.
type stats struct {
	Tuples    int
	Fields    int
	Escaped   int
	Remainder int
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, verbose, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "simdtext: %v\n", err)
		return 2
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("starting", "kernel", simdtext.Implementation(), "files", len(opts.files))

	out := bufio.NewWriter(stdout)
	defer out.Flush()

	status := 0
	for _, name := range opts.files {
		st, err := scanFile(name, opts, out)
		if err != nil {
			logger.Error("scan failed", "file", name, "err", err)
			status = 1
			continue
		}
		fmt.Fprintf(out, "%s\ttuples=%d\tfields=%d\tescaped=%d\tremainder=%d\n",
			name, st.Tuples, st.Fields, st.Escaped, st.Remainder)
		logger.Debug("scanned", "file", name, "tuples", st.Tuples, "fields", st.Fields)
	}
	return status
}

func parseFlags(args []string, stderr io.Writer) (options, bool, error) {
	fs := flag.NewFlagSet("simdtext", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: simdtext [flags] FILE...\n")
		fs.PrintDefaults()
	}

	var (
		tuple      = fs.String("tuple", `\n`, "tuple delimiter byte")
		field      = fs.String("field", ",", "field delimiter byte")
		collection = fs.String("collection", "", "collection item delimiter byte (empty: none)")
		escape     = fs.String("escape", "", "escape byte (empty: escaping disabled)")
		partitions = fs.Int("partition-keys", 0, "leading columns of every tuple to skip")
		batch      = fs.Int("batch", simdtext.DefaultBatchSize, "tuples per tokenizer call")
		skipBOM    = fs.Bool("skip-bom", false, "drop a leading UTF-8 byte order mark")
		dump       = fs.Bool("dump", false, "print every tuple's fields")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return options{}, false, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return options{}, false, errors.New("no input files")
	}

	var opts options
	for _, d := range []struct {
		name string
		val  string
		dst  *byte
	}{
		{"tuple", *tuple, &opts.cfg.TupleDelim},
		{"field", *field, &opts.cfg.FieldDelim},
		{"collection", *collection, &opts.cfg.CollectionDelim},
		{"escape", *escape, &opts.cfg.Escape},
	} {
		b, err := parseByte(d.val)
		if err != nil {
			return options{}, false, errors.Wrapf(err, "-%s", d.name)
		}
		*d.dst = b
	}
	opts.cfg.NumPartitionKeys = *partitions
	if err := opts.cfg.Validate(); err != nil {
		return options{}, false, err
	}

	opts.scan = simdtext.ScannerOptions{BatchSize: *batch, SkipBOM: *skipBOM}
	opts.dump = *dump
	opts.files = fs.Args()
	return opts, *verbose, nil
}

// parseByte turns a flag value into a single byte. It accepts a literal
// byte or a Go escape such as \t, \n or \x01. The empty string is 0.
func parseByte(s string) (byte, error) {
	switch len(s) {
	case 0:
		return 0, nil
	case 1:
		return s[0], nil
	}
	v, _, tail, err := strconv.UnquoteChar(s, '\'')
	if err != nil || tail != "" || v > 0xff {
		return 0, errors.Newf("%q is not a single byte", s)
	}
	return byte(v), nil
}

func scanFile(name string, opts options, out io.Writer) (stats, error) {
	f, err := os.Open(name)
	if err != nil {
		return stats{}, err
	}
	defer f.Close()
	return scan(f, opts, out)
}

func scan(r io.Reader, opts options, out io.Writer) (stats, error) {
	var st stats
	s := simdtext.NewScanner(r, opts.cfg, opts.scan)
	for s.Scan() {
		st.Tuples++
		fields := s.Fields()
		st.Fields += len(fields)
		for _, f := range fields {
			if f.NeedsUnescape() {
				st.Escaped++
			}
		}
		if opts.dump {
			dumpTuple(out, st.Tuples-1, s.Buffer(), fields)
		}
	}
	if err := s.Err(); err != nil {
		return stats{}, err
	}
	st.Remainder = len(s.Remainder())
	return st, nil
}

// dumpTuple prints one tuple, marking fields that need unescaping with '*'.
func dumpTuple(w io.Writer, i int, buf []byte, fields []simdtext.FieldLocation) {
	fmt.Fprintf(w, "%d:", i)
	for _, f := range fields {
		mark := ""
		if f.NeedsUnescape() {
			mark = "*"
		}
		fmt.Fprintf(w, " [%d]%q%s", f.Start, f.Bytes(buf), mark)
	}
	fmt.Fprintln(w)
}
