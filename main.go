// Command unlambda is a reference-compatible Unlambda interpreter: it
// reads a program from a file or standard input, reduces it to normal
// form against a generational cell heap, and performs character I/O as
// a side effect.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"unlambda_go/pkg/cell"
	"unlambda_go/pkg/eval"
	"unlambda_go/pkg/parser"
	"unlambda_go/pkg/stats"
)

const version = "1.0.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options is the result of hand-scanning argv: spec.md §6's flag
// grammar mixes a handful of long-form flags with a non-POSIX
// concatenated-digit one (-v0..-v3), which neither the standard flag
// package nor a general CLI framework models directly. The reference
// interpreter (original_source/unlambda.c) scans argv by hand for the
// same reason; this mirrors that scan exactly, last-flag-of-a-kind wins.
type options struct {
	verbosity  stats.Level
	unbuffered bool
	sourceFile string
	haveFile   bool
}

func run(args []string) error {
	opts, earlyExit, err := parseArgs(args)
	if err != nil {
		return err
	}
	if earlyExit {
		return nil
	}

	h := cell.New()
	reporter := stats.NewReporter(opts.verbosity, os.Stderr)
	h.SetObserver(reporter)

	var srcFile *os.File
	if opts.haveFile {
		f, err := os.Open(opts.sourceFile)
		if err != nil {
			return errors.Wrapf(err, "cannot open %s", opts.sourceFile)
		}
		defer f.Close()
		srcFile = f
	} else {
		srcFile = os.Stdin
	}

	src := bufio.NewReader(srcFile)
	root, err := parser.Parse(src, h)
	if err != nil {
		return err
	}

	if !opts.haveFile {
		// Source and input share stdin: discard whatever remains of the
		// current line so '@'/'?'/'|' see clean user input afterward.
		for {
			b, err := src.ReadByte()
			if err != nil || b == '\n' {
				break
			}
		}
	}

	var out io.Writer = os.Stdout
	var buffered *bufio.Writer
	if !opts.unbuffered {
		buffered = bufio.NewWriter(os.Stdout)
		out = buffered
	}

	// When the program itself came from stdin, '@'/'?'/'|' must keep
	// reading from the same buffered reader rather than a fresh one, or
	// bytes already buffered ahead by the parse would be lost.
	var in io.ByteReader = bufio.NewReader(os.Stdin)
	if !opts.haveFile {
		in = src
	}

	reporter.MarkEvalStart()
	m := eval.New(h, byteReaderSource{in}, out)
	runErr := m.Run(root)
	if buffered != nil {
		buffered.Flush()
	}
	reporter.ReportStats(h)
	return runErr
}

// byteReaderSource adapts an io.ByteReader to io.Reader so it can be
// passed through eval.New's general-purpose signature; eval.New detects
// that ReadByte is already implemented and uses it directly.
type byteReaderSource struct {
	io.ByteReader
}

func (s byteReaderSource) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	c, err := s.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = c
	return 1, nil
}

func parseArgs(args []string) (options, bool, error) {
	opts := options{verbosity: stats.LevelNone}

	for _, a := range args {
		switch {
		case len(a) >= 2 && a[0] == '-' && a[1] == 'v' && len(a) == 3 && isDigit(a[2]):
			n, _ := strconv.Atoi(a[2:])
			opts.verbosity = stats.Level(n)
		case a == "-h":
			printHelp()
			return opts, true, nil
		case a == "-v":
			fmt.Printf("Unlambda interpreter %s\n", version)
			return opts, true, nil
		case a == "-u":
			opts.unbuffered = true
		case len(a) > 0 && a[0] == '-':
			return opts, false, errors.Errorf("bad option %s  (Try -h for more information).", a)
		default:
			opts.sourceFile = a
			opts.haveFile = true
		}
	}
	return opts, false, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '3' }

func printHelp() {
	fmt.Println("Usage: unlambda [options] [sourcefile]")
	fmt.Println("  -h       print this help and exit")
	fmt.Println("  -v       print version and exit")
	fmt.Println("  -v[0-3]  set verbosity level (default: 0)")
	fmt.Println("  -u       disable stdout buffering")
}
