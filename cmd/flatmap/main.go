// Package main provides the flatmap command.
//
// flatmap checks column configuration files before they are used by a
// mapper:
//
//	flatmap check -config columns.yaml [-header data.csv] [-comma ';']
//
// check validates the file and, with -header, compares its columns with the
// first row of a CSV file. The exit status is 1 when errors were found.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"

	"flat-mapper/internal/mapping"
	"flat-mapper/source"
	"flat-mapper/source/csvsource"
)

const usage = `flatmap - column configuration checker
Commands:
  check -config FILE [-header CSV] [-comma C]
Run "flatmap check -help" for flag details`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	switch args[0] {
	case "check":
		return check(args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprintln(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s\n", args[0], usage)
		return 2
	}
}

func check(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "column configuration file (YAML)")
	headerPath := fs.String("header", "", "CSV file whose first row is checked against the configuration")
	comma := fs.String("comma", ",", "CSV field delimiter")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *configPath == "" {
		fmt.Fprintln(stderr, "check: -config is required")
		return 2
	}

	file, err := mapping.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	diags := mapping.Validate(file)

	if *headerPath != "" {
		header, err := readHeader(*headerPath, *comma)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}

		diags.Merge(*mapping.CheckHeader(file, header))
	}

	if out := diags.Describe(); out != "" {
		fmt.Fprintln(stdout, out)
	}

	if diags.HasErrors() {
		return 1
	}

	fmt.Fprintln(stdout, "ok")

	return 0
}

func readHeader(path, comma string) ([]string, error) {
	r, size := utf8.DecodeRuneInString(comma)
	if size == 0 || size != len(comma) {
		return nil, errors.Errorf("invalid -comma %q", comma)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening header file")
	}
	defer f.Close()

	header, err := source.ReadHeader(csvsource.New(f, csvsource.WithComma(r)))
	if errors.Is(err, io.EOF) {
		return nil, errors.Errorf("%s: empty file", path)
	}

	return header, err
}
