package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/gostonefire/internstore"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdBuild = &cobra.Command{
	Use:   "build <base> <textfile>",
	Short: "Build an index from the lines of a text file",
	Long: `
The "build" command interns every line of a text file, in order, into a new
index with the given base name. Repeated lines get the handle of their first
occurrence. Use - to read from standard input. Existing index files are replaced.
`,
	Args:              cobra.ExactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	cmdRoot.AddCommand(cmdBuild)
}

// openInput opens a file for reading, - meaning standard input.
func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}

	return f, nil
}

func runBuild(out io.Writer, base, textFile string) (err error) {
	in, err := openInput(textFile)
	if err != nil {
		return
	}
	defer func() { _ = in.Close() }()

	b, err := internstore.CreateByteIndex(base, indexOptions)
	if err != nil {
		return
	}
	defer func() {
		if closeErr := b.Close(); err == nil {
			err = closeErr
		}
	}()

	var lines int64
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if _, err = b.Add(scanner.Bytes()); err != nil {
			return
		}
		lines++
	}
	if err = scanner.Err(); err != nil {
		return errors.Wrapf(err, "read %s", textFile)
	}

	if err = b.Compact(); err != nil {
		return
	}
	if b.Flavor() == internstore.RAM {
		if err = b.Save(base); err != nil {
			return
		}
	}

	_, err = fmt.Fprintf(out, "built %s: %d keys from %d lines\n", base, b.Len(), lines)

	return
}
