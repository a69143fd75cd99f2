package main

import (
	"fmt"
	"io"

	"github.com/gostonefire/internstore"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdExport = &cobra.Command{
	Use:   "export <base> <out>",
	Short: "Write all keys to a compressed export file",
	Long: `
The "export" command writes every key of an index, in handle order, to a zstd
compressed export file. Use - to write to standard output. Importing the file
gives an index with the same handles.
`,
	Args:              cobra.ExactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.OutOrStdout(), args[0], args[1])
	},
}

var cmdImport = &cobra.Command{
	Use:               "import <in> <base>",
	Short:             "Build an index from an export file",
	Args:              cobra.ExactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	cmdRoot.AddCommand(cmdExport)
	cmdRoot.AddCommand(cmdImport)
}

func runExport(stdout io.Writer, base, out string) (err error) {
	b, err := internstore.OpenByteIndex(base, readOptions())
	if err != nil {
		return
	}
	defer func() { _ = b.Close() }()

	if out == "-" {
		return b.Export(stdout)
	}

	pr, pw := io.Pipe()
	go func() {
		_ = pw.CloseWithError(b.Export(pw))
	}()
	if err = atomic.WriteFile(out, pr); err != nil {
		_ = pr.CloseWithError(err)
		return errors.Wrapf(err, "write %s", out)
	}

	return
}

func runImport(stdout io.Writer, in, base string) (err error) {
	r, err := openInput(in)
	if err != nil {
		return
	}
	defer func() { _ = r.Close() }()

	b, err := internstore.ImportByteIndex(r, base, indexOptions)
	if err != nil {
		return
	}
	defer func() {
		if closeErr := b.Close(); err == nil {
			err = closeErr
		}
	}()

	if b.Flavor() == internstore.RAM {
		if err = b.Save(base); err != nil {
			return
		}
	}

	_, err = fmt.Fprintf(stdout, "imported %d keys into %s\n", b.Len(), base)

	return
}
