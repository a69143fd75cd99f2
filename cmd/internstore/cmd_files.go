package main

import (
	"fmt"
	"io"

	"github.com/gostonefire/internstore"
	"github.com/spf13/cobra"
)

var cmdCopy = &cobra.Command{
	Use:               "copy <src> <dst>",
	Short:             "Copy the files of an index",
	Args:              cobra.ExactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopy(cmd.OutOrStdout(), args[0], args[1])
	},
}

var cmdDelete = &cobra.Command{
	Use:               "delete <base>",
	Short:             "Remove the files of an index",
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return internstore.RemoveFiles(args[0])
	},
}

func init() {
	cmdRoot.AddCommand(cmdCopy)
	cmdRoot.AddCommand(cmdDelete)
}

func runCopy(out io.Writer, src, dst string) (err error) {
	if err = internstore.CopyFiles(src, dst); err != nil {
		return
	}

	_, err = fmt.Fprintf(out, "copied %s to %s\n", src, dst)

	return
}
