package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gostonefire/internstore"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdLookup = &cobra.Command{
	Use:   "lookup <base> <key>...",
	Short: "Print the handles of keys",
	Long: `
The "lookup" command prints every key with its handle, or with - when the key
is not in the index.
`,
	Args:              cobra.MinimumNArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd.OutOrStdout(), args[0], args[1:])
	},
}

var cmdGet = &cobra.Command{
	Use:   "get <base> <handle>...",
	Short: "Print the keys of handles",
	Args:  cobra.MinimumNArgs(2),

	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(cmd.OutOrStdout(), args[0], args[1:])
	},
}

func init() {
	cmdRoot.AddCommand(cmdLookup)
	cmdRoot.AddCommand(cmdGet)
}

func runLookup(out io.Writer, base string, keys []string) (err error) {
	b, err := internstore.OpenByteIndex(base, readOptions())
	if err != nil {
		return
	}
	defer func() { _ = b.Close() }()

	for _, key := range keys {
		var handle int64
		var found bool
		if handle, found, err = b.FindString(key); err != nil {
			return
		}
		if found {
			_, err = fmt.Fprintf(out, "%s\t%d\n", key, handle)
		} else {
			_, err = fmt.Fprintf(out, "%s\t-\n", key)
		}
		if err != nil {
			return
		}
	}

	return
}

func runGet(out io.Writer, base string, handles []string) (err error) {
	b, err := internstore.OpenByteIndex(base, readOptions())
	if err != nil {
		return
	}
	defer func() { _ = b.Close() }()

	for _, arg := range handles {
		var handle int64
		if handle, err = strconv.ParseInt(arg, 10, 64); err != nil {
			return errors.Wrapf(err, "handle %q", arg)
		}

		var key string
		if key, err = b.GetString(handle); err != nil {
			return
		}
		if _, err = fmt.Fprintf(out, "%d\t%s\n", handle, key); err != nil {
			return
		}
	}

	return
}
