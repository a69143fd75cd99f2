package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gostonefire/internstore"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var cmdShell = &cobra.Command{
	Use:   "shell <base>",
	Short: "Interactive shell on an index",
	Long: `
The "shell" command opens an index, creating it when its files do not exist, and
reads commands interactively. Type help in the shell for the list of commands.
Without --disk changes are kept in memory until saved.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	cmdRoot.AddCommand(cmdShell)
}

var shellCommands = []string{"add", "find", "get", "len", "undo", "stat", "save", "help", "quit"}

// shell executes interactive commands against one index.
type shell struct {
	out   io.Writer
	base  string
	index *internstore.ByteIndex
	dirty bool
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".internstore_history")
}

func runShell(out io.Writer, base string) (err error) {
	b, err := openForShell(base)
	if err != nil {
		return
	}
	defer func() { _ = b.Close() }()

	sh := &shell{out: out, base: base, index: b}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.complete)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Fprintf(out, "internstore shell on %s (%d keys, %s)\n", base, b.Len(), b.Flavor())
	fmt.Fprintln(out, "Type 'help' for available commands.")

	for {
		input, promptErr := line.Prompt("internstore> ")
		if promptErr != nil {
			if errors.Is(promptErr, liner.ErrPromptAborted) || errors.Is(promptErr, io.EOF) {
				break
			}
			return promptErr
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if !sh.exec(input) {
			break
		}
	}

	if f, err := os.Create(historyFile()); err == nil {
		_, _ = line.WriteHistory(f)
		_ = f.Close()
	}

	if sh.dirty {
		fmt.Fprintln(out, "Unsaved changes discarded, use save before quit to keep them.")
	}

	return
}

// exists reports whether the key file of an index is present.
func exists(base string) bool {
	_, err := os.Stat(base)
	return err == nil
}

// openForShell opens the index, creating it when its key file does not exist.
func openForShell(base string) (*internstore.ByteIndex, error) {
	if exists(base) {
		return internstore.OpenByteIndex(base, indexOptions)
	}

	return internstore.CreateByteIndex(base, indexOptions)
}

// complete offers command names matching the start of the line.
func (S *shell) complete(line string) (c []string) {
	for _, cmd := range shellCommands {
		if strings.HasPrefix(cmd, strings.ToLower(line)) {
			c = append(c, cmd)
		}
	}

	return
}

// exec runs one command line, returning false when the shell should end.
func (S *shell) exec(input string) bool {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(cmd) {
	case "add":
		err = S.add(arg)
	case "find":
		err = S.find(arg)
	case "get":
		err = S.get(arg)
	case "len":
		fmt.Fprintln(S.out, S.index.Len())
	case "undo":
		err = S.undo()
	case "stat":
		err = S.stat()
	case "save":
		err = S.save()
	case "help":
		S.help()
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(S.out, "Unknown command %q, type 'help' for available commands.\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(S.out, "Error: %v\n", err)
	}

	return true
}

func (S *shell) add(key string) (err error) {
	n := S.index.Len()
	handle, err := S.index.AddString(key)
	if err != nil {
		return
	}

	if S.index.Len() > n {
		S.dirty = S.index.Flavor() == internstore.RAM
		fmt.Fprintf(S.out, "added %d\n", handle)
	} else {
		fmt.Fprintf(S.out, "exists %d\n", handle)
	}

	return
}

func (S *shell) find(key string) (err error) {
	handle, found, err := S.index.FindString(key)
	if err != nil {
		return
	}

	if found {
		fmt.Fprintln(S.out, handle)
	} else {
		fmt.Fprintln(S.out, "not found")
	}

	return
}

func (S *shell) get(arg string) (err error) {
	handle, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("handle %q: %w", arg, err)
	}

	key, err := S.index.GetString(handle)
	if err != nil {
		return
	}
	fmt.Fprintf(S.out, "%q\n", key)

	return
}

func (S *shell) undo() (err error) {
	if err = S.index.RemoveLast(); err != nil {
		return
	}

	S.dirty = S.index.Flavor() == internstore.RAM
	fmt.Fprintf(S.out, "removed %d\n", S.index.Len())

	return
}

func (S *shell) stat() (err error) {
	stat, err := S.index.Stat()
	if err != nil {
		return
	}

	err = writeStat(S.out, S.index.Parameters(), stat, S.index.StoreStats(), StatOptions{})

	return
}

func (S *shell) save() (err error) {
	if S.index.Flavor() == internstore.Disk {
		fmt.Fprintln(S.out, "disk index, changes are already written")
		return
	}
	if err = S.index.Save(S.base); err != nil {
		return
	}

	S.dirty = false
	fmt.Fprintf(S.out, "saved %d keys to %s\n", S.index.Len(), S.base)

	return
}

func (S *shell) help() {
	fmt.Fprintln(S.out, `Commands:
  add <key>      add key, print its handle
  find <key>     print the handle of key
  get <handle>   print the key of handle
  len            print the number of keys
  undo           remove the most recently added key
  stat           print sizing and slot usage
  save           write a memory index to its files
  help           print this help
  quit           leave the shell`)
}
