package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gostonefire/internstore"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "internstore",
	Short: "Build and query hash-indexed key stores",
	Long: `
internstore builds, inspects and queries interning key stores: files mapping byte
string keys to stable integer handles and back.

An index with base name B consists of the files B, B.ends, B.hash, B.slots and
B.chain. Indexes are loaded into memory unless --disk is given, in which case
the files are used in place.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// GlobalOptions holds the flags of all commands.
type GlobalOptions struct {
	Config   string
	Verbose  bool
	Disk     bool
	LockWait time.Duration
}

var globalOptions GlobalOptions

// indexOptions are the index options resolved from the configuration file and flags.
var indexOptions internstore.Options

func init() {
	f := cmdRoot.PersistentFlags()
	f.StringVarP(&globalOptions.Config, "config", "c", "", "configuration `file` (JSON with comments)")
	f.BoolVarP(&globalOptions.Verbose, "verbose", "v", false, "log debug output")
	f.BoolVar(&globalOptions.Disk, "disk", false, "work on index files in place instead of loading them into memory")
	f.DurationVar(&globalOptions.LockWait, "lock-wait", 0, "how long to wait for locked index files")
}

// setup resolves logging and index options before any command runs.
func setup() (err error) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	indexOptions = internstore.Options{}
	if globalOptions.Config != "" {
		if indexOptions, err = internstore.LoadOptions(globalOptions.Config); err != nil {
			return
		}
	}
	if globalOptions.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	if globalOptions.Disk {
		indexOptions.Flavor = internstore.Disk
	}
	if globalOptions.LockWait > 0 {
		indexOptions.LockWait = globalOptions.LockWait
	}

	return
}

// readOptions returns the index options for commands that only read.
func readOptions() internstore.Options {
	opts := indexOptions
	opts.ReadOnly = true
	return opts
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
