package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gostonefire/internstore"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var cmdStat = &cobra.Command{
	Use:   "stat <base>",
	Short: "Print sizing and slot usage of an index",
	Long: `
The "stat" command prints the sizing parameters of an index, the sizes of its
stores and how keys are distributed over slots. With --chains the number of
slots per chain length is printed as well.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStat(cmd.OutOrStdout(), args[0], statOptions)
	},
}

// StatOptions bundles all options for the stat command.
type StatOptions struct {
	Chains bool
}

var statOptions StatOptions

func init() {
	cmdRoot.AddCommand(cmdStat)
	addStatFlags(cmdStat.Flags(), &statOptions)
}

func addStatFlags(f *pflag.FlagSet, opts *StatOptions) {
	f.BoolVar(&opts.Chains, "chains", false, "print the chain length distribution")
}

func runStat(out io.Writer, base string, opts StatOptions) (err error) {
	b, err := internstore.OpenByteIndex(base, readOptions())
	if err != nil {
		return
	}
	defer func() { _ = b.Close() }()

	stat, err := b.Stat()
	if err != nil {
		return
	}

	err = writeStat(out, b.Parameters(), stat, b.StoreStats(), opts)

	return
}

func writeStat(out io.Writer, params internstore.Parameters, stat internstore.Stat, stores []internstore.StoreStat, opts StatOptions) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "keys\t%d\n", stat.Keys)
	fmt.Fprintf(tw, "slots\t%d\n", stat.Slots)
	fmt.Fprintf(tw, "used slots\t%d\n", stat.UsedSlots)
	fmt.Fprintf(tw, "longest chain\t%d\n", stat.LongestChain)
	fmt.Fprintf(tw, "reindex size\t%d\n", params.ReindexSize)
	fmt.Fprintf(tw, "fill factor\t%.6g\n", params.FillFactor)
	fmt.Fprintf(tw, "cell width\t%d\n", params.CellWidth)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "store\twidth\tsize\tcapacity")
	for _, s := range stores {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", s.Name, s.Width, s.Size, s.Capacity)
	}

	if opts.Chains {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "chain length\tslots")
		for length, n := range stat.ChainDistribution {
			if n > 0 {
				fmt.Fprintf(tw, "%d\t%d\n", length, n)
			}
		}
	}

	return tw.Flush()
}
