// Command readphase assembles read fragments from an indexed BAM against a
// VCF's variant sites, phases them with a weighted minimum-error-correction
// DP, and extends the result onto additional variants from haplotagged
// reads.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "readphase",
		Short:         "Read-based diploid haplotype phasing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.readphase.yaml)")
	root.PersistentFlags().Bool("verbose", false, "enable debug-level logging")
	root.PersistentFlags().Bool("quiet", false, "suppress info-level logging")

	root.AddCommand(newPhaseCmd(&cfgFile))
	root.AddCommand(newExtendCmd(&cfgFile))
	root.AddCommand(newConfigCmd())

	return root
}
