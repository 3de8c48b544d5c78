// Package cmd implements the shared cobra command scaffolding for the
// yans-collate and yans-vulngen binaries, grounded on the teacher's
// cmd/root.go (kept shape: a New(...) constructor returning the root
// *cobra.Command, sub-commands attached via cmd.AddCommand, shared
// flags registered once and read back through package vars).
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sebcat/yans/log"
)

// NewCollate builds the yans-collate root command: one sub-command per
// collation mode, grounded on collate_main's getopt_long dispatch over
// -t/--type.
func NewCollate() *cobra.Command {
	root := &cobra.Command{
		Use:   "yans-collate",
		Short: "Collate banner, match, and vulnerability data into CSV",
		Long: "yans-collate reads recorded scan data and emits the services, " +
			"certificates, components, and CVE CSV tables the rest of the " +
			"toolkit consumes.",
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", string(log.DefaultLevel), "log level")
	root.PersistentFlags().Uint32Var(&flagSeed, "seed", 1, "hash seed for collation object tables")

	root.AddCommand(newBannersCmd())
	root.AddCommand(newHTTPMsgsCmd())
	root.AddCommand(newMatchesCmd())
	root.AddCommand(newComponentsCmd())
	root.AddCommand(newCVEsCmd())
	root.AddCommand(versionCmd())
	return root
}

// NewVulngen builds the yans-vulngen root command: a single compile
// sub-command wrapping vulnspec.Compile.
func NewVulngen() *cobra.Command {
	root := &cobra.Command{
		Use:   "yans-vulngen",
		Short: "Compile vulnspec source into a bytecode image",
	}
	root.AddCommand(newCompileCmd())
	root.AddCommand(versionCmd())
	return root
}

func wrapf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
