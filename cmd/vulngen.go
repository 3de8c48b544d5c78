package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sebcat/yans/vulnspec"
)

var (
	flagVulngenIn  string
	flagVulngenOut string
)

// newCompileCmd wires vulnspec.Compile to file-backed flags, grounded
// on lib/vulnspec/compiler.c's source-to-bytecode pipeline.
func newCompileCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "compile",
		Short: "Compile a vulnspec source file into a bytecode image",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(flagVulngenIn)
			if err != nil {
				return wrapf("open vulnspec source", err)
			}
			defer in.Close()

			data, err := vulnspec.Compile(in)
			if err != nil {
				return wrapf("compile vulnspec", err)
			}

			return os.WriteFile(flagVulngenOut, data, 0o644)
		},
	}
	c.Flags().StringVar(&flagVulngenIn, "in", "", "vulnspec source file")
	c.Flags().StringVar(&flagVulngenOut, "out", "", "bytecode image output path")
	c.MarkFlagRequired("in")
	c.MarkFlagRequired("out")
	return c
}
