package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Base version information.
//
// This is the fallback data used when version information from git is
// not provided via go ldflags at build time.
var (
	gitVersion   = "unknown"
	gitCommit    = "unknown"
	gitTreeState = "unknown"
	buildDate    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("GitVersion:\t%s\n", gitVersion)
			fmt.Printf("GitCommit:\t%s\n", gitCommit)
			fmt.Printf("GitTreeState:\t%s\n", gitTreeState)
			fmt.Printf("BuildDate:\t%s\n", buildDate)
			fmt.Printf("GoVersion:\t%s\n", runtime.Version())
			fmt.Printf("Compiler:\t%s\n", runtime.Compiler)
			fmt.Printf("Platform:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
