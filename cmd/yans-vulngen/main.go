// Command yans-vulngen compiles vulnspec source files into the
// bytecode images the collation pipeline's cves mode evaluates.
package main

import (
	"log"

	"github.com/sebcat/yans/cmd"
)

func main() {
	if err := cmd.NewVulngen().Execute(); err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}
