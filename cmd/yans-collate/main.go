// Command yans-collate collates recorded banner, match, and vulnspec
// data into the CSV tables the rest of the toolkit consumes.
package main

import (
	"log"

	"github.com/sebcat/yans/cmd"
)

func main() {
	if err := cmd.NewCollate().Execute(); err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}
