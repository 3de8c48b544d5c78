package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	sce "github.com/sebcat/yans/errors"
	"github.com/sebcat/yans/match/reset"
)

// parsePatternFile reads a component match pattern table: one pattern
// per line, "name<TAB>regex", blank lines and lines starting with '#'
// ignored. The original compiles its pattern table into lib/match/*.c
// arrays at build time; this line format is the on-disk equivalent for
// a pattern set that isn't baked into the binary.
func parsePatternFile(data []byte) ([]reset.Pattern, error) {
	var patterns []reset.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			return nil, sce.WithMessage(sce.ErrInputFormat, fmt.Sprintf("pattern file line %d: expected name<TAB>regex", lineNo))
		}
		patterns = append(patterns, reset.Pattern{
			Type:    reset.TypeComponent,
			Name:    fields[0],
			Pattern: fields[1],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, sce.WithMessage(sce.ErrInputFormat, "pattern file: "+err.Error())
	}
	return patterns, nil
}
