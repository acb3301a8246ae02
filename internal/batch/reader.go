// Package batch reads submission lists so whole word files can be
// enqueued in one CLI invocation.
package batch

import (
	"fmt"
	"os"
	"strings"
)

// ReadBatchFile reads queries from a file, one per line. Blank lines and
// lines starting with '#' are skipped. Inline whitespace is preserved so
// multi-word phrases stay intact; normalization happens at submit time.
func ReadBatchFile(filename string) ([]string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var queries []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}

	return queries, nil
}
