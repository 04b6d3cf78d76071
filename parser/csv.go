package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// ParseCSV flattens a CSV file into embeddable text: one line per row, each
// formatted as "header: value, header: value".
func ParseCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 2 {
		return "", nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var lines []string
	for _, row := range records[1:] {
		pairs := make([]string, 0, len(row))
		for i, v := range row {
			if i >= len(headers) {
				break
			}
			pairs = append(pairs, fmt.Sprintf("%s: %s", headers[i], v))
		}
		lines = append(lines, strings.Join(pairs, ", "))
	}

	return strings.Join(lines, "\n"), nil
}
