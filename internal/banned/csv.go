package banned

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var headerNames = map[string]struct{}{
	"plate":         {},
	"plates":        {},
	"plate number":  {},
	"platenumber":   {},
	"plate_number":  {},
	"license plate": {},
	"licenseplate":  {},
}

// ReadCSV extracts the first column of every record in an uploaded list.
// A leading header row is dropped; blank rows come back as empty strings and
// are skipped later by the registry.
func ReadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var lines []string
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read banned plates csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		value := strings.TrimPrefix(record[0], "\ufeff")
		if first {
			first = false
			if _, isHeader := headerNames[strings.ToLower(strings.TrimSpace(value))]; isHeader {
				continue
			}
		}
		lines = append(lines, value)
	}
	return lines, nil
}
