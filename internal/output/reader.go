package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/refyne-dataflow/pkg/table"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 64 * 1024 * 1024

// ReadRecords decodes all records from r in the given format.
func ReadRecords(r io.Reader, format Format) ([]table.Record, error) {
	switch format {
	case FormatJSON:
		var recs []table.Record
		if err := json.NewDecoder(r).Decode(&recs); err != nil {
			return nil, fmt.Errorf("failed to parse JSON records: %w", err)
		}
		return recs, nil
	case FormatJSONL:
		return readJSONL(r)
	case FormatYAML:
		var recs []table.Record
		if err := yaml.NewDecoder(r).Decode(&recs); err != nil {
			if err == io.EOF {
				return []table.Record{}, nil
			}
			return nil, fmt.Errorf("failed to parse YAML records: %w", err)
		}
		return recs, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// ReadTable decodes a table from r in the given format.
func ReadTable(r io.Reader, format Format) (*table.Table, error) {
	recs, err := ReadRecords(r, format)
	if err != nil {
		return nil, err
	}
	return table.FromRecords(recs), nil
}

func readJSONL(r io.Reader) ([]table.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	recs := make([]table.Record, 0)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var rec table.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse JSONL line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
