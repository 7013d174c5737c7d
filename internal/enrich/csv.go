package enrich

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one enriched term in the CSV artifact. Data carries the raw
// enrichment JSON.
type Row struct {
	Term    string
	TopicID string
	Data    string
}

var csvHeader = []string{"term", "topic_id", "enrichment_data"}

// WriteCSV writes rows with a header, replacing the file.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Term, row.TopicID, row.Data}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// AppendCSV appends rows to an existing file, writing the header first when
// the file is new or empty.
func AppendCSV(path string, rows []Row) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Term, row.TopicID, row.Data}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV reads an enrichment CSV back into rows.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	var rows []Row
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if first {
			first = false
			if record[0] == csvHeader[0] {
				continue
			}
		}
		rows = append(rows, Row{Term: record[0], TopicID: record[1], Data: record[2]})
	}
	return rows, nil
}

// existingTerms returns the lowercased terms already present in a CSV.
// A missing file is an empty set.
func existingTerms(path string) (map[string]bool, error) {
	rows, err := ReadCSV(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		seen[strings.ToLower(row.Term)] = true
	}
	return seen, nil
}
