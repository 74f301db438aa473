package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sadopc/babylog/internal/store"
)

// Import is the result of reading an exported CSV file. Records carry no
// baby or record id; the caller assigns both on insert.
type Import struct {
	Data
	Skipped int // data rows whose primary timestamp could not be read
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// countRows is the pre-scan that sizes import progress.
func countRows(r io.Reader) (int, error) {
	cr := newReader(r)
	n := 0
	for {
		_, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// ReadCSV parses a file written by WriteCSV. It makes two passes over r: one
// to count rows for progress and one to parse. A file with no recognised
// section markers yields an empty Import, not an error.
func ReadCSV(r io.ReadSeeker, opts Options) (*Import, error) {
	total, err := countRows(r)
	if err != nil {
		return nil, fmt.Errorf("scan csv: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind csv: %w", err)
	}

	c := codec{l: opts.locale(), loc: opts.location()}
	out := &Import{}
	cr := newReader(r)

	var section store.Category
	inSection, header := false, false
	lines := 0

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", lines+1, err)
		}
		lines++

		first := ""
		if len(row) > 0 {
			first = strings.TrimSpace(row[0])
		}
		switch {
		case strings.HasPrefix(first, "==="):
			section, inSection = sectionOf(first)
			header = inSection
		case !inSection:
		case header:
			header = false
		default:
			if !c.parse(section, cells(row), &out.Data) {
				out.Skipped++
			}
		}
		opts.report(lines, total)
	}

	if total == 0 {
		opts.report(0, 0)
	}
	return out, nil
}

// FromCSV opens path and reads it with ReadCSV.
func FromCSV(path string, opts Options) (*Import, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}
