package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/sadopc/babylog/internal/store"
)

// WriteCSV writes one section per non-empty category: a marker row, a header
// row, then one row per record. Every row is flushed before progress is
// reported, so a failing writer stops progress at the last row that reached w.
func WriteCSV(w io.Writer, data Data, opts Options) error {
	cw := csv.NewWriter(w)
	c := codec{l: opts.locale(), loc: opts.location()}
	total := data.Total()
	done := 0

	write := func(row []string) error {
		if err := cw.Write(row); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}

	for _, cat := range store.Categories {
		records := data.Records(cat)
		if len(records) == 0 {
			continue
		}
		if err := write([]string{c.l.Marker(cat)}); err != nil {
			return fmt.Errorf("write %s section: %w", cat, err)
		}
		if err := write(c.l.Headers[cat]); err != nil {
			return fmt.Errorf("write %s header: %w", cat, err)
		}
		for _, r := range records {
			if err := write(c.row(r)); err != nil {
				return fmt.Errorf("write %s row: %w", cat, err)
			}
			done++
			opts.report(done, total)
		}
	}

	if total == 0 {
		opts.report(0, 0)
	}
	return nil
}

// ToCSV creates path and writes data to it.
func ToCSV(path string, data Data, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := WriteCSV(f, data, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	return nil
}
