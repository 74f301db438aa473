package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/sadopc/babylog/internal/store"
)

const (
	pdfMargin   = 15.0
	pdfRowH     = 6.0
	pdfFontSize = 8.0
)

type pdfDoc struct {
	*fpdf.Fpdf
	family string
	tr     func(string) string
	width  float64 // printable width
}

func newPDF(opts Options) *pdfDoc {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	f.SetAutoPageBreak(true, pdfMargin)
	f.SetCreator("babylog", true)

	d := &pdfDoc{Fpdf: f, family: "Helvetica"}
	if opts.FontPath != "" {
		f.AddUTF8Font("body", "", opts.FontPath)
		d.family = "body"
		d.tr = func(s string) string { return s }
	} else {
		d.tr = f.UnicodeTranslatorFromDescriptor("")
	}
	pageW, _ := f.GetPageSize()
	d.width = pageW - 2*pdfMargin
	return d
}

// pdfLocale is opts' locale, or English when the locale's labels cannot be
// drawn with the built-in cp1252 fonts.
func pdfLocale(opts Options) *Locale {
	l := opts.locale()
	if opts.FontPath == "" && l.NeedsUnicodeFont() {
		return English
	}
	return l
}

func (d *pdfDoc) font(size float64, bold bool) {
	style := ""
	if bold && d.family != "body" {
		style = "B"
	}
	d.SetFont(d.family, style, size)
}

// fit shortens s until it fits in w.
func (d *pdfDoc) fit(s string, w float64) string {
	s = d.tr(s)
	if d.GetStringWidth(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && d.GetStringWidth(string(r)+"..") > w {
		r = r[:len(r)-1]
	}
	return string(r) + ".."
}

func (d *pdfDoc) chart(i int, c Chart) {
	name := fmt.Sprintf("chart-%d", i)
	info := d.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(c.PNG))
	if d.Err() || info == nil {
		return
	}
	h := d.width * info.Height() / info.Width()
	_, pageH := d.GetPageSize()
	if d.GetY()+h+pdfRowH > pageH-pdfMargin {
		d.AddPage()
	}
	if c.Title != "" {
		d.font(11, true)
		d.CellFormat(d.width, pdfRowH+1, d.tr(c.Title), "", 1, "L", false, 0, "")
	}
	y := d.GetY()
	d.ImageOptions(name, pdfMargin, y, d.width, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	d.SetY(y + h + 4)
}

func (d *pdfDoc) table(title string, header []string, rows func(yield func([]string) bool)) {
	d.Ln(4)
	d.font(12, true)
	d.CellFormat(d.width, pdfRowH+2, d.tr(title), "", 1, "L", false, 0, "")

	colW := d.width / float64(len(header))
	d.font(pdfFontSize, true)
	d.SetFillColor(230, 230, 230)
	for _, h := range header {
		d.CellFormat(colW, pdfRowH, d.fit(h, colW-1), "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)

	d.font(pdfFontSize, false)
	rows(func(row []string) bool {
		for i := range header {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			d.CellFormat(colW, pdfRowH, d.fit(cell, colW-1), "1", 0, "L", false, 0, "")
		}
		d.Ln(-1)
		return !d.Err()
	})
}

// WritePDF renders a title, the charts at full width, then one table per
// non-empty category. Progress counts charts plus records; the final 1.0 is
// reported only after the document has been written to w.
func WritePDF(w io.Writer, data Data, charts []Chart, opts Options) error {
	d := newPDF(opts)
	c := codec{l: pdfLocale(opts), loc: opts.location()}
	steps := len(charts) + data.Total()
	done := 0
	step := func() {
		done++
		opts.report(done, steps+1)
	}

	title := opts.Title
	if title == "" {
		title = c.l.Title
	}
	d.SetTitle(title, true)
	d.AddPage()
	d.font(16, true)
	d.CellFormat(d.width, 10, d.tr(title), "", 1, "C", false, 0, "")
	d.font(9, false)
	d.CellFormat(d.width, 6, time.Now().In(c.loc).Format(cellLocalTime), "", 1, "C", false, 0, "")
	d.Ln(4)

	for i, ch := range charts {
		d.chart(i, ch)
		if d.Err() {
			return fmt.Errorf("render pdf chart %d: %w", i, d.Error())
		}
		step()
	}

	for _, cat := range store.Categories {
		records := data.Records(cat)
		if len(records) == 0 {
			continue
		}
		d.table(c.l.Sections[cat], c.l.Headers[cat], func(yield func([]string) bool) {
			for _, r := range records {
				if !yield(c.row(r)) {
					return
				}
				step()
			}
		})
		if d.Err() {
			return fmt.Errorf("render pdf %s table: %w", cat, d.Error())
		}
	}

	if err := d.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	opts.report(1, 1)
	return nil
}

// ToPDF creates path and writes the document to it.
func ToPDF(path string, data Data, charts []Chart, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf file: %w", err)
	}
	if err := WritePDF(f, data, charts, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pdf file: %w", err)
	}
	return nil
}
