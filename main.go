package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/babylog/internal/config"
	"github.com/sadopc/babylog/internal/export"
	"github.com/sadopc/babylog/internal/store"
	"github.com/sadopc/babylog/internal/tui"
	"github.com/sadopc/babylog/internal/viewmodel"
)

const usage = `usage:
  babylog                       start the terminal UI
  babylog export [flags]        export the current baby's records
  babylog import FILE.csv       import a CSV export into the current baby
`

func main() {
	cfg := config.Load()

	if cfg.LogPath != "" {
		f, err := tea.LogToFile(cfg.LogPath, "babylog")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	s, err := store.New(cfg.DBPath, store.WithLogger(log.Default()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if len(os.Args) > 1 {
		if err := runCommand(s, cfg, os.Args[1], os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			s.Close()
			os.Exit(1)
		}
		return
	}

	app := tui.NewApp(s, cfg)
	defer app.Close()
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(s *store.Store, cfg config.Config, name string, args []string) error {
	switch name {
	case "export":
		return runExport(s, cfg, args)
	case "import":
		return runImport(s, cfg, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", name, usage)
}

// headless drives a Settings view-model from the command line and blocks
// until done reports true.
type headless struct {
	settings *viewmodel.Settings
	changed  chan struct{}
}

func newHeadless(s *store.Store, cfg config.Config) *headless {
	h := &headless{changed: make(chan struct{}, 1)}
	h.settings = viewmodel.NewSettings(s,
		viewmodel.WithLogger(log.Default()),
		viewmodel.WithLocale(export.LocaleFor(cfg.Locale)),
		viewmodel.WithLocation(cfg.Location),
		viewmodel.WithPDFFont(cfg.PDFFont),
		viewmodel.WithOnChange(func() {
			select {
			case h.changed <- struct{}{}:
			default:
			}
		}),
	)
	return h
}

func (h *headless) wait(timeout time.Duration, done func(viewmodel.SettingsState) bool) (viewmodel.SettingsState, error) {
	deadline := time.After(timeout)
	for {
		st := h.settings.State()
		if st.Err != nil {
			return st, st.Err
		}
		if done(st) {
			return st, nil
		}
		select {
		case <-h.changed:
		case <-deadline:
			return st, fmt.Errorf("timed out after %s", timeout)
		}
	}
}

func runExport(s *store.Store, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "csv", "csv, pdf or json")
	out := fs.String("out", "", "output file (default babylog-YYYY-MM-DD.<format> in the export directory)")
	categories := fs.String("categories", "", "comma-separated categories (default all)")
	charts := fs.Bool("charts", true, "include charts in PDF exports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, ok := viewmodel.ParseFormat(strings.ToLower(*format))
	if !ok {
		return fmt.Errorf("unknown format %q", *format)
	}
	var cats []store.Category
	if *categories != "" {
		for _, name := range strings.Split(*categories, ",") {
			c, ok := store.ParseCategory(strings.TrimSpace(name))
			if !ok {
				return fmt.Errorf("unknown category %q", name)
			}
			cats = append(cats, c)
		}
	}
	name := *out
	if name == "" {
		name = fmt.Sprintf("babylog-%s.%s", time.Now().Format("2006-01-02"), f)
	}

	h := newHeadless(s, cfg)
	defer h.settings.Close()
	h.settings.Send(viewmodel.Export{Format: f, Categories: cats, IncludeCharts: *charts, Path: cfg.ExportPath(name)})

	st, err := h.wait(5*time.Minute, func(st viewmodel.SettingsState) bool {
		return !st.Exporting && st.LastExport != nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported %s records to %s\n", humanize.Comma(int64(st.LastExport.Records)), st.LastExport.Path)
	return nil
}

func runImport(s *store.Store, cfg config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import takes one file\n%s", usage)
	}

	h := newHeadless(s, cfg)
	defer h.settings.Close()
	h.settings.Send(viewmodel.Import{Path: args[0]})

	st, err := h.wait(5*time.Minute, func(st viewmodel.SettingsState) bool {
		return !st.Importing && st.LastImport != nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("imported %s records from %s", humanize.Comma(int64(st.LastImport.Total())), st.LastImport.Path)
	if st.LastImport.Skipped > 0 {
		fmt.Printf(" (%d rows skipped)", st.LastImport.Skipped)
	}
	fmt.Println()
	return nil
}
