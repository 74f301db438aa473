// Package viewmodel holds one state machine per screen. A screen exposes its
// current state through State and takes user intents through Send; storage
// and file work runs as tasks owned by the screen and ends with Close.
package viewmodel

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/sadopc/babylog/internal/export"
)

// FS is where exports are written and imports are read from.
type FS interface {
	Create(name string) (io.WriteCloser, error)
	Open(name string) (io.ReadSeekCloser, error)
}

// OSFS is the local file system.
type OSFS struct{}

func (OSFS) Create(name string) (io.WriteCloser, error) { return os.Create(name) }

func (OSFS) Open(name string) (io.ReadSeekCloser, error) { return os.Open(name) }

type config struct {
	logger   *log.Logger
	onChange func()
	now      func() time.Time
	fs       FS
	locale   *export.Locale
	location *time.Location
	fontPath string
	dayCheck time.Duration
}

type Option func(*config)

func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOnChange is called after every state change, from the screen's update
// goroutine.
func WithOnChange(fn func()) Option {
	return func(c *config) { c.onChange = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

func WithFS(fs FS) Option {
	return func(c *config) { c.fs = fs }
}

// WithLocale sets the locale of exported files.
func WithLocale(l *export.Locale) Option {
	return func(c *config) { c.locale = l }
}

// WithLocation sets the time zone of exported and imported timestamps.
func WithLocation(loc *time.Location) Option {
	return func(c *config) { c.location = loc }
}

// WithPDFFont registers a UTF-8 font for PDF exports.
func WithPDFFont(path string) Option {
	return func(c *config) { c.fontPath = path }
}

// WithDayCheck sets how often screens with windows ending tonight look for a
// new day. The default is one minute.
func WithDayCheck(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.dayCheck = d
		}
	}
}

func newConfig(opts []Option) config {
	c := config{
		logger:   log.Default(),
		now:      time.Now,
		fs:       OSFS{},
		locale:   export.English,
		location: time.Local,
		dayCheck: time.Minute,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
