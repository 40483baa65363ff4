// Package persist writes generated artifacts under sortable, timezone-aware names.
package persist

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultZone is the civil timezone used for output names.
const DefaultZone = "Europe/London"

// StampLayout formats as YYYYMMDD-HHMMSS.
const StampLayout = "20060102-150405"

const (
	filePrefix = "CV_Customized_"
	docxExt    = ".docx"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() (now time.Time) {
	now = time.Now()
	return now
}

// Persister writes documents into Dir.
type Persister struct {
	Dir    string
	Zone   string
	Ext    string
	Clock  Clock
	Logger zerolog.Logger
}

// Name returns the filename for an artifact generated now, without the directory.
func (p *Persister) Name() (name string) {
	ext := p.Ext
	if ext == "" {
		ext = docxExt
	}
	name = filePrefix + p.Stamp() + ext
	return name
}

// Stamp formats the clock's current time in the configured zone, falling back to UTC when
// the zone cannot be loaded.
func (p *Persister) Stamp() (stamp string) {
	clock := p.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	zone := p.Zone
	if zone == "" {
		zone = DefaultZone
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		p.Logger.Debug().Err(err).Str("zone", zone).Msg("timezone unavailable, using UTC")
		loc = time.UTC
	}

	stamp = clock.Now().In(loc).Format(StampLayout)
	return stamp
}

// Persist writes a to a new timestamped file in Dir and returns its path. An existing file
// with the same name is overwritten.
func (p *Persister) Persist(a io.WriterTo) (path string, err error) {
	dir := p.Dir
	if dir == "" {
		dir = "."
	}

	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory %s", dir)
		return path, err
	}

	path = filepath.Join(dir, p.Name())

	var buf bytes.Buffer
	_, err = a.WriteTo(&buf)
	if err != nil {
		err = errors.Wrap(err, "failed to serialize document")
		return path, err
	}

	err = os.WriteFile(path, buf.Bytes(), 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write %s", path)
		return path, err
	}

	return path, err
}

// WriteJSON writes data to path as given. Callers pass compact UTF-8 JSON.
func WriteJSON(path string, data []byte) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		err = os.MkdirAll(dir, 0750)
		if err != nil {
			err = errors.Wrapf(err, "failed to create directory for %s", path)
			return err
		}
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write %s", path)
		return err
	}

	return err
}
