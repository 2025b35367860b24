// Package partition loads yearly arrest partitions from object storage into
// in-memory tables.
package partition

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// DefaultTemplate is the object name of a yearly partition. The single %d
// verb is replaced by the four-digit year.
const DefaultTemplate = "nypd_cleaned_%d.parquet"

// Layout maps years to object paths and back.
type Layout struct {
	// Prefix is prepended to every object name (e.g. "data/").
	Prefix string

	// Template is a fmt template with a single %d verb for the year.
	Template string
}

// DefaultLayout returns the layout of the production bucket.
func DefaultLayout() Layout {
	return Layout{Template: DefaultTemplate}
}

func (l Layout) template() string {
	if l.Template == "" {
		return DefaultTemplate
	}
	return l.Template
}

// ObjectPath returns the object path of the partition for year.
func (l Layout) ObjectPath(year int) string {
	return l.Prefix + fmt.Sprintf(l.template(), year)
}

// ParseYear extracts the year from an object path produced by ObjectPath.
// The boolean is false for paths that do not follow the layout.
func (l Layout) ParseYear(objectPath string) (int, bool) {
	if !strings.HasPrefix(objectPath, l.Prefix) {
		return 0, false
	}
	name := strings.TrimPrefix(objectPath, l.Prefix)

	tmpl := l.template()
	i := strings.Index(tmpl, "%d")
	if i < 0 {
		return 0, false
	}
	before, after := tmpl[:i], tmpl[i+2:]
	if len(name) <= len(before)+len(after) ||
		!strings.HasPrefix(name, before) || !strings.HasSuffix(name, after) {
		return 0, false
	}
	digits := name[len(before) : len(name)-len(after)]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	year, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return year, true
}

// ListPrefix returns the object prefix shared by all partitions, suitable
// for ObjectStorage.ListObjects.
func (l Layout) ListPrefix() string {
	tmpl := l.template()
	if i := strings.Index(tmpl, "%d"); i >= 0 {
		tmpl = tmpl[:i]
	}
	return l.Prefix + tmpl
}

// localName returns a file name for a downloaded partition.
func (l Layout) localName(year int) string {
	return path.Base(l.ObjectPath(year))
}
