// Package docstore persists tracedraw documents and picks the right source
// to load. A document can live as a JSON file (document.json, the portable
// format) or a SQLite database (document.db, written by heavier tooling);
// when both exist the freshest one wins, with SQLite preferred on ties.
package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/debug"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// FormatVersion is the current on-disk document format version.
const FormatVersion = 1

// Document is the persisted form of a drawing: the container tree plus the
// canvas shapes, paint order preserved by slice order.
type Document struct {
	Version int             `json:"version"`
	Name    string          `json:"name,omitempty"`
	BaseID  model.ID        `json:"baseId"`
	Nodes   []*model.Node   `json:"nodes"`
	Shapes  []*canvas.Shape `json:"shapes"`
}

// SourceType identifies the kind of data source.
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database (document.db).
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a JSON document file (document.json).
	SourceTypeJSON SourceType = "json"
)

// Priority values for source types (higher = preferred on equal mtime).
const (
	PrioritySQLite = 100
	PriorityJSON   = 50
)

// DataSource represents a discovered document source.
type DataSource struct {
	Type     SourceType
	Path     string
	Priority int
	ModTime  time.Time
	Size     int64
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339))
}

// DiscoverSources finds document sources for the given path. A file path
// yields exactly that source; a directory is scanned for document.db and
// *.json files. Results are sorted freshest first, priority breaking ties.
func DiscoverSources(path string) ([]DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var sources []DataSource
	if !info.IsDir() {
		src, err := sourceAt(path)
		if err != nil {
			return nil, err
		}
		return []DataSource{src}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		// Skip backups and editor droppings.
		if strings.Contains(name, ".backup") || strings.HasPrefix(name, ".") {
			continue
		}
		if name != "document.db" && !strings.HasSuffix(name, ".json") {
			continue
		}
		src, err := sourceAt(filepath.Join(path, name))
		if err != nil {
			continue
		}
		sources = append(sources, src)
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
	return sources, nil
}

func sourceAt(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, err
	}
	src := DataSource{
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
	if strings.HasSuffix(path, ".db") {
		src.Type = SourceTypeSQLite
		src.Priority = PrioritySQLite
	} else {
		src.Type = SourceTypeJSON
		src.Priority = PriorityJSON
	}
	return src, nil
}

// Load reads a document from the given path, picking the freshest source if
// the path is a directory. Returns the document and the source it came from.
func Load(path string) (*Document, DataSource, error) {
	defer debug.LogEnterExit("document load")()

	sources, err := DiscoverSources(path)
	if err != nil {
		return nil, DataSource{}, err
	}
	if len(sources) == 0 {
		return nil, DataSource{}, fmt.Errorf("no document found in %s", path)
	}
	src := sources[0]
	debug.Log("loading document from %s", src)
	debug.LogIf(len(sources) > 1, "skipping %d staler source(s)", len(sources)-1)

	var doc *Document
	switch src.Type {
	case SourceTypeSQLite:
		doc, err = loadSQLite(src.Path)
	default:
		doc, err = loadJSON(src.Path)
	}
	if err != nil {
		return nil, src, err
	}
	if err := validate(doc); err != nil {
		return nil, src, fmt.Errorf("%s: %w", src.Path, err)
	}
	return doc, src, nil
}

// Save writes the document back to the source it was loaded from.
func Save(doc *Document, src DataSource) error {
	doc.Version = FormatVersion
	switch src.Type {
	case SourceTypeSQLite:
		return saveSQLite(doc, src.Path)
	default:
		return saveJSON(doc, src.Path)
	}
}

// validate rejects documents the engine could not safely restore.
func validate(doc *Document) error {
	if doc.Version > FormatVersion {
		return fmt.Errorf("document format v%d is newer than supported v%d", doc.Version, FormatVersion)
	}
	byID := make(map[model.ID]*model.Node, len(doc.Nodes))
	roots := 0
	for _, n := range doc.Nodes {
		byID[n.ID] = n
		if n.Kind == model.KindRoot {
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("document has %d root nodes, want 1", roots)
	}
	if _, ok := byID[doc.BaseID]; !ok {
		return fmt.Errorf("base group %s missing", doc.BaseID)
	}
	for _, n := range doc.Nodes {
		if n.Kind != model.KindRoot {
			if _, ok := byID[n.Parent]; !ok {
				return fmt.Errorf("node %s has unknown parent %s", n.ID, n.Parent)
			}
		}
	}
	return nil
}
