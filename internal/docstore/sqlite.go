package docstore

import (
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// Schema: one row per container node and per shape. Ordered collections
// (children lists, path points) are stored as JSON columns; shape paint
// order is the paint_index column.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	id       TEXT PRIMARY KEY,
	kind     INTEGER NOT NULL,
	name     TEXT NOT NULL,
	parent   TEXT,
	children TEXT,
	expanded INTEGER NOT NULL DEFAULT 1,
	locked   INTEGER NOT NULL DEFAULT 0,
	visible  INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS shapes (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	container    TEXT NOT NULL,
	x            REAL NOT NULL DEFAULT 0,
	y            REAL NOT NULL DEFAULT 0,
	w            REAL NOT NULL DEFAULT 0,
	h            REAL NOT NULL DEFAULT 0,
	points       TEXT,
	body         TEXT,
	fill         TEXT,
	stroke       TEXT,
	stroke_width REAL NOT NULL DEFAULT 0,
	locked       INTEGER NOT NULL DEFAULT 0,
	visible      INTEGER NOT NULL DEFAULT 1,
	paint_index  INTEGER NOT NULL
);
`

// loadSQLite reads a document from a SQLite database.
func loadSQLite(path string) (*Document, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	doc := &Document{}

	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'base_id'`).Scan((*string)(&doc.BaseID)); err != nil {
		return nil, fmt.Errorf("reading base id: %w", err)
	}
	var version string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err == nil {
		fmt.Sscanf(version, "%d", &doc.Version)
	}
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'name'`).Scan(&doc.Name); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("reading document name: %w", err)
	}

	rows, err := db.Query(`SELECT id, kind, name, parent, children, expanded, locked, visible FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		n := &model.Node{}
		var parent, children sql.NullString
		if err := rows.Scan((*string)(&n.ID), &n.Kind, &n.Name, &parent, &children, &n.Expanded, &n.Locked, &n.Visible); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		if parent.Valid {
			n.Parent = model.ID(parent.String)
		}
		if children.Valid && children.String != "" {
			if err := json.Unmarshal([]byte(children.String), &n.Children); err != nil {
				return nil, fmt.Errorf("node %s children: %w", n.ID, err)
			}
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}

	srows, err := db.Query(`SELECT id, name, kind, container, x, y, w, h, points, body, fill, stroke, stroke_width, locked, visible
		FROM shapes ORDER BY paint_index`)
	if err != nil {
		return nil, fmt.Errorf("querying shapes: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		s := &canvas.Shape{}
		var points, body, fill, stroke sql.NullString
		if err := srows.Scan((*string)(&s.ID), &s.Name, &s.Kind, (*string)(&s.Container),
			&s.X, &s.Y, &s.W, &s.H, &points, &body, &fill, &stroke, &s.StrokeWidth,
			&s.Locked, &s.Visible); err != nil {
			return nil, fmt.Errorf("scanning shape: %w", err)
		}
		if points.Valid && points.String != "" {
			if err := json.Unmarshal([]byte(points.String), &s.Points); err != nil {
				return nil, fmt.Errorf("shape %s points: %w", s.ID, err)
			}
		}
		s.Text = body.String
		s.Fill = fill.String
		s.Stroke = stroke.String
		doc.Shapes = append(doc.Shapes, s)
	}
	if err := srows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shapes: %w", err)
	}

	return doc, nil
}

// saveSQLite writes a document to a SQLite database, replacing previous
// contents in one transaction.
func saveSQLite(doc *Document, path string) error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM nodes`, `DELETE FROM shapes`, `DELETE FROM meta`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clearing tables: %w", err)
		}
	}

	meta := map[string]string{
		"version": fmt.Sprintf("%d", FormatVersion),
		"base_id": string(doc.BaseID),
		"name":    doc.Name,
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	nodeStmt, err := tx.Prepare(`INSERT INTO nodes (id, kind, name, parent, children, expanded, locked, visible)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range doc.Nodes {
		children, err := json.Marshal(n.Children)
		if err != nil {
			return fmt.Errorf("node %s children: %w", n.ID, err)
		}
		if _, err := nodeStmt.Exec(string(n.ID), n.Kind, n.Name, string(n.Parent),
			string(children), n.Expanded, n.Locked, n.Visible); err != nil {
			return fmt.Errorf("writing node %s: %w", n.ID, err)
		}
	}

	shapeStmt, err := tx.Prepare(`INSERT INTO shapes
		(id, name, kind, container, x, y, w, h, points, body, fill, stroke, stroke_width, locked, visible, paint_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing shape insert: %w", err)
	}
	defer shapeStmt.Close()
	for i, s := range doc.Shapes {
		points, err := json.Marshal(s.Points)
		if err != nil {
			return fmt.Errorf("shape %s points: %w", s.ID, err)
		}
		if _, err := shapeStmt.Exec(string(s.ID), s.Name, s.Kind, string(s.Container),
			s.X, s.Y, s.W, s.H, string(points), s.Text, s.Fill, s.Stroke, s.StrokeWidth,
			s.Locked, s.Visible, i); err != nil {
			return fmt.Errorf("writing shape %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}
