// Package store keeps tree nodes in a SQLite database and exposes them to a
// tree.Tree through its loader, add and delete callbacks. Children are read
// lazily, one level per expansion.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vanderheijden86/treeview/pkg/loader"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// HasChildrenProperty is set on every node read from the store. It is true
// when the node has rows below it that have not been read yet.
const HasChildrenProperty = "hasChildren"

// NewNodeLabel is the label given to nodes created through AddChild.
const NewNodeLabel = "New node"

// Store is a SQLite-backed node table.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if filePath, ok := sqliteFilePathFromDSN(path); ok {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func sqliteFilePathFromDSN(dsn string) (string, bool) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || dsn == ":memory:" {
		return "", false
	}
	if strings.HasPrefix(dsn, "file:") {
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" || path == ":memory:" {
			return "", false
		}
		return path, true
	}
	return dsn, true
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		parent_id TEXT REFERENCES nodes(id) ON DELETE CASCADE,
		label TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		spec TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Roots returns the top-level nodes in position order.
func (s *Store) Roots(ctx context.Context) ([]model.Node, error) {
	return s.level(ctx, sql.NullString{})
}

// Children returns the direct children of parentID in position order.
func (s *Store) Children(ctx context.Context, parentID string) ([]model.Node, error) {
	return s.level(ctx, sql.NullString{String: parentID, Valid: true})
}

func (s *Store) level(ctx context.Context, parent sql.NullString) ([]model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT n.id, n.label, n.spec,
			EXISTS (SELECT 1 FROM nodes c WHERE c.parent_id = n.id)
		FROM nodes n
		WHERE n.parent_id IS ?
		ORDER BY n.position ASC, n.rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []model.Node{}
	for rows.Next() {
		var (
			id, label   string
			spec        sql.NullString
			hasChildren bool
		)
		if err := rows.Scan(&id, &label, &spec, &hasChildren); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n := model.Node{
			model.DefaultIDProperty:       id,
			model.DefaultLabelProperty:    label,
			model.DefaultChildrenProperty: []model.Node{},
			HasChildrenProperty:           hasChildren,
		}
		if spec.Valid && spec.String != "" {
			var raw map[string]any
			if err := json.Unmarshal([]byte(spec.String), &raw); err != nil {
				return nil, fmt.Errorf("failed to decode spec of %s: %w", id, err)
			}
			n[loader.SpecProperty] = raw
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	return nodes, nil
}

// Add appends a new node under parentID, or at the top level when parentID
// is empty, and returns it in the same shape Children does.
func (s *Store) Add(ctx context.Context, parentID, label string) (model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent := nullable(parentID)
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, parent_id, label, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM nodes WHERE parent_id IS ?))
	`, id, parent, label, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to insert node: %w", err)
	}
	return model.Node{
		model.DefaultIDProperty:       id,
		model.DefaultLabelProperty:    label,
		model.DefaultChildrenProperty: []model.Node{},
		HasChildrenProperty:           false,
	}, nil
}

// Delete removes a node and everything below it. It reports whether a row
// was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete node: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// SaveLevel records nodes as the ordered children of parentID (top level when
// empty). Rows are upserted, so a node that already exists elsewhere is
// moved. Loaded descendants are written too; nodes whose children were never
// read keep the rows they have.
func (s *Store) SaveLevel(ctx context.Context, parentID string, nodes []model.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertLevel(ctx, tx, nullable(parentID), nodes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Import appends raw nodes read from a data file at the top level. Nodes
// without an id are given one.
func (s *Store) Import(ctx context.Context, nodes []model.Node) error {
	assignIDs(nodes)
	return s.SaveLevel(ctx, "", nodes)
}

func assignIDs(nodes []model.Node) {
	for _, n := range nodes {
		if n.ID("") == "" {
			n[model.DefaultIDProperty] = uuid.NewString()
		}
		kids, _ := n.Children("")
		assignIDs(kids)
	}
}

func upsertLevel(ctx context.Context, tx *sql.Tx, parent sql.NullString, nodes []model.Node) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, parent_id, label, position, spec)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			label = excluded.label,
			position = excluded.position,
			spec = excluded.spec
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range nodes {
		id := n.ID("")
		if id == "" {
			return fmt.Errorf("node at position %d has no id", i)
		}
		spec, err := encodeSpec(n)
		if err != nil {
			return fmt.Errorf("failed to encode spec of %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, parent, n.Label(""), i, spec); err != nil {
			return fmt.Errorf("failed to upsert node %s: %w", id, err)
		}
		kids, _ := n.Children("")
		if len(kids) == 0 {
			continue
		}
		if err := upsertLevel(ctx, tx, nullable(id), kids); err != nil {
			return err
		}
	}
	return nil
}

func encodeSpec(n model.Node) (sql.NullString, error) {
	raw, ok := model.AsNode(n[loader.SpecProperty])
	if !ok {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullable(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}
