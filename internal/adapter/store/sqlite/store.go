// Package sqlite implements the canvas object store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"easel-ai/internal/domain"
)

// Store implements domain.ObjectStore. Batch creates are transactional: a
// failed insert rolls back every sibling in the batch.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath and runs the schema
// migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open canvas db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate canvas db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS canvases (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS objects (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			canvas_id  INTEGER NOT NULL REFERENCES canvases(id) ON DELETE CASCADE,
			type       TEXT NOT NULL,
			x          REAL NOT NULL DEFAULT 0,
			y          REAL NOT NULL DEFAULT 0,
			width      REAL NOT NULL DEFAULT 0,
			height     REAL NOT NULL DEFAULT 0,
			fill       TEXT NOT NULL DEFAULT '',
			text       TEXT NOT NULL DEFAULT '',
			z_index    INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_objects_canvas ON objects(canvas_id, id);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCanvas creates a new empty canvas.
func (s *Store) CreateCanvas(ctx context.Context, name string) (*domain.Canvas, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO canvases (name, created_at) VALUES (?, ?)",
		name, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Canvas{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *Store) GetCanvas(ctx context.Context, id int64) (*domain.Canvas, error) {
	var c domain.Canvas
	var createdStr string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM canvases WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &createdStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCanvasNotFound
		}
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return &c, nil
}

const objectColumns = "id, canvas_id, type, x, y, width, height, fill, text, z_index, created_at"

func (s *Store) GetObject(ctx context.Context, id int64) (*domain.ObjectRef, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+objectColumns+" FROM objects WHERE id = ?", id,
	)
	ref, err := scanObject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrObjectNotFound
		}
		return nil, err
	}
	return ref, nil
}

// ListObjects returns the canvas's objects in creation order.
func (s *Store) ListObjects(ctx context.Context, canvasID int64) ([]domain.ObjectRef, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+objectColumns+" FROM objects WHERE canvas_id = ? ORDER BY id", canvasID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []domain.ObjectRef
	for rows.Next() {
		ref, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, *ref)
	}
	return objects, rows.Err()
}

func (s *Store) CreateObject(ctx context.Context, canvasID int64, objType string, attrs domain.ObjectAttrs) (*domain.ObjectRef, error) {
	if attrs == nil {
		attrs = domain.ObjectAttrs{}
	}
	attrs["type"] = objType
	refs, err := s.CreateObjectsBatch(ctx, canvasID, []domain.ObjectAttrs{attrs})
	if err != nil {
		return nil, err
	}
	return &refs[0], nil
}

// CreateObjectsBatch inserts all records in one transaction. On any failure
// the transaction rolls back and no object is created.
func (s *Store) CreateObjectsBatch(ctx context.Context, canvasID int64, records []domain.ObjectAttrs) ([]domain.ObjectRef, error) {
	if len(records) == 0 {
		return []domain.ObjectRef{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM canvases WHERE id = ?", canvasID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, domain.ErrCanvasNotFound
	}

	var zTop sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		"SELECT MAX(z_index) FROM objects WHERE canvas_id = ?", canvasID,
	).Scan(&zTop); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	refs := make([]domain.ObjectRef, 0, len(records))
	for i, rec := range records {
		ref := domain.ObjectRef{
			CanvasID:  canvasID,
			ZIndex:    int(zTop.Int64) + i + 1,
			CreatedAt: now,
		}
		ref.Type, _ = rec["type"].(string)
		if ref.Type == "" {
			return nil, fmt.Errorf("record %d: object type is required", i)
		}
		ref.Position.X = floatAttr(rec, "x")
		ref.Position.Y = floatAttr(rec, "y")
		ref.Dimensions.Width = floatAttr(rec, "width")
		ref.Dimensions.Height = floatAttr(rec, "height")
		ref.Fill, _ = rec["fill"].(string)
		ref.Text, _ = rec["text"].(string)

		res, err := tx.ExecContext(ctx,
			"INSERT INTO objects (canvas_id, type, x, y, width, height, fill, text, z_index, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			ref.CanvasID, ref.Type, ref.Position.X, ref.Position.Y,
			ref.Dimensions.Width, ref.Dimensions.Height, ref.Fill, ref.Text,
			ref.ZIndex, now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return nil, err
		}
		if ref.ID, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return refs, nil
}

// updatableColumns limits UpdateObject to attribute keys that map directly
// onto object columns. Unknown keys are ignored.
var updatableColumns = map[string]bool{
	"x": true, "y": true, "width": true, "height": true,
	"fill": true, "text": true, "type": true,
}

func (s *Store) UpdateObject(ctx context.Context, id int64, attrs domain.ObjectAttrs) (*domain.ObjectRef, error) {
	var sets []string
	var args []any
	for k, v := range attrs {
		if !updatableColumns[k] {
			continue
		}
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			"UPDATE objects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...,
		)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, domain.ErrObjectNotFound
		}
	}
	return s.GetObject(ctx, id)
}

func (s *Store) DeleteObject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM objects WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrObjectNotFound
	}
	return nil
}

// BringToFront assigns the object the canvas's highest z_index.
func (s *Store) BringToFront(ctx context.Context, id int64) error {
	return s.shiftZ(ctx, id, "SELECT COALESCE(MAX(z_index), 0) + 1 FROM objects WHERE canvas_id = ?")
}

// SendToBack assigns the object the canvas's lowest z_index.
func (s *Store) SendToBack(ctx context.Context, id int64) error {
	return s.shiftZ(ctx, id, "SELECT COALESCE(MIN(z_index), 0) - 1 FROM objects WHERE canvas_id = ?")
}

// MoveForward swaps z_index with the next object above, if any.
func (s *Store) MoveForward(ctx context.Context, id int64) error {
	return s.swapZ(ctx, id,
		"SELECT id, z_index FROM objects WHERE canvas_id = ? AND z_index > ? ORDER BY z_index ASC LIMIT 1")
}

// MoveBackward swaps z_index with the next object below, if any.
func (s *Store) MoveBackward(ctx context.Context, id int64) error {
	return s.swapZ(ctx, id,
		"SELECT id, z_index FROM objects WHERE canvas_id = ? AND z_index < ? ORDER BY z_index DESC LIMIT 1")
}

func (s *Store) shiftZ(ctx context.Context, id int64, targetQuery string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	canvasID, _, err := objectZ(ctx, tx, id)
	if err != nil {
		return err
	}

	var target int
	if err := tx.QueryRowContext(ctx, targetQuery, canvasID).Scan(&target); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE objects SET z_index = ? WHERE id = ?", target, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) swapZ(ctx context.Context, id int64, neighborQuery string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	canvasID, z, err := objectZ(ctx, tx, id)
	if err != nil {
		return err
	}

	var neighborID int64
	var neighborZ int
	err = tx.QueryRowContext(ctx, neighborQuery, canvasID, z).Scan(&neighborID, &neighborZ)
	if err == sql.ErrNoRows {
		// Already at the boundary.
		return tx.Commit()
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE objects SET z_index = ? WHERE id = ?", neighborZ, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE objects SET z_index = ? WHERE id = ?", z, neighborID); err != nil {
		return err
	}
	return tx.Commit()
}

func objectZ(ctx context.Context, tx *sql.Tx, id int64) (canvasID int64, z int, err error) {
	err = tx.QueryRowContext(ctx,
		"SELECT canvas_id, z_index FROM objects WHERE id = ?", id,
	).Scan(&canvasID, &z)
	if err == sql.ErrNoRows {
		return 0, 0, domain.ErrObjectNotFound
	}
	return canvasID, z, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObject(row scanner) (*domain.ObjectRef, error) {
	var ref domain.ObjectRef
	var createdStr string
	err := row.Scan(
		&ref.ID, &ref.CanvasID, &ref.Type,
		&ref.Position.X, &ref.Position.Y,
		&ref.Dimensions.Width, &ref.Dimensions.Height,
		&ref.Fill, &ref.Text, &ref.ZIndex, &createdStr,
	)
	if err != nil {
		return nil, err
	}
	ref.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return &ref, nil
}

func floatAttr(attrs domain.ObjectAttrs, key string) float64 {
	switch v := attrs[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
