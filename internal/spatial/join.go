package spatial

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DriverName is the database/sql driver that carries the spatial predicate
// functions into every connection.
const DriverName = "sqlite3_spatial"

var registerOnce sync.Once

// register installs the spatial driver. database/sql panics on duplicate
// registration, so this must run exactly once per process.
func register() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("st_intersects", sqlIntersects, true); err != nil {
					return err
				}
				return conn.RegisterFunc("st_bbox_overlap", sqlBBoxOverlap, true)
			},
		})
	})
}

func sqlIntersects(a, b string) (bool, error) {
	ga, gb, err := decodeGeomPair(a, b)
	if err != nil {
		return false, err
	}
	return Intersects(ga, gb), nil
}

func sqlBBoxOverlap(a, b string) (bool, error) {
	ga, gb, err := decodeGeomPair(a, b)
	if err != nil {
		return false, err
	}
	return BBoxOverlap(ga, gb), nil
}

func decodeGeomPair(a, b string) (orb.Geometry, orb.Geometry, error) {
	ga, err := geojson.UnmarshalGeometry([]byte(a))
	if err != nil {
		return nil, nil, fmt.Errorf("decode anno geometry: %w", err)
	}
	gb, err := geojson.UnmarshalGeometry([]byte(b))
	if err != nil {
		return nil, nil, fmt.Errorf("decode feat geometry: %w", err)
	}
	return ga.Geometry(), gb.Geometry(), nil
}

// Pair is one join result row. Every annotation appears at least once; an
// annotation intersecting several layer features appears once per match,
// and one that matched nothing appears with a nil Layer.
type Pair struct {
	Anno  Row
	Layer *Row
}

// Joiner pairs annotation rows with layer rows under a spatial predicate.
type Joiner interface {
	LeftJoin(ctx context.Context, annos, feats []Row, pred Predicate) ([]Pair, error)
	Close() error
}

// SQLiteJoiner evaluates joins through an in-memory SQLite database whose
// connections carry the predicate functions. The SQL planner drives the
// pairing; the predicates themselves run as registered Go functions.
type SQLiteJoiner struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates an in-memory join database. In-memory SQLite databases are
// per-connection, so the pool is pinned to a single connection. A nil
// logger falls back to slog.Default().
func Open(log *slog.Logger) (*SQLiteJoiner, error) {
	if log == nil {
		log = slog.Default()
	}
	register()
	db, err := sql.Open(DriverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open join database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect join database: %w", err)
	}
	return &SQLiteJoiner{db: db, log: log}, nil
}

// Close releases the join database.
func (j *SQLiteJoiner) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// LeftJoin pairs every annotation with the layer rows satisfying the
// predicate. Results are ordered by annotation id then layer id. The row
// tables are rebuilt on every call; a joiner is reusable but not safe for
// concurrent use.
func (j *SQLiteJoiner) LeftJoin(ctx context.Context, annos, feats []Row, pred Predicate) ([]Pair, error) {
	if len(annos) == 0 {
		return nil, nil
	}
	fn, err := pred.sqlFunc()
	if err != nil {
		return nil, err
	}
	if err := j.loadTables(ctx, annos, feats); err != nil {
		return nil, err
	}

	// Deterministic result order: annotation id, then layer id with
	// unmatched rows first.
	query := fmt.Sprintf(
		`SELECT a.id, f.id FROM anno a LEFT JOIN feat f ON %s(a.geom, f.geom) ORDER BY a.id ASC, f.id ASC`,
		fn,
	)
	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run %s join: %w", pred, err)
	}
	defer rows.Close()

	annoByID := indexRows(annos)
	featByID := indexRows(feats)
	pairs := make([]Pair, 0, len(annos))
	for rows.Next() {
		var aid int64
		var fid sql.NullInt64
		if err := rows.Scan(&aid, &fid); err != nil {
			return nil, fmt.Errorf("scan join row: %w", err)
		}
		anno, ok := annoByID[aid]
		if !ok {
			return nil, fmt.Errorf("join returned unknown annotation id %d", aid)
		}
		p := Pair{Anno: anno}
		if fid.Valid {
			feat, ok := featByID[fid.Int64]
			if !ok {
				return nil, fmt.Errorf("join returned unknown layer id %d", fid.Int64)
			}
			p.Layer = &feat
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate join rows: %w", err)
	}
	j.log.Debug("spatial join evaluated",
		"predicate", pred, "annotations", len(annos), "features", len(feats), "pairs", len(pairs))
	return pairs, nil
}

// loadTables rebuilds the anno and feat tables from the given rows.
func (j *SQLiteJoiner) loadTables(ctx context.Context, annos, feats []Row) error {
	stmts := []string{
		`DROP TABLE IF EXISTS anno`,
		`DROP TABLE IF EXISTS feat`,
		`CREATE TABLE anno (id INTEGER PRIMARY KEY, geom TEXT NOT NULL)`,
		`CREATE TABLE feat (id INTEGER PRIMARY KEY, geom TEXT NOT NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare join tables: %w", err)
		}
	}
	if err := j.insert(ctx, "anno", annos); err != nil {
		return err
	}
	return j.insert(ctx, "feat", feats)
}

func (j *SQLiteJoiner) insert(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s load: %w", table, err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, geom) VALUES (?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare %s load: %w", table, err)
	}
	defer stmt.Close()
	for _, r := range rows {
		geom, err := json.Marshal(geojson.NewGeometry(r.Geometry))
		if err != nil {
			return fmt.Errorf("encode %s geometry %d: %w", table, r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, string(geom)); err != nil {
			return fmt.Errorf("load %s row %d: %w", table, r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s load: %w", table, err)
	}
	return nil
}

func indexRows(rows []Row) map[int64]Row {
	m := make(map[int64]Row, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return m
}
