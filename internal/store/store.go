package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/motionreel/internal/timeline"
)

// ErrNotFound is returned when no snapshot matches
var ErrNotFound = errors.New("snapshot not found")

// Version describes one stored snapshot
type Version struct {
	Number         int
	Clips          int
	DurationFrames int
	CreatedAt      time.Time
}

// SnapshotStore keeps numbered versions of named timelines
type SnapshotStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (or creates) the sqlite database at path and migrates it
func Open(ctx context.Context, path string, logger *zap.Logger) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and migrates it
func New(ctx context.Context, db *sql.DB, logger *zap.Logger) (*SnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		return nil, err
	}
	return &SnapshotStore{
		db:     db,
		logger: logger.With(zap.String("component", "store")),
		now:    time.Now,
	}, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save stores tl as the next version of name and returns that version
func (s *SnapshotStore) Save(ctx context.Context, name string, tl timeline.Timeline) (int, error) {
	document, err := yaml.Marshal(tl)
	if err != nil {
		return 0, fmt.Errorf("encode timeline: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx, `SELECT coalesce(max(version), 0) FROM snapshot WHERE name = ?`, name).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read latest version of %q: %w", name, err)
	}
	version := current + 1

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot (name, version, document, clip_count, duration_frames, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		name, version, string(document), len(tl.Clips), tl.Config.DurationInFrames, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot %q v%d: %w", name, version, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Debug("snapshot saved", zap.String("name", name), zap.Int("version", version), zap.Int("clips", len(tl.Clips)))
	return version, nil
}

// Load returns one version of name
func (s *SnapshotStore) Load(ctx context.Context, name string, version int) (timeline.Timeline, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM snapshot WHERE name = ? AND version = ?`, name, version).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return timeline.Timeline{}, fmt.Errorf("%w: %q v%d", ErrNotFound, name, version)
	}
	if err != nil {
		return timeline.Timeline{}, err
	}
	return decode(document)
}

// Latest returns the newest version of name and its number
func (s *SnapshotStore) Latest(ctx context.Context, name string) (timeline.Timeline, int, error) {
	var document string
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT version, document FROM snapshot WHERE name = ? ORDER BY version DESC LIMIT 1`, name,
	).Scan(&version, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return timeline.Timeline{}, 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return timeline.Timeline{}, 0, err
	}
	tl, err := decode(document)
	return tl, version, err
}

// Versions lists every version of name, oldest first
func (s *SnapshotStore) Versions(ctx context.Context, name string) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, clip_count, duration_frames, created_at FROM snapshot WHERE name = ? ORDER BY version`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var v Version
		var created string
		if err := rows.Scan(&v.Number, &v.Clips, &v.DurationFrames, &created); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("snapshot %q v%d: bad timestamp %q: %w", name, v.Number, created, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func decode(document string) (timeline.Timeline, error) {
	var tl timeline.Timeline
	if err := yaml.Unmarshal([]byte(document), &tl); err != nil {
		return timeline.Timeline{}, fmt.Errorf("decode timeline: %w", err)
	}
	if err := timeline.Validate(tl); err != nil {
		return timeline.Timeline{}, err
	}
	return tl, nil
}
