package artifact

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteStore is a Store backed by SQLite, keeping every artifact
// version for later audit.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS artifacts (
			id TEXT NOT NULL,
			version INTEGER NOT NULL,
			kind TEXT NOT NULL,
			document BLOB NOT NULL,
			final INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (id, version)
		);`,
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version, kind, document, final, created_at, updated_at
		FROM artifacts WHERE id = ? ORDER BY version DESC LIMIT 1`, id)
	return scanArtifact(row)
}

func (s *SQLiteStore) Put(ctx context.Context, a Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, version, kind, document, final, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Version,
		a.Kind,
		a.Document,
		boolToInt(a.Final),
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
		a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, kind string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.version, a.kind, a.document, a.final, a.created_at, a.updated_at
		FROM artifacts a
		JOIN (
			SELECT id, MAX(version) AS version FROM artifacts WHERE kind = ? GROUP BY id
		) latest ON a.id = latest.id AND a.version = latest.version
		ORDER BY a.created_at`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArtifacts(rows)
}

func (s *SQLiteStore) History(ctx context.Context, id string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, kind, document, final, created_at, updated_at
		FROM artifacts WHERE id = ? ORDER BY version`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history, err := scanArtifacts(rows)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return history, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var a Artifact
	var final int
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.Version, &a.Kind, &a.Document, &final, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, ErrNotFound
	}
	if err != nil {
		return Artifact{}, err
	}

	a.Final = final != 0
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Artifact{}, err
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

func scanArtifacts(rows *sql.Rows) ([]Artifact, error) {
	var result []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
