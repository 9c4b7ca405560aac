package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"boq/internal/models"
	_ "modernc.org/sqlite"
)

const dbFile = "queue.db"

const itemColumns = "local_id, kind, payload, queued_at"

// Store owns the durable submission queue. Every mutation goes through
// its methods; nothing else touches the table, so ordering and the
// no-loss guarantee cannot be bypassed from outside.
type Store struct {
	conn *sql.DB
	dir  string
}

// Open opens the queue database under dir, creating it on first use.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create queue dir: %w", err)
	}

	conn, err := sql.Open("sqlite", filepath.Join(dir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}

	// Enable WAL mode for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout as fallback protection (500ms, matches lock timeout)
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Slightly faster writes, still safe with WAL
	conn.Exec("PRAGMA synchronous=NORMAL")

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{conn: conn, dir: dir}
	if err := s.ensureVersion(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the queue database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// ensureVersion stamps a fresh database and refuses one written by a
// newer binary.
func (s *Store) ensureVersion() error {
	var value string
	err := s.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&value)
	if err == sql.ErrNoRows {
		_, err = s.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
			fmt.Sprintf("%d", SchemaVersion))
		return err
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	var v int
	fmt.Sscanf(value, "%d", &v)
	if v > SchemaVersion {
		return fmt.Errorf("queue database schema v%d is newer than this binary supports (v%d)", v, SchemaVersion)
	}
	return nil
}

// withWriteLock executes fn while holding an exclusive write lock.
// This prevents concurrent writes from multiple processes.
func (s *Store) withWriteLock(fn func() error) error {
	locker := newWriteLocker(s.dir)
	if err := locker.acquire(lockWait); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// Enqueue appends a submission at the tail of its kind's queue. The
// draft is stored as a JSON snapshot, detached from whatever object the
// caller built it from.
func (s *Store) Enqueue(ctx context.Context, sub models.QueuedSubmission) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	var payload []byte
	var err error
	switch sub.Kind {
	case models.KindShop:
		payload, err = json.Marshal(sub.Shop)
	case models.KindMaterial:
		payload, err = json.Marshal(sub.Material)
	}
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return s.withWriteLock(func() error {
		_, err := s.conn.ExecContext(ctx, `
			INSERT INTO queued_submissions (local_id, kind, payload, queued_at)
			VALUES (?, ?, ?, ?)
		`, sub.LocalID, string(sub.Kind), string(payload), sub.QueuedAt)
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", sub.LocalID, err)
		}
		return nil
	})
}

// Pending returns queued submissions of one kind in enqueue order.
func (s *Store) Pending(ctx context.Context, kind models.EntityKind) ([]models.QueuedSubmission, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM queued_submissions WHERE kind = ? ORDER BY seq
	`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

// All returns every queued submission in enqueue order across kinds.
func (s *Store) All(ctx context.Context) ([]models.QueuedSubmission, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT ` + itemColumns + ` FROM queued_submissions ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSubmissions(rows)
}

// RemoveLanded deletes the submissions that were delivered during a
// flush pass, in one statement. Entries enqueued while the pass ran are
// untouched and retained entries keep their relative order, so after
// the call the store holds exactly the retained set plus any new
// arrivals.
func (s *Store) RemoveLanded(ctx context.Context, localIDs []string) error {
	if len(localIDs) == 0 {
		return nil
	}

	args := make([]interface{}, len(localIDs))
	for i, id := range localIDs {
		args[i] = id
	}

	return s.withWriteLock(func() error {
		query := fmt.Sprintf(`DELETE FROM queued_submissions WHERE local_id IN (%s)`,
			makePlaceholders(len(localIDs)))
		_, err := s.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("remove landed submissions: %w", err)
		}
		return nil
	})
}

// Drop discards a single queued submission. Returns false when no entry
// has that local id.
func (s *Store) Drop(ctx context.Context, localID string) (bool, error) {
	var dropped bool
	err := s.withWriteLock(func() error {
		res, err := s.conn.ExecContext(ctx, `DELETE FROM queued_submissions WHERE local_id = ?`, localID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		dropped = n > 0
		return nil
	})
	return dropped, err
}

// Has reports whether a submission with the given local id is still
// queued.
func (s *Store) Has(ctx context.Context, localID string) (bool, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM queued_submissions WHERE local_id = ?
	`, localID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByKind returns pending counts keyed by kind. Kinds with no
// entries are absent from the map.
func (s *Store) CountByKind(ctx context.Context) (map[models.EntityKind]int, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM queued_submissions GROUP BY kind
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.EntityKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[models.EntityKind(kind)] = n
	}
	return counts, rows.Err()
}

// collectSubmissions scans all rows into submissions.
func collectSubmissions(rows *sql.Rows) ([]models.QueuedSubmission, error) {
	var subs []models.QueuedSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// scanSubmission reconstructs one submission from a row, decoding the
// payload snapshot by kind.
func scanSubmission(scanner interface{ Scan(dest ...interface{}) error }) (models.QueuedSubmission, error) {
	var sub models.QueuedSubmission
	var kind, payload string

	if err := scanner.Scan(&sub.LocalID, &kind, &payload, &sub.QueuedAt); err != nil {
		return sub, err
	}
	sub.Kind = models.EntityKind(kind)

	switch sub.Kind {
	case models.KindShop:
		var d models.ShopDraft
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return sub, fmt.Errorf("decode shop payload for %s: %w", sub.LocalID, err)
		}
		sub.Shop = &d
	case models.KindMaterial:
		var d models.MaterialDraft
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return sub, fmt.Errorf("decode material payload for %s: %w", sub.LocalID, err)
		}
		sub.Material = &d
	default:
		return sub, fmt.Errorf("unknown submission kind %q for %s", kind, sub.LocalID)
	}

	return sub, nil
}

// makePlaceholders returns a comma-separated list of n SQL placeholders.
func makePlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
