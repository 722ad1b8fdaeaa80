package vectorstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/retry"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGVectorStore implements VectorIndex on PostgreSQL with the pgvector
// extension. Similarity is cosine; search is an exact scan restricted by
// the filter in the WHERE clause.
type PGVectorStore struct {
	db         *sql.DB
	dimensions int
	policy     retry.Policy
}

// OpenPostgres opens and pings a PostgreSQL connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", domain.ErrStoreUnavailable, err)
	}
	return db, nil
}

// MigratePostgres applies the embedded chunk schema migrations.
func MigratePostgres(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// NewPGVectorStore creates a store over an open, migrated database.
func NewPGVectorStore(db *sql.DB, dimensions int) *PGVectorStore {
	return &PGVectorStore{db: db, dimensions: dimensions, policy: retry.DefaultPolicy()}
}

// Ensure records the vector size on first use and rejects a mismatch later.
func (s *PGVectorStore) Ensure(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	var stored int
	err := s.do(ctx, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO vector_settings (id, dimensions) VALUES (TRUE, $1) ON CONFLICT (id) DO NOTHING`,
			s.dimensions,
		); err != nil {
			return err
		}
		return s.db.QueryRowContext(ctx, `SELECT dimensions FROM vector_settings WHERE id`).Scan(&stored)
	})
	if err != nil {
		return fmt.Errorf("failed to read vector settings: %w", err)
	}

	if stored != s.dimensions {
		return fmt.Errorf("%w: chunk table holds %d-dimensional vectors, embedder produces %d", domain.ErrInvalidConfiguration, stored, s.dimensions)
	}

	logger.InfoContext(ctx, "pgvector schema validated", "vector_size", s.dimensions)
	return nil
}

const upsertChunkSQL = `
INSERT INTO chunks (chunk_id, document_id, kind, sequence_index, text, char_start, char_end, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
ON CONFLICT (chunk_id) DO UPDATE SET
  document_id = EXCLUDED.document_id,
  kind = EXCLUDED.kind,
  sequence_index = EXCLUDED.sequence_index,
  text = EXCLUDED.text,
  char_start = EXCLUDED.char_start,
  char_end = EXCLUDED.char_end,
  embedding = EXCLUDED.embedding`

// Upsert inserts or replaces chunks by chunk ID in one transaction.
func (s *PGVectorStore) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := validateChunks(chunks, "", s.dimensions); err != nil {
		return err
	}
	return s.do(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return insertChunks(ctx, tx, chunks)
		})
	})
}

// ReplaceDocument deletes and rewrites the chunks of documentID in one transaction.
func (s *PGVectorStore) ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateChunks(chunks, documentID, s.dimensions); err != nil {
		return err
	}
	err := s.do(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
				return fmt.Errorf("delete existing chunks: %w", err)
			}
			return insertChunks(ctx, tx, chunks)
		})
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to replace chunks", "document_id", documentID, "count", len(chunks), "error", err)
		return err
	}

	logger.InfoContext(ctx, "replaced chunks", "document_id", documentID, "count", len(chunks))
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, upsertChunkSQL)
	if err != nil {
		return err
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ChunkID, c.DocumentID, string(c.Kind), c.SequenceIndex, c.Text, c.CharStart, c.CharEnd,
			pgvector.NewVector(c.Vector),
		); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}
	return nil
}

// DeleteByDocument removes all chunks of documentID with a single statement.
func (s *PGVectorStore) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	var deleted int64
	err := s.do(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks of %s: %w", documentID, err)
	}
	return deleted, nil
}

// Nearest ranks chunks by cosine distance to query.
func (s *PGVectorStore) Nearest(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	if err := validateQuery(query, k, s.dimensions); err != nil {
		return nil, err
	}
	if filter.DocumentIDs != nil && len(filter.DocumentIDs) == 0 {
		return []Match{}, nil
	}

	args := []any{pgvector.NewVector(query)}
	var where []string
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.DocumentIDs != nil {
		args = append(args, pq.Array(filter.DocumentIDs))
		where = append(where, fmt.Sprintf("document_id = ANY($%d)", len(args)))
	}
	args = append(args, k)

	var b strings.Builder
	b.WriteString(`SELECT chunk_id, document_id, sequence_index, 1 - (embedding <=> $1::vector) AS score FROM chunks`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, ` ORDER BY embedding <=> $1::vector, chunk_id COLLATE "C" LIMIT $%d`, len(args))

	var matches []Match
	err := s.do(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, b.String(), args...)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		matches = matches[:0]
		for rows.Next() {
			var m Match
			var score float64
			if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.SequenceIndex, &score); err != nil {
				return err
			}
			m.Score = float32(score)
			matches = append(matches, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	if matches == nil {
		matches = []Match{}
	}
	return matches, nil
}

// CountByDocument returns the number of chunks stored for documentID.
func (s *PGVectorStore) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	var n int64
	err := s.do(ctx, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks of %s: %w", documentID, err)
	}
	return n, nil
}

// DocumentIDs lists the distinct parents with chunks of kind.
func (s *PGVectorStore) DocumentIDs(ctx context.Context, kind domain.Kind) ([]string, error) {
	query := `SELECT DISTINCT document_id FROM chunks ORDER BY document_id`
	var args []any
	if kind != "" {
		query = `SELECT DISTINCT document_id FROM chunks WHERE kind = $1 ORDER BY document_id`
		args = append(args, string(kind))
	}

	var ids []string
	err := s.do(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		ids = ids[:0]
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk owners: %w", err)
	}
	return ids, nil
}

func (s *PGVectorStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// do retries connection-level failures and reports exhaustion as
// domain.ErrStoreUnavailable.
func (s *PGVectorStore) do(ctx context.Context, op func(ctx context.Context) error) error {
	err := retry.Do(ctx, s.policy, isTransientPG, nil, op)
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func isTransientPG(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return true
		case "40":
			return pqErr.Code == "40001" || pqErr.Code == "40P01"
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
