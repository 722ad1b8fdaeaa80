package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"bibliophage/internal/domain"
	"bibliophage/internal/retry"
)

// maxInArgs bounds the number of placeholders in one IN (...) list.
const maxInArgs = 500

type rowScanner interface {
	Scan(dest ...any) error
}

// table describes how a record collection maps onto the shared search SQL.
type table struct {
	name      string
	kind      domain.Kind
	columns   string
	textCols  []string
	hasSystem bool
	// scope is a fixed predicate applied to Search and MatchingIDs.
	scope string
}

// where builds the metadata filter. Text matching folds case with SQLite's
// lower(), which only folds ASCII letters.
func (t table) where(req domain.SearchRequest) (string, []any) {
	var conds []string
	var args []any

	if t.scope != "" {
		conds = append(conds, t.scope)
	}
	if req.TextQuery != nil && *req.TextQuery != "" {
		parts := make([]string, 0, len(t.textCols))
		for _, col := range t.textCols {
			parts = append(parts, fmt.Sprintf("instr(lower(%s), lower(?)) > 0", col))
			args = append(args, *req.TextQuery)
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}
	if req.TypeFilter != nil {
		conds = append(conds, "type = ?")
		args = append(args, *req.TypeFilter)
	}
	if t.hasSystem && req.SystemFilter != nil {
		conds = append(conds, "system = ?")
		args = append(args, *req.SystemFilter)
	}
	for _, f := range req.TagFilters {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM tag_values tv WHERE tv.owner_kind = ? AND tv.owner_id = %s.id AND tv.name = ? AND tv.value = ?)",
			t.name))
		args = append(args, string(t.kind), f.Name, f.Value)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(order domain.SortOrder) string {
	switch order.Effective() {
	case domain.SortNameAsc:
		return " ORDER BY name ASC, id ASC"
	case domain.SortNameDesc:
		return " ORDER BY name DESC, id ASC"
	case domain.SortCreatedDesc:
		return " ORDER BY created_at DESC, id ASC"
	default:
		return " ORDER BY created_at ASC, id ASC"
	}
}

// search counts and pages inside one transaction so both see the same rows.
func search[T any](ctx context.Context, db *sql.DB, t table, req domain.SearchRequest, scan func(rowScanner) (T, error)) ([]T, int64, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}
	where, args := t.where(req)

	var items []T
	var total int64
	err := withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, db, func(tx *sql.Tx) error {
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name+where, args...).Scan(&total); err != nil {
				return fmt.Errorf("failed to count %s: %w", t.name, err)
			}

			pageArgs := append(append([]any{}, args...), req.PageSize, req.Offset())
			rows, err := tx.QueryContext(ctx,
				"SELECT "+t.columns+" FROM "+t.name+where+orderBy(req.SortOrder)+" LIMIT ? OFFSET ?",
				pageArgs...)
			if err != nil {
				return fmt.Errorf("failed to query %s: %w", t.name, err)
			}
			defer func() {
				_ = rows.Close()
			}()

			items = items[:0]
			for rows.Next() {
				item, err := scan(rows)
				if err != nil {
					return err
				}
				items = append(items, item)
			}
			return rows.Err()
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func matchingIDs(ctx context.Context, db *sql.DB, t table, req domain.SearchRequest) ([]string, error) {
	where, args := t.where(req)

	var ids []string
	err := withRetry(ctx, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, "SELECT id FROM "+t.name+where+" ORDER BY id", args...)
		if err != nil {
			return fmt.Errorf("failed to query %s ids: %w", t.name, err)
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
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// getMany loads records by id and returns them in the order of ids, skipping missing ones.
func getMany[T any](ctx context.Context, db *sql.DB, t table, ids []string, scan func(rowScanner) (T, error), idOf func(T) string) ([]T, error) {
	byID := make(map[string]T, len(ids))
	for start := 0; start < len(ids); start += maxInArgs {
		end := min(start+maxInArgs, len(ids))
		batch := ids[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		query := "SELECT " + t.columns + " FROM " + t.name + " WHERE id IN (" + placeholders(len(batch)) + ")"

		err := withRetry(ctx, func(ctx context.Context) error {
			rows, err := db.QueryContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to query %s: %w", t.name, err)
			}
			defer func() {
				_ = rows.Close()
			}()
			for rows.Next() {
				item, err := scan(rows)
				if err != nil {
					return err
				}
				byID[idOf(item)] = item
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]T, 0, len(byID))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
			delete(byID, id)
		}
	}
	return out, nil
}

func deleteRecord(ctx context.Context, db *sql.DB, t table, id string) (int64, error) {
	var affected int64
	err := withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, db, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
			if err != nil {
				return fmt.Errorf("failed to delete from %s: %w", t.name, err)
			}
			if affected, err = res.RowsAffected(); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, "DELETE FROM tag_values WHERE owner_kind = ? AND owner_id = ?", string(t.kind), id)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// writeTags replaces the tag_values rows of one record.
func writeTags(ctx context.Context, tx *sql.Tx, kind domain.Kind, ownerID string, tags []domain.Tag) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM tag_values WHERE owner_kind = ? AND owner_id = ?", string(kind), ownerID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	for _, tag := range tags {
		for _, value := range tag.Values {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO tag_values (owner_kind, owner_id, name, value) VALUES (?, ?, ?, ?)",
				string(kind), ownerID, tag.Name, value,
			); err != nil {
				return fmt.Errorf("failed to write tag %s: %w", tag.Name, err)
			}
		}
	}
	return nil
}

func encodeTags(tags []domain.Tag) (string, error) {
	if tags == nil {
		tags = []domain.Tag{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// nextUpdate is the SQL expression for a strictly increasing updated_at.
const nextUpdate = "MAX(?, updated_at + 1000)"

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
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

// withRetry retries lock contention and reports exhaustion as domain.ErrStoreUnavailable.
func withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	err := retry.Do(ctx, retry.DefaultPolicy(), isBusy, nil, op)
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
