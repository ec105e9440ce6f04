package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
)

var _ factstore.Backend = (*Store)(nil)

func (s *Store) PutItem(ctx context.Context, rec factstore.Record) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO memory_records (id, type, category, identity_key, content, timestamp_ms, created_at)
		VALUES (:id, :type, :category, :identity_key, :content, :timestamp_ms, :created_at)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			category = excluded.category,
			identity_key = excluded.identity_key,
			content = excluded.content,
			timestamp_ms = excluded.timestamp_ms,
			created_at = excluded.created_at
	`, rec)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (factstore.Record, bool, error) {
	var rec factstore.Record
	err := s.db.GetContext(ctx, &rec, `
		SELECT id, type, category, identity_key, content, timestamp_ms, created_at
		FROM memory_records WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return factstore.Record{}, false, nil
	}
	if err != nil {
		return factstore.Record{}, false, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *Store) Scan(ctx context.Context, filter factstore.Filter) ([]factstore.Record, error) {
	query := `SELECT id, type, category, identity_key, content, timestamp_ms, created_at FROM memory_records`

	var (
		clauses []string
		args    []any
	)
	if filter.IDPrefix != "" {
		// substr counts characters, not bytes.
		clauses = append(clauses, `substr(id, 1, ?) = ?`)
		args = append(args, utf8.RuneCountInString(filter.IDPrefix), filter.IDPrefix)
	}
	if filter.Type != "" {
		clauses = append(clauses, `type = ?`)
		args = append(args, filter.Type)
	}
	if filter.IdentityKey != "" {
		clauses = append(clauses, `identity_key = ?`)
		args = append(args, filter.IdentityKey)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	var recs []factstore.Record
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	s.logger.Debug("Scanned records", "count", len(recs))
	return recs, nil
}
