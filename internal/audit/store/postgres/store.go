package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"veil/internal/audit"
	"veil/pkg/domain"
)

// Store persists audit entries in the privacy_audit_log table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `id, action, anonymous_id, company_id, data_type, occurred_at,
	success, compliance_flags, metadata, request_id`

// Append inserts entry and writes the generated id back into it.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	meta, err := json.Marshal(metadataOrEmpty(entry.Metadata))
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	flags := entry.ComplianceFlags
	if flags == nil {
		flags = []string{}
	}

	query := `
		INSERT INTO privacy_audit_log (
			action, anonymous_id, company_id, data_type, occurred_at,
			success, compliance_flags, metadata, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id int64
	err = s.db.QueryRowContext(ctx, query,
		string(entry.Action),
		entry.AnonymousID.String(),
		entry.CompanyID.String(),
		entry.DataType,
		entry.Timestamp,
		entry.Success,
		pq.Array(flags),
		meta,
		entry.RequestID,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	entry.ID = uint64(id)
	return nil
}

func (s *Store) ListRange(ctx context.Context, start, end time.Time) ([]audit.Entry, error) {
	query := `SELECT ` + selectColumns + `
		FROM privacy_audit_log
		WHERE occurred_at >= $1 AND occurred_at <= $2
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query audit range: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListByAnonymousID(ctx context.Context, anonymousID domain.AnonymousID) ([]audit.Entry, error) {
	query := `SELECT ` + selectColumns + `
		FROM privacy_audit_log
		WHERE anonymous_id = $1
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, anonymousID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit by subject: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM privacy_audit_log WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete audit entries rows affected: %w", err)
	}
	return int(n), nil
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			e           audit.Entry
			id          int64
			action      string
			anonymousID string
			companyID   string
			flags       []string
			meta        []byte
		)
		if err := rows.Scan(
			&id, &action, &anonymousID, &companyID, &e.DataType, &e.Timestamp,
			&e.Success, pq.Array(&flags), &meta, &e.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = uint64(id)
		e.Action = audit.Action(action)
		e.AnonymousID = domain.AnonymousID(anonymousID)
		e.CompanyID = domain.CompanyID(companyID)
		e.Timestamp = e.Timestamp.UTC()
		e.ComplianceFlags = flags
		if len(meta) > 0 {
			var m map[string]string
			if err := json.Unmarshal(meta, &m); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
			if len(m) > 0 {
				e.Metadata = m
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func metadataOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
