package anonymize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"veil/internal/classification"
	"veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

const (
	uniqueViolation     = "23505"
	supersedesIndexName = "idx_anonymized_data_supersedes"
)

// PostgresStore persists records in the anonymized_data table through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	cls, err := json.Marshal(rec.Classification)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	var supersedes pgtype.UUID
	if rec.Supersedes() {
		supersedes = pgtype.UUID{Bytes: [16]byte(rec.SupersedesID), Valid: true}
	}
	categories := rec.Classification.CategorySet()

	query := `
		INSERT INTO anonymized_data (
			id, company_id, anonymous_id, iv, ciphertext, auth_tag, algorithm, key_id,
			checksum, classification, categories, version, supersedes_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.pool.Exec(ctx, query,
		uuid.UUID(rec.ID),
		rec.CompanyID.String(),
		rec.AnonymousID.String(),
		rec.Envelope.IV,
		rec.Envelope.Ciphertext,
		rec.Envelope.AuthTag,
		rec.Envelope.Algorithm,
		rec.Envelope.KeyID,
		rec.Checksum,
		cls,
		categories,
		rec.Version,
		supersedes,
		rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == supersedesIndexName {
				return sentinel.ErrSuperseded
			}
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert anonymized record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RecordID) (*Record, error) {
	query := `
		SELECT id, company_id, anonymous_id, iv, ciphertext, auth_tag, algorithm, key_id,
			checksum, classification, version, supersedes_id, created_at
		FROM anonymized_data
		WHERE id = $1
	`
	var (
		rec        Record
		recID      uuid.UUID
		companyID  string
		anonID     string
		cls        []byte
		supersedes pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, query, uuid.UUID(id)).Scan(
		&recID, &companyID, &anonID,
		&rec.Envelope.IV, &rec.Envelope.Ciphertext, &rec.Envelope.AuthTag,
		&rec.Envelope.Algorithm, &rec.Envelope.KeyID,
		&rec.Checksum, &cls, &rec.Version, &supersedes, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get anonymized record: %w", err)
	}
	var dc classification.DataClassification
	if err := json.Unmarshal(cls, &dc); err != nil {
		return nil, fmt.Errorf("unmarshal classification: %w", err)
	}
	rec.ID = domain.RecordID(recID)
	rec.CompanyID = domain.CompanyID(companyID)
	rec.AnonymousID = domain.AnonymousID(anonID)
	rec.Classification = dc
	rec.CreatedAt = rec.CreatedAt.UTC()
	if supersedes.Valid {
		rec.SupersedesID = domain.RecordID(supersedes.Bytes)
	}
	return &rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.RecordID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM anonymized_data WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete anonymized record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListCreatedBefore(ctx context.Context, before time.Time) ([]Meta, error) {
	query := `
		SELECT id, company_id, anonymous_id, categories,
			COALESCE((classification->>'retention_period')::bigint, 0), created_at
		FROM anonymized_data
		WHERE created_at < $1
		ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("list anonymized records: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var (
			m         Meta
			recID     uuid.UUID
			companyID string
			anonID    string
			retention int64
		)
		if err := rows.Scan(&recID, &companyID, &anonID, &m.Categories, &retention, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan anonymized record: %w", err)
		}
		m.ID = domain.RecordID(recID)
		m.CompanyID = domain.CompanyID(companyID)
		m.AnonymousID = domain.AnonymousID(anonID)
		m.RetentionPeriod = time.Duration(retention)
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anonymized records: %w", err)
	}
	return out, nil
}
