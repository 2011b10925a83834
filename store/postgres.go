package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists assets and artifact provenance in one table. Source
// ids are stored as a separator-joined text column so the schema stays a
// plain key-value shape.
type Postgres struct {
	db *sql.DB
}

const sourceIDSep = "\x1f"

// OpenPostgres connects through the pgx stdlib driver and bootstraps
// the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		create table if not exists assets (
			id           text primary key,
			name         text not null,
			mime_type    text not null,
			byte_length  bigint not null,
			data         bytea not null,
			generated    boolean not null default false,
			kind         text,
			source_ids   text,
			fingerprint  text,
			generated_at timestamptz,
			created_at   timestamptz not null default now()
		)
	`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// AddSource inserts an uploaded source asset and returns its id.
func (p *Postgres) AddSource(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		insert into assets (id, name, mime_type, byte_length, data)
		values ($1, $2, $3, $4, $5)
	`, id, name, mimeType, int64(len(data)), data)
	if err != nil {
		return "", fmt.Errorf("store: add source: %w", err)
	}
	return id, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Asset, error) {
	row := p.db.QueryRowContext(ctx, `
		select id, name, mime_type, byte_length, data
		from assets
		where id = $1
	`, id)
	var a Asset
	if err := row.Scan(&a.ID, &a.Name, &a.MimeType, &a.ByteLength, &a.Data); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("store: get: %w", err)
	}
	return &a, nil
}

// Put writes artifact bytes and provenance in one transaction.
func (p *Postgres) Put(ctx context.Context, data []byte, meta ArtifactMeta) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: put: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	generatedAt := meta.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		insert into assets (id, name, mime_type, byte_length, data,
		                    generated, kind, source_ids, fingerprint, generated_at)
		values ($1, $2, 'application/pdf', $3, $4, true, $5, $6, $7, $8)
	`, id, meta.Name, int64(len(data)), data,
		string(meta.Kind), strings.Join(meta.SourceIDs, sourceIDSep), meta.Fingerprint, generatedAt)
	if err != nil {
		return "", fmt.Errorf("store: put: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: put: %w", err)
	}
	return id, nil
}

func (p *Postgres) List(ctx context.Context) ([]ArtifactMeta, error) {
	rows, err := p.db.QueryContext(ctx, `
		select id, name, kind, source_ids, fingerprint, generated_at
		from assets
		where generated
		order by created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []ArtifactMeta
	for rows.Next() {
		var (
			m         ArtifactMeta
			kind      sql.NullString
			sourceIDs sql.NullString
			fp        sql.NullString
			at        sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Name, &kind, &sourceIDs, &fp, &at); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		m.Generated = true
		if kind.Valid {
			m.Kind = Kind(kind.String)
		}
		if sourceIDs.Valid && sourceIDs.String != "" {
			m.SourceIDs = strings.Split(sourceIDs.String, sourceIDSep)
		}
		if fp.Valid {
			m.Fingerprint = fp.String
		}
		if at.Valid {
			m.GeneratedAt = at.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
