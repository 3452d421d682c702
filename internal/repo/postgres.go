package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/presenca/attendance-notify/internal/model"
	"github.com/presenca/attendance-notify/internal/template"
)

// Postgres backs the user, template and audit-log stores with one
// shared database. Access is effectively single-writer; each write is
// its own scoped transaction or single statement.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var (
	_ UserRepository     = (*Postgres)(nil)
	_ TemplateRepository = (*Postgres)(nil)
	_ AuditRepository    = (*Postgres)(nil)
)

// Migrate creates the schema when missing.
func (r *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS config (
			id BIGINT PRIMARY KEY,
			message_template TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_log (
			id BIGSERIAL PRIMARY KEY,
			student TEXT NOT NULL,
			class TEXT NOT NULL,
			date TEXT NOT NULL,
			guardian TEXT,
			phone TEXT,
			status TEXT NOT NULL,
			response TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SeedDefaults inserts the two default accounts and the default
// message template when the store is still empty. Idempotent; meant to
// run once from the bootstrap, not from request handling.
func (r *Postgres) SeedDefaults(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var userCount int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&userCount); err != nil {
		return fmt.Errorf("seed: count users: %w", err)
	}
	if userCount == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, password)
			VALUES ('Marcelo', 'Edu2024'), ('Simone', '300190')
		`); err != nil {
			return fmt.Errorf("seed: insert users: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO config (id, message_template)
		VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, template.Default); err != nil {
		return fmt.Errorf("seed: insert template: %w", err)
	}

	return tx.Commit()
}

// Authenticate matches username and password exactly. Passwords are
// stored in plaintext; this method is the only place that compares
// them.
func (r *Postgres) Authenticate(ctx context.Context, username, password string) (model.Identity, error) {
	var stored string
	err := r.db.QueryRowContext(ctx,
		`SELECT password FROM users WHERE username = $1`, username,
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Identity{}, ErrInvalidCredentials
		}
		return model.Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	if stored != password {
		return model.Identity{}, ErrInvalidCredentials
	}
	return model.Identity{Username: username}, nil
}

func (r *Postgres) ActiveTemplate(ctx context.Context) (string, error) {
	var body string
	err := r.db.QueryRowContext(ctx,
		`SELECT message_template FROM config WHERE id = 1`,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return template.Default, nil
		}
		return "", fmt.Errorf("active template: %w", err)
	}
	return body, nil
}

// SetTemplate replaces the single active template in place. No
// placeholder validation happens here; unresolved tokens surface
// verbatim at render time.
func (r *Postgres) SetTemplate(ctx context.Context, body string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO config (id, message_template)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET message_template = EXCLUDED.message_template
	`, body); err != nil {
		return fmt.Errorf("set template: %w", err)
	}

	return tx.Commit()
}

func (r *Postgres) Append(ctx context.Context, rec model.DispatchRecord) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_log (student, class, date, guardian, phone, status, response)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rec.Student, rec.Class, rec.Date, rec.Guardian, rec.Phone, string(rec.Status), rec.Response).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append audit record: %w", err)
	}
	return id, nil
}

func (r *Postgres) Query(ctx context.Context, date, class string) ([]model.DispatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student, class, date, guardian, phone, status, response
		FROM attendance_log
		WHERE date = $1 AND class = $2
		ORDER BY id ASC
	`, date, class)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []model.DispatchRecord
	for rows.Next() {
		var rec model.DispatchRecord
		var status string
		var guardian, phone, response sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.Student,
			&rec.Class,
			&rec.Date,
			&guardian,
			&phone,
			&status,
			&response,
		); err != nil {
			return nil, err
		}

		rec.Status = model.Status(status)
		rec.Guardian = guardian.String
		rec.Phone = phone.String
		if response.Valid {
			s := response.String
			rec.Response = &s
		}

		out = append(out, rec)
	}
	return out, rows.Err()
}
