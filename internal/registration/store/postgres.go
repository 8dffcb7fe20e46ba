package store

import (
	"context"
	"database/sql"
	"fmt"

	"ebirth/internal/registration/models"
)

// Postgres persists registrations in PostgreSQL. Pure I/O; domain rules live
// in the service layer.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema creates the backing table if it does not exist.
func (s *Postgres) Schema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registrations (
			ubrn             TEXT PRIMARY KEY,
			child_first_name TEXT NOT NULL,
			child_surname    TEXT NOT NULL,
			date_of_birth    DATE NOT NULL,
			sex              TEXT NOT NULL,
			region_code      INTEGER NOT NULL,
			district_code    TEXT NOT NULL,
			mother_name      TEXT NOT NULL,
			mother_nin       TEXT NOT NULL,
			father_name      TEXT,
			father_nin       TEXT,
			registered_by    TEXT,
			notify_phone     TEXT,
			status           TEXT NOT NULL,
			session_key      TEXT,
			created_at       TIMESTAMPTZ NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS registrations_session_key_idx
			ON registrations (session_key) WHERE session_key <> ''
	`)
	if err != nil {
		return fmt.Errorf("create registrations: %w", err)
	}
	return nil
}

const registrationColumns = `ubrn, child_first_name, child_surname, date_of_birth, sex,
	region_code, district_code, mother_name, mother_nin, father_name, father_nin,
	registered_by, notify_phone, status, session_key, created_at`

func (s *Postgres) Put(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		reg.UBRN,
		reg.ChildFirstName,
		reg.ChildSurname,
		reg.DateOfBirth,
		reg.Sex,
		reg.RegionCode,
		reg.DistrictCode,
		reg.MotherName,
		reg.MotherNIN,
		reg.FatherName,
		reg.FatherNIN,
		reg.RegisteredBy,
		reg.NotifyPhone,
		reg.Status,
		reg.SessionKey,
		reg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put registration: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, ubrn string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE ubrn = $1`
	return scanRegistration(s.db.QueryRowContext(ctx, query, ubrn))
}

func (s *Postgres) FindBySessionKey(ctx context.Context, key string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE session_key = $1`
	return scanRegistration(s.db.QueryRowContext(ctx, query, key))
}

func scanRegistration(row *sql.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(
		&reg.UBRN,
		&reg.ChildFirstName,
		&reg.ChildSurname,
		&reg.DateOfBirth,
		&reg.Sex,
		&reg.RegionCode,
		&reg.DistrictCode,
		&reg.MotherName,
		&reg.MotherNIN,
		&reg.FatherName,
		&reg.FatherNIN,
		&reg.RegisteredBy,
		&reg.NotifyPhone,
		&reg.Status,
		&reg.SessionKey,
		&reg.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	return &reg, nil
}
