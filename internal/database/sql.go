package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jredh-dev/partyline/internal/models"
)

// DB is a Store backed by a SQL database through sqlx.
// Queries are written with ? placeholders and rebound per driver.
type DB struct {
	conn *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rsvps (
	id                TEXT PRIMARY KEY,
	full_name         TEXT NOT NULL,
	phone             TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	reply_status      TEXT,
	reply_received_at DATETIME,
	reply_message     TEXT,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rsvp_guests (
	id                TEXT PRIMARY KEY,
	rsvp_id           TEXT NOT NULL REFERENCES rsvps(id) ON DELETE CASCADE,
	name              TEXT NOT NULL,
	phone             TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	reply_status      TEXT,
	reply_received_at DATETIME,
	reply_message     TEXT,
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rsvps_status         ON rsvps(status);
CREATE INDEX IF NOT EXISTS idx_rsvp_guests_rsvp_id  ON rsvp_guests(rsvp_id);
CREATE INDEX IF NOT EXISTS idx_rsvp_guests_status   ON rsvp_guests(status);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS rsvps (
	id                TEXT PRIMARY KEY,
	full_name         TEXT NOT NULL,
	phone             TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	reply_status      TEXT,
	reply_received_at TIMESTAMPTZ,
	reply_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rsvp_guests (
	id                TEXT PRIMARY KEY,
	rsvp_id           TEXT NOT NULL REFERENCES rsvps(id) ON DELETE CASCADE,
	name              TEXT NOT NULL,
	phone             TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	reply_status      TEXT,
	reply_received_at TIMESTAMPTZ,
	reply_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rsvps_status         ON rsvps(status);
CREATE INDEX IF NOT EXISTS idx_rsvp_guests_rsvp_id  ON rsvp_guests(rsvp_id);
CREATE INDEX IF NOT EXISTS idx_rsvp_guests_status   ON rsvp_guests(status);
`

// OpenSQLite creates or opens the SQLite database at path and applies the schema.
func OpenSQLite(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer, many readers.
	conn.SetMaxOpenConns(1)

	return initDB(conn, sqliteSchema)
}

// OpenPostgres connects to a PostgreSQL database and applies the schema.
func OpenPostgres(url string) (*DB, error) {
	conn, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	return initDB(conn, postgresSchema)
}

func initDB(conn *sqlx.DB, schema string) (*DB, error) {
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close shuts down the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const (
	rsvpColumns  = `id, full_name, phone, status, reply_status, reply_received_at, reply_message, created_at, updated_at`
	guestColumns = `id, rsvp_id, name, phone, status, reply_status, reply_received_at, reply_message, created_at`
)

// --- Registrant operations ---

// CreateRSVP inserts a registrant and its guests in one transaction.
func (db *DB) CreateRSVP(ctx context.Context, r *models.RSVP) error {
	prepare(r, uuid.NewString, time.Now().UTC())

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	q := tx.Rebind(`INSERT INTO rsvps (id, full_name, phone, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, q, r.ID, r.FullName, r.Phone, string(r.Status), r.CreatedAt, r.UpdatedAt); err != nil {
		return fmt.Errorf("insert rsvp: %w", err)
	}

	gq := tx.Rebind(`INSERT INTO rsvp_guests (id, rsvp_id, name, phone, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	for _, g := range r.Guests {
		if _, err := tx.ExecContext(ctx, gq, g.ID, g.RSVPID, g.Name, g.Phone, string(g.Status), g.CreatedAt); err != nil {
			return fmt.Errorf("insert guest: %w", err)
		}
	}

	return tx.Commit()
}

// ListRSVPs returns all registrants with their guests, newest first.
func (db *DB) ListRSVPs(ctx context.Context) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	q := `SELECT ` + rsvpColumns + ` FROM rsvps ORDER BY created_at DESC`
	if err := db.conn.SelectContext(ctx, &rsvps, q); err != nil {
		return nil, err
	}

	var guests []models.Guest
	gq := `SELECT ` + guestColumns + ` FROM rsvp_guests ORDER BY created_at ASC`
	if err := db.conn.SelectContext(ctx, &guests, gq); err != nil {
		return nil, err
	}

	byRSVP := make(map[string][]models.Guest)
	for _, g := range guests {
		byRSVP[g.RSVPID] = append(byRSVP[g.RSVPID], g)
	}
	for i := range rsvps {
		rsvps[i].Guests = byRSVP[rsvps[i].ID]
		if rsvps[i].Guests == nil {
			rsvps[i].Guests = []models.Guest{}
		}
	}
	return rsvps, nil
}

// GetRSVP returns a registrant with its guests.
func (db *DB) GetRSVP(ctx context.Context, id string) (*models.RSVP, error) {
	r := &models.RSVP{}
	q := db.conn.Rebind(`SELECT ` + rsvpColumns + ` FROM rsvps WHERE id = ?`)
	if err := db.conn.GetContext(ctx, r, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.Guests = []models.Guest{}
	gq := db.conn.Rebind(`SELECT ` + guestColumns + ` FROM rsvp_guests WHERE rsvp_id = ? ORDER BY created_at ASC`)
	if err := db.conn.SelectContext(ctx, &r.Guests, gq, id); err != nil {
		return nil, err
	}
	return r, nil
}

// GetGuest returns a single guest.
func (db *DB) GetGuest(ctx context.Context, id string) (*models.Guest, error) {
	g := &models.Guest{}
	q := db.conn.Rebind(`SELECT ` + guestColumns + ` FROM rsvp_guests WHERE id = ?`)
	if err := db.conn.GetContext(ctx, g, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// ApprovedRSVPs returns approved registrants without their guests.
func (db *DB) ApprovedRSVPs(ctx context.Context) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	q := db.conn.Rebind(`SELECT ` + rsvpColumns + ` FROM rsvps WHERE status = ? ORDER BY created_at ASC`)
	if err := db.conn.SelectContext(ctx, &rsvps, q, string(models.StatusApproved)); err != nil {
		return nil, err
	}
	return rsvps, nil
}

// ApprovedGuests returns approved guests.
func (db *DB) ApprovedGuests(ctx context.Context) ([]models.Guest, error) {
	var guests []models.Guest
	q := db.conn.Rebind(`SELECT ` + guestColumns + ` FROM rsvp_guests WHERE status = ? ORDER BY created_at ASC`)
	if err := db.conn.SelectContext(ctx, &guests, q, string(models.StatusApproved)); err != nil {
		return nil, err
	}
	return guests, nil
}

// --- Status operations ---

// UpdateRSVPStatus sets a registrant's approval status.
func (db *DB) UpdateRSVPStatus(ctx context.Context, id string, status models.ApprovalStatus) (models.ApprovalStatus, error) {
	return db.updateStatus(ctx, "rsvps", id, status, true)
}

// UpdateGuestStatus sets a guest's approval status.
func (db *DB) UpdateGuestStatus(ctx context.Context, id string, status models.ApprovalStatus) (models.ApprovalStatus, error) {
	return db.updateStatus(ctx, "rsvp_guests", id, status, false)
}

func (db *DB) updateStatus(ctx context.Context, table, id string, status models.ApprovalStatus, touch bool) (models.ApprovalStatus, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var old string
	if err := tx.GetContext(ctx, &old, tx.Rebind(`SELECT status FROM `+table+` WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	if touch {
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE `+table+` SET status = ?, updated_at = ? WHERE id = ?`),
			string(status), time.Now().UTC(), id)
	} else {
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE `+table+` SET status = ? WHERE id = ?`), string(status), id)
	}
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return models.ApprovalStatus(old), nil
}

// --- Reply operations ---

// RecordReply stores a reply on one registrant or guest row.
func (db *DB) RecordReply(ctx context.Context, t models.AttendeeType, id string, r models.Reply) error {
	var table string
	switch t {
	case models.TypeRSVP:
		table = "rsvps"
	case models.TypeGuest:
		table = "rsvp_guests"
	default:
		return fmt.Errorf("unknown attendee type %q", t)
	}

	q := db.conn.Rebind(`UPDATE ` + table + ` SET reply_status = ?, reply_received_at = ?, reply_message = ? WHERE id = ?`)
	res, err := db.conn.ExecContext(ctx, q, string(r.Status), r.ReceivedAt.UTC(), r.Message, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
