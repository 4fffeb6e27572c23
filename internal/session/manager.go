package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mpernat/vellum/internal/errors"
)

// Manager persists sessions in the sqlite database. Sessions expire after
// the configured TTL of inactivity; every Save refreshes the deadline.
type Manager struct {
	db  *sql.DB
	ttl time.Duration
}

// NewManager creates a Manager backed by the given database.
func NewManager(db *sql.DB, ttl time.Duration) *Manager {
	return &Manager{db: db, ttl: ttl}
}

// Load retrieves the session with the given ID. An empty, unknown, or
// expired ID yields a fresh anonymous session with a new ID; the fresh
// session is not persisted until Save.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.fresh()
	}

	query := `
		SELECT id, username, flash_kind, flash_text, expires_at
		FROM sessions
		WHERE id = ?
	`
	var (
		sess      Session
		flashKind sql.NullString
		flashText sql.NullString
		expiresAt int64
	)
	err := m.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.Username, &flashKind, &flashText, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return m.fresh()
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if time.Now().Unix() >= expiresAt {
		// Expired rows are dropped eagerly so the ID cannot be revived.
		_, _ = m.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
		return m.fresh()
	}

	if flashKind.Valid && flashText.Valid {
		sess.restoreFlash(&Flash{Kind: flashKind.String, Message: flashText.String})
	}
	return &sess, nil
}

// Save upserts the session and refreshes its expiry deadline.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	now := time.Now().Unix()
	expiresAt := time.Now().Add(m.ttl).Unix()

	var flashKind, flashText sql.NullString
	if f := sess.peekFlash(); f != nil {
		flashKind = sql.NullString{String: f.Kind, Valid: true}
		flashText = sql.NullString{String: f.Message, Valid: true}
	}

	query := `
		INSERT INTO sessions (id, username, flash_kind, flash_text, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username   = excluded.username,
			flash_kind = excluded.flash_kind,
			flash_text = excluded.flash_text,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`
	_, err := m.db.ExecContext(ctx, query,
		sess.ID, sess.Username, flashKind, flashText, now, now, expiresAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Delete removes a session outright.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// PurgeExpired removes all sessions past their deadline and returns the
// number removed.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	result, err := m.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// fresh creates an unsaved anonymous session with a new ULID.
func (m *Manager) fresh() (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &Session{ID: id}, nil
}

// generateID generates a new ULID.
func generateID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
