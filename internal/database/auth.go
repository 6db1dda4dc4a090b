package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"clipforge/internal/logging"
)

// SessionDuration is how long an editor session stays valid.
const SessionDuration = 7 * 24 * time.Hour

// ErrBadCredentials indicates a failed password check.
var ErrBadCredentials = errors.New("invalid password")

// HasUsers reports whether the single editor account has been set up.
func (d *Database) HasUsers() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// CreateUser creates the single editor account with the given password.
func (d *Database) CreateUser(password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_user", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = d.db.ExecContext(ctx, "INSERT INTO users (password_hash) VALUES (?)", string(hash))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdatePassword replaces the account password and invalidates all
// existing sessions.
func (d *Database) UpdatePassword(password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_password", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err = d.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = strftime('%s', 'now')", string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	_, err = d.db.ExecContext(ctx, "DELETE FROM sessions")
	return err
}

// ValidatePassword checks the password and returns the user when valid.
func (d *Database) ValidatePassword(password string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("validate_password", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var u User
	err = d.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users LIMIT 1").Scan(&u.ID, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		err = ErrBadCredentials
		return nil, ErrBadCredentials
	}
	return &u, nil
}

// CreateSession issues a new session token for the user.
func (d *Database) CreateSession(userID int64) (*Session, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_session", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	s := &Session{
		UserID:    userID,
		Token:     hex.EncodeToString(buf),
		ExpiresAt: time.Now().Add(SessionDuration),
	}
	res, err := d.db.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)",
		s.UserID, s.Token, s.ExpiresAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.ID, _ = res.LastInsertId()
	return s, nil
}

// ValidateSession returns the session for a token if it exists and has
// not expired.
func (d *Database) ValidateSession(token string) (*Session, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("validate_session", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var s Session
	var expires int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at FROM sessions WHERE token = ?", token,
	).Scan(&s.ID, &s.UserID, &s.Token, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNoRows
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}
	s.ExpiresAt = time.Unix(expires, 0)
	if time.Now().After(s.ExpiresAt) {
		err = ErrNoRows
		return nil, ErrNoRows
	}
	return &s, nil
}

// DeleteSession removes a session token (logout).
func (d *Database) DeleteSession(token string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_session", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions drops sessions past their expiry. Called
// periodically from main.
func (d *Database) CleanExpiredSessions() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < strftime('%s', 'now')"); err != nil {
		logging.Warn("failed to clean expired sessions: %v", err)
	}
}
