package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

// SessionStore resolves opaque client session tokens stored as SHA-256 hashes.
type SessionStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ ports.SessionResolver = (*SessionStore)(nil)

// NewSessionStore wires the client_sessions table.
func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// HashToken is the at-rest form of a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the client id owning an unexpired session.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrUnauthorized
	}

	query, args, err := psql.Select("client_id").
		From("client_sessions").
		Where(sq.Eq{"token_hash": HashToken(token)}).
		Where(sq.Gt{"expires_at": s.now().UTC()}).
		ToSql()
	if err != nil {
		return "", &domain.StorageError{Op: "build session lookup", Err: err}
	}

	var clientID string
	err = s.db.GetContext(ctx, &clientID, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", &domain.StorageError{Op: "lookup session", Err: err}
	}
	return clientID, nil
}

// RegistrationStore reads client registration types.
type RegistrationStore struct {
	db *sqlx.DB
}

var _ ports.RegistrationRepository = (*RegistrationStore)(nil)

// NewRegistrationStore wires the client_registrations table.
func NewRegistrationStore(db *sqlx.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

// RegistrationTypes lists the distinct registration_type values of a client.
func (r *RegistrationStore) RegistrationTypes(ctx context.Context, clientID string) ([]string, error) {
	query, args, err := psql.Select("DISTINCT registration_type").
		From("client_registrations").
		Where(sq.Eq{"client_id": clientID}).
		OrderBy("registration_type").
		ToSql()
	if err != nil {
		return nil, &domain.StorageError{Op: "build registrations", Err: err}
	}

	var types []string
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		return nil, &domain.StorageError{Op: "list registrations", Err: err}
	}
	return types, nil
}
