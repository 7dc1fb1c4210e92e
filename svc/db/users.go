package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"time"

	"snipbin/pkg/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	minResponseTime    = 50 * time.Millisecond
	responseTimeJitter = 20 * time.Millisecond
)

// normalizeResponseTime pads lookups on credential data so an attacker
// cannot tell a hit from a miss by latency alone.
func normalizeResponseTime(start time.Time) {
	elapsed := time.Since(start)
	var jitterNanos int64
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		jitterNanos = int64(responseTimeJitter)
	} else {
		jitterNanos = int64(binary.BigEndian.Uint64(b[:]) % uint64(responseTimeJitter))
	}
	target := minResponseTime + time.Duration(jitterNanos)
	if elapsed < target {
		time.Sleep(target - elapsed)
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// CreateUser inserts the user row and returns the assigned id. Duplicate
// email or name maps to ErrUserExists without disclosing which field
// collided.
func (s *SQLite) CreateUser(ctx context.Context, u *domain.User) (int64, error) {
	if err := s.checkCircuit(); err != nil {
		return 0, err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	tx, err := s.db.BeginTx(queryCtx, nil)
	if err != nil {
		s.recordError(err)
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()
	q := `
	INSERT INTO users (name, email, hashed_password, salt, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(queryCtx, q, u.Name, u.Email, u.HashedPassword, u.Salt, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrUserExists
		}
		s.recordError(err)
		return 0, errors.Wrap(err, "insert user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.recordError(err)
		return 0, errors.Wrap(err, "last insert id")
	}
	if err := tx.Commit(); err != nil {
		s.recordError(err)
		return 0, errors.Wrap(err, "commit user")
	}
	s.recordError(nil)
	return id, nil
}

func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	start := time.Now()
	defer normalizeResponseTime(start)
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	q := `SELECT id, name, email, hashed_password, salt FROM users WHERE email = ?`
	var u domain.User
	err := s.db.QueryRowContext(queryCtx, q, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.Salt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "get user by email")
	}
	return &u, nil
}

func (s *SQLite) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	q := `SELECT id, name, email, hashed_password, salt FROM users WHERE id = ?`
	var u domain.User
	err := s.db.QueryRowContext(queryCtx, q, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.Salt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "get user by id")
	}
	return &u, nil
}
