package db

import (
	"context"
	"database/sql"

	"snipbin/pkg/domain"

	"github.com/pkg/errors"
)

func (s *SQLite) CreateSnippet(ctx context.Context, sn *domain.Snippet) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	q := `
	INSERT INTO snippets (uuid, title, code, author_id, is_public, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(queryCtx, q,
		sn.UUID, sn.Title, sn.Code, sn.AuthorID, sn.IsPublic, sn.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIDGeneration
		}
		s.recordError(err)
		return errors.Wrap(err, "insert snippet")
	}
	sn.ID, _ = res.LastInsertId()
	s.recordError(nil)
	return nil
}

func (s *SQLite) SnippetExists(ctx context.Context, uuid string) (bool, error) {
	if err := s.checkCircuit(); err != nil {
		return false, err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	var exists int
	q := `SELECT 1 FROM snippets WHERE uuid = ? LIMIT 1`
	err := s.db.QueryRowContext(queryCtx, q, uuid).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	s.recordError(err)
	if err != nil {
		return false, errors.Wrap(err, "snippet exists check")
	}
	return exists == 1, nil
}

func (s *SQLite) GetSnippetByUUID(ctx context.Context, uuid string) (*domain.Snippet, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	q := `
	SELECT sn.id, sn.uuid, sn.title, sn.code, sn.author_id, u.name, sn.is_public, sn.created_at
	FROM snippets sn
	JOIN users u ON u.id = sn.author_id
	WHERE sn.uuid = ?
	`
	var sn domain.Snippet
	err := s.db.QueryRowContext(queryCtx, q, uuid).Scan(
		&sn.ID, &sn.UUID, &sn.Title, &sn.Code, &sn.AuthorID, &sn.AuthorName, &sn.IsPublic, &sn.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSnippetNotFound
	}
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "get snippet")
	}
	return &sn, nil
}

// ListVisibleSnippets returns every public snippet plus the caller's own
// private ones, newest first.
func (s *SQLite) ListVisibleSnippets(ctx context.Context, userID int64) ([]domain.Snippet, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	q := `
	SELECT sn.id, sn.uuid, sn.title, sn.code, sn.author_id, u.name, sn.is_public, sn.created_at
	FROM snippets sn
	JOIN users u ON u.id = sn.author_id
	WHERE sn.is_public = 1 OR sn.author_id = ?
	ORDER BY sn.created_at DESC, sn.id DESC
	`
	rows, err := s.db.QueryContext(queryCtx, q, userID)
	if err != nil {
		s.recordError(err)
		return nil, errors.Wrap(err, "list snippets")
	}
	defer rows.Close()
	snippets := make([]domain.Snippet, 0)
	for rows.Next() {
		var sn domain.Snippet
		if err := rows.Scan(
			&sn.ID, &sn.UUID, &sn.Title, &sn.Code, &sn.AuthorID, &sn.AuthorName, &sn.IsPublic, &sn.CreatedAt,
		); err != nil {
			s.recordError(err)
			return nil, errors.Wrap(err, "scan snippet")
		}
		snippets = append(snippets, sn)
	}
	if err := rows.Err(); err != nil {
		s.recordError(err)
		return nil, errors.Wrap(err, "iterate snippets")
	}
	s.recordError(nil)
	return snippets, nil
}

// UpdateSnippet replaces title/code/visibility in one statement guarded by
// the ownership predicate. Zero rows affected means missing or not owned;
// both collapse into ErrSnippetNotFound.
func (s *SQLite) UpdateSnippet(ctx context.Context, uuid string, authorID int64, p domain.SnippetUpdateParams) (*domain.Snippet, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	tx, err := s.db.BeginTx(queryCtx, nil)
	if err != nil {
		s.recordError(err)
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()
	q := `
	UPDATE snippets SET title = ?, code = ?, is_public = ?
	WHERE uuid = ? AND author_id = ?
	`
	res, err := tx.ExecContext(queryCtx, q, p.Title, p.Code, p.IsPublic, uuid, authorID)
	if err != nil {
		s.recordError(err)
		return nil, errors.Wrap(err, "update snippet")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		s.recordError(err)
		return nil, errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return nil, domain.ErrSnippetNotFound
	}
	var sn domain.Snippet
	sel := `
	SELECT sn.id, sn.uuid, sn.title, sn.code, sn.author_id, u.name, sn.is_public, sn.created_at
	FROM snippets sn
	JOIN users u ON u.id = sn.author_id
	WHERE sn.uuid = ?
	`
	if err := tx.QueryRowContext(queryCtx, sel, uuid).Scan(
		&sn.ID, &sn.UUID, &sn.Title, &sn.Code, &sn.AuthorID, &sn.AuthorName, &sn.IsPublic, &sn.CreatedAt,
	); err != nil {
		s.recordError(err)
		return nil, errors.Wrap(err, "reload snippet")
	}
	if err := tx.Commit(); err != nil {
		s.recordError(err)
		return nil, errors.Wrap(err, "commit update")
	}
	s.recordError(nil)
	return &sn, nil
}

// DeleteSnippet applies the same ownership predicate as UpdateSnippet.
func (s *SQLite) DeleteSnippet(ctx context.Context, uuid string, authorID int64) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := s.queryCtx(ctx)
	defer cancel()
	q := `DELETE FROM snippets WHERE uuid = ? AND author_id = ?`
	res, err := s.db.ExecContext(queryCtx, q, uuid, authorID)
	if err != nil {
		s.recordError(err)
		return errors.Wrap(err, "delete snippet")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		s.recordError(err)
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return domain.ErrSnippetNotFound
	}
	s.recordError(nil)
	return nil
}
