package svc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"snipbin/cfg"
	"snipbin/metrics"
	"snipbin/pkg/domain"
	"snipbin/svc/db"
	"snipbin/svc/util"
)

const maxIDAttempts = 5

// Snippet owns snippet CRUD and the ownership/visibility rules. Mutations
// by anyone but the owner report not-found; existence of private snippets
// is never confirmed to non-owners.
type Snippet struct {
	db  *db.SQLite
	cfg *cfg.Cfg
}

func NewSnippet(sqlDB *db.SQLite, c *cfg.Cfg) *Snippet {
	if sqlDB == nil || c == nil {
		panic("snippet service: nil dependency (db or cfg)")
	}
	return &Snippet{db: sqlDB, cfg: c}
}

// newPublicID draws random UUIDs until one is unused. Each attempt uses a
// fresh value; an already-issued id is never re-offered.
func (s *Snippet) newPublicID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", errors.Wrap(err, "uuid generation")
		}
		exists, err := s.db.SnippetExists(ctx, id.String())
		if err != nil {
			return "", err
		}
		if !exists {
			return id.String(), nil
		}
	}
	return "", domain.ErrIDGeneration
}

func (s *Snippet) Create(ctx context.Context, owner *domain.User, p domain.SnippetCreateParams) (*domain.Snippet, error) {
	title := util.SanitizeLine(p.Title)
	code := util.SanitizeText(p.Code)
	if title == "" || code == "" {
		return nil, domain.ErrValidation
	}
	if int64(len(code)) > s.cfg.MaxSnippetSize {
		return nil, domain.ErrSnippetTooLarge
	}
	id, err := s.newPublicID(ctx)
	if err != nil {
		return nil, err
	}
	sn := &domain.Snippet{
		UUID:       id,
		Title:      title,
		Code:       code,
		AuthorID:   owner.ID,
		AuthorName: owner.Name,
		IsPublic:   p.IsPublic,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.CreateSnippet(ctx, sn); err != nil {
		return nil, errors.Wrap(err, "create snippet")
	}
	metrics.SnippetCreated.Inc()
	util.Info().
		Str("uuid", sn.UUID).
		Int64("author_id", owner.ID).
		Bool("is_public", sn.IsPublic).
		Msg("snippet created")
	return sn, nil
}

// Get resolves a snippet by its public id. Holding the id is treated as a
// sharing capability, so no authentication is required here.
func (s *Snippet) Get(ctx context.Context, publicID string) (*domain.Snippet, error) {
	sn, err := s.db.GetSnippetByUUID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	metrics.SnippetRetrieved.Inc()
	return sn, nil
}

func (s *Snippet) ListVisibleTo(ctx context.Context, user *domain.User) ([]domain.Snippet, error) {
	return s.db.ListVisibleSnippets(ctx, user.ID)
}

func (s *Snippet) Update(ctx context.Context, publicID string, owner *domain.User, p domain.SnippetUpdateParams) (*domain.Snippet, error) {
	p.Title = util.SanitizeLine(p.Title)
	p.Code = util.SanitizeText(p.Code)
	if p.Title == "" || p.Code == "" {
		return nil, domain.ErrValidation
	}
	if int64(len(p.Code)) > s.cfg.MaxSnippetSize {
		return nil, domain.ErrSnippetTooLarge
	}
	sn, err := s.db.UpdateSnippet(ctx, publicID, owner.ID, p)
	if err != nil {
		return nil, err
	}
	metrics.SnippetUpdated.Inc()
	return sn, nil
}

func (s *Snippet) Delete(ctx context.Context, publicID string, owner *domain.User) error {
	if err := s.db.DeleteSnippet(ctx, publicID, owner.ID); err != nil {
		return err
	}
	metrics.SnippetDeleted.Inc()
	util.Info().Str("uuid", publicID).Int64("author_id", owner.ID).Msg("snippet deleted")
	return nil
}

// ShareLink builds the canonical share URL for an existing snippet.
func (s *Snippet) ShareLink(ctx context.Context, publicID string) (string, error) {
	exists, err := s.db.SnippetExists(ctx, publicID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.ErrSnippetNotFound
	}
	metrics.ShareLinkIssued.Inc()
	return s.LinkFor(publicID), nil
}

func (s *Snippet) LinkFor(publicID string) string {
	return fmt.Sprintf("%s/snippets/get_snippet/%s", s.cfg.PublicHost, publicID)
}
