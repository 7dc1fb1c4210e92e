package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"snipbin/pkg/domain"

	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", time.Now().UnixNano())
	s, err := NewSQLiteWithConfig(dsn, 10, 5, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *SQLite, name, email string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), &domain.User{
		Name:           name,
		Email:          email,
		HashedPassword: "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		Salt:           "salt-" + name,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func insertTestSnippet(t *testing.T, s *SQLite, authorID int64, title string, public bool) *domain.Snippet {
	t.Helper()
	sn := &domain.Snippet{
		UUID:      uuid.NewString(),
		Title:     title,
		Code:      "code of " + title,
		AuthorID:  authorID,
		IsPublic:  public,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateSnippet(context.Background(), sn); err != nil {
		t.Fatal(err)
	}
	return sn
}

func TestPing(t *testing.T) {
	s := newTestDB(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}
