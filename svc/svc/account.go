package svc

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"snipbin/metrics"
	"snipbin/pkg/domain"
	"snipbin/svc/auth"
	"snipbin/svc/db"
	"snipbin/svc/util"
)

// Account handles registration, credential checks and bearer-token
// resolution. Authentication failures all surface as ErrUnauthorized with
// the same generic message; which check failed is never disclosed.
type Account struct {
	db     *db.SQLite
	hasher *auth.Hasher
	tokens *auth.Tokens
}

func NewAccount(sqlDB *db.SQLite, h *auth.Hasher, t *auth.Tokens) *Account {
	if sqlDB == nil || h == nil || t == nil {
		panic("account service: nil dependency (db, hasher or tokens)")
	}
	return &Account{db: sqlDB, hasher: h, tokens: t}
}

// Register creates the user with a fresh random salt and a bcrypt hash of
// password + salt. The raw password is neither stored nor logged.
func (a *Account) Register(ctx context.Context, p domain.RegisterParams) (int64, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	name := util.SanitizeLine(p.Name)
	if email == "" || name == "" || p.Password == "" {
		return 0, domain.ErrValidation
	}
	salt, err := auth.GenerateSalt()
	if err != nil {
		return 0, errors.Wrap(err, "generate salt")
	}
	hash, err := a.hasher.Hash(p.Password, salt)
	if err != nil {
		return 0, errors.Wrap(err, "hash password")
	}
	id, err := a.db.CreateUser(ctx, &domain.User{
		Name:           name,
		Email:          email,
		HashedPassword: hash,
		Salt:           salt,
	})
	if err != nil {
		return 0, err
	}
	metrics.UserRegistered.Inc()
	util.Info().Int64("user_id", id).Str("email", util.RedactEmail(email)).Msg("user registered")
	return id, nil
}

// Authenticate looks the user up by email and verifies password + salt
// against the stored hash. Unknown emails burn a dummy bcrypt comparison
// so they are not cheaper than wrong passwords.
func (a *Account) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			a.hasher.VerifyDummy()
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !a.hasher.Verify(password, u.Salt, u.HashedPassword) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, domain.ErrUnauthorized
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return u, nil
}

// Login authenticates and issues a bearer token with the email as subject.
func (a *Account) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	u, err := a.Authenticate(ctx, email, password)
	if err != nil {
		return "", time.Time{}, err
	}
	token, exp, err := a.tokens.Issue(u.Email)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "issue token")
	}
	return token, exp, nil
}

// ResolveToken maps a bearer token to its user. Invalid tokens and tokens
// whose subject no longer exists are both rejected the same way.
func (a *Account) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	email, err := a.tokens.Verify(token)
	if err != nil {
		metrics.TokenRejected.Inc()
		return nil, domain.ErrUnauthorized
	}
	u, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenRejected.Inc()
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

func (a *Account) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return a.db.GetUserByID(ctx, id)
}
