package domain

// User carries the stored credential material. Salt and HashedPassword are
// only meaningful as a pair and never leave the process.
type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	Salt           string `json:"-"`
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
}
