package principal

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("principal not found")

// Kind discriminates account tables sharing one signing authority.
type Kind string

const (
	KindUser    Kind = "user"
	KindStudent Kind = "student"
)

// Record is the persistence view. It never crosses the authority boundary.
type Record struct {
	ID           string
	Kind         Kind
	Email        string
	FullName     string
	Role         Role
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is what handlers see of an authenticated caller.
type Summary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
	Kind     Kind   `json:"-"`
}

func (r *Record) Summary() *Summary {
	return &Summary{
		ID:       r.ID,
		Email:    r.Email,
		FullName: r.FullName,
		Role:     r.Role,
		IsActive: r.IsActive,
		Kind:     r.Kind,
	}
}

// Store is the persistence collaborator. Misses return ErrNotFound; any other error
// means the store could not answer.
type Store interface {
	FindPrincipalByID(ctx context.Context, kind Kind, id string) (*Record, error)
	FindPrincipalByEmail(ctx context.Context, kind Kind, email string) (*Record, error)
}
