package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Profile is the local copy of the user's remote profile. The remote
// profile store stays authoritative.
type Profile struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileRecord struct {
	Email     string `db:"email"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	UpdatedAt int64  `db:"updated_at"`
}

// Profiles manages cached profiles.
type Profiles struct {
	s *Session
}

func NewProfiles(s *Session) *Profiles {
	return &Profiles{s: s}
}

// Save upserts p by email.
func (p *Profiles) Save(ctx context.Context, prof Profile) error {
	const op = "save profile"
	if strings.TrimSpace(prof.Email) == "" {
		return invalidArgument(op, "empty email")
	}
	return p.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO profiles (email, first_name, last_name, updated_at)
			VALUES (:email, :first_name, :last_name, :updated_at)
			ON CONFLICT(email) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				updated_at = excluded.updated_at
		`, profileRecord{
			Email:     prof.Email,
			FirstName: prof.FirstName,
			LastName:  prof.LastName,
			UpdatedAt: p.s.timestamp(),
		})
		return err
	})
}

// Get returns the cached profile of email.
func (p *Profiles) Get(ctx context.Context, email string) (Profile, error) {
	var rec profileRecord
	err := p.s.Read(ctx, "get profile", func(ctx context.Context, q sqlx.QueryerContext) error {
		return getOne(ctx, q, &rec, "SELECT * FROM profiles WHERE email = ?", email)
	})
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Email:     rec.Email,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		UpdatedAt: fromNanos(rec.UpdatedAt),
	}, nil
}

// Delete drops the cached profile of email.
func (p *Profiles) Delete(ctx context.Context, email string) error {
	const op = "delete profile"
	return p.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE email = ?", email)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return newError(NotFound, op, fmt.Errorf("no profile for %q", email))
		}
		return nil
	})
}
