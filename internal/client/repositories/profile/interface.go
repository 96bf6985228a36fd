// Package profile implements the local profile store: one durable blob per
// user email holding the projects, message histories, and preferences.
package profile

import (
	"context"

	"github.com/mazgpt/mazgpt-go/internal/client/models"
)

// Repository is a per-email keyed blob store with last-write-wins semantics.
//
// Load returns (nil, nil) when no profile is stored for the email, and also
// when the stored payload fails to parse: a corrupt blob must read as "no
// data" rather than propagate a parse fault. Loading under one email never
// returns another user's data.
type Repository interface {
	Save(ctx context.Context, email string, p *models.Profile) error
	Load(ctx context.Context, email string) (*models.Profile, error)
	Clear(ctx context.Context, email string) error
}
