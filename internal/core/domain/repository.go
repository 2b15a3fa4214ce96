package domain

import "context"

// CompanyRepository defines the interface for company profile data access
type CompanyRepository interface {
	// GetByOwner returns ErrProfileNotFound when the owner has no profile.
	GetByOwner(ctx context.Context, ownerID int64) (*CompanyProfile, error)
	// Upsert creates the owner's profile or overwrites its mutable fields.
	Upsert(ctx context.Context, ownerID int64, in CompanyInput) (UpsertResult, error)
	// SetImageURL returns the number of rows updated; zero means no profile.
	SetImageURL(ctx context.Context, ownerID int64, kind ImageKind, url string) (int64, error)
}
