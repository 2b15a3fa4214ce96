package psql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/duynhne/company-service/internal/core/domain"
)

// DBTX is the query surface the repository needs. It is satisfied by
// *database.Gateway, *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CompanyRepository implements domain.CompanyRepository using PostgreSQL
type CompanyRepository struct {
	db DBTX
}

var _ domain.CompanyRepository = (*CompanyRepository)(nil)

// NewCompanyRepository creates a new PostgreSQL company repository
func NewCompanyRepository(db DBTX) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const selectProfileQuery = `SELECT id, owner_id, company_name, address, city, state, country, postal_code,
	website, industry, founded_date, description, logo_url, banner_url, social_links, created_at, updated_at
FROM company_profile WHERE owner_id = $1`

// upsertProfileQuery relies on the unique index on owner_id. xmax is zero only
// for a freshly inserted row, which tells the caller whether it created or updated.
const upsertProfileQuery = `INSERT INTO company_profile (
	owner_id, company_name, address, city, state, country, postal_code,
	website, industry, founded_date, description, social_links
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (owner_id) DO UPDATE SET
	company_name = EXCLUDED.company_name,
	address = EXCLUDED.address,
	city = EXCLUDED.city,
	state = EXCLUDED.state,
	country = EXCLUDED.country,
	postal_code = EXCLUDED.postal_code,
	website = EXCLUDED.website,
	industry = EXCLUDED.industry,
	founded_date = EXCLUDED.founded_date,
	description = EXCLUDED.description,
	social_links = EXCLUDED.social_links,
	updated_at = CURRENT_TIMESTAMP
RETURNING id, (xmax = 0) AS created`

const (
	setLogoURLQuery   = `UPDATE company_profile SET logo_url = $1 WHERE owner_id = $2`
	setBannerURLQuery = `UPDATE company_profile SET banner_url = $1 WHERE owner_id = $2`
)

// GetByOwner retrieves the owner's company profile
func (r *CompanyRepository) GetByOwner(ctx context.Context, ownerID int64) (*domain.CompanyProfile, error) {
	var (
		p           domain.CompanyProfile
		foundedDate pgtype.Date
		socialLinks *string
	)

	// Nullable columns scan into pointers
	err := r.db.QueryRow(ctx, selectProfileQuery, ownerID).Scan(
		&p.ID,
		&p.OwnerID,
		&p.CompanyName,
		&p.Address,
		&p.City,
		&p.State,
		&p.Country,
		&p.PostalCode,
		&p.Website,
		&p.Industry,
		&foundedDate,
		&p.Description,
		&p.LogoURL,
		&p.BannerURL,
		&socialLinks,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get profile of owner %d: %w", ownerID, domain.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("query company profile: %w", err)
	}

	if foundedDate.Valid {
		d := domain.NewDate(foundedDate.Time)
		p.FoundedDate = &d
	}
	p.SocialLinks = domain.DecodeSocialLinks(socialLinks)

	return &p, nil
}

// Upsert creates the owner's profile or overwrites its mutable fields in one
// statement. Logo and banner URLs are never touched here.
func (r *CompanyRepository) Upsert(ctx context.Context, ownerID int64, in domain.CompanyInput) (domain.UpsertResult, error) {
	if err := in.Validate(); err != nil {
		return domain.UpsertResult{}, err
	}

	socialLinks, err := domain.EncodeSocialLinks(in.SocialLinks)
	if err != nil {
		return domain.UpsertResult{}, err
	}

	var foundedDate pgtype.Date
	if in.FoundedDate != nil {
		foundedDate = pgtype.Date{Time: in.FoundedDate.Time, Valid: true}
	}

	var res domain.UpsertResult
	err = r.db.QueryRow(ctx, upsertProfileQuery,
		ownerID,
		in.CompanyName,
		in.Address,
		in.City,
		in.State,
		in.Country,
		in.PostalCode,
		in.Website,
		in.Industry,
		foundedDate,
		in.Description,
		socialLinks,
	).Scan(&res.ID, &res.Created)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("upsert company profile of owner %d: %w", ownerID, err)
	}

	return res, nil
}

// SetImageURL stores the logo or banner URL. Zero rows affected means the
// owner has no profile; that is reported through the count, not an error.
func (r *CompanyRepository) SetImageURL(ctx context.Context, ownerID int64, kind domain.ImageKind, url string) (int64, error) {
	var query string
	switch kind {
	case domain.ImageLogo:
		query = setLogoURLQuery
	case domain.ImageBanner:
		query = setBannerURLQuery
	default:
		return 0, fmt.Errorf("set image url %q: %w", kind, domain.ErrInvalidImageKind)
	}

	result, err := r.db.Exec(ctx, query, url, ownerID)
	if err != nil {
		return 0, fmt.Errorf("update %s url: %w", kind, err)
	}
	return result.RowsAffected(), nil
}
