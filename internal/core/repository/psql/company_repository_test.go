package psql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/company-service/internal/core/domain"
)

var profileColumns = []string{
	"id", "owner_id", "company_name", "address", "city", "state", "country", "postal_code",
	"website", "industry", "founded_date", "description", "logo_url", "banner_url", "social_links",
	"created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func newMockRepo(t *testing.T) (*CompanyRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewCompanyRepository(mock), mock
}

func acmeInput() domain.CompanyInput {
	return domain.CompanyInput{
		CompanyName: "Acme",
		Address:     "1 Rd",
		City:        "X",
		State:       "Y",
		Country:     "Z",
		PostalCode:  "000",
		Industry:    "Tech",
	}
}

func TestGetByOwner_Found(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	founded := time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectProfileQuery)).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
			int64(7), int64(42), "Acme", "1 Rd", "X", "Y", "Z", "000",
			strPtr("https://acme.test"), "Tech", pgtype.Date{Time: founded, Valid: true}, nil,
			strPtr("/uploads/logo.png"), nil, strPtr(`[{"type":"linkedin","url":"https://x"}]`),
			created, created,
		))

	p, err := repo.GetByOwner(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, int64(42), p.OwnerID)
	assert.Equal(t, "Acme", p.CompanyName)
	require.NotNil(t, p.Website)
	assert.Equal(t, "https://acme.test", *p.Website)
	assert.Nil(t, p.Description)
	require.NotNil(t, p.FoundedDate)
	assert.Equal(t, "2019-03-04", p.FoundedDate.String())
	require.NotNil(t, p.LogoURL)
	assert.Equal(t, "/uploads/logo.png", *p.LogoURL)
	assert.Nil(t, p.BannerURL)
	assert.Equal(t, []domain.SocialLink{{Type: "linkedin", URL: "https://x"}}, p.SocialLinks)
	assert.Equal(t, created, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByOwner_CorruptSocialLinks(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(selectProfileQuery)).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
			int64(7), int64(42), "Acme", "1 Rd", "X", "Y", "Z", "000",
			nil, "Tech", pgtype.Date{}, nil, nil, nil, strPtr("{not json"),
			now, now,
		))

	p, err := repo.GetByOwner(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, p.SocialLinks)
	assert.Empty(t, p.SocialLinks)
	assert.Nil(t, p.FoundedDate)
}

func TestGetByOwner_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectProfileQuery)).
		WithArgs(int64(999)).
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.GetByOwner(context.Background(), 999)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestGetByOwner_StorageError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(selectProfileQuery)).
		WithArgs(int64(42)).
		WillReturnError(boom)

	_, err := repo.GetByOwner(context.Background(), 42)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestUpsert_Created(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(upsertProfileQuery)).
		WithArgs(int64(42), "Acme", "1 Rd", "X", "Y", "Z", "000",
			(*string)(nil), "Tech", pgtype.Date{}, (*string)(nil), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created"}).AddRow(int64(7), true))

	res, err := repo.Upsert(context.Background(), 42, acmeInput())
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{ID: 7, Created: true}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_UpdatedWithOptionalFields(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	founded, err := domain.ParseDate("2019-03-04")
	require.NoError(t, err)

	in := acmeInput()
	in.Industry = "Finance"
	in.Website = strPtr("https://acme.test")
	in.FoundedDate = &founded
	in.SocialLinks = []domain.SocialLink{{Type: "linkedin", URL: "https://x"}}

	mock.ExpectQuery(regexp.QuoteMeta(upsertProfileQuery)).
		WithArgs(int64(42), "Acme", "1 Rd", "X", "Y", "Z", "000",
			strPtr("https://acme.test"), "Finance",
			pgtype.Date{Time: founded.Time, Valid: true},
			(*string)(nil),
			strPtr(`[{"type":"linkedin","url":"https://x"}]`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created"}).AddRow(int64(7), false))

	res, err := repo.Upsert(context.Background(), 42, in)
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{ID: 7, Created: false}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_ValidationIssuesNoStatement(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	in := acmeInput()
	in.City = ""

	_, err := repo.Upsert(context.Background(), 42, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	// No expectations were registered, so any statement would have failed the mock.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_StorageError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(upsertProfileQuery)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New(`insert or update on table "company_profile" violates foreign key constraint`))

	_, err := repo.Upsert(context.Background(), 42, acmeInput())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "upsert company profile of owner 42")
}

func TestSetImageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		kind  domain.ImageKind
		query string
		rows  int64
	}{
		{name: "logo", kind: domain.ImageLogo, query: setLogoURLQuery, rows: 1},
		{name: "banner", kind: domain.ImageBanner, query: setBannerURLQuery, rows: 1},
		{name: "no profile is a no-op", kind: domain.ImageLogo, query: setLogoURLQuery, rows: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, mock := newMockRepo(t)

			mock.ExpectExec(regexp.QuoteMeta(tt.query)).
				WithArgs("/uploads/x.png", int64(999)).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))

			n, err := repo.SetImageURL(context.Background(), 999, tt.kind, "/uploads/x.png")
			require.NoError(t, err)
			assert.Equal(t, tt.rows, n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSetImageURL_InvalidKind(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	_, err := repo.SetImageURL(context.Background(), 1, domain.ImageKind("avatar"), "/uploads/x.png")
	assert.ErrorIs(t, err, domain.ErrInvalidImageKind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
