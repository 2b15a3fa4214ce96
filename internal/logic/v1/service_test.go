package v1

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/company-service/internal/core/domain"
)

type fakeRepo struct {
	profile   *domain.CompanyProfile
	getErr    error
	upsertRes domain.UpsertResult
	upsertErr error
	rows      int64
	setErr    error

	upserted  *domain.CompanyInput
	setURL    string
	setKind   domain.ImageKind
	setCalled bool
}

func (f *fakeRepo) GetByOwner(_ context.Context, _ int64) (*domain.CompanyProfile, error) {
	return f.profile, f.getErr
}

func (f *fakeRepo) Upsert(_ context.Context, _ int64, in domain.CompanyInput) (domain.UpsertResult, error) {
	if err := in.Validate(); err != nil {
		return domain.UpsertResult{}, err
	}
	f.upserted = &in
	return f.upsertRes, f.upsertErr
}

func (f *fakeRepo) SetImageURL(_ context.Context, _ int64, kind domain.ImageKind, url string) (int64, error) {
	f.setCalled = true
	f.setKind = kind
	f.setURL = url
	return f.rows, f.setErr
}

type fakeImages struct {
	url     string
	saveErr error
	removed []string
}

func (f *fakeImages) Save(kind domain.ImageKind, _ *multipart.FileHeader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return f.url, nil
}

func (f *fakeImages) Remove(url string) error {
	f.removed = append(f.removed, url)
	return nil
}

func validInput() domain.CompanyInput {
	return domain.CompanyInput{
		CompanyName: "Acme", Address: "1 Rd", City: "X", State: "Y",
		Country: "Z", PostalCode: "000", Industry: "Tech",
	}
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{profile: &domain.CompanyProfile{ID: 7, OwnerID: 42, CompanyName: "Acme"}}
	svc := NewCompanyService(repo, &fakeImages{}, nil)

	p, err := svc.GetProfile(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.CompanyName)
}

func TestGetProfile_NotFound(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{getErr: domain.ErrProfileNotFound}
	svc := NewCompanyService(repo, &fakeImages{}, nil)

	_, err := svc.GetProfile(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestGetProfile_StorageError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	svc := NewCompanyService(&fakeRepo{getErr: boom}, &fakeImages{}, nil)

	_, err := svc.GetProfile(context.Background(), 42)
	assert.ErrorIs(t, err, boom)
}

func TestUpsertProfile(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{upsertRes: domain.UpsertResult{ID: 7, Created: true}}
	svc := NewCompanyService(repo, &fakeImages{}, nil)

	res, err := svc.UpsertProfile(context.Background(), 42, validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertResult{ID: 7, Created: true}, res)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, "Acme", repo.upserted.CompanyName)
}

func TestUpsertProfile_Validation(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := NewCompanyService(repo, &fakeImages{}, nil)

	in := validInput()
	in.CompanyName = " "
	_, err := svc.UpsertProfile(context.Background(), 42, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, repo.upserted)
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{rows: 1}
	images := &fakeImages{url: "/uploads/logo-1.png"}
	svc := NewCompanyService(repo, images, nil)

	url, err := svc.UploadImage(context.Background(), 42, domain.ImageLogo, &multipart.FileHeader{Filename: "a.png", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/logo-1.png", url)
	assert.Equal(t, domain.ImageLogo, repo.setKind)
	assert.Equal(t, url, repo.setURL)
	assert.Empty(t, images.removed)
}

func TestUploadImage_NoProfileRemovesFile(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{rows: 0}
	images := &fakeImages{url: "/uploads/banner-1.png"}
	svc := NewCompanyService(repo, images, nil)

	_, err := svc.UploadImage(context.Background(), 999, domain.ImageBanner, &multipart.FileHeader{Filename: "b.png", Size: 10})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.Equal(t, []string{"/uploads/banner-1.png"}, images.removed)
}

func TestUploadImage_RepoErrorRemovesFile(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	images := &fakeImages{url: "/uploads/logo-1.png"}
	svc := NewCompanyService(&fakeRepo{setErr: boom}, images, nil)

	_, err := svc.UploadImage(context.Background(), 42, domain.ImageLogo, &multipart.FileHeader{Filename: "a.png", Size: 10})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"/uploads/logo-1.png"}, images.removed)
}

func TestUploadImage_StoreErrorSkipsRepo(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{rows: 1}
	images := &fakeImages{saveErr: domain.ErrUnsupportedFileType}
	svc := NewCompanyService(repo, images, nil)

	_, err := svc.UploadImage(context.Background(), 42, domain.ImageLogo, &multipart.FileHeader{Filename: "a.txt", Size: 10})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.False(t, repo.setCalled)
}

func TestUploadImage_BadInput(t *testing.T) {
	t.Parallel()

	svc := NewCompanyService(&fakeRepo{rows: 1}, &fakeImages{url: "/uploads/x.png"}, nil)

	_, err := svc.UploadImage(context.Background(), 42, domain.ImageKind("avatar"), &multipart.FileHeader{})
	assert.ErrorIs(t, err, domain.ErrInvalidImageKind)

	_, err = svc.UploadImage(context.Background(), 42, domain.ImageLogo, nil)
	assert.ErrorIs(t, err, domain.ErrFileMissing)
}
