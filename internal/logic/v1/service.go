package v1

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/company-service/internal/core/domain"
	"github.com/duynhne/company-service/middleware"
)

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Save(kind domain.ImageKind, fh *multipart.FileHeader) (string, error)
	Remove(url string) error
}

// CompanyService implements the company profile business flow
type CompanyService struct {
	repo   domain.CompanyRepository
	images ImageStore
	logger *zap.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(repo domain.CompanyRepository, images ImageStore, logger *zap.Logger) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{repo: repo, images: images, logger: logger}
}

// GetProfile retrieves the owner's company profile
func (s *CompanyService) GetProfile(ctx context.Context, ownerID int64) (*domain.CompanyProfile, error) {
	ctx, span := middleware.StartSpan(ctx, "company.get_profile", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("owner.id", ownerID),
	))
	defer span.End()

	profile, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			span.SetAttributes(attribute.Bool("profile.found", false))
			return nil, err
		}
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("get company profile: %w", err)
	}

	span.SetAttributes(attribute.Bool("profile.found", true))
	return profile, nil
}

// UpsertProfile creates the owner's profile or updates it in place
func (s *CompanyService) UpsertProfile(ctx context.Context, ownerID int64, in domain.CompanyInput) (domain.UpsertResult, error) {
	ctx, span := middleware.StartSpan(ctx, "company.upsert_profile", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("owner.id", ownerID),
	))
	defer span.End()

	res, err := s.repo.Upsert(ctx, ownerID, in)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			span.SetAttributes(attribute.Bool("request.valid", false))
			return domain.UpsertResult{}, err
		}
		middleware.RecordError(span, err)
		return domain.UpsertResult{}, fmt.Errorf("upsert company profile: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("company.id", res.ID),
		attribute.Bool("profile.created", res.Created),
	)
	if res.Created {
		span.AddEvent("company.created")
	}
	return res, nil
}

// UploadImage stores the file and points the profile's logo or banner at it.
// When the owner has no profile yet the stored file is removed again and
// ErrProfileNotFound is returned.
func (s *CompanyService) UploadImage(ctx context.Context, ownerID int64, kind domain.ImageKind, fh *multipart.FileHeader) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "company.upload_image", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("owner.id", ownerID),
		attribute.String("image.kind", string(kind)),
	))
	defer span.End()

	if _, err := domain.ParseImageKind(string(kind)); err != nil {
		return "", err
	}
	if fh == nil {
		return "", domain.ErrFileMissing
	}
	span.SetAttributes(attribute.Int64("image.size", fh.Size))

	url, err := s.images.Save(kind, fh)
	if err != nil {
		middleware.RecordError(span, err)
		return "", fmt.Errorf("store %s: %w", kind, err)
	}

	rows, err := s.repo.SetImageURL(ctx, ownerID, kind, url)
	if err != nil {
		middleware.RecordError(span, err)
		s.discard(url)
		return "", fmt.Errorf("set %s url: %w", kind, err)
	}
	if rows == 0 {
		span.SetAttributes(attribute.Bool("profile.found", false))
		s.discard(url)
		return "", fmt.Errorf("set %s url for owner %d: %w", kind, ownerID, domain.ErrProfileNotFound)
	}

	span.SetAttributes(attribute.String("image.url", url))
	return url, nil
}

func (s *CompanyService) discard(url string) {
	if err := s.images.Remove(url); err != nil {
		s.logger.Warn("Failed to remove orphaned upload", zap.String("url", url), zap.Error(err))
	}
}
