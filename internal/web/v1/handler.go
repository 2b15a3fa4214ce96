package v1

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/company-service/internal/core/domain"
	"github.com/duynhne/company-service/middleware"
)

// CompanyService is the business logic the handlers depend on.
type CompanyService interface {
	GetProfile(ctx context.Context, ownerID int64) (*domain.CompanyProfile, error)
	UpsertProfile(ctx context.Context, ownerID int64, in domain.CompanyInput) (domain.UpsertResult, error)
	UploadImage(ctx context.Context, ownerID int64, kind domain.ImageKind, fh *multipart.FileHeader) (string, error)
}

// HandlerOptions tune error reporting and upload limits.
type HandlerOptions struct {
	// ExposeErrors adds the internal error text to 500 responses (development only).
	ExposeErrors bool
	// MaxUploadBytes is the largest accepted image.
	MaxUploadBytes int64
}

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

// CompanyHandler handles HTTP requests for company profile operations
type CompanyHandler struct {
	service CompanyService
	opts    HandlerOptions
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(service CompanyService, opts HandlerOptions) *CompanyHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	return &CompanyHandler{service: service, opts: opts}
}

func startRequestSpan(c *gin.Context, name string) (context.Context, trace.Span) {
	return middleware.StartSpan(c.Request.Context(), name, trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
}

// GetProfile handles GET /api/company/profile
func (h *CompanyHandler) GetProfile(c *gin.Context) {
	ctx, span := startRequestSpan(c, "http.company.get_profile")
	defer span.End()
	zapLogger := middleware.GetLoggerFromGinContext(c)

	ownerID, ok := middleware.OwnerIDFromContext(c)
	if !ok {
		zapLogger.Warn("GetProfile: no owner_id in context")
		respondUnauthorized(c)
		return
	}

	profile, err := h.service.GetProfile(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		h.respondError(c, zapLogger, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    gin.H{"company": profile},
	})
}

// UpsertProfile handles POST and PUT /api/company/profile
func (h *CompanyHandler) UpsertProfile(c *gin.Context) {
	ctx, span := startRequestSpan(c, "http.company.upsert_profile")
	defer span.End()
	zapLogger := middleware.GetLoggerFromGinContext(c)

	ownerID, ok := middleware.OwnerIDFromContext(c)
	if !ok {
		zapLogger.Warn("UpsertProfile: no owner_id in context")
		respondUnauthorized(c)
		return
	}

	var req UpsertCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		zapLogger.Info("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, Envelope{Message: sanitizeValidationError(err)})
		return
	}

	in, err := req.ToInput()
	if err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		h.respondError(c, zapLogger, err, "Internal server error")
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	res, err := h.service.UpsertProfile(ctx, ownerID, in)
	if err != nil {
		span.RecordError(err)
		h.respondError(c, zapLogger, err, "Internal server error")
		return
	}

	message := "Company profile updated successfully"
	if res.Created {
		message = "Company profile created successfully"
	}
	zapLogger.Info(message, zap.Int64("company_id", res.ID))

	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    gin.H{"company_id": res.ID},
	})
}

// UploadLogo handles POST /api/company/logo
func (h *CompanyHandler) UploadLogo(c *gin.Context) {
	h.uploadImage(c, domain.ImageLogo)
}

// UploadBanner handles POST /api/company/banner
func (h *CompanyHandler) UploadBanner(c *gin.Context) {
	h.uploadImage(c, domain.ImageBanner)
}

var uploadMessages = map[domain.ImageKind]struct{ ok, failed, field string }{
	domain.ImageLogo:   {ok: "Logo uploaded successfully", failed: "Logo upload failed", field: "logo_url"},
	domain.ImageBanner: {ok: "Banner uploaded successfully", failed: "Banner upload failed", field: "banner_url"},
}

func (h *CompanyHandler) uploadImage(c *gin.Context, kind domain.ImageKind) {
	ctx, span := startRequestSpan(c, "http.company.upload_"+string(kind))
	defer span.End()
	zapLogger := middleware.GetLoggerFromGinContext(c)
	msgs := uploadMessages[kind]

	ownerID, ok := middleware.OwnerIDFromContext(c)
	if !ok {
		zapLogger.Warn("Upload: no owner_id in context", zap.String("kind", string(kind)))
		respondUnauthorized(c)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+multipartOverhead)

	fh, err := formImage(c, string(kind))
	if err != nil {
		h.respondError(c, zapLogger, err, msgs.failed)
		return
	}

	url, err := h.service.UploadImage(ctx, ownerID, kind, fh)
	if err != nil {
		span.RecordError(err)
		h.respondError(c, zapLogger, err, msgs.failed)
		return
	}

	zapLogger.Info(msgs.ok, zap.String("url", url))
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: msgs.ok,
		Data:    gin.H{msgs.field: url},
	})
}

// formImage reads the file from the field named after the image kind, or "file".
func formImage(c *gin.Context, field string) (*multipart.FileHeader, error) {
	for _, name := range []string{field, "file"} {
		fh, err := c.FormFile(name)
		switch {
		case err == nil:
			return fh, nil
		case errors.Is(err, http.ErrMissingFile):
			continue
		case isBodyTooLarge(err):
			return nil, domain.ErrFileTooLarge
		default:
			// Not a multipart body at all.
			return nil, domain.ErrFileMissing
		}
	}
	return nil, domain.ErrFileMissing
}
