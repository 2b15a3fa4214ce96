package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duynhne/company-service/internal/core/domain"
	"github.com/duynhne/company-service/middleware"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Envelope{Message: "Authentication required"})
}

// respondError maps domain errors to status codes. Anything unrecognised is a
// 500 carrying fallback as its message.
func (h *CompanyHandler) respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	var vErr *domain.ValidationError

	switch {
	case errors.As(err, &vErr):
		logger.Info("Validation failed", zap.Strings("fields", vErr.Fields))
		c.JSON(http.StatusBadRequest, Envelope{Message: vErr.Message, Fields: vErr.Fields})
	case errors.Is(err, domain.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, Envelope{Message: "Company profile not found"})
	case errors.Is(err, domain.ErrFileMissing):
		c.JSON(http.StatusBadRequest, Envelope{Message: "No file uploaded"})
	case errors.Is(err, domain.ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, Envelope{Message: fileTooLargeMessage(h.opts.MaxUploadBytes)})
	case errors.Is(err, domain.ErrUnsupportedFileType):
		c.JSON(http.StatusBadRequest, Envelope{Message: "Only image files (png, jpeg, gif, webp) are allowed"})
	case errors.Is(err, domain.ErrInvalidImageKind):
		c.JSON(http.StatusBadRequest, Envelope{Message: "Invalid image type"})
	default:
		logger.Error(fallback, zap.Error(err))
		resp := Envelope{Message: fallback}
		if h.opts.ExposeErrors {
			resp.Error = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func fileTooLargeMessage(maxBytes int64) string {
	if maxBytes > 0 && maxBytes%(1<<20) == 0 {
		return fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes>>20)
	}
	return fmt.Sprintf("File too large. Maximum size is %d bytes.", maxBytes)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Envelope{Message: "Route not found"})
}

// Recovery turns panics into the 500 envelope. The panic value is only
// included when exposeErrors is set.
func Recovery(exposeErrors bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		middleware.GetLoggerFromGinContext(c).Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		resp := Envelope{Message: "Something went wrong!"}
		if exposeErrors {
			resp.Error = fmt.Sprint(recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}
