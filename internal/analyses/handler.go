package analyses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"letter-backend/internal/documents"
	"letter-backend/internal/extraction"
	"letter-backend/internal/shared/server/middleware"
	"letter-backend/internal/shared/server/respond"
	"letter-backend/internal/shared/telemetry"
	"letter-backend/internal/shared/util"
)

const (
	// multipartOverhead is allowed on top of the file limit for boundaries and form fields.
	multipartOverhead = 1 << 20
	defaultListLimit  = 20
	maxListLimit      = 50
)

// Profiles supplies the per-user settings an upload needs.
type Profiles interface {
	IntakeProfile(ctx context.Context, userID string) (language string, creds extraction.Credentials, err error)
}

type Handler struct {
	Svc      *Service
	Profiles Profiles
}

func NewHandler(svc *Service, profiles Profiles) *Handler {
	return &Handler{Svc: svc, Profiles: profiles}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.create)
	rg.GET("/analyses", h.list)
	rg.GET("/analyses/:id", h.get)
}

func (h *Handler) create(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		h.writeError(c, ErrAuthRequired)
		return
	}

	maxBytes := h.Svc.MaxUploadBytes()
	if c.Request.ContentLength > maxBytes+multipartOverhead {
		h.writeError(c, documents.CheckSize(c.Request.ContentLength, maxBytes))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, documents.ErrFileTooLarge)
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", []map[string]string{
			{"field": "file", "issue": "required"},
		})
		return
	}
	if err := documents.CheckSize(fileHeader.Size, maxBytes); err != nil {
		h.writeError(c, err)
		return
	}

	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid file name", []map[string]string{
			{"field": "file", "issue": "invalid name"},
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file could not be read", nil)
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	_ = f.Close()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file could not be read", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	language := strings.TrimSpace(c.PostForm("language"))
	var creds extraction.Credentials
	if h.Profiles != nil {
		preferred, userCreds, err := h.Profiles.IntakeProfile(ctx, userID)
		if err != nil {
			telemetry.Error("analyses.profile_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"user_id":    userID,
				"error":      err.Error(),
			})
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to load user settings", nil)
			return
		}
		creds = userCreds
		if language == "" {
			language = preferred
		}
	}

	doc := documents.Document{
		Data:        data,
		ContentType: documents.NormalizeContentType(fileHeader.Header.Get("Content-Type"), fileName, data),
		FileName:    fileName,
	}
	rec, err := h.Svc.Handle(ctx, Intake{
		UserID:      userID,
		Document:    doc,
		Language:    language,
		Credentials: creds,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set("recordId", rec.ID)
	c.Set("extractionMethod", rec.ExtractionMethod)
	respond.Created(c, rec)
}

func (h *Handler) list(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "service unavailable", nil)
		return
	}
	limit, ok := queryInt(c, "limit", defaultListLimit)
	if !ok || limit < 1 || limit > maxListLimit {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, fmt.Sprintf("limit must be between 1 and %d", maxListLimit), nil)
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok || offset < 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "offset must not be negative", nil)
		return
	}

	recs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if recs == nil {
		recs = []Record{}
	}
	respond.OK(c, listResponse{Items: recs, Limit: limit, Offset: offset})
}

func (h *Handler) get(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "service unavailable", nil)
		return
	}
	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Set("recordId", rec.ID)
	respond.OK(c, rec)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	code := ErrorCode(err)
	switch code {
	case ErrorCodeUnauthorized:
		respond.Error(c, http.StatusUnauthorized, code, "login required", nil)
	case ErrorCodeFileTooLarge:
		maxBytes := h.Svc.MaxUploadBytes()
		respond.Error(c, http.StatusBadRequest, code, fmt.Sprintf("file exceeds the limit of %d bytes", maxBytes), map[string]any{
			"maxBytes": maxBytes,
		})
	case ErrorCodeEmptyFile:
		respond.Error(c, http.StatusBadRequest, code, "file is empty", nil)
	case ErrorCodeUnsupportedType:
		respond.Error(c, http.StatusBadRequest, code, err.Error(), map[string]any{
			"supportedTypes": documents.SupportedTypes(),
		})
	case ErrorCodeExtractionFailed:
		respond.Error(c, http.StatusBadGateway, code, err.Error(), nil)
	case ErrorCodeAnalysisFailed:
		respond.Error(c, http.StatusBadGateway, code, "the letter could not be analyzed", nil)
	case ErrorCodeNotFound:
		respond.Error(c, http.StatusNotFound, code, "analysis not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "unexpected server error", nil)
	}
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
