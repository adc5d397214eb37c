package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"letter-backend/internal/extraction"
)

type fakeProfiles struct {
	language string
	creds    extraction.Credentials
	err      error
}

func (f fakeProfiles) IntakeProfile(context.Context, string) (string, extraction.Credentials, error) {
	return f.language, f.creds, f.err
}

func newTestRouter(h *Handler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	})
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func multipartUpload(t *testing.T, fileName, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func postUpload(router *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body %q: %v", resp.Body.String(), err)
	}
	return payload
}

func TestCreateAnalysisReturnsRecord(t *testing.T) {
	model := &fakeModel{answer: fullJSONAnswer}
	svc, _ := newTestService(model)
	router := newTestRouter(NewHandler(svc, fakeProfiles{language: "uk"}), "user-1")

	body, ct := multipartUpload(t, "miete.txt", "text/plain", []byte(germanLetter), nil)
	resp := postUpload(router, body, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var rec Record
	if err := json.Unmarshal(resp.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.ExtractionMethod != "plain-text" || rec.Urgency != UrgencyHigh || rec.FileName != "miete.txt" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.TargetLanguage != "uk" || !strings.Contains(model.systems[0], "Ukrainian") {
		t.Fatalf("expected profile language to be used, got %q", rec.TargetLanguage)
	}
}

func TestCreateAnalysisFormLanguageWins(t *testing.T) {
	model := &fakeModel{answer: fullJSONAnswer}
	svc, _ := newTestService(model)
	router := newTestRouter(NewHandler(svc, fakeProfiles{language: "uk"}), "user-1")

	body, ct := multipartUpload(t, "miete.txt", "text/plain", []byte(germanLetter), map[string]string{"language": "tr"})
	resp := postUpload(router, body, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(model.systems[0], "Turkish") {
		t.Fatalf("expected form language in prompt")
	}
}

func TestCreateAnalysisErrors(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	tests := []struct {
		name       string
		userID     string
		fileName   string
		fileType   string
		data       []byte
		profiles   Profiles
		wantStatus int
		wantCode   string
		detail     string
	}{
		{name: "anonymous", fileName: "a.txt", fileType: "text/plain", data: []byte("hallo"), wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "missing file", userID: "user-1", wantStatus: http.StatusBadRequest, wantCode: "validation_error"},
		{name: "too large", userID: "user-1", fileName: "a.txt", fileType: "text/plain", data: bytes.Repeat([]byte("a"), 65), wantStatus: http.StatusBadRequest, wantCode: "file_too_large"},
		{name: "empty", userID: "user-1", fileName: "a.txt", fileType: "text/plain", data: []byte{}, wantStatus: http.StatusBadRequest, wantCode: "empty_file"},
		{name: "unsupported", userID: "user-1", fileName: "a.zip", fileType: "application/zip", data: []byte("PK\x03\x04"), wantStatus: http.StatusBadRequest, wantCode: "unsupported_type"},
		{
			name: "no extraction path", userID: "user-1", fileName: "scan.png", fileType: "image/png", data: png,
			wantStatus: http.StatusBadGateway, wantCode: "extraction_failed", detail: "llm-vision: no credential",
		},
		{
			name: "profile failure", userID: "user-1", fileName: "a.txt", fileType: "text/plain", data: []byte("hallo"),
			profiles: fakeProfiles{err: errors.New("db down")}, wantStatus: http.StatusInternalServerError, wantCode: "internal_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{answer: fullJSONAnswer}
			svc, _ := newTestService(model)
			svc.MaxBytes = 64
			router := newTestRouter(NewHandler(svc, tt.profiles), tt.userID)

			body, ct := multipartUpload(t, tt.fileName, tt.fileType, tt.data, nil)
			resp := postUpload(router, body, ct)
			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			payload := decodeError(t, resp)
			if payload["code"] != tt.wantCode {
				t.Fatalf("expected code %q, got %v", tt.wantCode, payload["code"])
			}
			if tt.detail != "" && !strings.Contains(payload["detail"].(string), tt.detail) {
				t.Fatalf("expected detail containing %q, got %v", tt.detail, payload["detail"])
			}
			if model.callCount() != 0 {
				t.Fatalf("model called for failed upload")
			}
		})
	}
}

func TestCreateAnalysisModelFailureIs502(t *testing.T) {
	svc, _ := newTestService(&fakeModel{err: errors.New("boom")})
	router := newTestRouter(NewHandler(svc, nil), "user-1")

	body, ct := multipartUpload(t, "a.txt", "text/plain", []byte(germanLetter), nil)
	resp := postUpload(router, body, ct)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if payload := decodeError(t, resp); payload["code"] != "analysis_failed" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestListAndGetAnalyses(t *testing.T) {
	svc, _ := newTestService(&fakeModel{answer: fullJSONAnswer})
	ownerRouter := newTestRouter(NewHandler(svc, nil), "user-1")
	otherRouter := newTestRouter(NewHandler(svc, nil), "user-2")

	body, ct := multipartUpload(t, "a.txt", "text/plain", []byte(germanLetter), nil)
	resp := postUpload(ownerRouter, body, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}
	var created Record
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = httptest.NewRecorder()
	ownerRouter.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analyses?limit=10", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("list: %d", resp.Code)
	}
	var list listResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != created.ID || list.Limit != 10 {
		t.Fatalf("unexpected list: %+v", list)
	}

	resp = httptest.NewRecorder()
	otherRouter.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty list for other user, got %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	otherRouter.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+created.ID, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign record, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	ownerRouter.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+created.ID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	ownerRouter.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analyses?limit=51", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", resp.Code)
	}
}
