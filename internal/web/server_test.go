package web

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tbe/internal/config"
	"github.com/JonMunkholm/tbe/internal/core"
)

const sitesTBE = `"TBL Global","Title","Sites"
"EOT Global",,
"TBL Sites","Zone","Country"
"UNITS","",""
"DESCRIPTION","",""
"DISPLAY","",""
"1","Asia","Bangladesh"
"2","Europe",""
`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Extract: config.ExtractConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
			Retained:      10,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc := core.NewService(core.NewMemoryStore(cfg.Extract.Retained), cfg.Extract)
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(t.Context()) })
	return s
}

type part struct {
	name    string
	content string
}

func multipartBody(t *testing.T, field string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(field, p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

type extractResponse struct {
	ID          string              `json:"id"`
	RecordCount int                 `json:"record_count"`
	Files       []core.FileResult   `json:"files"`
	Records     []map[string]string `json:"records"`
}

func postExtract(t *testing.T, s *Server, parts ...part) extractResponse {
	t.Helper()
	body, ct := multipartBody(t, "file", parts...)
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"max_concurrent":2`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestExtract_MultipleFilesInOrder(t *testing.T) {
	s := newTestServer(t, testConfig())

	out := postExtract(t, s,
		part{"a.csv", sitesTBE},
		part{"b.csv", "TBL Sites,Zone\nUNITS,\nDESCRIPTION,\nDISPLAY,\n1,Africa\n"},
	)

	require.Len(t, out.Files, 2)
	assert.Equal(t, "a.csv", out.Files[0].Name)
	assert.Equal(t, "b.csv", out.Files[1].Name)
	assert.Equal(t, 3, out.RecordCount)
	require.Len(t, out.Records, 3)
	assert.Equal(t, "Asia", out.Records[0]["Zone"])
	assert.Equal(t, "NULL", out.Records[1]["Country"])
	assert.Equal(t, "Africa", out.Records[2]["Zone"])
}

func TestExtract_NoFiles(t *testing.T) {
	s := newTestServer(t, testConfig())

	body, ct := multipartBody(t, "other", part{"a.csv", sitesTBE})
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := do(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE004", resp.Code)
}

func TestExtract_NotMultipart(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := do(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE003")
}

func TestExtract_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Extract.MaxFileSize = 16
	s := newTestServer(t, cfg)

	body, ct := multipartBody(t, "file", part{"big.csv", strings.Repeat("x", 2<<20)})
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := do(s, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE001")
}

func TestExtractionLookup(t *testing.T) {
	s := newTestServer(t, testConfig())
	out := postExtract(t, s, part{"a.csv", sitesTBE})

	t.Run("get", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/extractions/"+out.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var got extractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, out.ID, got.ID)
		assert.Equal(t, 2, got.RecordCount)
		assert.Empty(t, got.Records)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/extractions", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), out.ID)
		assert.Contains(t, rec.Body.String(), `"count":1`)
	})

	t.Run("records page", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/extractions/"+out.ID+"/records?limit=1&offset=1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			Count   int                 `json:"count"`
			Records []map[string]string `json:"records"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, 1, got.Count)
		assert.Equal(t, "Europe", got.Records[0]["Zone"])
	})

	t.Run("records preserve field order", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/extractions/"+out.ID+"/records?limit=1", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `{"Zone":"Asia","Country":"Bangladesh"}`)
	})

	t.Run("records csv", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/extractions/"+out.ID+"/records?format=csv", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), out.ID)

		rows, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Zone", "Country"},
			{"Asia", "Bangladesh"},
			{"Europe", "NULL"},
		}, rows)
	})

	t.Run("html page", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/extractions/"+out.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Bangladesh")
		assert.Contains(t, rec.Body.String(), `<td class="null">NULL</td>`)
	})

	t.Run("index lists extraction", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/extractions/"+out.ID)
		assert.Contains(t, rec.Body.String(), "a.csv")
	})
}

func TestExtractionLookup_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown id", "/api/extractions/7b1f1c2e-8c1a-4c50-9d1e-0f7a3c8b2d11", http.StatusNotFound, "EXT002"},
		{"bad id", "/api/extractions/not-a-uuid", http.StatusBadRequest, "EXT003"},
		{"unknown records", "/api/extractions/7b1f1c2e-8c1a-4c50-9d1e-0f7a3c8b2d11/records", http.StatusNotFound, "EXT002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestExtractionPage_NotFoundRendersHTML(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/extractions/7b1f1c2e-8c1a-4c50-9d1e-0f7a3c8b2d11", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "EXT002")
}

func TestExtractForm_RedirectsToPage(t *testing.T) {
	s := newTestServer(t, testConfig())

	body, ct := multipartBody(t, "file", part{"a.csv", sitesTBE})
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", ct)
	rec := do(s, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/extractions/"), loc)

	page := do(s, httptest.NewRequest(http.MethodGet, loc, nil))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Asia")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, cfg)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/extractions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/extractions", nil)
	req.Header.Set("X-API-Key", "wrong")
	assert.Equal(t, http.StatusForbidden, do(s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/extractions", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, do(s, req).Code)

	// Health stays open.
	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/api/health", nil)).Code)
}

func TestAPIKeyRequired_Pages(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, cfg)

	for _, target := range []string{"/", "/extractions/" + uuid.NewString()} {
		rec := do(s, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := do(s, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader("")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, do(s, req).Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/api/health", nil)).Code)
	}

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE001")
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))

	rl.stop()
	rl.stop()
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 7},
		{"limit=3", 3},
		{"limit=0", 0},
		{"limit=-1", 7},
		{"limit=abc", 7},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		assert.Equal(t, tt.want, queryInt(req, "limit", 7), tt.query)
	}
}
