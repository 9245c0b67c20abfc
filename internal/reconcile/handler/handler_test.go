package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook-recon/internal/config"
	"pricebook-recon/internal/reconcile/model"
)

const (
	oldCatalog = `{"id": "2025",
	  "items": [
	    {"manufacturer": "hager", "family": "bb1100", "model": "BB1100", "finish": "US3", "price": 125.50},
	    {"manufacturer": "lcn", "family": "4040xp", "model": "CTW-4", "price": 40}
	  ],
	  "options": [{"option_code": "EPT", "amount": 25}]}`
	newCatalog = `{"id": "2026",
	  "items": [
	    {"manufacturer": "hager", "family": "bb1100", "model": "BB1100", "finish": "US3", "price": 130.50},
	    {"manufacturer": "lcn", "family": "4040xp", "model": "CTW4", "price": 40}
	  ],
	  "options": [{"option_code": "EPT", "amount": 27.5}]}`
)

func testConfig() config.Config {
	return config.Config{Server: config.ServerConfig{MaxUploadMB: 8}}
}

func newUpload(t *testing.T, files map[string]string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".json")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/diff", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Diff(testConfig(), zerolog.Nop()).ServeHTTP(rec, req)
	return rec
}

func TestDiff(t *testing.T) {
	rec := serve(newUpload(t, map[string]string{"fileOld": oldCatalog, "fileNew": newCatalog}, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.DiffResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "2025", res.OldID)
	assert.Equal(t, "2026", res.NewID)
	assert.Equal(t, 1, res.Summary["price_changed"])
	assert.Equal(t, 1, res.Summary["renamed"])
	assert.Equal(t, 1, res.Summary["option_amount_changed"])
	assert.Len(t, res.Changes, 3)
}

func TestDiffFormOptions(t *testing.T) {
	rec := serve(newUpload(t,
		map[string]string{"fileOld": oldCatalog, "fileNew": newCatalog},
		map[string]string{"enable_fuzzy_matching": "false", "types": "added, removed"},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.DiffResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Summary["fuzzy_matches"])
	require.Len(t, res.Changes, 2)
	for _, c := range res.Changes {
		assert.Contains(t, []model.ChangeType{model.ChangeAdded, model.ChangeRemoved}, c.ChangeType)
	}
}

func TestDiffReviewOnly(t *testing.T) {
	req := newUpload(t,
		map[string]string{"fileOld": oldCatalog, "fileNew": newCatalog},
		map[string]string{"review_threshold": "0.95"},
	)
	req.URL.RawQuery = "review_only=1"
	rec := serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body reviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0.95, body.ReviewThreshold)
	require.Len(t, body.ReviewQueue, 1)
	assert.Equal(t, model.MethodFuzzy, body.ReviewQueue[0].MatchMethod)
	assert.NotContains(t, rec.Body.String(), `"changes"`)
}

func TestDiffReviewOnlyFiltered(t *testing.T) {
	files := map[string]string{"fileOld": oldCatalog, "fileNew": newCatalog}
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"matching level", "review_only=1&review_levels=high,medium", 1},
		{"other level", "review_only=1&review_levels=very_low", 0},
		{"method filter", "review_only=1&review_methods=exact_key", 0},
		{"max confidence above", "review_only=1&review_max_confidence=0.93", 1},
		{"max confidence below", "review_only=1&review_max_confidence=0.9", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newUpload(t, files, map[string]string{"review_threshold": "0.95"})
			req.URL.RawQuery = tt.query
			rec := serve(req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body reviewResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body.ReviewQueue, tt.want)
		})
	}
}

func TestDiffReviewOnlyBadFilter(t *testing.T) {
	req := newUpload(t, map[string]string{"fileOld": oldCatalog, "fileNew": newCatalog}, nil)
	req.URL.RawQuery = "review_only=1&review_levels=shaky"
	rec := serve(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "shaky")
}

func TestDiffBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		fields map[string]string
		want   string
	}{
		{
			name:  "missing new file",
			files: map[string]string{"fileOld": oldCatalog},
			want:  "missing fileNew",
		},
		{
			name:   "thresholds out of order",
			files:  map[string]string{"fileOld": oldCatalog, "fileNew": newCatalog},
			fields: map[string]string{"low_confidence_threshold": "0.7"},
			want:   "low_confidence_threshold",
		},
		{
			name:   "unknown change type",
			files:  map[string]string{"fileOld": oldCatalog, "fileNew": newCatalog},
			fields: map[string]string{"types": "price_changed,teleported"},
			want:   "teleported",
		},
		{
			name:  "broken json",
			files: map[string]string{"fileOld": `{`, "fileNew": newCatalog},
			want:  "fileOld.json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newUpload(t, tt.files, tt.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestFormOptionsOverlay(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/diff?fuzzy_threshold=85", nil)
	base := map[string]any{"fuzzy_threshold": 70, "review_threshold": 0.5}

	m := formOptions(req, base)

	assert.Equal(t, "85", m["fuzzy_threshold"])
	assert.Equal(t, 0.5, m["review_threshold"])
	assert.Equal(t, 70, base["fuzzy_threshold"], "base config is not modified")
}
