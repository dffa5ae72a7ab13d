package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	r := NewRegistry()
	r.Register(Operation{
		Method:    "GET",
		Path:      "/auth",
		Summary:   "Begin install",
		Query:     map[string]bool{"shop": true},
		Responses: map[string]string{"302": "Redirect to consent", "400": "Bad shop"},
	})
	doc := r.Build("shopinstall", "1")

	assert.Equal(t, "3.1.0", doc["openapi"])
	get := doc["paths"].(map[string]any)["/auth"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, "Begin install", get["summary"])
	params := get["parameters"].([]map[string]any)
	require.Len(t, params, 1)
	assert.Equal(t, "shop", params[0]["name"])
	assert.Equal(t, true, params[0]["required"])

	resp := get["responses"].(map[string]any)
	assert.NotContains(t, resp["302"].(map[string]any), "content")
	assert.Contains(t, resp["400"].(map[string]any), "content")
}

func TestServeHandler(t *testing.T) {
	r := NewRegistry()
	r.Register(Operation{Method: "GET", Path: "/healthz", Responses: map[string]string{"200": "ok"}})

	rec := httptest.NewRecorder()
	r.ServeHandler("shopinstall", "1")(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/healthz")
}
